package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sampleSnapshot = filepath.Join("..", "..", "snapshot", "testdata", "sample.yaml")

// run executes the root command with args after resetting flag state.
func run(t *testing.T, args ...string) error {
	t.Helper()
	t.Setenv("DEXROUTE_CONFIG", "")
	configPath, snapshotPath, jsonOutput = "", "", false
	routeSplits, routeSlippage, routeMaxHops, routeHaircut = 1, 0, 0, 0
	statsFrom, statsMaxHops = "", 0
	rootCmd.SetArgs(args)

	return rootCmd.Execute()
}

func TestRatiosCommand(t *testing.T) {
	require.NoError(t, run(t, "ratios", "3"))
	require.NoError(t, run(t, "--json", "ratios", "10"))
	assert.Error(t, run(t, "ratios", "11"))
	assert.Error(t, run(t, "ratios", "three"))
}

func TestStatsCommand(t *testing.T) {
	require.NoError(t, run(t, "--snapshot", sampleSnapshot, "stats"))
	require.NoError(t, run(t, "--snapshot", sampleSnapshot, "--json", "stats", "--from", "RAY", "--max-hops", "1"))
	assert.Error(t, run(t, "--snapshot", sampleSnapshot, "stats", "--from", "DOGE"))
	assert.Error(t, run(t, "stats"), "no snapshot configured")
}

func TestRouteCommand(t *testing.T) {
	require.NoError(t, run(t, "--snapshot", sampleSnapshot, "route", "--from", "USDC", "--to", "WETH", "--amount", "1000"))
	require.NoError(t, run(t, "--snapshot", sampleSnapshot, "--json", "route",
		"--from", "USDC", "--to", "WETH", "--amount", "1000", "--splits", "3"))
	require.NoError(t, run(t, "--snapshot", sampleSnapshot, "route", "--from", "USDC", "--to", "WETH", "--amount", "100", "--haircut", "0.5"))

	assert.Error(t, run(t, "--snapshot", sampleSnapshot, "route", "--from", "USDC", "--to", "USDC", "--amount", "1"))
	assert.Error(t, run(t, "--snapshot", sampleSnapshot, "--config", filepath.Join("testdata", "missing.yaml"),
		"route", "--from", "USDC", "--to", "WETH", "--amount", "1"))
}
