package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/katalvlaran/dexroute/bfs"
	"github.com/katalvlaran/dexroute/core"
	"github.com/katalvlaran/dexroute/route"
	"github.com/katalvlaran/dexroute/split"
)

var ratiosCmd = &cobra.Command{
	Use:   "ratios N",
	Short: "Print the split ratio schedule for N legs",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid leg count %q", args[0])
		}
		ratios, err := split.Ratios(n)
		if err != nil {
			return err
		}
		if jsonOutput {
			data, err := json.Marshal(ratios)
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		}
		for i, r := range ratios {
			fmt.Printf("%2d  %s\n", i+1, route.Percent(r))
		}
		return nil
	},
}

var (
	statsFrom    string
	statsMaxHops int
)

// reachView is the JSON form of a reachability walk.
type reachView struct {
	From    string         `json:"from"`
	MaxHops int            `json:"max_hops"`
	Depth   map[string]int `json:"depth"`
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show snapshot size, or the assets reachable from --from",
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := loadSnapshot()
		if err != nil {
			return err
		}
		if statsFrom != "" {
			return printReach(cmd, g)
		}
		st := g.Stats()
		if jsonOutput {
			data, err := json.MarshalIndent(st, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		}
		fmt.Println("Snapshot")
		fmt.Printf("  Assets: %d\n", st.Assets)
		fmt.Printf("  Pools:  %d\n", st.Pools)
		fmt.Printf("  DEXes:  %d\n", st.DEXes)
		return nil
	},
}

func printReach(cmd *cobra.Command, g *core.Graph) error {
	hops := statsMaxHops
	if hops == 0 {
		hops = cfg.Routing.MaxHops
	}
	res, err := bfs.Walk(g, core.NormalizeAsset(statsFrom),
		bfs.WithContext(cmd.Context()),
		bfs.WithMaxDepth(hops),
		bfs.WithFilterPool(bfs.MinLiquidity(cfg.Routing.MinLiquidity)),
	)
	if err != nil {
		return err
	}
	if jsonOutput {
		v := reachView{From: string(res.Source), MaxHops: hops, Depth: make(map[string]int, len(res.Depth))}
		for a, d := range res.Depth {
			v.Depth[string(a)] = d
		}
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}
	fmt.Printf("Reachable from %s within %d hops: %d assets\n", res.Source, hops, len(res.Order))
	for _, a := range res.Order {
		via := ""
		if p, ok := res.Parent[a]; ok {
			via = fmt.Sprintf("  via %s (%s)", p.ID, p.DEX)
		}
		fmt.Printf("  %d  %s%s\n", res.Depth[a], a, via)
	}
	return nil
}

func init() {
	statsCmd.Flags().StringVar(&statsFrom, "from", "", "list assets reachable from this asset")
	statsCmd.Flags().IntVar(&statsMaxHops, "max-hops", 0, "hop limit for --from (0 uses routing.max_hops)")
}
