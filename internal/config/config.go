// Package config loads dexroute configuration: defaults, then an optional
// YAML or TOML file, then DEXROUTE_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("config: invalid value")

type Config struct {
	Logging Logging `yaml:"logging" toml:"logging"`
	Server  Server  `yaml:"server" toml:"server"`
	Routing Routing `yaml:"routing" toml:"routing"`
}

type Logging struct {
	Level  string `yaml:"level" toml:"level"`
	Pretty bool   `yaml:"pretty" toml:"pretty"`
}

type Server struct {
	Addr                string `yaml:"addr" toml:"addr"`
	ReadTimeoutSeconds  int    `yaml:"read_timeout_seconds" toml:"read_timeout_seconds"`
	WriteTimeoutSeconds int    `yaml:"write_timeout_seconds" toml:"write_timeout_seconds"`
	Snapshot            string `yaml:"snapshot" toml:"snapshot"` // pool snapshot served by `dexroute serve`
}

// Routing holds the request-independent search limits.
type Routing struct {
	MaxHops         int     `yaml:"max_hops" toml:"max_hops"`
	MaxPriceImpact  float64 `yaml:"max_price_impact" toml:"max_price_impact"`
	MaxSplits       int     `yaml:"max_splits" toml:"max_splits"`
	IterationBudget int     `yaml:"iteration_budget" toml:"iteration_budget"`
	TimeoutMillis   int     `yaml:"timeout_ms" toml:"timeout_ms"`
	MinLiquidity    float64 `yaml:"min_liquidity" toml:"min_liquidity"`
	MinSplitAmount  float64 `yaml:"min_split_amount" toml:"min_split_amount"`
	SplitPolicy     string  `yaml:"split_policy" toml:"split_policy"`
	Strict          bool    `yaml:"strict" toml:"strict"`
	RejectCycles    bool    `yaml:"reject_negative_cycles" toml:"reject_negative_cycles"`
	GasPerHop       float64 `yaml:"gas_per_hop" toml:"gas_per_hop"`
	GasPrice        float64 `yaml:"gas_price" toml:"gas_price"`
}

// Timeout is TimeoutMillis as a Duration; zero disables the wall-clock budget.
func (r Routing) Timeout() time.Duration {
	return time.Duration(r.TimeoutMillis) * time.Millisecond
}

// Validate rejects out-of-domain limits.
func (r Routing) Validate() error {
	switch {
	case r.MaxHops < 1:
		return fmt.Errorf("%w: max_hops %d < 1", ErrInvalid, r.MaxHops)
	case r.MaxPriceImpact <= 0 || r.MaxPriceImpact > 1:
		return fmt.Errorf("%w: max_price_impact %g outside (0,1]", ErrInvalid, r.MaxPriceImpact)
	case r.MaxSplits < 1 || r.MaxSplits > 10:
		return fmt.Errorf("%w: max_splits %d outside [1,10]", ErrInvalid, r.MaxSplits)
	case r.IterationBudget < 1:
		return fmt.Errorf("%w: iteration_budget %d < 1", ErrInvalid, r.IterationBudget)
	case r.TimeoutMillis < 0:
		return fmt.Errorf("%w: timeout_ms %d < 0", ErrInvalid, r.TimeoutMillis)
	case r.MinLiquidity < 0 || r.MinSplitAmount < 0:
		return fmt.Errorf("%w: negative liquidity or split minimum", ErrInvalid)
	case r.GasPerHop < 0 || r.GasPrice < 0:
		return fmt.Errorf("%w: negative gas parameters", ErrInvalid)
	}
	switch strings.ToLower(r.SplitPolicy) {
	case "redistribute", "partial":
	default:
		return fmt.Errorf("%w: split_policy %q", ErrInvalid, r.SplitPolicy)
	}

	return nil
}

// Validate checks every section.
func (c Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("%w: server.addr is empty", ErrInvalid)
	}

	return c.Routing.Validate()
}

// Default returns the built-in configuration.
func Default() Config {
	var c Config
	c.Logging.Level = "info"
	c.Logging.Pretty = false
	c.Server.Addr = ":8080"
	c.Server.ReadTimeoutSeconds = 5
	c.Server.WriteTimeoutSeconds = 10
	c.Routing = DefaultRouting()
	return c
}

// DefaultRouting returns the default search limits.
func DefaultRouting() Routing {
	return Routing{
		MaxHops:         4,
		MaxPriceImpact:  0.05,
		MaxSplits:       3,
		IterationBudget: 16,
		TimeoutMillis:   250,
		MinLiquidity:    100,
		MinSplitAmount:  10,
		SplitPolicy:     "redistribute",
		GasPerHop:       0.000001,
		GasPrice:        0.000005,
	}
}

// Load builds the configuration from defaults, the file named by
// DEXROUTE_CONFIG (if set) and environment overrides, then validates it.
func Load() (Config, error) {
	return LoadFile(os.Getenv("DEXROUTE_CONFIG"))
}

// LoadFile is Load with an explicit file path; an empty path skips the file.
// Files ending in .toml are decoded as TOML, anything else as YAML.
func LoadFile(path string) (Config, error) {
	c := Default()
	if path != "" {
		if err := decodeFile(path, &c); err != nil {
			return Config{}, err
		}
	}
	if err := applyEnv(&c); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}

	return c, nil
}

func decodeFile(path string, c *Config) error {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.DecodeFile(path, c); err != nil {
			return fmt.Errorf("config: decode %s: %w", path, err)
		}
		return nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("config: decode %s: %w", path, err)
	}

	return nil
}

func applyEnv(c *Config) error {
	if v := os.Getenv("DEXROUTE_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("DEXROUTE_LOG_PRETTY"); v != "" {
		c.Logging.Pretty = truthy(v)
	}
	if v := os.Getenv("DEXROUTE_HTTP_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("DEXROUTE_SNAPSHOT"); v != "" {
		c.Server.Snapshot = v
	}
	if v := os.Getenv("DEXROUTE_SPLIT_POLICY"); v != "" {
		c.Routing.SplitPolicy = v
	}
	if v := os.Getenv("DEXROUTE_STRICT"); v != "" {
		c.Routing.Strict = truthy(v)
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"DEXROUTE_MAX_HOPS", &c.Routing.MaxHops},
		{"DEXROUTE_MAX_SPLITS", &c.Routing.MaxSplits},
		{"DEXROUTE_ITERATION_BUDGET", &c.Routing.IterationBudget},
	}
	for _, e := range ints {
		v := os.Getenv(e.key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalid, e.key, v)
		}
		*e.dst = n
	}
	if v := os.Getenv("DEXROUTE_MAX_PRICE_IMPACT"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%w: DEXROUTE_MAX_PRICE_IMPACT=%q", ErrInvalid, v)
		}
		c.Routing.MaxPriceImpact = f
	}
	if v := os.Getenv("DEXROUTE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: DEXROUTE_TIMEOUT=%q", ErrInvalid, v)
		}
		c.Routing.TimeoutMillis = int(d / time.Millisecond)
	}

	return nil
}

func truthy(v string) bool {
	return v == "1" || strings.EqualFold(v, "true")
}
