// Package snapshot loads pool snapshots from YAML or JSON files into a
// core.Graph. It stands in for the live pool-state feed: every request is
// served from one immutable snapshot.
//
// File layout:
//
//	tokens:
//	  - symbol: USDC
//	    address: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"
//	    decimals: 6
//	dexes:
//	  - name: uniswap-v2
//	    fee_rate: "0.003"
//	pools:
//	  - id: usdc-weth
//	    dex: uniswap-v2
//	    from: USDC                  # symbol or address, any letter case
//	    to: WETH
//	    base_rate: "0.0004"
//	    liquidity: "2500000"
//	    max_trade_size: "500000"
//	    reserve_in_raw: "2500000000000"   # integer units, scaled by the token decimals
//	    reserve_out_raw: "1000000000000000000000"
//	    bidirectional: true         # also add to→from with the inverse rate
//
// Numeric fields are parsed as exact decimals (quoted or bare) before being
// converted to float64 for the search.
package snapshot

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/katalvlaran/dexroute/core"
)

var (
	// ErrBadSnapshot wraps every decoding or validation failure.
	ErrBadSnapshot = errors.New("snapshot: invalid snapshot")

	// ErrUnknownFormat indicates an unsupported file extension or Format.
	ErrUnknownFormat = errors.New("snapshot: unknown format")
)

// Format selects the decoder.
type Format int

const (
	FormatYAML Format = iota
	FormatJSON
)

// FormatOf maps a file extension to a Format.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownFormat, path)
	}
}

// File is the on-disk document.
type File struct {
	Tokens []Token `yaml:"tokens" json:"tokens"`
	DEXes  []DEX   `yaml:"dexes" json:"dexes"`
	Pools  []Pool  `yaml:"pools" json:"pools"`
}

type Token struct {
	Symbol   string `yaml:"symbol" json:"symbol"`
	Address  string `yaml:"address" json:"address"`
	Decimals uint8  `yaml:"decimals" json:"decimals"`
}

type DEX struct {
	Name    string `yaml:"name" json:"name"`
	FeeRate string `yaml:"fee_rate" json:"fee_rate"`
}

// Pool is one directed pool. MaxTradeSize is required and must stay below
// Liquidity: up to the cap is held back from the tradable depth.
type Pool struct {
	ID            string `yaml:"id" json:"id"`
	DEX           string `yaml:"dex" json:"dex"`
	From          string `yaml:"from" json:"from"`
	To            string `yaml:"to" json:"to"`
	BaseRate      string `yaml:"base_rate" json:"base_rate"`
	FeeRate       string `yaml:"fee_rate" json:"fee_rate"`
	Liquidity     string `yaml:"liquidity" json:"liquidity"`
	MaxTradeSize  string `yaml:"max_trade_size" json:"max_trade_size"`
	MinTradeSize  string `yaml:"min_trade_size" json:"min_trade_size"`
	ReserveIn     string `yaml:"reserve_in" json:"reserve_in"`
	ReserveOut    string `yaml:"reserve_out" json:"reserve_out"`
	ReserveInRaw  string `yaml:"reserve_in_raw" json:"reserve_in_raw"`
	ReserveOutRaw string `yaml:"reserve_out_raw" json:"reserve_out_raw"`
	Bidirectional bool   `yaml:"bidirectional" json:"bidirectional"`
}

// Load reads path and builds a graph; the format follows the extension.
func Load(path string, opts ...core.GraphOption) (*core.Graph, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("snapshot: open %s: %w", path, err)
	}
	defer f.Close()

	g, err := Decode(f, format, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return g, nil
}

// Decode parses r and builds a graph. JSON documents are decoded by the YAML
// decoder, which accepts them as flow-style YAML.
func Decode(r io.Reader, format Format, opts ...core.GraphOption) (*core.Graph, error) {
	if format != FormatYAML && format != FormatJSON {
		return nil, fmt.Errorf("%w: %d", ErrUnknownFormat, format)
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("snapshot: read: %w", err)
	}
	var doc File
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %v", ErrBadSnapshot, err)
	}

	return doc.Build(opts...)
}

// Build converts the document into a graph.
func (doc File) Build(opts ...core.GraphOption) (*core.Graph, error) {
	b, err := newBuilder(doc)
	if err != nil {
		return nil, err
	}
	opts = append([]core.GraphOption{core.WithAssets(b.assets...)}, opts...)
	g := core.NewGraph(opts...)

	for i, sp := range doc.Pools {
		fwd, err := b.pool(sp)
		if err != nil {
			return nil, fmt.Errorf("%w: pool %d (%s): %v", ErrBadSnapshot, i, sp.ID, err)
		}
		if err := g.AddPool(fwd); err != nil {
			return nil, fmt.Errorf("%w: pool %d (%s): %w", ErrBadSnapshot, i, sp.ID, err)
		}
		if !sp.Bidirectional {
			continue
		}
		if err := g.AddPool(reverse(fwd, b.decimalRate(sp))); err != nil {
			return nil, fmt.Errorf("%w: pool %d (%s) reverse: %w", ErrBadSnapshot, i, sp.ID, err)
		}
	}

	return g, nil
}

// builder resolves token references and DEX defaults.
type builder struct {
	bySymbol  map[string]Token
	byAddress map[core.Asset]Token
	fees      map[string]decimal.Decimal
	assets    []core.Asset
}

func newBuilder(doc File) (*builder, error) {
	b := &builder{
		bySymbol:  make(map[string]Token, len(doc.Tokens)),
		byAddress: make(map[core.Asset]Token, len(doc.Tokens)),
		fees:      make(map[string]decimal.Decimal, len(doc.DEXes)),
	}
	for i, t := range doc.Tokens {
		if t.Symbol == "" && t.Address == "" {
			return nil, fmt.Errorf("%w: token %d has neither symbol nor address", ErrBadSnapshot, i)
		}
		if t.Symbol != "" {
			if _, dup := b.bySymbol[t.Symbol]; dup {
				return nil, fmt.Errorf("%w: duplicate token symbol %q", ErrBadSnapshot, t.Symbol)
			}
			b.bySymbol[t.Symbol] = t
		}
		if t.Address != "" {
			addr := core.NormalizeAsset(t.Address)
			if _, dup := b.byAddress[addr]; dup {
				return nil, fmt.Errorf("%w: duplicate token address %s", ErrBadSnapshot, addr)
			}
			b.byAddress[addr] = t
		}
		b.assets = append(b.assets, assetOf(t))
	}
	for _, d := range doc.DEXes {
		fee, err := parseDecimal(d.FeeRate, "fee_rate")
		if err != nil {
			return nil, fmt.Errorf("%w: dex %s: %v", ErrBadSnapshot, d.Name, err)
		}
		b.fees[d.Name] = fee
	}

	return b, nil
}

// assetOf is the node identity of a declared token: its symbol when it has
// one, else its normalized address.
func assetOf(t Token) core.Asset {
	if t.Symbol != "" {
		return core.Asset(t.Symbol)
	}

	return core.NormalizeAsset(t.Address)
}

// resolve maps a pool endpoint reference to its asset and declared token.
func (b *builder) resolve(ref string) (core.Asset, Token, bool) {
	ref = strings.TrimSpace(ref)
	if t, ok := b.bySymbol[ref]; ok {
		return assetOf(t), t, true
	}
	norm := core.NormalizeAsset(ref)
	if t, ok := b.byAddress[norm]; ok {
		return assetOf(t), t, true
	}

	return norm, Token{}, false
}

func (b *builder) pool(sp Pool) (core.Pool, error) {
	from, fromTok, fromOK := b.resolve(sp.From)
	to, toTok, toOK := b.resolve(sp.To)

	rate, err := parseDecimal(sp.BaseRate, "base_rate")
	if err != nil {
		return core.Pool{}, err
	}
	fee, ok := b.fees[sp.DEX]
	if sp.FeeRate != "" || !ok {
		if fee, err = parseDecimal(sp.FeeRate, "fee_rate"); err != nil {
			return core.Pool{}, err
		}
	}
	liq, err := parseDecimal(sp.Liquidity, "liquidity")
	if err != nil {
		return core.Pool{}, err
	}
	if strings.TrimSpace(sp.MaxTradeSize) == "" {
		return core.Pool{}, errors.New("max_trade_size is required")
	}
	maxTrade, err := parseDecimal(sp.MaxTradeSize, "max_trade_size")
	if err != nil {
		return core.Pool{}, err
	}
	// The capped amount is held back, so a cap at the liquidity leaves nothing to trade.
	if !maxTrade.LessThan(liq) {
		return core.Pool{}, fmt.Errorf("max_trade_size %s must be below liquidity %s", maxTrade, liq)
	}
	minTrade, err := parseDecimal(sp.MinTradeSize, "min_trade_size")
	if err != nil {
		return core.Pool{}, err
	}
	rin, err := reserve(sp.ReserveIn, sp.ReserveInRaw, fromTok, fromOK, "reserve_in")
	if err != nil {
		return core.Pool{}, err
	}
	rout, err := reserve(sp.ReserveOut, sp.ReserveOutRaw, toTok, toOK, "reserve_out")
	if err != nil {
		return core.Pool{}, err
	}

	return core.Pool{
		ID:             sp.ID,
		DEX:            sp.DEX,
		From:           from,
		To:             to,
		BaseRate:       rate.InexactFloat64(),
		FeeRate:        fee.InexactFloat64(),
		TotalLiquidity: liq.InexactFloat64(),
		MaxTradeSize:   maxTrade.InexactFloat64(),
		MinTradeSize:   minTrade.InexactFloat64(),
		ReserveIn:      rin.InexactFloat64(),
		ReserveOut:     rout.InexactFloat64(),
	}, nil
}

// decimalRate returns the exact base rate of sp; pool() has already validated it.
func (b *builder) decimalRate(sp Pool) decimal.Decimal {
	d, _ := parseDecimal(sp.BaseRate, "base_rate")

	return d
}

// reverse derives the to→from pool. Liquidity and trade bounds are
// re-expressed in To units through the base rate; reserves swap sides.
func reverse(p core.Pool, rate decimal.Decimal) core.Pool {
	inv := decimal.NewFromInt(1).DivRound(rate, 18).InexactFloat64()
	r := rate.InexactFloat64()
	rev := core.Pool{
		DEX:            p.DEX,
		From:           p.To,
		To:             p.From,
		BaseRate:       inv,
		FeeRate:        p.FeeRate,
		TotalLiquidity: p.TotalLiquidity * r,
		MaxTradeSize:   p.MaxTradeSize * r,
		MinTradeSize:   p.MinTradeSize * r,
		ReserveIn:      p.ReserveOut,
		ReserveOut:     p.ReserveIn,
	}
	if p.ID != "" {
		rev.ID = p.ID + ":rev"
	}

	return rev
}

// reserve parses a decimal reserve or a raw integer reserve scaled by the
// token's decimals. Absent reserves are zero.
func reserve(dec, raw string, tok Token, declared bool, field string) (decimal.Decimal, error) {
	switch {
	case dec != "" && raw != "":
		return decimal.Zero, fmt.Errorf("%s and %s_raw are mutually exclusive", field, field)
	case raw != "":
		if !declared {
			return decimal.Zero, fmt.Errorf("%s_raw needs a declared token for its decimals", field)
		}
		u, err := uint256.FromDecimal(strings.TrimSpace(raw))
		if err != nil {
			return decimal.Zero, fmt.Errorf("%s_raw %q: %v", field, raw, err)
		}
		return decimal.NewFromBigInt(u.ToBig(), -int32(tok.Decimals)), nil
	default:
		return parseDecimal(dec, field)
	}
}

// parseDecimal parses s exactly; empty is zero, negatives are rejected.
func parseDecimal(s, field string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s %q: %v", field, s, err)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%s %q is negative", field, s)
	}

	return d, nil
}
