package api

import (
	"github.com/katalvlaran/dexroute/route"
	"github.com/katalvlaran/dexroute/router"
	"github.com/katalvlaran/dexroute/split"
)

// RouteRequest is the JSON body of POST /v1/route.
type RouteRequest struct {
	From              string  `json:"from"`
	To                string  `json:"to"`
	Amount            float64 `json:"amount"`
	Splits            int     `json:"splits,omitempty"`
	SlippageTolerance float64 `json:"slippage_tolerance,omitempty"`
	MaxHops           int     `json:"max_hops,omitempty"`
}

type HopView struct {
	Pool          string  `json:"pool"`
	DEX           string  `json:"dex,omitempty"`
	From          string  `json:"from"`
	To            string  `json:"to"`
	Input         float64 `json:"input"`
	Output        float64 `json:"output"`
	EffectiveRate float64 `json:"effective_rate"`
	PriceImpact   float64 `json:"price_impact"`
	FeeAmount     float64 `json:"fee_amount"`
}

type RouteView struct {
	Summary          string    `json:"summary"`
	Hops             []HopView `json:"hops"`
	InputAmount      float64   `json:"input_amount"`
	OutputAmount     float64   `json:"output_amount"`
	EffectiveRate    float64   `json:"effective_rate"`
	TotalFee         float64   `json:"total_fee"`
	TotalPriceImpact float64   `json:"total_price_impact"`
	HopCount         int       `json:"hop_count"`
	EfficiencyScore  float64   `json:"efficiency_score"`
	GasEstimate      float64   `json:"gas_estimate"`
}

type LegView struct {
	Index int       `json:"index"`
	Ratio float64   `json:"ratio"`
	Route RouteView `json:"route"`
}

type FailedLegView struct {
	Index  int     `json:"index"`
	Ratio  float64 `json:"ratio"`
	Amount float64 `json:"amount"`
	Error  string  `json:"error"`
}

type SplitView struct {
	Policy           string          `json:"policy"`
	Passes           int             `json:"passes"`
	Legs             []LegView       `json:"legs"`
	Failed           []FailedLegView `json:"failed,omitempty"`
	InputAmount      float64         `json:"input_amount"`
	AchievedInput    float64         `json:"achieved_input"`
	OutputAmount     float64         `json:"output_amount"`
	EffectiveRate    float64         `json:"effective_rate"`
	TotalPriceImpact float64         `json:"total_price_impact"`
	EfficiencyScore  float64         `json:"efficiency_score"`
	GasEstimate      float64         `json:"gas_estimate"`
	Iterations       int             `json:"iterations"`
}

type AnalysisView struct {
	AvgPriceImpact  float64  `json:"avg_price_impact"`
	TotalFeeAmount  float64  `json:"total_fee_amount"`
	EfficiencyScore float64  `json:"efficiency_score"`
	Recommendations []string `json:"recommendations,omitempty"`
}

// ResponseView is the JSON form of a router.Response.
type ResponseView struct {
	RequestID      string        `json:"request_id"`
	Route          *RouteView    `json:"route,omitempty"`
	Split          *SplitView    `json:"split,omitempty"`
	Analysis       *AnalysisView `json:"analysis,omitempty"`
	ExpectedOutput float64       `json:"expected_output"`
	MinOutput      float64       `json:"min_output"`
	Iterations     int           `json:"iterations"`
	State          string        `json:"state"`
	PrunedEdges    int           `json:"pruned_edges"`
	NegativeCycle  bool          `json:"negative_cycle,omitempty"`
	DurationMs     float64       `json:"duration_ms"`
	Error          string        `json:"error,omitempty"`
}

// ErrorView is the body of every non-2xx response.
type ErrorView struct {
	RequestID string `json:"request_id,omitempty"`
	Kind      string `json:"kind"`
	Error     string `json:"error"`
}

func NewRouteView(r route.Route) RouteView {
	v := RouteView{
		Summary:          route.Summary(r),
		Hops:             make([]HopView, len(r.Hops)),
		InputAmount:      r.InputAmount,
		OutputAmount:     r.OutputAmount,
		EffectiveRate:    r.EffectiveRate,
		TotalFee:         r.TotalFee,
		TotalPriceImpact: r.TotalPriceImpact,
		HopCount:         r.HopCount,
		EfficiencyScore:  r.EfficiencyScore,
		GasEstimate:      r.GasEstimate,
	}
	for i, h := range r.Hops {
		v.Hops[i] = HopView{
			Pool:          h.Pool.ID,
			DEX:           h.Pool.DEX,
			From:          string(h.Pool.From),
			To:            string(h.Pool.To),
			Input:         h.Input,
			Output:        h.Output,
			EffectiveRate: h.EffectiveRate,
			PriceImpact:   h.PriceImpact,
			FeeAmount:     h.FeeAmount,
		}
	}

	return v
}

func NewSplitView(s *split.SplitRoute) *SplitView {
	v := &SplitView{
		Policy:           s.Policy.String(),
		Passes:           s.Passes,
		Legs:             make([]LegView, len(s.Legs)),
		InputAmount:      s.InputAmount,
		AchievedInput:    s.AchievedInput,
		OutputAmount:     s.OutputAmount,
		EffectiveRate:    s.EffectiveRate,
		TotalPriceImpact: s.TotalPriceImpact,
		EfficiencyScore:  s.EfficiencyScore,
		GasEstimate:      s.GasEstimate,
		Iterations:       s.Iterations,
	}
	for i, l := range s.Legs {
		v.Legs[i] = LegView{Index: l.Index, Ratio: l.Ratio, Route: NewRouteView(l.Route)}
	}
	for _, f := range s.Failed {
		v.Failed = append(v.Failed, FailedLegView{Index: f.Index, Ratio: f.Ratio, Amount: f.Amount, Error: f.Err.Error()})
	}

	return v
}

// NewResponseView flattens resp for JSON output.
func NewResponseView(resp *router.Response) ResponseView {
	v := ResponseView{
		RequestID:      resp.RequestID,
		ExpectedOutput: resp.ExpectedOutput,
		MinOutput:      resp.MinOutput,
		Iterations:     resp.Iterations,
		State:          resp.State.String(),
		PrunedEdges:    resp.PrunedEdges,
		NegativeCycle:  resp.NegativeCycle,
		DurationMs:     float64(resp.Duration.Microseconds()) / 1000,
	}
	if resp.Route != nil {
		rv := NewRouteView(*resp.Route)
		v.Route = &rv
	}
	if resp.Analysis != nil {
		v.Analysis = &AnalysisView{
			AvgPriceImpact:  resp.Analysis.AvgPriceImpact,
			TotalFeeAmount:  resp.Analysis.TotalFeeAmount,
			EfficiencyScore: resp.Analysis.EfficiencyScore,
			Recommendations: resp.Analysis.Recommendations,
		}
	}
	if resp.Split != nil {
		v.Split = NewSplitView(resp.Split)
	}

	return v
}
