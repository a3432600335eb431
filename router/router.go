// Package router is the request façade over the routing core: it validates a
// request against a snapshot, runs the single-path search and, when asked,
// the split allocator, picks the better execution and reports it with
// logging, metrics and a request ID.
//
// A Router holds configuration only; it keeps no state between requests and
// is safe for concurrent use against shared read-only snapshots.
package router

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/katalvlaran/dexroute/bellmanford"
	"github.com/katalvlaran/dexroute/bfs"
	"github.com/katalvlaran/dexroute/constraint"
	"github.com/katalvlaran/dexroute/core"
	"github.com/katalvlaran/dexroute/internal/config"
	"github.com/katalvlaran/dexroute/internal/idgen"
	"github.com/katalvlaran/dexroute/internal/metrics"
	"github.com/katalvlaran/dexroute/route"
	"github.com/katalvlaran/dexroute/split"
)

// DefaultSlippage is used when a request leaves SlippageTolerance at zero.
const DefaultSlippage = 0.005

// ErrInvalidRequest wraps every request validation failure.
var ErrInvalidRequest = errors.New("router: invalid request")

// Request is one routing query.
type Request struct {
	From   core.Asset
	To     core.Asset
	Amount float64

	// Splits > 1 also evaluates a split route with that many legs.
	Splits int

	// SlippageTolerance in (0, 1) sets MinOutput; 0 means DefaultSlippage.
	SlippageTolerance float64

	// MaxHops and MaxIterations override the configured limits when > 0.
	MaxHops       int
	MaxIterations int
}

// Response carries the chosen execution. Exactly one of Route and Split is
// set, except alongside a *split.PartialError where only Split is set.
type Response struct {
	RequestID string

	Route    *route.Route
	Split    *split.SplitRoute
	Analysis *route.Analysis // of Route; nil for split executions

	ExpectedOutput float64
	MinOutput      float64
	MaxOutput      float64

	// Metadata of the single-path search.
	Iterations    int
	State         bellmanford.State
	PrunedEdges   int
	NegativeCycle bool

	Duration time.Duration
}

// InputAmount is the amount actually routed.
func (r *Response) InputAmount() float64 {
	switch {
	case r.Route != nil:
		return r.Route.InputAmount
	case r.Split != nil:
		return r.Split.AchievedInput
	}

	return 0
}

// Router answers Requests with a fixed configuration.
type Router struct {
	cfg      config.Routing
	policy   split.Policy
	log      zerolog.Logger
	metrics  *metrics.Metrics
	adjuster core.PoolAdjuster
	newID    func() (string, error)
}

// Option configures a Router.
type Option func(*Router)

// WithLogger sets the logger; the default discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Router) { r.log = l }
}

// WithMetrics records every request into m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Router) { r.metrics = m }
}

// WithAdjuster applies fn to every pool of each snapshot before searching.
func WithAdjuster(fn core.PoolAdjuster) Option {
	return func(r *Router) { r.adjuster = fn }
}

// WithIDGenerator replaces the request ID source.
func WithIDGenerator(fn func() (string, error)) Option {
	return func(r *Router) { r.newID = fn }
}

// New returns a Router for cfg. It panics if cfg does not validate, like
// the option constructors of the algorithm packages.
func New(cfg config.Routing, opts ...Option) *Router {
	if err := cfg.Validate(); err != nil {
		panic(err.Error())
	}
	policy, err := split.ParsePolicy(cfg.SplitPolicy)
	if err != nil {
		panic(err.Error())
	}
	r := &Router{
		cfg:    cfg,
		policy: policy,
		log:    zerolog.Nop(),
		newID:  idgen.Generate,
	}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Config returns the routing configuration.
func (r *Router) Config() config.Routing { return r.cfg }

// Find routes req over g.
//
// Errors:
//   - ErrInvalidRequest (wrapping the cause) for malformed requests, unknown
//     assets and, when configured, negative cycles.
//   - bellmanford.ErrNoRouteFound when neither execution finds a route.
//   - bellmanford.ErrBudgetExhausted in strict mode.
//   - bellmanford.ErrBrokenChain on a solver invariant violation.
//   - *split.PartialError together with a Response under the partial policy
//     when the single path failed and the split succeeded only in part.
func (r *Router) Find(ctx context.Context, g *core.Graph, req Request) (*Response, error) {
	start := time.Now()
	id, err := r.newID()
	if err != nil {
		return nil, fmt.Errorf("router: request id: %w", err)
	}
	log := r.log.With().Str("request_id", id).
		Str("from", string(req.From)).Str("to", string(req.To)).
		Float64("amount", req.Amount).Logger()

	resp, err := r.find(ctx, g, req, log)
	if resp != nil {
		resp.RequestID = id
		resp.Duration = time.Since(start)
	}
	r.report(log, resp, err, time.Since(start))

	return resp, err
}

func (r *Router) find(ctx context.Context, g *core.Graph, req Request, log zerolog.Logger) (*Response, error) {
	if err := r.validate(g, req); err != nil {
		return nil, err
	}
	graph := g
	if r.adjuster != nil {
		var err error
		if graph, err = g.Adjusted(r.adjuster); err != nil {
			return nil, fmt.Errorf("router: adjusting snapshot: %w", err)
		}
	}
	stats := graph.Stats()
	r.metrics.ObserveGraph(stats.Assets, stats.Pools)

	// Unreachable within the hop limit means no route at any rate.
	hops := r.maxHops(req)
	reach, err := bfs.Walk(graph, req.From, bfs.WithMaxDepth(hops), bfs.WithFilterPool(bfs.MinLiquidity(r.cfg.MinLiquidity)))
	if err != nil {
		return nil, fmt.Errorf("router: reachability: %w", err)
	}
	if !reach.Reachable(req.To) {
		log.Debug().Int("max_hops", hops).Int("reached", len(reach.Order)).Msg("target unreachable")
		return nil, fmt.Errorf("%w: %s unreachable from %s within %d hops", bellmanford.ErrNoRouteFound, req.To, req.From, hops)
	}

	solverOpts := r.solverOptions(req)
	routeOpts := r.routeOptions()
	resp := &Response{}

	// Single path.
	var single *route.Route
	path, res, err := bellmanford.ShortestPath(ctx, graph, req.From, req.To, req.Amount, solverOpts...)
	if res != nil {
		resp.Iterations, resp.State = res.Iterations, res.State
		resp.PrunedEdges, resp.NegativeCycle = res.PrunedEdges, res.NegativeCycle
		r.metrics.ObserveSolver(res.Iterations, res.PrunedEdges, res.State.String(), res.NegativeCycle)
		log.Debug().Int("iterations", res.Iterations).Str("state", res.State.String()).
			Int("pruned", res.PrunedEdges).Int("relaxations", res.Relaxations).
			Bool("negative_cycle", res.NegativeCycle).Msg("single-path search")
	}
	switch {
	case err == nil:
		rt, berr := route.Build(path, req.Amount, routeOpts...)
		if berr != nil {
			return nil, fmt.Errorf("router: pricing single path: %w", berr)
		}
		single = &rt
	case errors.Is(err, bellmanford.ErrNoRouteFound):
		log.Debug().Err(err).Msg("no single path")
	case errors.Is(err, bellmanford.ErrNegativeCycle):
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	default:
		return nil, err
	}

	// Split.
	var (
		sr      *split.SplitRoute
		partial *split.PartialError
	)
	if req.Splits > 1 {
		sr, err = split.Allocate(ctx, graph, split.Request{
			Source: req.From, Target: req.To, Amount: req.Amount, Splits: req.Splits,
		},
			split.WithPolicy(r.policy),
			split.WithMinSplitAmount(r.cfg.MinSplitAmount),
			split.WithSolverOptions(solverOpts...),
			split.WithRouteOptions(routeOpts...),
		)
		switch {
		case err == nil:
		case errors.As(err, &partial):
		case errors.Is(err, bellmanford.ErrNoRouteFound):
			log.Debug().Err(err).Msg("no split route")
		case errors.Is(err, bellmanford.ErrNegativeCycle):
			return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		default:
			return nil, err
		}
		if sr != nil {
			r.metrics.ObserveSplit(len(sr.Legs), len(sr.Failed))
			log.Debug().Int("legs", len(sr.Legs)).Int("failed", len(sr.Failed)).
				Int("passes", sr.Passes).Int("iterations", sr.Iterations).
				Float64("net_rate", sr.NetRate()).Msg("split allocation")
		}
	}

	tol := req.SlippageTolerance
	if tol == 0 {
		tol = DefaultSlippage
	}

	switch {
	case single != nil && (sr == nil || partial != nil || single.NetRate() > sr.NetRate()):
		a := route.Analyze(*single)
		resp.Route, resp.Analysis = single, &a
		resp.ExpectedOutput = single.OutputAmount
		r.metrics.ObserveRoute(single.TotalPriceImpact)
	case sr != nil:
		resp.Split = sr
		resp.ExpectedOutput = sr.OutputAmount
		r.metrics.ObserveRoute(sr.TotalPriceImpact)
	default:
		return nil, fmt.Errorf("%w: %s→%s for %g", bellmanford.ErrNoRouteFound, req.From, req.To, req.Amount)
	}
	resp.MinOutput, resp.MaxOutput = route.SlippageBounds(resp.ExpectedOutput, tol)

	if resp.Split != nil && partial != nil {
		return resp, partial
	}

	return resp, nil
}

// validate checks req against the configuration and the snapshot.
func (r *Router) validate(g *core.Graph, req Request) error {
	switch {
	case g == nil:
		return fmt.Errorf("%w: %w", ErrInvalidRequest, bellmanford.ErrNilGraph)
	case req.From == "" || req.To == "":
		return fmt.Errorf("%w: %w", ErrInvalidRequest, core.ErrEmptyAsset)
	case req.From == req.To:
		return fmt.Errorf("%w: input and output asset are both %s", ErrInvalidRequest, req.From)
	case !(req.Amount > 0) || math.IsInf(req.Amount, 1):
		return fmt.Errorf("%w: %w", ErrInvalidRequest, bellmanford.ErrBadAmount)
	case req.SlippageTolerance < 0 || req.SlippageTolerance >= 1 || math.IsNaN(req.SlippageTolerance):
		return fmt.Errorf("%w: slippage tolerance %g outside (0,1)", ErrInvalidRequest, req.SlippageTolerance)
	case req.MaxHops < 0:
		return fmt.Errorf("%w: %w", ErrInvalidRequest, bellmanford.ErrBadMaxHops)
	case req.MaxIterations < 0:
		return fmt.Errorf("%w: %w", ErrInvalidRequest, bellmanford.ErrBadMaxIterations)
	case req.Splits < 0 || req.Splits > r.cfg.MaxSplits:
		return fmt.Errorf("%w: %d splits outside [1,%d]", ErrInvalidRequest, req.Splits, r.cfg.MaxSplits)
	case !g.HasAsset(req.From):
		return fmt.Errorf("%w: %w: %s", ErrInvalidRequest, core.ErrAssetNotFound, req.From)
	case !g.HasAsset(req.To):
		return fmt.Errorf("%w: %w: %s", ErrInvalidRequest, core.ErrAssetNotFound, req.To)
	}

	return nil
}

func (r *Router) maxHops(req Request) int {
	if req.MaxHops > 0 {
		return req.MaxHops
	}

	return r.cfg.MaxHops
}

func (r *Router) solverOptions(req Request) []bellmanford.Option {
	hops, iters := r.maxHops(req), r.cfg.IterationBudget
	if req.MaxIterations > 0 {
		iters = req.MaxIterations
	}
	opts := []bellmanford.Option{
		bellmanford.WithMaxHops(hops),
		bellmanford.WithMaxIterations(iters),
		bellmanford.WithConstraints(
			constraint.WithMaxPriceImpact(r.cfg.MaxPriceImpact),
			constraint.WithMinLiquidity(r.cfg.MinLiquidity),
		),
	}
	if d := r.cfg.Timeout(); d > 0 {
		opts = append(opts, bellmanford.WithTimeout(d))
	}
	if r.cfg.Strict {
		opts = append(opts, bellmanford.WithStrictConvergence())
	}
	if r.cfg.RejectCycles {
		opts = append(opts, bellmanford.WithRejectNegativeCycles())
	}

	return opts
}

// routeOptions re-checks hops with the same limits the solver used.
func (r *Router) routeOptions() []route.Option {
	return []route.Option{
		route.WithLimits(constraint.NewLimits(
			constraint.WithMaxPriceImpact(r.cfg.MaxPriceImpact),
			constraint.WithMinLiquidity(r.cfg.MinLiquidity),
		)),
		route.WithGas(r.cfg.GasPerHop, r.cfg.GasPrice),
	}
}

// report emits the per-request log line and outcome metric.
func (r *Router) report(log zerolog.Logger, resp *Response, err error, d time.Duration) {
	outcome := outcomeOf(resp, err)
	r.metrics.ObserveRequest(outcome, d)

	var ev *zerolog.Event
	switch outcome {
	case metrics.OutcomeInternal:
		ev = log.Error()
	case metrics.OutcomeInvalid, metrics.OutcomeNoRoute, metrics.OutcomeExhaust, metrics.OutcomePartial:
		ev = log.Warn()
	default:
		ev = log.Info()
	}
	ev = ev.Str("outcome", outcome).Dur("duration", d)
	if resp != nil {
		ev = ev.Int("iterations", resp.Iterations).Str("state", resp.State.String()).
			Int("pruned", resp.PrunedEdges).Float64("expected_output", resp.ExpectedOutput)
	}
	if err != nil {
		ev = ev.Err(err)
	}
	ev.Msg("route request")
}

func outcomeOf(resp *Response, err error) string {
	var partial *split.PartialError
	switch {
	case errors.As(err, &partial):
		return metrics.OutcomePartial
	case errors.Is(err, ErrInvalidRequest):
		return metrics.OutcomeInvalid
	case errors.Is(err, bellmanford.ErrNoRouteFound):
		return metrics.OutcomeNoRoute
	case errors.Is(err, bellmanford.ErrBudgetExhausted):
		return metrics.OutcomeExhaust
	case err != nil:
		return metrics.OutcomeInternal
	case resp != nil && resp.Split != nil:
		return metrics.OutcomeSplit
	default:
		return metrics.OutcomeSingle
	}
}
