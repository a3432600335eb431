package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/katalvlaran/dexroute/core"
	"github.com/katalvlaran/dexroute/internal/api"
	"github.com/katalvlaran/dexroute/route"
	"github.com/katalvlaran/dexroute/router"
	"github.com/katalvlaran/dexroute/snapshot"
	"github.com/katalvlaran/dexroute/split"
)

var (
	routeFrom     string
	routeTo       string
	routeAmount   float64
	routeSplits   int
	routeSlippage float64
	routeMaxHops  int
	routeHaircut  float64
)

var routeCmd = &cobra.Command{
	Use:   "route",
	Short: "Find the best route for one trade",
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := loadSnapshot()
		if err != nil {
			return err
		}
		var opts []router.Option
		opts = append(opts, router.WithLogger(logger))
		if routeHaircut > 0 {
			opts = append(opts, router.WithAdjuster(core.LiquidityHaircut(routeHaircut)))
		}
		rt := router.New(cfg.Routing, opts...)

		resp, err := rt.Find(context.Background(), g, router.Request{
			From:              core.NormalizeAsset(routeFrom),
			To:                core.NormalizeAsset(routeTo),
			Amount:            routeAmount,
			Splits:            routeSplits,
			SlippageTolerance: routeSlippage,
			MaxHops:           routeMaxHops,
		})
		var partial *split.PartialError
		if err != nil && !errors.As(err, &partial) {
			return err
		}

		if jsonOutput {
			v := api.NewResponseView(resp)
			if err != nil {
				v.Error = err.Error()
			}
			data, merr := json.MarshalIndent(v, "", "  ")
			if merr != nil {
				return merr
			}
			fmt.Println(string(data))
			return nil
		}

		printResponse(resp)
		if partial != nil {
			fmt.Fprintf(os.Stderr, "warning: %v\n", partial)
		}
		return nil
	},
}

func init() {
	routeCmd.Flags().StringVar(&routeFrom, "from", "", "input asset (symbol or address)")
	routeCmd.Flags().StringVar(&routeTo, "to", "", "output asset (symbol or address)")
	routeCmd.Flags().Float64Var(&routeAmount, "amount", 0, "input amount")
	routeCmd.Flags().IntVar(&routeSplits, "splits", 1, "number of split legs to evaluate (1 = single path only)")
	routeCmd.Flags().Float64Var(&routeSlippage, "slippage", 0, "slippage tolerance for the minimum output, in (0,1)")
	routeCmd.Flags().IntVar(&routeMaxHops, "max-hops", 0, "override the configured max hops")
	routeCmd.Flags().Float64Var(&routeHaircut, "haircut", 0, "scale every pool's liquidity by (1 - haircut) before searching")
	_ = routeCmd.MarkFlagRequired("from")
	_ = routeCmd.MarkFlagRequired("to")
	_ = routeCmd.MarkFlagRequired("amount")
}

func loadSnapshot() (*core.Graph, error) {
	if snapshotPath == "" {
		return nil, errors.New("no snapshot: pass --snapshot or set server.snapshot")
	}
	return snapshot.Load(snapshotPath)
}

func printResponse(resp *router.Response) {
	fmt.Printf("Request %s  (%s, %d rounds, %d pruned)\n", resp.RequestID, resp.State, resp.Iterations, resp.PrunedEdges)
	if resp.Route != nil {
		fmt.Println("  " + route.Summary(*resp.Route))
		if a := resp.Analysis; a != nil {
			fmt.Printf("  avg impact %s  fees %s  score %.2f\n", route.Percent(a.AvgPriceImpact), route.Amount(a.TotalFeeAmount), a.EfficiencyScore)
			for _, rec := range a.Recommendations {
				fmt.Println("  - " + rec)
			}
		}
	}
	if s := resp.Split; s != nil {
		fmt.Printf("  split over %d legs (%s, %d passes)\n", len(s.Legs), s.Policy, s.Passes)
		for _, l := range s.Legs {
			fmt.Printf("  [%d] %s  %s\n", l.Index, route.Percent(l.Ratio), route.Summary(l.Route))
		}
		for _, f := range s.Failed {
			fmt.Printf("  [%d] %s  failed: %v\n", f.Index, route.Percent(f.Ratio), f.Err)
		}
		fmt.Printf("  total in %s out %s  rate %s\n", route.Amount(s.AchievedInput), route.Amount(s.OutputAmount), route.Amount(s.EffectiveRate))
	}
	fmt.Printf("  min output %s\n", route.Amount(resp.MinOutput))
}
