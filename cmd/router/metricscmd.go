package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	rcore "github.com/yannickloth/claude-router-system-sub000/core"
	"github.com/yannickloth/claude-router-system-sub000/pkg/metrics"
)

func runMetrics(cfg *rcore.Config, args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "metrics: missing verb")
		return exitFatal
	}
	sink, err := metrics.NewSink(cfg)
	if err != nil {
		return fail(err)
	}

	switch args[0] {
	case "record-solution":
		fs := flag.NewFlagSet("metrics record-solution", flag.ContinueOnError)
		name := fs.String("name", "solution", "metric name")
		value := fs.Float64("value", 0, "metric value")
		if err := fs.Parse(args[1:]); err != nil {
			return exitFatal
		}
		if err := sink.RecordSolutionMetric(context.Background(), *name, *value, nil); err != nil {
			return fail(err)
		}
		return exitSuccess

	case "report":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "metrics report: expected daily|weekly")
			return exitFatal
		}
		now := time.Now().UTC()
		var start time.Time
		switch args[1] {
		case "daily":
			start = now.AddDate(0, 0, -1)
		case "weekly":
			start = now.AddDate(0, 0, -7)
		default:
			fmt.Fprintf(os.Stderr, "metrics report: unknown period %q\n", args[1])
			return exitFatal
		}

		counts := map[string]int{}
		for _, rt := range []metrics.RecordType{
			metrics.RecordAgentEvent, metrics.RecordSolutionMetric,
			metrics.RecordRoutingRecommendation, metrics.RecordRequestTracking,
		} {
			recs, err := sink.ReadRange(rt, start, now)
			if err != nil {
				return fail(err)
			}
			counts[string(rt)] = len(recs)
		}

		compliance, err := metrics.NewComplianceAnalyzer(sink).Analyze(start, now)
		if err != nil {
			return fail(err)
		}

		printJSON(map[string]any{
			"period":     args[1],
			"counts":     counts,
			"compliance": compliance,
		})
		return exitSuccess

	case "show-solution":
		now := time.Now().UTC()
		days := 7
		if len(args) > 1 {
			if n, err := strconv.Atoi(args[1]); err == nil {
				days = n
			}
		}
		recs, err := sink.ReadRange(metrics.RecordSolutionMetric, now.AddDate(0, 0, -days), now)
		if err != nil {
			return fail(err)
		}
		printJSON(recs)
		return exitSuccess

	case "cleanup":
		if err := sink.Cleanup(); err != nil {
			return fail(err)
		}
		return exitSuccess

	default:
		fmt.Fprintf(os.Stderr, "metrics: unknown verb %q\n", args[0])
		return exitFatal
	}
}
