package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/yannickloth/claude-router-system-sub000/core"
	"github.com/yannickloth/claude-router-system-sub000/pkg/orchestration"
	"github.com/yannickloth/claude-router-system-sub000/pkg/quota"
)

func runQuota(cfg *core.Config, args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "quota: missing verb")
		return exitFatal
	}
	tracker := quota.New(cfg)

	switch args[0] {
	case "status":
		summary, err := tracker.Summary()
		if err != nil {
			return fail(err)
		}
		printJSON(summary)
		return exitSuccess

	case "increment":
		fs := flag.NewFlagSet("quota increment", flag.ContinueOnError)
		count := fs.Int("count", 1, "messages to add")
		if err := fs.Parse(args[1:]); err != nil {
			return exitFatal
		}
		if fs.NArg() < 1 {
			fmt.Fprintln(os.Stderr, "quota increment: missing tier")
			return exitFatal
		}
		tier := core.Tier(fs.Arg(0))
		total, err := tracker.Increment(tier, *count)
		if err != nil {
			return fail(err)
		}
		fmt.Println(total)
		return exitSuccess

	case "can-use":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "quota can-use: missing tier")
			return exitFatal
		}
		ok, err := tracker.CanUse(core.Tier(args[1]))
		if err != nil {
			return fail(err)
		}
		fmt.Println(ok)
		if !ok {
			return exitPartialSuccess
		}
		return exitSuccess

	case "recommend":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "quota recommend: missing request")
			return exitFatal
		}
		request := args[1]
		classifier := orchestration.NewClassifier(orchestration.DefaultClassifierConfig())
		analysis := classifier.Classify(request)

		rec := map[string]any{"analysis": analysis, "tiers": map[string]bool{}}
		tiers := rec["tiers"].(map[string]bool)
		for _, t := range core.Tiers {
			ok, err := tracker.CanUse(t)
			if err != nil {
				return fail(err)
			}
			tiers[string(t)] = ok
		}
		printJSON(rec)
		return exitSuccess

	default:
		fmt.Fprintf(os.Stderr, "quota: unknown verb %q\n", args[0])
		return exitFatal
	}
}
