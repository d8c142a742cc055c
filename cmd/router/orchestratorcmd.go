package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	rcore "github.com/yannickloth/claude-router-system-sub000/core"
	"github.com/yannickloth/claude-router-system-sub000/pkg/metrics"
	"github.com/yannickloth/claude-router-system-sub000/pkg/orchestration"
	"github.com/yannickloth/claude-router-system-sub000/pkg/semantic"
)

// semanticVocabulary seeds the token-frequency embedder, the only Embedder
// this CLI constructs; no setting substitutes another implementation.
var semanticVocabulary = []string{
	"fix", "typo", "readme", "refactor", "redesign", "migrate", "analyze",
	"restructure", "test", "tests", "bug", "docs", "middleware", "router",
	"authentication", "show", "display", "file",
}

var selfTestRequests = []string{
	"show me the contents of main.go",
	"fix a typo in the README",
	"redesign the authentication middleware and then migrate every caller",
	"analyze the routing subsystem and propose a restructure",
}

func newOrchestrator(cfg *rcore.Config, sink *metrics.Sink) *orchestration.Orchestrator {
	classifier := orchestration.NewClassifier(orchestration.DefaultClassifierConfig())
	return orchestration.NewOrchestrator(classifier, newRoutingCore(cfg), sink)
}

func runOrchestrator(cfg *rcore.Config, args []string) int {
	fs := flag.NewFlagSet("orchestrator", flag.ContinueOnError)
	asJSON := fs.Bool("json", false, "print the raw Outcome as JSON")
	selfTest := fs.Bool("test", false, "run the built-in request battery instead of a single request")
	if err := fs.Parse(args); err != nil {
		return exitFatal
	}

	sink, err := metrics.NewSink(cfg)
	if err != nil {
		return fail(err)
	}
	orch := newOrchestrator(cfg, sink)
	ctx := context.Background()

	if *selfTest {
		for _, req := range selfTestRequests {
			outcome, err := orch.Orchestrate(ctx, req)
			if err != nil {
				return fail(err)
			}
			fmt.Printf("%-70s -> %s (%s)\n", req, outcome.Analysis.Level, outcome.Strategy)
		}
		return exitSuccess
	}

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "orchestrator: missing request")
		return exitFatal
	}
	request := strings.Join(fs.Args(), " ")

	cache, cacheErr := semantic.NewCache(cfg, semantic.NewTokenFrequencyEmbedder(semanticVocabulary))
	if cacheErr != nil {
		return fail(cacheErr)
	}
	if cache != nil {
		defer cache.Close()
		if hit, ok, lookupErr := cache.Lookup(ctx, request); lookupErr == nil && ok {
			fmt.Printf("(semantic cache hit, agent %s) %s\n", hit.Agent, hit.Result)
			return exitSuccess
		}
	}

	outcome, err := orch.Orchestrate(ctx, request)
	if err != nil {
		return fail(err)
	}
	if cache != nil {
		_ = cache.Store(ctx, request, outcome.Routing.Reason, outcome.Routing.Agent)
	}
	if *asJSON {
		printJSON(outcome)
		return exitSuccess
	}
	fmt.Printf("%s (%s): %s\n", outcome.Analysis.Level, outcome.Strategy, outcome.Routing.Reason)
	return exitSuccess
}
