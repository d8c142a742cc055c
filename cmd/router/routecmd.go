package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"strings"

	rcore "github.com/yannickloth/claude-router-system-sub000/core"
	"github.com/yannickloth/claude-router-system-sub000/pkg/domain"
	"github.com/yannickloth/claude-router-system-sub000/pkg/metrics"
	"github.com/yannickloth/claude-router-system-sub000/pkg/routingcore"
)

func newRoutingCore(cfg *rcore.Config) *routingcore.Core {
	var matcher routingcore.AgentMatcher = routingcore.NewKeywordMatcher()
	if cfg.Routing.UseLLMRouting {
		client := routingcore.NewSubprocessCompletionClient("claude", "--print", "--model", "cheap")
		matcher = routingcore.NewLLMMatcher(client, matcher)
	}
	return routingcore.New(matcher, cfg)
}

func requestHash(request string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(request)))
	return hex.EncodeToString(sum[:])
}

func runRouter(cfg *rcore.Config, args []string) int {
	fs := flag.NewFlagSet("router", flag.ContinueOnError)
	asJSON := fs.Bool("json", false, "print the raw RoutingResult as JSON")
	if err := fs.Parse(args); err != nil {
		return exitFatal
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "router: missing request")
		return exitFatal
	}
	request := strings.Join(fs.Args(), " ")

	ctx := context.Background()
	result, err := newRoutingCore(cfg).Route(ctx, request)
	if err != nil {
		return fail(err)
	}

	if sink, sErr := metrics.NewSink(cfg); sErr == nil {
		_ = sink.RecordRoutingRecommendation(ctx, requestHash(request), result, nil)
	}

	if *asJSON {
		printJSON(result)
		return exitSuccess
	}
	printRoutingResult(result)
	return exitSuccess
}

func printRoutingResult(r domain.RoutingResult) {
	if r.Decision == domain.Direct {
		fmt.Printf("DIRECT -> %s (confidence %.2f): %s\n", r.Agent, r.Confidence, r.Reason)
		return
	}
	fmt.Printf("ESCALATE (confidence %.2f): %s\n", r.Confidence, r.Reason)
}
