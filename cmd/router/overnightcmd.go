package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"

	rcore "github.com/yannickloth/claude-router-system-sub000/core"
	"github.com/yannickloth/claude-router-system-sub000/pkg/domain"
	"github.com/yannickloth/claude-router-system-sub000/pkg/temporal"
)

// subprocessAgentExecutor shells out to an external agent binary per
// item, the same subprocess-invocation pattern routingcore.LLMMatcher uses
// for the cheap-tier classification call.
func subprocessAgentExecutor(binary string) temporal.AgentExecutor {
	return func(ctx context.Context, item domain.TimedWorkItem, tier rcore.Tier) (string, error) {
		cmd := exec.CommandContext(ctx, binary, "--print", "--model", string(tier), item.Description)
		cmd.Env = append(cmd.Environ(), "ROUTER_HOOK_SUPPRESS=1")
		out, err := cmd.Output()
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(out)), nil
	}
}

func runOvernight(cfg *rcore.Config, args []string) int {
	fs := flag.NewFlagSet("overnight-runner", flag.ContinueOnError)
	queueFile := fs.String("queue-file", "", "JSON file containing the scheduled_async batch (array of TimedWorkItem)")
	resultsDir := fs.String("results-dir", "", "override the results directory (default <state_dir>/overnight-results)")
	maxConcurrent := fs.Int("max-concurrent", 0, "override the bounded semaphore width")
	timeout := fs.Duration("timeout", 0, "override the overall run deadline")
	agentBinary := fs.String("agent-binary", "claude", "agent binary invoked per item")
	if err := fs.Parse(args); err != nil {
		return exitFatal
	}
	if *queueFile == "" {
		fmt.Fprintln(os.Stderr, "overnight-runner: --queue-file is required")
		return exitFatal
	}

	raw, err := os.ReadFile(*queueFile)
	if err != nil {
		return fail(err)
	}
	var items []domain.TimedWorkItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return fail(err)
	}
	if len(items) == 0 {
		fmt.Println("overnight-runner: empty batch, nothing to do")
		return exitSuccess
	}

	runner := temporal.NewExecutor(cfg).WithConcurrency(*maxConcurrent).WithTimeout(*timeout)
	if *resultsDir != "" {
		runner = runner.WithResultsDir(*resultsDir)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := runner.Run(ctx, items, subprocessAgentExecutor(*agentBinary), nil)
	if ctx.Err() == context.Canceled {
		return exitInterrupted
	}
	if err != nil {
		return fail(err)
	}

	failed, timedOut := 0, 0
	for _, outcome := range report.Results {
		if outcome.Error != "" {
			failed++
			if strings.Contains(outcome.Error, "deadline exceeded") {
				timedOut++
			}
		}
	}
	printJSON(report)

	switch {
	case failed == 0:
		return exitSuccess
	case timedOut == len(items):
		return exitSubprocessTimeout
	case failed == len(items):
		return exitFatal
	default:
		return exitPartialSuccess
	}
}
