// Command router is the CLI surface for every control-plane component
// (C9): one binary, one subcommand per component, each exposing the verbs
// listed in the external interfaces design. It never imports the Claude
// Code hook machinery directly (pkg/hook is driven over stdin/stdout by
// the host, not this binary) but shares every other package with it.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/yannickloth/claude-router-system-sub000/core"
)

// Exit codes per the external interfaces design.
const (
	exitSuccess         = 0
	exitFatal           = 1
	exitPartialSuccess  = 2
	exitSubprocessTimeout = 124
	exitInterrupted     = 130
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		usage()
		return exitFatal
	}

	cfg, err := core.NewConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config error:", err)
		return exitFatal
	}

	group, rest := args[0], args[1:]
	switch group {
	case "quota":
		return runQuota(cfg, rest)
	case "work-coordinator", "work":
		return runWork(cfg, rest)
	case "router":
		return runRouter(cfg, rest)
	case "orchestrator":
		return runOrchestrator(cfg, rest)
	case "temporal":
		return runTemporal(cfg, rest)
	case "metrics":
		return runMetrics(cfg, rest)
	case "overnight-runner", "overnight":
		return runOvernight(cfg, rest)
	case "-h", "--help", "help":
		usage()
		return exitSuccess
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", group)
		usage()
		return exitFatal
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: router <component> <verb> [args...]

components:
  quota              status | increment <tier> [--count n] | can-use <tier> | recommend <request>
  work-coordinator   add <description> [flags] | schedule | complete <id> | fail <id> <reason> | status
  router             <request> [--json]
  orchestrator       <request> [--json] | --test
  temporal           status | add <description> [flags] | schedule | evening | classify <request>
  metrics            record-solution --name n --value v | report daily|weekly | show-solution | cleanup
  overnight-runner   --queue-file path --results-dir path [--max-concurrent n] [--timeout dur]`)
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func fail(err error) int {
	fmt.Fprintln(os.Stderr, "error:", err)
	return exitFatal
}
