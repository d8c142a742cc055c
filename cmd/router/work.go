package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/yannickloth/claude-router-system-sub000/core"
	"github.com/yannickloth/claude-router-system-sub000/pkg/domain"
	"github.com/yannickloth/claude-router-system-sub000/pkg/work"
)

func runWork(cfg *core.Config, args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "work-coordinator: missing verb")
		return exitFatal
	}
	coord := work.New(cfg)

	switch args[0] {
	case "add":
		fs := flag.NewFlagSet("work add", flag.ContinueOnError)
		priority := fs.Int("priority", 5, "1-10, higher is more urgent")
		complexity := fs.Int("complexity", 1, "estimated complexity 1-5")
		deps := fs.String("depends-on", "", "comma-separated dependency ids")
		id := fs.String("id", "", "work item id (generated if omitted)")
		if err := fs.Parse(args[1:]); err != nil {
			return exitFatal
		}
		if fs.NArg() < 1 {
			fmt.Fprintln(os.Stderr, "work add: missing description")
			return exitFatal
		}

		itemID := *id
		if itemID == "" {
			itemID = uuid.NewString()
		}
		item := domain.WorkItem{
			ID:                  itemID,
			Description:         strings.Join(fs.Args(), " "),
			Priority:            *priority,
			EstimatedComplexity: *complexity,
			Dependencies:        splitCSV(*deps),
		}
		started, err := coord.Add(item)
		if err != nil {
			return fail(err)
		}
		printJSON(map[string]any{"id": itemID, "started": started})
		return exitSuccess

	case "schedule":
		started, err := coord.Schedule()
		if err != nil {
			return fail(err)
		}
		printJSON(started)
		return exitSuccess

	case "complete":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "work complete: missing id")
			return exitFatal
		}
		started, err := coord.Complete(args[1])
		if err != nil {
			return fail(err)
		}
		printJSON(started)
		return exitSuccess

	case "fail":
		if len(args) < 3 {
			fmt.Fprintln(os.Stderr, "work fail: missing id or reason")
			return exitFatal
		}
		started, err := coord.Fail(args[1], strings.Join(args[2:], " "))
		if err != nil {
			return fail(err)
		}
		printJSON(started)
		return exitSuccess

	case "status":
		items, err := coord.StatusSummary()
		if err != nil {
			return fail(err)
		}
		printJSON(items)
		return exitSuccess

	default:
		fmt.Fprintf(os.Stderr, "work-coordinator: unknown verb %q\n", args[0])
		return exitFatal
	}
}

func splitCSV(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
