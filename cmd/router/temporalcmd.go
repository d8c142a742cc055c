package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"

	rcore "github.com/yannickloth/claude-router-system-sub000/core"
	"github.com/yannickloth/claude-router-system-sub000/pkg/domain"
	"github.com/yannickloth/claude-router-system-sub000/pkg/quota"
	"github.com/yannickloth/claude-router-system-sub000/pkg/temporal"
)

func runTemporal(cfg *rcore.Config, args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "temporal: missing verb")
		return exitFatal
	}

	scheduler, err := temporal.New(cfg, quota.New(cfg))
	if err != nil {
		return fail(err)
	}

	switch args[0] {
	case "status":
		snap, err := scheduler.Snapshot()
		if err != nil {
			return fail(err)
		}
		printJSON(snap)
		return exitSuccess

	case "add":
		fs := flag.NewFlagSet("temporal add", flag.ContinueOnError)
		priority := fs.Int("priority", 5, "1-10, higher is more urgent")
		duration := fs.Int("duration-minutes", 15, "estimated duration in minutes")
		estQuota := fs.Int("estimated-quota", 1, "estimated quota messages")
		deps := fs.String("depends-on", "", "comma-separated dependency ids")
		requiresApproval := fs.Bool("requires-approval", false, "force SYNC classification")
		batchMode := fs.Bool("batch", false, "force ASYNC classification")
		if err := fs.Parse(args[1:]); err != nil {
			return exitFatal
		}
		if fs.NArg() < 1 {
			fmt.Fprintln(os.Stderr, "temporal add: missing description")
			return exitFatal
		}

		description := strings.Join(fs.Args(), " ")
		item := domain.TimedWorkItem{
			WorkItem: domain.WorkItem{
				ID:           uuid.NewString(),
				Description:  description,
				Priority:     *priority,
				Dependencies: splitCSV(*deps),
				Status:       domain.StatusQueued,
			},
			EstimatedDurationMinutes: *duration,
			EstimatedQuota:           *estQuota,
		}
		wctx := temporal.Context{RequiresApproval: *requiresApproval, BatchMode: *batchMode}
		if err := scheduler.AddWork(item, wctx); err != nil {
			return fail(err)
		}
		printJSON(map[string]any{"id": item.ID, "timing": item.Timing})
		return exitSuccess

	case "schedule", "evening":
		scheduled, err := scheduler.ScheduleOvernightWork()
		if err != nil {
			return fail(err)
		}
		printJSON(scheduled)
		return exitSuccess

	case "classify":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "temporal classify: missing request")
			return exitFatal
		}
		request := strings.Join(args[1:], " ")
		timing := temporal.ClassifyTiming(request, temporal.Context{})
		fmt.Println(timing)
		return exitSuccess

	default:
		fmt.Fprintf(os.Stderr, "temporal: unknown verb %q\n", args[0])
		return exitFatal
	}
}
