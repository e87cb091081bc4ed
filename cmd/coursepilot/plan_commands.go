package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"coursepilot/internal/api"
	"coursepilot/internal/course"
	"coursepilot/internal/planner"
)

func newPlanCommand(ctx *commandContext) *cobra.Command {
	planCmd := &cobra.Command{
		Use:   "plan",
		Short: "Generate and inspect study plans",
	}

	planCmd.AddCommand(newPlanGenerateCommand(ctx))
	planCmd.AddCommand(newPlanShowCommand(ctx))
	planCmd.AddCommand(newPlanOptimizeCommand(ctx))

	return planCmd
}

func newPlanGenerateCommand(ctx *commandContext) *cobra.Command {
	var start string
	var sessionsPerWeek int
	var sessionMinutes int
	var weekends bool

	cmd := &cobra.Command{
		Use:   "generate <course>",
		Short: "Schedule study sessions for a structured course",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			startDate, err := parseDate(start)
			if err != nil {
				return err
			}
			plan, err := api.GeneratePlan(cmd.Context(), api.GeneratePlanRequest{
				Config: cfg,
				Logger: ctx.logger(),
				Course: args[0],
				Settings: course.PlanSettings{
					StartDate:            startDate,
					SessionsPerWeek:      sessionsPerWeek,
					SessionLengthMinutes: sessionMinutes,
					IncludeWeekends:      weekends,
				},
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Generated plan %s with %d sessions\n", plan.ID, len(plan.Items))
			printPlanItems(cmd, plan, nil)
			return nil
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "Start date as YYYY-MM-DD (defaults to tomorrow)")
	cmd.Flags().IntVar(&sessionsPerWeek, "sessions-per-week", 0, "Study sessions per week (default from config)")
	cmd.Flags().IntVar(&sessionMinutes, "session-minutes", 0, "Minutes per session (default from config)")
	cmd.Flags().BoolVar(&weekends, "weekends", false, "Allow weekend sessions")
	return cmd
}

func newPlanOptimizeCommand(ctx *commandContext) *cobra.Command {
	var start string
	var sessionsPerWeek int
	var sessionMinutes int

	cmd := &cobra.Command{
		Use:   "optimize <plan-id>",
		Short: "Rebalance an existing plan's sessions and dates",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			settings := course.PlanSettings{
				SessionsPerWeek:      sessionsPerWeek,
				SessionLengthMinutes: sessionMinutes,
			}
			if start != "" {
				startDate, err := parseDate(start)
				if err != nil {
					return err
				}
				settings.StartDate = startDate
			}
			plan, err := api.OptimizePlan(cmd.Context(), api.OptimizePlanRequest{
				Config:   cfg,
				Logger:   ctx.logger(),
				PlanID:   args[0],
				Settings: settings,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Optimized plan %s with %d sessions\n", plan.ID, len(plan.Items))
			printPlanItems(cmd, plan, nil)
			return nil
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "New start date as YYYY-MM-DD (keeps the stored date when omitted)")
	cmd.Flags().IntVar(&sessionsPerWeek, "sessions-per-week", 0, "Study sessions per week (keeps the stored value)")
	cmd.Flags().IntVar(&sessionMinutes, "session-minutes", 0, "Minutes per session (keeps the stored value)")
	return cmd
}

func newPlanShowCommand(ctx *commandContext) *cobra.Command {
	var planID string

	cmd := &cobra.Command{
		Use:   "show [course]",
		Short: "Show a plan and its progress",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			req := api.PlanStatusRequest{Config: cfg, Logger: ctx.logger(), PlanID: planID}
			if len(args) == 1 {
				req.Course = args[0]
			}
			status, err := api.GetPlanStatus(cmd.Context(), req)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Plan %s\n", status.Plan.ID)
			progress := fmt.Sprintf("%d/%d videos (%.0f%%)",
				status.Summary.Completed, status.Summary.Total, status.Summary.Percent())
			fmt.Fprintf(out, "Progress: %s\n", colorize(progress, ansiGreen, shouldColorize(out)))

			completed := make(map[[2]int]bool, len(status.Entries))
			for _, entry := range status.Entries {
				completed[[2]int{entry.SessionIndex, entry.VideoIndex}] = entry.Completed
			}
			printPlanItems(cmd, status.Plan, completed)
			return nil
		},
	}

	cmd.Flags().StringVar(&planID, "plan", "", "Plan ID (defaults to the course's latest plan)")
	return cmd
}

func printPlanItems(cmd *cobra.Command, plan *course.Plan, completed map[[2]int]bool) {
	rows := make([][]string, 0, len(plan.Items))
	for i, item := range plan.Items {
		done := 0
		if completed != nil {
			for v := range item.VideoIndices {
				if completed[[2]int{i, v}] {
					done++
				}
			}
		}
		doneCell := strconv.Itoa(done) + "/" + strconv.Itoa(len(item.VideoIndices))
		warning := ""
		if len(item.OverflowWarnings) > 0 {
			warning = item.OverflowWarnings[0]
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			item.Date.Format("2006-01-02"),
			item.ModuleTitle,
			strconv.Itoa(len(item.VideoIndices)),
			planner.FormatDuration(item.TotalDuration),
			doneCell,
			warning,
		})
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable(
		[]string{"#", "Date", "Module", "Videos", "Duration", "Done", "Notes"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
	))
}

func newProgressCommand(ctx *commandContext) *cobra.Command {
	var undo bool

	cmd := &cobra.Command{
		Use:   "progress <plan-id> <session> <video>",
		Short: "Mark a plan video as watched",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			sessionIndex, err := strconv.Atoi(args[1])
			if err != nil || sessionIndex < 1 {
				return fmt.Errorf("invalid session number %q", args[1])
			}
			videoIndex, err := strconv.Atoi(args[2])
			if err != nil || videoIndex < 1 {
				return fmt.Errorf("invalid video number %q", args[2])
			}

			summary, err := api.MarkProgress(cmd.Context(), api.MarkProgressRequest{
				Config:       cfg,
				Logger:       ctx.logger(),
				PlanID:       args[0],
				SessionIndex: sessionIndex - 1,
				VideoIndex:   videoIndex - 1,
				Completed:    !undo,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Progress: %d/%d videos (%.0f%%)\n",
				summary.Completed, summary.Total, summary.Percent())
			return nil
		},
	}

	cmd.Flags().BoolVar(&undo, "undo", false, "Mark the video as not watched")
	return cmd
}
