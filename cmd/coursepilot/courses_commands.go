package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"coursepilot/internal/api"
	"coursepilot/internal/planner"
)

func newCoursesCommand(ctx *commandContext) *cobra.Command {
	coursesCmd := &cobra.Command{
		Use:   "courses",
		Short: "Manage stored courses",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCoursesList(cmd, ctx)
		},
	}

	coursesCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List stored courses",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCoursesList(cmd, ctx)
		},
	})
	coursesCmd.AddCommand(newCoursesShowCommand(ctx))
	coursesCmd.AddCommand(newCoursesDeleteCommand(ctx))

	return coursesCmd
}

func runCoursesList(cmd *cobra.Command, ctx *commandContext) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	summaries, err := api.ListCourses(cmd.Context(), api.CoursesRequest{Config: cfg, Logger: ctx.logger()})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(summaries) == 0 {
		fmt.Fprintln(out, "No courses yet. Add one with `coursepilot ingest`.")
		return nil
	}

	rows := make([][]string, 0, len(summaries))
	for _, s := range summaries {
		rows = append(rows, []string{
			s.ID,
			s.Name,
			fmt.Sprintf("%d", s.VideoCount),
			yesNo(s.Structured),
			s.CreatedAt.Format("2006-01-02"),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"ID", "Name", "Videos", "Structured", "Created"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
	))
	return nil
}

func newCoursesShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <course>",
		Short: "Show a course's videos and structure",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			c, err := api.GetCourse(cmd.Context(), api.CourseRequest{Config: cfg, Logger: ctx.logger(), Course: args[0]})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s\n", c.Name)
			fmt.Fprintf(out, "ID: %s\n", c.ID)
			fmt.Fprintf(out, "Videos: %d\n", c.VideoCount())
			if total := c.TotalDuration(); total > 0 {
				fmt.Fprintf(out, "Total duration: %s\n", planner.FormatDuration(total))
			}
			fmt.Fprintf(out, "Structured: %s\n", yesNo(c.IsStructured()))

			if c.IsStructured() {
				fmt.Fprintln(out)
				printStructure(cmd, c)
				return nil
			}

			rows := make([][]string, 0, len(c.Videos))
			for i, v := range c.Videos {
				duration := ""
				if v.DurationSeconds != nil {
					duration = planner.FormatDuration(videoSeconds(*v.DurationSeconds))
				}
				rows = append(rows, []string{fmt.Sprintf("%d", i+1), v.Title, duration})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"#", "Title", "Duration"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignRight},
			))
			return nil
		},
	}
}

func newCoursesDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <course>",
		Short: "Delete a course and its plans and notes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := api.DeleteCourse(cmd.Context(), api.CourseRequest{Config: cfg, Logger: ctx.logger(), Course: args[0]}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted course %q\n", args[0])
			return nil
		},
	}
}
