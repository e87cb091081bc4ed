package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"coursepilot/internal/api"
	"coursepilot/internal/store"
)

func newNotesCommand(ctx *commandContext) *cobra.Command {
	notesCmd := &cobra.Command{
		Use:   "notes",
		Short: "Take and search notes on courses and videos",
	}

	notesCmd.AddCommand(newNotesAddCommand(ctx))
	notesCmd.AddCommand(newNotesSearchCommand(ctx))
	notesCmd.AddCommand(newNotesDeleteCommand(ctx))
	notesCmd.AddCommand(newNotesExportCommand(ctx))

	return notesCmd
}

func newNotesAddCommand(ctx *commandContext) *cobra.Command {
	var video int
	var at string
	var tags string

	cmd := &cobra.Command{
		Use:   "add <course> <content...>",
		Short: "Add a note to a course or one of its videos",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			req := api.AddNoteRequest{
				Config:  cfg,
				Logger:  ctx.logger(),
				Course:  args[0],
				Content: strings.Join(args[1:], " "),
				Tags:    splitTags(tags),
			}
			if video > 0 {
				index := video - 1
				req.VideoIndex = &index
			}
			if at != "" {
				if video <= 0 {
					return fmt.Errorf("--at requires --video")
				}
				timestamp, err := parseTimestamp(at)
				if err != nil {
					return err
				}
				req.Timestamp = &timestamp
			}

			n, err := api.AddNote(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added note %s\n", n.ID)
			return nil
		},
	}

	cmd.Flags().IntVar(&video, "video", 0, "Attach the note to a video (1-based)")
	cmd.Flags().StringVar(&at, "at", "", "Timestamp in the video (seconds, MM:SS, or H:MM:SS)")
	cmd.Flags().StringVar(&tags, "tags", "", "Comma-separated tags")
	return cmd
}

func newNotesSearchCommand(ctx *commandContext) *cobra.Command {
	var text string
	var tags string
	var video int
	var courseOnly bool

	cmd := &cobra.Command{
		Use:   "search <course>",
		Short: "Search a course's notes",
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

			filter := store.NoteFilter{
				CourseID:     c.ID,
				ContainsText: text,
				Tags:         splitTags(tags),
			}
			switch {
			case video > 0:
				filter.Scope = store.ScopeVideo
				filter.VideoID = video - 1
			case courseOnly:
				filter.Scope = store.ScopeCourseOnly
			}

			notes, err := api.SearchNotes(cmd.Context(), api.SearchNotesRequest{Config: cfg, Logger: ctx.logger(), Filter: filter})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(notes) == 0 {
				fmt.Fprintln(out, "No matching notes")
				return nil
			}
			rows := make([][]string, 0, len(notes))
			for _, n := range notes {
				target := "course"
				if n.VideoID != nil {
					target = fmt.Sprintf("video %d", *n.VideoID+1)
				}
				rows = append(rows, []string{
					n.ID,
					target,
					n.Content,
					strings.Join(n.Tags, ", "),
					n.CreatedAt.Format("2006-01-02"),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "On", "Content", "Tags", "Created"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "Match note content (case-insensitive)")
	cmd.Flags().StringVar(&tags, "tags", "", "Comma-separated tags that must all be present")
	cmd.Flags().IntVar(&video, "video", 0, "Only notes on this video (1-based)")
	cmd.Flags().BoolVar(&courseOnly, "course-only", false, "Only course-level notes")
	return cmd
}

func newNotesDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <note-id>",
		Short: "Delete a note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := api.DeleteNote(cmd.Context(), api.DeleteNoteRequest{Config: cfg, Logger: ctx.logger(), NoteID: args[0]}); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Deleted note")
			return nil
		},
	}
}

func newNotesExportCommand(ctx *commandContext) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export <course>",
		Short: "Export a course's notes as markdown",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path, err := api.ExportNotes(cmd.Context(), api.ExportNotesRequest{
				Config:     cfg,
				Logger:     ctx.logger(),
				Course:     args[0],
				OutputPath: output,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported notes to %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Destination file (defaults to the export directory)")
	return cmd
}
