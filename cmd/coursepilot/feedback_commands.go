package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"coursepilot/internal/api"
	"coursepilot/internal/course"
	"coursepilot/internal/learning"
)

func newFeedbackCommand(ctx *commandContext) *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:   "feedback <course> <rating>",
		Short: "Rate the last structuring of a course",
		Long:  "Record how well the computed structure worked for you. Ratings run from 0 to 1 and adjust future clustering runs.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			rating, err := strconv.ParseFloat(args[1], 64)
			if err != nil || rating < 0 || rating > 1 {
				return fmt.Errorf("invalid rating %q (expected 0..1)", args[1])
			}
			feedbackKind := learning.FeedbackKind(kind)

			c, err := api.GetCourse(cmd.Context(), api.CourseRequest{Config: cfg, Logger: ctx.logger(), Course: args[0]})
			if err != nil {
				return err
			}
			used, _, err := api.GetPreferences(cmd.Context(), api.PreferencesRequest{Config: cfg, Logger: ctx.logger()})
			if err != nil {
				return err
			}

			prefs, err := api.RecordFeedback(cmd.Context(), api.RecordFeedbackRequest{
				Config:   cfg,
				Logger:   ctx.logger(),
				Feedback: learning.NewFeedback(c.ID, feedbackKind, rating, used),
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Feedback recorded")
			fmt.Fprintf(out, "Preferred algorithm: %s, similarity threshold %.2f\n",
				prefs.PreferredAlgorithm, prefs.SimilarityThreshold)
			return nil
		},
	}

	cmd.Flags().StringVar(&kind, "kind", string(learning.FeedbackExplicitRating),
		"Feedback kind (explicit_rating, implicit_acceptance, rejection)")
	return cmd
}

func newPrefsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "prefs",
		Short: "Show learned clustering preferences",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			prefs, stored, err := api.GetPreferences(cmd.Context(), api.PreferencesRequest{Config: cfg, Logger: ctx.logger()})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !stored {
				fmt.Fprintln(out, "No learned preferences yet; showing defaults")
			}
			rows := [][]string{
				{"Algorithm", string(prefs.PreferredAlgorithm)},
				{"Strategy", string(prefs.PreferredStrategy)},
				{"Similarity threshold", fmt.Sprintf("%.2f", prefs.SimilarityThreshold)},
				{"Max clusters", strconv.Itoa(prefs.MaxClusters)},
				{"Min cluster size", strconv.Itoa(prefs.MinClusterSize)},
				{"Duration balancing", yesNo(prefs.EnableDurationBalancing)},
				{"Content vs duration weight", fmt.Sprintf("%.2f", prefs.ContentVsDurationWeight)},
				{"Experience level", string(prefs.UserExperienceLevel)},
				{"Feedback recorded", strconv.Itoa(prefs.UsageCount)},
				{"Satisfaction", fmt.Sprintf("%.2f", prefs.SatisfactionScore)},
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Preference", "Value"},
				rows,
				[]columnAlignment{alignLeft, alignLeft},
			))
			return nil
		},
	}
}

func newABTestCommand(ctx *commandContext) *cobra.Command {
	abCmd := &cobra.Command{
		Use:   "abtest",
		Short: "Run clustering algorithm experiments",
	}

	abCmd.AddCommand(newABTestCreateCommand(ctx))
	abCmd.AddCommand(newABTestAnalyzeCommand(ctx))

	return abCmd
}

func newABTestCreateCommand(ctx *commandContext) *cobra.Command {
	var description string
	var target int

	cmd := &cobra.Command{
		Use:   "create <name> <algorithm-a> <algorithm-b>",
		Short: "Start an A/B experiment between two algorithms",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			id, err := api.CreateABTest(cmd.Context(), api.CreateABTestRequest{
				Config:           cfg,
				Logger:           ctx.logger(),
				Name:             args[0],
				Description:      description,
				AlgorithmA:       course.ClusteringAlgorithm(args[1]),
				AlgorithmB:       course.ClusteringAlgorithm(args[2]),
				TargetSampleSize: target,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created experiment %s\n", id)
			return nil
		},
	}

	cmd.Flags().StringVar(&description, "description", "", "What the experiment is testing")
	cmd.Flags().IntVar(&target, "target", 60, "Samples to collect before the experiment closes")
	return cmd
}

func newABTestAnalyzeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <test-id>",
		Short: "Compare the two arms of an experiment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			analysis, err := api.AnalyzeABTest(cmd.Context(), api.AnalyzeABTestRequest{Config: cfg, Logger: ctx.logger(), TestID: args[0]})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Samples: %d (A) vs %d (B)\n", analysis.SampleSizeA, analysis.SampleSizeB)
			fmt.Fprintf(out, "Satisfaction: %.2f (A) vs %.2f (B)\n", analysis.SatisfactionA, analysis.SatisfactionB)
			fmt.Fprintf(out, "Significance: %.2f\n", analysis.Significance)
			if analysis.Winner != nil {
				fmt.Fprintf(out, "Winner: variant %s (its parameters are now the baseline)\n", *analysis.Winner)
			} else {
				fmt.Fprintln(out, "Too close to call")
			}
			return nil
		},
	}
}
