package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"coursepilot/internal/api"
	"coursepilot/internal/course"
	"coursepilot/internal/planner"
	"coursepilot/internal/structure"
)

func newStructureCommand(ctx *commandContext) *cobra.Command {
	var algorithm string
	var clusters int
	var level string
	var reorder bool
	var learned bool
	var seed int64

	cmd := &cobra.Command{
		Use:   "structure <course>",
		Short: "Organize a course's videos into modules",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			c, err := api.StructureCourse(cmd.Context(), api.StructureCourseRequest{
				Config: cfg,
				Logger: ctx.logger(),
				Course: args[0],
				Options: structure.Options{
					Algorithm:           course.ClusteringAlgorithm(algorithm),
					TargetClusters:      clusters,
					UserLevel:           course.DifficultyLevel(level),
					ReorderByDifficulty: reorder,
					Seed:                seed,
				},
				UseLearnedPreferences: learned,
			})
			if err != nil {
				return err
			}
			printStructure(cmd, c)
			return nil
		},
	}

	cmd.Flags().StringVar(&algorithm, "algorithm", "", "Clustering algorithm (tfidf, kmeans, hierarchical, lda, hybrid)")
	cmd.Flags().IntVar(&clusters, "clusters", 0, "Force the number of modules")
	cmd.Flags().StringVar(&level, "level", "", "Your experience level (beginner, intermediate, advanced, expert)")
	cmd.Flags().BoolVar(&reorder, "reorder", false, "Reorder modules from easiest to hardest")
	cmd.Flags().BoolVar(&learned, "learned", false, "Seed the run from learned preferences")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Random seed for reproducible clustering")
	return cmd
}

func printStructure(cmd *cobra.Command, c *course.Course) {
	out := cmd.OutOrStdout()
	st := c.Structure

	fmt.Fprintf(out, "Structured %q into %d modules\n", c.Name, len(st.Modules))
	if st.Clustering != nil {
		fmt.Fprintf(out, "Algorithm: %s (strategy %s, quality %.2f)\n",
			st.Clustering.AlgorithmUsed, st.Clustering.StrategyUsed, st.Clustering.QualityScore)
	}

	rows := make([][]string, 0, len(st.Modules))
	for i, m := range st.Modules {
		difficulty := ""
		if m.Difficulty != nil {
			difficulty = string(*m.Difficulty)
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			m.Title,
			fmt.Sprintf("%d", len(m.Sections)),
			planner.FormatDuration(m.TotalDuration),
			difficulty,
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"#", "Module", "Videos", "Duration", "Difficulty"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignRight, alignRight, alignLeft},
	))
}
