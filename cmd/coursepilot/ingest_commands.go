package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"coursepilot/internal/api"
	"coursepilot/internal/course"
	"coursepilot/internal/structure"
)

func newIngestCommand(ctx *commandContext) *cobra.Command {
	ingestCmd := &cobra.Command{
		Use:   "ingest",
		Short: "Add videos from a folder or a YouTube playlist",
	}

	ingestCmd.AddCommand(newIngestFolderCommand(ctx))
	ingestCmd.AddCommand(newIngestPlaylistCommand(ctx))

	return ingestCmd
}

func newIngestFolderCommand(ctx *commandContext) *cobra.Command {
	var name string
	var autoStructure bool
	var algorithm string

	cmd := &cobra.Command{
		Use:   "folder <path>",
		Short: "Scan a local folder for video files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			c, err := api.IngestFolder(cmd.Context(), api.IngestFolderRequest{
				Config:           cfg,
				Logger:           ctx.logger(),
				Path:             args[0],
				Name:             name,
				AutoStructure:    autoStructure,
				StructureOptions: structure.Options{Algorithm: course.ClusteringAlgorithm(algorithm)},
			})
			if err != nil {
				return err
			}
			printIngested(cmd, c)
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Course name (defaults to the folder name)")
	cmd.Flags().BoolVar(&autoStructure, "structure", false, "Structure the course immediately after ingest")
	cmd.Flags().StringVar(&algorithm, "algorithm", "", "Clustering algorithm when --structure is set")
	return cmd
}

func newIngestPlaylistCommand(ctx *commandContext) *cobra.Command {
	var name string
	var autoStructure bool
	var algorithm string

	cmd := &cobra.Command{
		Use:   "playlist <url-or-id>",
		Short: "Fetch a YouTube playlist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			c, err := api.IngestPlaylist(cmd.Context(), api.IngestPlaylistRequest{
				Config:           cfg,
				Logger:           ctx.logger(),
				Playlist:         args[0],
				Name:             name,
				AutoStructure:    autoStructure,
				StructureOptions: structure.Options{Algorithm: course.ClusteringAlgorithm(algorithm)},
			})
			if err != nil {
				return err
			}
			printIngested(cmd, c)
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Course name (defaults to the playlist ID)")
	cmd.Flags().BoolVar(&autoStructure, "structure", false, "Structure the course immediately after ingest")
	cmd.Flags().StringVar(&algorithm, "algorithm", "", "Clustering algorithm when --structure is set")
	return cmd
}

func printIngested(cmd *cobra.Command, c *course.Course) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created course %q with %d videos\n", c.Name, c.VideoCount())
	fmt.Fprintf(out, "ID: %s\n", c.ID)
	if c.IsStructured() {
		fmt.Fprintf(out, "Structured into %d modules\n", len(c.Structure.Modules))
	}
}
