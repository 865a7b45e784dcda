package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/stitchlint/stitchlint/internal/pipeline"
	"github.com/stitchlint/stitchlint/internal/report"
)

func newVisualizeCmd() *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "visualize",
		Short: "Write a DOT graph of the assembled call graph",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, dir, err := loadConfig()
			if err != nil {
				os.Exit(exitConfigError)
				return nil
			}

			result, err := pipeline.Run(cfg, dir)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "analysis failed: %v\n", err)
				os.Exit(exitAnalysisError)
				return nil
			}

			if outPath == "" {
				outPath = "stitchlint-graph.dot"
			}
			dest := filepath.Join(dir, outPath)
			f, err := os.Create(dest)
			if err != nil {
				return fmt.Errorf("create %s: %w", dest, err)
			}
			defer f.Close()

			if err := (report.DOTWriter{}).Write(result.Graph, f); err != nil {
				return fmt.Errorf("write DOT graph: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", dest)
			return nil
		},
	}

	cmd.Flags().StringVar(&outPath, "out", "", "output path (default stitchlint-graph.dot)")

	return cmd
}
