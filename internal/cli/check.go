package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/stitchlint/stitchlint/internal/cache"
	"github.com/stitchlint/stitchlint/internal/config"
	"github.com/stitchlint/stitchlint/internal/model"
	"github.com/stitchlint/stitchlint/internal/pipeline"
	"github.com/stitchlint/stitchlint/internal/report"
)

// Exit codes distinguish a fatal configuration failure from a successful
// analysis run that found critical mismatches, so CI callers can branch
// on the reason a run is non-zero.
const (
	exitOK            = 0
	exitConfigError   = 2
	exitAnalysisError = 3
	exitCriticalFound = 1
)

func newCheckCmd() *cobra.Command {
	var format string
	var outPath string
	var noCache bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Analyze the configured codebase and write a report",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, dir, err := loadConfig()
			if err != nil {
				os.Exit(exitConfigError)
				return nil
			}
			if format != "" {
				cfg.Output.Format = format
			}
			if outPath != "" {
				cfg.Output.Path = outPath
			}

			logf(cmd, "analyzing %d adapter(s) rooted at %s", len(cfg.Adapters), dir)

			var result *pipeline.Result
			if noCache {
				result, err = pipeline.Run(cfg, dir)
			} else {
				var c *cache.Cache
				c, err = pipeline.OpenCache(cfg, dir)
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "open cache: %v (continuing without it)\n", err)
					result, err = pipeline.Run(cfg, dir)
				} else {
					defer c.Close()
					result, err = pipeline.RunCached(cfg, dir, c)
				}
			}
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "analysis failed: %v\n", err)
				os.Exit(exitAnalysisError)
				return nil
			}
			if result.FromCache {
				logf(cmd, "reused cached graph (source tree unchanged)")
			}

			for _, d := range result.Diagnostics {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s\n", d.Error())
			}

			dest := filepath.Join(dir, cfg.Output.Path)
			if err := writeReport(result.Report, result.Graph, cfg.Output.Format, cfg.ProjectName, dest); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "write report: %v\n", err)
				os.Exit(exitAnalysisError)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s, %s (%d chains, %d critical, %d warnings)\n",
				dest, reportSize(dest), result.Report.Summary.TotalChains, result.Report.Summary.CriticalIssues, result.Report.Summary.Warnings)

			if result.Report.Summary.CriticalIssues > 0 {
				os.Exit(exitCriticalFound)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "", "override output.format (markdown|json|dot)")
	cmd.Flags().StringVar(&outPath, "out", "", "override output.path")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "skip the on-disk graph cache and always reparse")

	return cmd
}

// reportSize renders the written report file's size in human-readable
// form for the check summary footer; a stat failure degrades to "?" rather
// than aborting an otherwise-successful run.
func reportSize(path string) string {
	info, err := os.Stat(path)
	if err != nil {
		return "?"
	}
	return humanize.Bytes(uint64(info.Size()))
}

// writeReport renders the analysis result in the requested format. "dot"
// shares report.DOTWriter with the visualize command, operating on the
// assembled graph directly rather than the Report summary the other two
// formats render from.
func writeReport(r *report.Report, graph *model.Graph, format, projectName, dest string) error {
	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create %s: %w", dest, err)
	}
	defer f.Close()

	if format == "dot" {
		return report.DOTWriter{}.Write(graph, f)
	}

	var w report.Writer
	switch format {
	case "json":
		w = report.JSONWriter{}
	default:
		w = report.MarkdownWriter{ProjectName: projectName}
	}
	return w.Write(r, f)
}

// loadConfig loads and validates the configuration rooted at the current
// working directory, returning the directory the config file was found
// in (relative paths in the config resolve against it).
func loadConfig() (*config.Config, string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return nil, "", err
	}
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, "", err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return cfg, dir, nil
}
