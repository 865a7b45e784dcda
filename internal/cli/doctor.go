// doctor reports the health of the current configuration without running
// the full analysis, grounded on morozRed-skelly's internal/cli/doctor.go:
// a single summary struct printed either as plain text or --json, listing
// what's missing and what to do about it.
package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/stitchlint/stitchlint/internal/config"
)

// DoctorSummary is the health report doctor prints.
type DoctorSummary struct {
	ConfigPath     string   `json:"config_path"`
	Healthy        bool     `json:"healthy"`
	AdapterCount   int      `json:"adapter_count"`
	OpenAPIPath    string   `json:"openapi_path,omitempty"`
	PythonProject  string   `json:"python_project,omitempty"`
	Missing        []string `json:"missing,omitempty"`
	Suggestions    []string `json:"suggestions,omitempty"`
}

type pyProject struct {
	Project struct {
		Name string `toml:"name"`
	} `toml:"project"`
}

func newDoctorCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Report the health of the current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := os.Getwd()
			if err != nil {
				return err
			}

			summary := DoctorSummary{ConfigPath: filepath.Join(dir, config.DefaultConfigFile+"."+config.DefaultConfigType)}

			cfg, err := config.Load(cfgFile)
			if err != nil {
				summary.Missing = append(summary.Missing, "valid config file")
				summary.Suggestions = append(summary.Suggestions, "run 'stitchlint init'")
				return printDoctor(cmd, summary, asJSON)
			}
			if err := cfg.Validate(); err != nil {
				summary.Missing = append(summary.Missing, err.Error())
				return printDoctor(cmd, summary, asJSON)
			}

			summary.AdapterCount = len(cfg.Adapters)
			summary.OpenAPIPath = cfg.OpenAPIPath

			if len(cfg.Adapters) == 0 {
				summary.Missing = append(summary.Missing, "no adapters configured")
				summary.Suggestions = append(summary.Suggestions, "add at least one adapter to .stitchlint.yaml")
			}

			for i, a := range cfg.Adapters {
				roots := a.SrcPaths
				if a.AppPath != "" {
					roots = []string{a.AppPath}
				}
				for _, root := range roots {
					full := filepath.Join(dir, root)
					if _, err := os.Stat(full); err != nil {
						summary.Missing = append(summary.Missing, fmt.Sprintf("adapters[%d]: path %s does not exist", i, root))
					}
				}
				if a.Type == string(config.AdapterTypeFastAPI) {
					if name := detectPythonProjectName(dir, a.AppPath); name != "" {
						summary.PythonProject = name
					}
				}
			}

			if cfg.OpenAPIPath != "" {
				if _, err := os.Stat(filepath.Join(dir, cfg.OpenAPIPath)); err != nil {
					summary.Missing = append(summary.Missing, fmt.Sprintf("openapi_path %s does not exist", cfg.OpenAPIPath))
				}
			}

			summary.Healthy = len(summary.Missing) == 0
			if !summary.Healthy {
				summary.Suggestions = append(summary.Suggestions, "run 'stitchlint check --verbose' to see per-file diagnostics")
			}

			return printDoctor(cmd, summary, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

// detectPythonProjectName reads pyproject.toml under root, if present, for
// a nicer doctor report; failure to find or parse one is not an error, the
// config itself does not require it.
func detectPythonProjectName(dir, appPath string) string {
	for _, candidate := range []string{appPath, filepath.Dir(appPath)} {
		data, err := os.ReadFile(filepath.Join(dir, candidate, "pyproject.toml"))
		if err != nil {
			continue
		}
		var proj pyProject
		if err := toml.Unmarshal(data, &proj); err == nil && proj.Project.Name != "" {
			return proj.Project.Name
		}
	}
	return ""
}

func printDoctor(cmd *cobra.Command, summary DoctorSummary, asJSON bool) error {
	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}

	status := "issues"
	if summary.Healthy {
		status = "ok"
	}
	fmt.Fprintf(out, "doctor: %s\n", status)
	fmt.Fprintf(out, "config: %s\n", summary.ConfigPath)
	fmt.Fprintf(out, "adapters: %d\n", summary.AdapterCount)
	if summary.OpenAPIPath != "" {
		fmt.Fprintf(out, "openapi: %s\n", summary.OpenAPIPath)
	}
	if summary.PythonProject != "" {
		fmt.Fprintf(out, "python project: %s\n", summary.PythonProject)
	}
	if len(summary.Missing) > 0 {
		fmt.Fprintf(out, "missing (%d):\n", len(summary.Missing))
		for _, m := range summary.Missing {
			fmt.Fprintf(out, "  - %s\n", m)
		}
	}
	for _, s := range summary.Suggestions {
		fmt.Fprintf(out, "next: %s\n", s)
	}
	return nil
}
