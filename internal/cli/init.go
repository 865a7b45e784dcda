package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/stitchlint/stitchlint/internal/config"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a template .stitchlint.yaml config file",
		Long: `Write a template .stitchlint.yaml in the current directory, naming the
project and pre-populating a fastapi and a typescript adapter entry for
the user to point at their own source trees.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cwd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("get working directory: %w", err)
			}

			configPath := filepath.Join(cwd, config.DefaultConfigFile+"."+config.DefaultConfigType)
			if _, err := os.Stat(configPath); err == nil {
				return fmt.Errorf("%s already exists; project is already initialized", configPath)
			}

			out := cmd.OutOrStdout()
			cfg := config.Default(filepath.Base(cwd))
			if err := config.WriteConfig(cfg, configPath); err != nil {
				return fmt.Errorf("write config file: %w", err)
			}
			fmt.Fprintf(out, "Created %s\n", configPath)

			fmt.Fprintln(out)
			fmt.Fprintln(out, "Next steps:")
			fmt.Fprintln(out, "  1. Edit .stitchlint.yaml to point app_path/src_paths at your backend and frontend trees")
			fmt.Fprintln(out, "  2. If you have an OpenAPI document, set openapi_path")
			fmt.Fprintln(out, "  3. Run 'stitchlint check' to analyze the codebase")

			return nil
		},
	}
}
