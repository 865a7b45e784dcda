// Package cli implements the stitchlint command-line interface, grounded
// on the teacher's internal/cli/root.go: a cobra root command with
// persistent --config/--verbose flags bound to viper, subcommands
// registered in init().
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "stitchlint",
	Short: "stitchlint - data-contract consistency checker across frontend, backend, and OpenAPI",
	Long: `stitchlint statically analyzes a FastAPI/Pydantic backend, a TypeScript/Zod
or NestJS frontend, and an optional OpenAPI document, tracing data chains
from frontend API calls through matched routes into persisted schemas and
flagging where the contract between layers drifts.

Commands:
  init       Write a template .stitchlint.yaml config file
  check      Run the analysis and write a report
  visualize  Write a DOT graph of the assembled call graph
  doctor     Report the health of the current configuration`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: .stitchlint.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	bindFlag := func(key, flag string) {
		if err := viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
			panic(fmt.Sprintf("failed to bind %s flag: %v", flag, err))
		}
	}
	bindFlag("config_file", "config")

	rootCmd.AddCommand(newInitCmd())
	rootCmd.AddCommand(newCheckCmd())
	rootCmd.AddCommand(newVisualizeCmd())
	rootCmd.AddCommand(newDoctorCmd())
	rootCmd.AddCommand(newVersionCmd())
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}
}

func logf(cmd *cobra.Command, format string, args ...any) {
	if !verbose {
		return
	}
	fmt.Fprintf(cmd.ErrOrStderr(), format+"\n", args...)
}
