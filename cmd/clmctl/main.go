package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/cml-go/cml/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "clmctl",
	Short: "Run and inspect a cml scheduler",
	Long:  `clmctl runs workloads against a cml scheduler and inspects it while it runs.`,
}

// main registers every subcommand and persistent flag, then executes the
// root command, exiting 1 if it returns an error.
func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(benchCmd)
	rootCmd.AddCommand(monitorCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off); no subcommand reads this flag")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output; no subcommand reads this flag")
	rootCmd.PersistentFlags().Int("workers", 0, "worker count (0 = GOMAXPROCS)")
	rootCmd.PersistentFlags().String("config", "", "path to scheduler.toml")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
