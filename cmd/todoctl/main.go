// Command todoctl is the operator CLI for the todo reminders service: it runs
// migrations, mints development tokens, inspects the schedule registry and
// fires due reminders without a running server.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "todoctl",
		Short:         "Operate the todo reminders service",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"path to a config file (defaults to ./config.yaml when present)")

	env := &environment{configPath: &configPath}
	rootCmd.AddCommand(migrateCmd(env))
	rootCmd.AddCommand(tokenCmd(env))
	rootCmd.AddCommand(schedulesCmd(env))
	rootCmd.AddCommand(fireDueCmd(env))

	return rootCmd
}
