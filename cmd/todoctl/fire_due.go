package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func fireDueCmd(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "fire-due",
		Short: "Fire every due registry entry once",
		Long: `Claim the due entries of the configured group, one batch, and run their
targets in this process. Claimed one-shot entries are consumed even when
delivery fails.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := env.application(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			queued, err := a.Poller.FireOnce(cmd.Context())
			if err != nil {
				return err
			}
			ran := a.Runner.RunPending(cmd.Context())

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "claimed and queued %d entries, ran %d jobs\n", queued, ran)
			return err
		},
	}
}
