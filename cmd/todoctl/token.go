package main

import (
	"errors"
	"fmt"

	"github.com/phrazzld/todo-reminders/internal/config"
	"github.com/phrazzld/todo-reminders/internal/service/auth"
	"github.com/spf13/cobra"
)

func tokenCmd(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "token [subject]",
		Short: "Mint a development bearer token",
		Long: `Mint an HS256 token for the given subject with the configured shared
secret. Only available in hmac auth mode; in jwks mode tokens come from the
identity provider.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := env.config()
			if err != nil {
				return err
			}
			if cfg.Auth.Mode != config.AuthModeHMAC {
				return errors.New("tokens can only be minted in hmac auth mode")
			}

			minter, err := auth.NewHMACVerifier(cfg.Auth)
			if err != nil {
				return err
			}
			token, err := minter.Mint(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to mint token: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
}
