package main

import (
	"fmt"

	"dubbing-orchestrator/internal/config"
	"dubbing-orchestrator/internal/infra/api"

	"github.com/spf13/cobra"
)

var tokenSubject string

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a bearer token for the job API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configFile)
		if err != nil {
			return fmt.Errorf("reading configuration: %w", err)
		}
		tok, err := api.NewAuthenticator(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL).Mint(tokenSubject)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "cli", "Token subject")
}
