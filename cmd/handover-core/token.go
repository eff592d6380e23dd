package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/handover-core/internal/adapters/driven/auth"
	"github.com/custodia-labs/handover-core/internal/config"
	"github.com/custodia-labs/handover-core/internal/core/domain"
	"github.com/custodia-labs/handover-core/internal/core/ports/driving"
	"github.com/custodia-labs/handover-core/internal/core/services"
)

func newTokenCmd(opts *rootOptions) *cobra.Command {
	var (
		req  driving.IssueTokenRequest
		role string
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a development bearer token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(opts.configFile)
			if err != nil {
				return err
			}
			if err := cfg.ValidateAuth(); err != nil {
				return err
			}

			req.Role = domain.Role(role)

			svc := services.NewAuthService(auth.NewAdapterWithIssuer(cfg.Auth.JWTSecret, cfg.Auth.Issuer))
			token, err := svc.IssueToken(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.UserID, "user", "", "user id (required)")
	cmd.Flags().StringVar(&req.YachtID, "yacht", "", "yacht id (required)")
	cmd.Flags().StringVar(&req.Email, "email", "", "email address")
	cmd.Flags().StringVar(&role, "role", string(domain.RoleEngineer), "engineer, captain or admin")
	cmd.Flags().DurationVar(&req.TTL, "ttl", services.DefaultTokenTTL, "token lifetime")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("yacht")

	return cmd
}
