package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/HerbHall/tabula/internal/auth"
	"github.com/HerbHall/tabula/internal/config"
)

var tokenFlags struct {
	subject string
	role    string
	ttl     time.Duration
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a signed bearer token for the admin API",
	Long: `token signs a JWT with auth.secret. Pass it to the admin routes as
"Authorization: Bearer <token>".`,
	Args: cobra.NoArgs,
	RunE: runToken,
}

func init() {
	f := tokenCmd.Flags()
	f.StringVar(&tokenFlags.subject, "subject", "admin", "token subject, recorded as the actor of admin changes")
	f.StringVar(&tokenFlags.role, "role", auth.RoleAdmin, "role claim")
	f.DurationVar(&tokenFlags.ttl, "ttl", 0, "token lifetime (default auth.token_ttl)")
}

func runToken(cmd *cobra.Command, _ []string) error {
	v, err := config.Load(configPath)
	if err != nil {
		return err
	}
	settings, err := config.New(v).Settings()
	if err != nil {
		return err
	}
	if settings.Auth.Secret == "" {
		return errors.New("auth.secret is not set (use TABULA_AUTH_SECRET or the config file)")
	}

	ttl := settings.Auth.TokenTTL
	if tokenFlags.ttl > 0 {
		ttl = tokenFlags.ttl
	}
	a, err := auth.New(settings.Auth.Secret, settings.Auth.Issuer, ttl)
	if err != nil {
		return err
	}
	token, err := a.Issue(tokenFlags.subject, tokenFlags.role)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
