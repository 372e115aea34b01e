package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"go-portal-sync/internal/config"
	"go-portal-sync/internal/middleware"
	"go-portal-sync/pkg/utils"

	"github.com/spf13/cobra"
)

// TokenOptions holds flags for the token command.
type TokenOptions struct {
	*RootOptions
	Subject string
	Roles   []string
	TTL     time.Duration
}

// NewTokenCommand creates the token command.
func NewTokenCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TokenOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for the admin API",
		Long: `Issue a bearer token signed with JWT_SECRET.

Example:
  portal-sync token --subject ops --role operator --ttl 24h`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return issueToken(cmd.Context(), opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.Subject, "subject", "", "token subject")
	cmd.Flags().StringSliceVar(&opts.Roles, "role", []string{middleware.RoleOperator}, "granted roles (admin|operator)")
	cmd.Flags().DurationVar(&opts.TTL, "ttl", 24*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("subject")

	return cmd
}

func issueToken(ctx context.Context, opts *TokenOptions, w io.Writer) error {
	out := &OutputFormatter{Format: opts.Format, Writer: w}

	var cfg *config.Config
	if err := withApp(ctx, opts.RootOptions, func(context.Context) error { return nil }, &cfg); err != nil {
		return out.Failure(err, nil)
	}
	if cfg.JWTSecret == "" {
		return out.Failure(NewExitError(ExitCommandError, "JWT_SECRET is not set"), nil)
	}
	utils.SetSecret(cfg.JWTSecret)

	token, err := utils.GenerateToken(opts.Subject, opts.Roles, opts.TTL)
	if err != nil {
		return out.Failure(err, nil)
	}

	return out.Success(map[string]any{"token": token, "roles": opts.Roles}, func(w io.Writer) {
		fmt.Fprintln(w, token)
	})
}
