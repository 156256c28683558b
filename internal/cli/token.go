package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"callhistory/internal/auth"
	"callhistory/internal/config"
	"callhistory/internal/rbac"

	"github.com/spf13/cobra"
)

// TokenOptions holds flags for the token command.
type TokenOptions struct {
	*RootOptions
	Secret     string
	Issuer     string
	Audience   string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	UserID     string
	DeviceID   string
	Role       string
}

// NewTokenCommand creates the token command.
func NewTokenCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TokenOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an access/refresh token pair",
		Long: `Issue an access/refresh token pair signed with the service secret.

The HTTP login route is disabled in production; operators mint tokens here.

Example:
  JWT_SECRET=... calllogctl token --user alice --device phone-1 --role owner`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return issueToken(cmd, opts, time.Now())
		},
	}

	cmd.Flags().StringVar(&opts.Secret, "secret", os.Getenv("JWT_SECRET"), "signing secret (default $JWT_SECRET)")
	cmd.Flags().StringVar(&opts.Issuer, "issuer", os.Getenv("JWT_ISSUER"), "token issuer (default $JWT_ISSUER)")
	cmd.Flags().StringVar(&opts.Audience, "audience", os.Getenv("JWT_AUDIENCE"), "token audience (default $JWT_AUDIENCE)")
	cmd.Flags().DurationVar(&opts.AccessTTL, "ttl", 15*time.Minute, "access token lifetime")
	cmd.Flags().DurationVar(&opts.RefreshTTL, "refresh-ttl", 7*24*time.Hour, "refresh token lifetime")
	cmd.Flags().StringVar(&opts.UserID, "user", "", "subject user id")
	cmd.Flags().StringVar(&opts.DeviceID, "device", os.Getenv("DEVICE_ID"), "device id (default $DEVICE_ID)")
	cmd.Flags().StringVar(&opts.Role, "role", rbac.RoleReader, "role claim")

	return cmd
}

type tokenOutput struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    string `json:"expires_at"`
}

func issueToken(cmd *cobra.Command, opts *TokenOptions, now time.Time) error {
	if opts.UserID == "" || opts.DeviceID == "" {
		return errors.New("--user and --device are required")
	}
	if !rbac.IsKnownRole(opts.Role) {
		return fmt.Errorf("unknown role %q", opts.Role)
	}
	if opts.AccessTTL <= 0 || opts.RefreshTTL <= 0 {
		return errors.New("token lifetimes must be positive")
	}

	m, err := auth.NewManager(config.AuthConfig{
		JWTSecret:       opts.Secret,
		JWTIssuer:       opts.Issuer,
		JWTAudience:     opts.Audience,
		AccessTokenTTL:  opts.AccessTTL,
		RefreshTokenTTL: opts.RefreshTTL,
	})
	if err != nil {
		return err
	}
	pair, err := m.IssuePair(now, opts.UserID, opts.DeviceID, opts.Role)
	if err != nil {
		return fmt.Errorf("issue token: %w", err)
	}

	out := tokenOutput{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresAt:    pair.AccessExpiresAt.UTC().Format(time.RFC3339),
	}
	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), out)
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "access_token:  %s\nrefresh_token: %s\nexpires_at:    %s\n",
		out.AccessToken, out.RefreshToken, out.ExpiresAt)
	return err
}
