package cli

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"companion-booking-backend/internal/auth"
	"companion-booking-backend/internal/model"
)

// newTokenCmd issues access tokens for operators and local testing.
func newTokenCmd(load configLoader) *cobra.Command {
	var (
		userID string
		role   string
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			r, err := model.ParseRole(role)
			if err != nil {
				return err
			}
			id := uuid.New()
			if userID != "" {
				if id, err = uuid.Parse(userID); err != nil {
					return fmt.Errorf("invalid --user: %w", err)
				}
			}
			if ttl <= 0 {
				ttl = time.Duration(cfg.Auth.TokenTTLMinutes) * time.Minute
			}

			tok, err := auth.IssueToken(cfg.Auth.JWTSecret, id, r, ttl)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "user:    %s\n", id)
			fmt.Fprintf(out, "role:    %s\n", r)
			fmt.Fprintf(out, "expires: %s\n", tok.Exp.Format(time.RFC3339))
			fmt.Fprintln(out, tok.Token)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "user id (random when empty)")
	cmd.Flags().StringVar(&role, "role", string(model.RoleCustomer), "customer, manager or admin")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (defaults to auth.token_ttl_minutes)")
	return cmd
}
