package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/heartmarshall/lexicon-backend/internal/app"
	"github.com/heartmarshall/lexicon-backend/internal/config"
	"github.com/heartmarshall/lexicon-backend/internal/domain"
	authsvc "github.com/heartmarshall/lexicon-backend/internal/service/auth"
)

// passwordEnv is read when --password is not given, keeping the secret out of shell history.
const passwordEnv = "LEXICON_USER_PASSWORD"

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}
	cmd.AddCommand(newUserCreateCmd(), newUserSetRoleCmd())
	return cmd
}

func newUserCreateCmd() *cobra.Command {
	var (
		email    string
		username string
		password string
		role     string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if password == "" {
				password = os.Getenv(passwordEnv)
			}
			if password == "" {
				return fmt.Errorf("--password or %s is required", passwordEnv)
			}
			r, err := parseRole(role)
			if err != nil {
				return err
			}

			return withContainer(cmd.Context(), func(ctx context.Context, c *app.Container, _ *config.Config, _ *slog.Logger) error {
				user, err := c.Auth.CreateUser(ctx, authsvc.CreateUserInput{
					Email:    email,
					Username: username,
					Password: password,
					Role:     r,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created user %s (%s, %s)\n", user.ID, user.Email, user.Role)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email address (required)")
	cmd.Flags().StringVar(&username, "username", "", "display name (required)")
	cmd.Flags().StringVar(&password, "password", "", "password (default: $"+passwordEnv+")")
	cmd.Flags().StringVar(&role, "role", string(domain.UserRoleViewer), "viewer, editor or admin")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("username")

	return cmd
}

func newUserSetRoleCmd() *cobra.Command {
	var email, role string

	cmd := &cobra.Command{
		Use:   "set-role",
		Short: "Change the role of an existing user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := parseRole(role)
			if err != nil {
				return err
			}
			return withContainer(cmd.Context(), func(ctx context.Context, c *app.Container, _ *config.Config, _ *slog.Logger) error {
				user, err := c.Auth.SetUserRoleByEmail(ctx, email, r)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", user.Email, user.Role)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email address (required)")
	cmd.Flags().StringVar(&role, "role", "", "viewer, editor or admin (required)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("role")

	return cmd
}

func parseRole(s string) (domain.UserRole, error) {
	r := domain.UserRole(strings.ToLower(strings.TrimSpace(s)))
	if !r.IsValid() {
		return "", errors.New("role must be one of viewer, editor, admin")
	}
	return r, nil
}
