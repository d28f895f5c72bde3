package cmd

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/vibast-solutions/ms-go-reservations/app/auth"
	"github.com/vibast-solutions/ms-go-reservations/app/service"
	"golang.org/x/crypto/bcrypt"
)

var (
	tokenSubject string
	tokenRole    string
	hashCost     int
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Administrative helpers",
}

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password <password>",
	Short: "Print a bcrypt hash for ADMIN_PASSWORD_HASH",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hash, err := auth.HashPassword(args[0], hashCost)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), hash)
		return nil
	},
}

var issueTokenCmd = &cobra.Command{
	Use:   "issue-token",
	Short: "Issue a signed access token",
	RunE: func(cmd *cobra.Command, _ []string) error {
		role := strings.ToLower(strings.TrimSpace(tokenRole))
		if role != service.RoleAdmin && role != service.RoleUser {
			return fmt.Errorf("role must be %s or %s", service.RoleAdmin, service.RoleUser)
		}
		if strings.TrimSpace(tokenSubject) == "" {
			return fmt.Errorf("subject is required")
		}

		cfg := mustLoadConfig()
		token, err := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL).Issue(tokenSubject, role)
		if err != nil {
			return err
		}
		logrus.WithFields(logrus.Fields{"subject": tokenSubject, "role": role, "security_event": true}).Info("Access token issued")
		fmt.Fprintln(cmd.OutOrStdout(), token.Token)
		return nil
	},
}

func init() {
	hashPasswordCmd.Flags().IntVar(&hashCost, "cost", bcrypt.DefaultCost, "bcrypt cost")
	issueTokenCmd.Flags().StringVar(&tokenSubject, "subject", "", "Token subject (user id)")
	issueTokenCmd.Flags().StringVar(&tokenRole, "role", service.RoleUser, "Token role (user or admin)")

	adminCmd.AddCommand(hashPasswordCmd)
	adminCmd.AddCommand(issueTokenCmd)
	rootCmd.AddCommand(adminCmd)
}
