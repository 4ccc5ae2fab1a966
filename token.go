package main

import (
	"fmt"
	"time"

	"social-integration/domain/model"
	"social-integration/infrastructure/configuration"
	"social-integration/infrastructure/utils"

	"github.com/spf13/cobra"
)

var tokenFlags struct {
	user string
	name string
	ttl  time.Duration
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Sign an API session token for a CRM user with the configured secret",
	RunE: func(cmd *cobra.Command, args []string) error {
		secret := configuration.C.App.SecretKey
		if secret == "" {
			return fmt.Errorf("SECRET_KEY is not configured")
		}
		if model.Identity(tokenFlags.user).IsSystem() {
			return fmt.Errorf("%q is reserved for configured credentials", tokenFlags.user)
		}
		token, err := utils.GenerateToken(tokenFlags.user, tokenFlags.name, secret, tokenFlags.ttl)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenFlags.user, "user", "", "user id placed in the subject claim")
	tokenCmd.Flags().StringVar(&tokenFlags.name, "name", "", "user name")
	tokenCmd.Flags().DurationVar(&tokenFlags.ttl, "ttl", 24*time.Hour, "token lifetime")
	_ = tokenCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(tokenCmd)
}
