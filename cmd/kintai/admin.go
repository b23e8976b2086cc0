package main

import (
	"errors"
	"fmt"

	"github.com/cmlabs-hris/kintai-backend-go/internal/app"
	"github.com/cmlabs-hris/kintai-backend-go/internal/domain/user"
	"github.com/spf13/cobra"
)

var adminEmail string

// adminCmd represents the admin command.
var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Manage administrator accounts",
}

var adminGrantCmd = &cobra.Command{
	Use:   "grant",
	Short: "Give a member administrator rights",
	RunE: func(cmd *cobra.Command, args []string) error {
		return setAdmin(cmd, true)
	},
}

var adminRevokeCmd = &cobra.Command{
	Use:   "revoke",
	Short: "Remove administrator rights from a member",
	RunE: func(cmd *cobra.Command, args []string) error {
		return setAdmin(cmd, false)
	},
}

func init() {
	rootCmd.AddCommand(adminCmd)
	adminCmd.AddCommand(adminGrantCmd)
	adminCmd.AddCommand(adminRevokeCmd)

	adminCmd.PersistentFlags().StringVar(&adminEmail, "email", "", "email address of the member")
	_ = adminCmd.MarkPersistentFlagRequired("email")
}

func setAdmin(cmd *cobra.Command, isAdmin bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Database.Driver != "postgres" {
		return errors.New("admin changes need DB_DRIVER=postgres; the memory store does not outlive this command")
	}

	application, err := app.New(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer application.Close()

	err = application.Members.SetAdmin(cmd.Context(), user.SetAdminRequest{Email: adminEmail, IsAdmin: isAdmin})
	if errors.Is(err, user.ErrUserNotFound) {
		return fmt.Errorf("no member with email %q", adminEmail)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s is_admin=%t\n", adminEmail, isAdmin)
	return nil
}
