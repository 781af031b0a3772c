package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"testhub/internal/db"
	"testhub/internal/logger"
	"testhub/internal/model"
	"testhub/internal/service"
)

func newCreateAdminCmd() *cobra.Command {
	var name, email, password string
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an admin user",
		Long: `Self-registration only ever creates test engineers. create-admin
bootstraps the first administrator, who can then assign roles through the API.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := setup()
			if err != nil {
				return err
			}
			defer logger.Sync()
			if err := db.InitDB(cfg); err != nil {
				return err
			}
			user, err := createAdmin(cmd.Context(), db.DB, name, email, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created admin %s (id %d)\n", user.Email, user.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "Administrator", "display name")
	cmd.Flags().StringVar(&email, "email", "", "login email")
	cmd.Flags().StringVar(&password, "password", "", "login password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func createAdmin(ctx context.Context, conn *gorm.DB, name, email, password string) (*model.User, error) {
	role := model.RoleAdmin
	return service.NewUserService(conn).Create(ctx, service.UserInput{
		Name:     &name,
		Email:    &email,
		Password: &password,
		Role:     &role,
	})
}
