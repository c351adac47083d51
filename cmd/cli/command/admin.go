package command

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"yamdb/database"
	"yamdb/internal/microservices/http-api/models"
	"yamdb/internal/microservices/http-api/repository"
	"yamdb/internal/microservices/http-api/service"
	"yamdb/internal/rbac"
)

// createAdminCmd bootstraps the first administrator; the API can only
// create admins once one exists.
var createAdminCmd = &cobra.Command{
	Use:   "createadmin",
	Short: "Create a superuser account and print its confirmation code",
	RunE: func(cmd *cobra.Command, args []string) error {
		username, _ := cmd.Flags().GetString("username")
		email, _ := cmd.Flags().GetString("email")

		if err := service.ValidateUsername(username); err != nil {
			return err
		}
		if err := service.ValidateEmail(email); err != nil {
			return err
		}

		e, err := loadDBEnv()
		if err != nil {
			return err
		}
		db, err := openDB(e, cliLogger())
		if err != nil {
			return err
		}
		defer database.Close(db)

		user, err := createAdmin(cmd.Context(), repository.NewUserRepository(db), username, email)
		if err != nil {
			return err
		}
		fmt.Println("✓ Administrator created.")
		fmt.Printf("ID: %s\n", user.ID)
		fmt.Printf("Confirmation code: %s\n", user.ConfirmationCode)
		return nil
	},
}

func createAdmin(ctx context.Context, users repository.UserRepository, username, email string) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	user := &models.User{
		Username:         username,
		Email:            email,
		Role:             rbac.RoleAdmin,
		IsSuperuser:      true,
		ConfirmationCode: service.NewConfirmationCode(),
	}
	if err := users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create administrator: %w", err)
	}
	return user, nil
}

func init() {
	createAdminCmd.Flags().StringP("username", "u", "", "username of the new administrator")
	createAdminCmd.Flags().StringP("email", "e", "", "email of the new administrator")
	createAdminCmd.MarkFlagRequired("username")
	createAdminCmd.MarkFlagRequired("email")
}
