package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"cvforge/internal/auth"
	"cvforge/internal/database"
)

type userCreator interface {
	Create(ctx context.Context, user *database.User) error
}

func newCreateUserCmd(flags *dbFlags) *cobra.Command {
	var email, name, password string

	cmd := &cobra.Command{
		Use:     "create-user",
		Short:   "Create an account",
		Example: `  cvforge-admin create-user --email ada@example.com --name "Ada Lovelace"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := flags.open()
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer database.Close(db)

			generated := password == ""
			if generated {
				if password, err = generateRandomPassword(24); err != nil {
					return err
				}
			}

			user, err := createUser(cmd.Context(), database.NewUserStore(db), email, name, password)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "created account %s (%s)\n", user.Email, user.ID)
			if generated {
				fmt.Fprintf(out, "initial password: %s\n", password)
				fmt.Fprintf(out, "the password is shown only once\n")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "login email (required)")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&password, "password", "", "initial password, generated when empty")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func createUser(ctx context.Context, users userCreator, email, name, password string) (database.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return database.User{}, fmt.Errorf("invalid email %q", email)
	}
	if err := auth.ValidatePassword(password); err != nil {
		return database.User{}, err
	}

	hashed, err := auth.HashPassword(password)
	if err != nil {
		return database.User{}, fmt.Errorf("hash password: %w", err)
	}

	user := database.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hashed,
	}
	if trimmed := strings.TrimSpace(name); trimmed != "" {
		user.Name = &trimmed
	}

	if err := users.Create(ctx, &user); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return database.User{}, fmt.Errorf("user %q already exists", email)
		}
		return database.User{}, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}
