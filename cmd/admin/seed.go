package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"cvforge/internal/database"
	"cvforge/internal/service"
)

const (
	demoEmail    = "demo@example.com"
	demoName     = "Usuario Demo"
	demoTitle    = "CV Frontend Developer"
	demoTemplate = "modern"
)

var demoData = json.RawMessage(`{
	"personalInfo": {
		"fullName": "Juan Pérez",
		"email": "juan.perez@example.com",
		"phone": "+34 600 123 456",
		"location": "Madrid, España",
		"website": "https://juanperez.dev",
		"linkedin": "https://linkedin.com/in/juanperez"
	},
	"experience": [{
		"id": "1",
		"company": "Tech Company",
		"position": "Frontend Developer",
		"startDate": "2022-01-01",
		"endDate": null,
		"description": "Desarrollo de aplicaciones web con React y Next.js",
		"current": true
	}],
	"education": [{
		"id": "1",
		"institution": "Universidad de Madrid",
		"degree": "Grado en Ingeniería Informática",
		"field": "Informática",
		"startDate": "2018-09-01",
		"endDate": "2022-06-30",
		"current": false
	}],
	"skills": [
		{"id": "1", "name": "React", "level": "advanced"},
		{"id": "2", "name": "TypeScript", "level": "advanced"},
		{"id": "3", "name": "Next.js", "level": "intermediate"}
	],
	"summary": "Desarrollador frontend con experiencia en React y Next.js"
}`)

type seedUsers interface {
	userCreator
	GetByEmail(ctx context.Context, email string) (database.User, error)
}

func newSeedCmd(flags *dbFlags) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create a demo account with an example CV",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := flags.open()
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer database.Close(db)

			cvs := service.NewCVService(database.NewCVStore(db), database.NewExportStore(db), nil, nil, 0, slog.Default())
			return seed(cmd.Context(), cmd.OutOrStdout(), database.NewUserStore(db), cvs, email)
		},
	}

	cmd.Flags().StringVar(&email, "email", demoEmail, "demo account email")
	return cmd
}

// seed is idempotent: an existing account and a CV with the demo title are reused.
func seed(ctx context.Context, out io.Writer, users seedUsers, cvs *service.CVService, email string) error {
	user, err := users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		fmt.Fprintf(out, "using existing account %s\n", user.Email)
	case errors.Is(err, database.ErrNotFound):
		password, err := generateRandomPassword(24)
		if err != nil {
			return err
		}
		if user, err = createUser(ctx, users, email, demoName, password); err != nil {
			return err
		}
		fmt.Fprintf(out, "created account %s\ninitial password: %s\n", user.Email, password)
	default:
		return fmt.Errorf("query user: %w", err)
	}

	existing, err := cvs.List(ctx, user.ID)
	if err != nil {
		return err
	}
	for _, s := range existing {
		if s.Title == demoTitle {
			fmt.Fprintf(out, "cv already present: %s (%s)\n", s.Title, s.Slug)
			return nil
		}
	}

	created, err := cvs.Create(ctx, service.CreateParams{UserID: user.ID, Title: demoTitle, Template: demoTemplate})
	if err != nil {
		return err
	}
	if _, err := cvs.Update(ctx, user.ID, created.ID, service.UpdateParams{Data: demoData}); err != nil {
		return err
	}
	fmt.Fprintf(out, "created cv %s (%s)\n", created.Title, created.Slug)
	return nil
}
