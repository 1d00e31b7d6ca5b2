package main

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"cvforge/internal/database"
)

// dbFlags override the database settings read from the environment.
type dbFlags struct {
	host     string
	port     int
	name     string
	user     string
	password string
	sslMode  string
}

func newRootCmd() *cobra.Command {
	flags := &dbFlags{}

	root := &cobra.Command{
		Use:           "cvforge-admin",
		Short:         "Operator tasks for cvforge",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			_ = godotenv.Load()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.host, "db-host", "", "database host (default $DATABASE_HOST)")
	pf.IntVar(&flags.port, "db-port", 0, "database port (default $DATABASE_PORT)")
	pf.StringVar(&flags.name, "db-name", "", "database name (default $POSTGRES_DB)")
	pf.StringVar(&flags.user, "db-user", "", "database user (default $POSTGRES_USER)")
	pf.StringVar(&flags.password, "db-password", "", "database password (default $POSTGRES_PASSWORD)")
	pf.StringVar(&flags.sslMode, "db-sslmode", "", "database sslmode (default $DATABASE_SSLMODE)")

	root.AddCommand(newCreateUserCmd(flags), newSeedCmd(flags))
	return root
}

func (f *dbFlags) open() (*gorm.DB, error) {
	cfg, err := loadDatabaseConfig(f.host, f.port, f.name, f.user, f.password, f.sslMode)
	if err != nil {
		return nil, err
	}
	db, err := database.InitDatabase(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		_ = database.Close(db)
		return nil, err
	}
	return db, nil
}
