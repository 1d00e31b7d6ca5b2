package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cvforge/internal/auth"
	"cvforge/internal/cv"
	"cvforge/internal/database"
	"cvforge/internal/service"
	"cvforge/internal/testutil"
)

func TestLoadDatabaseConfig(t *testing.T) {
	t.Setenv("DATABASE_HOST", "")
	t.Setenv("DATABASE_PORT", "")
	t.Setenv("POSTGRES_DB", "cvforge")
	t.Setenv("POSTGRES_USER", "cvforge")
	t.Setenv("POSTGRES_PASSWORD", "secret")
	t.Setenv("DATABASE_SSLMODE", "")

	cfg, err := loadDatabaseConfig("", 0, "", "", "", "")
	require.NoError(t, err)
	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, 5432, cfg.Port)
	assert.Equal(t, "disable", cfg.SSLMode)

	cfg, err = loadDatabaseConfig("db", 6543, "other", "", "", "require")
	require.NoError(t, err)
	assert.Equal(t, "db", cfg.Host)
	assert.Equal(t, 6543, cfg.Port)
	assert.Equal(t, "other", cfg.Name)
	assert.Equal(t, "require", cfg.SSLMode)

	t.Setenv("POSTGRES_PASSWORD", "")
	_, err = loadDatabaseConfig("", 0, "", "", "", "")
	assert.Error(t, err)

	t.Setenv("DATABASE_PORT", "abc")
	_, err = loadDatabaseConfig("", 0, "", "", "pw", "")
	assert.Error(t, err)
}

func TestCreateUser(t *testing.T) {
	users := database.NewUserStore(testutil.NewDB(t))
	ctx := context.Background()

	user, err := createUser(ctx, users, " Ada@Example.com ", "Ada", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", user.Email)
	require.NotNil(t, user.Name)
	assert.True(t, auth.CheckPasswordHash("secret1", user.PasswordHash))

	_, err = createUser(ctx, users, "ada@example.com", "", "secret2")
	assert.Error(t, err)
	_, err = createUser(ctx, users, "bob@example.com", "", "short")
	assert.ErrorIs(t, err, auth.ErrPasswordLength)
	_, err = createUser(ctx, users, "not-an-email", "", "secret1")
	assert.Error(t, err)
}

func TestDemoDataIsValid(t *testing.T) {
	require.NoError(t, cv.ValidateDataJSON(demoData))
	data := cv.Decode(string(demoData))
	assert.True(t, cv.HasMinimumData(data))
	assert.Len(t, data.Skills, 3)
}

func TestSeedIsIdempotent(t *testing.T) {
	db := testutil.NewDB(t)
	users := database.NewUserStore(db)
	cvs := service.NewCVService(database.NewCVStore(db), database.NewExportStore(db), nil, nil, 0, testutil.NewLogger())
	ctx := context.Background()

	var out bytes.Buffer
	require.NoError(t, seed(ctx, &out, users, cvs, demoEmail))
	require.NoError(t, seed(ctx, &out, users, cvs, demoEmail))

	user, err := users.GetByEmail(ctx, demoEmail)
	require.NoError(t, err)
	list, err := cvs.List(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "cv-frontend-developer", list[0].Slug)

	got, err := cvs.Get(ctx, user.ID, list[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Juan Pérez", got.Data.PersonalInfo.FullName)
}
