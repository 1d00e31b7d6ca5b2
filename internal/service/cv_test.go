package service

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"cvforge/internal/cv"
	"cvforge/internal/database"
	"cvforge/internal/templates"
	"cvforge/internal/testutil"
)

type fixture struct {
	svc   *CVService
	cvs   *database.CVStore
	queue *MockQueue
	user  string
	other string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	db := testutil.NewDB(t)
	users := database.NewUserStore(db)

	ids := make([]string, 2)
	for i, email := range []string{"ada@example.com", "bob@example.com"} {
		u := database.User{ID: uuid.NewString(), Email: email, PasswordHash: "x"}
		require.NoError(t, users.Create(context.Background(), &u))
		ids[i] = u.ID
	}

	cvs := database.NewCVStore(db)
	queue := &MockQueue{}
	svc := NewCVService(cvs, database.NewExportStore(db), queue, nil, 0, testutil.NewLogger())
	return fixture{svc: svc, cvs: cvs, queue: queue, user: ids[0], other: ids[1]}
}

func (f fixture) create(t *testing.T, title string) CV {
	t.Helper()
	out, err := f.svc.Create(context.Background(), CreateParams{UserID: f.user, Title: title, Template: "modern"})
	require.NoError(t, err)
	return out
}

func TestCreate_AllocatesSequentialSlugs(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, "my-cv", f.create(t, "My CV").Slug)
	assert.Equal(t, "my-cv-2", f.create(t, "My CV").Slug)
	assert.Equal(t, "my-cv-3", f.create(t, "my cv").Slug)

	// slugs are per user
	other, err := f.svc.Create(context.Background(), CreateParams{UserID: f.other, Title: "My CV", Template: "classic"})
	require.NoError(t, err)
	assert.Equal(t, "my-cv", other.Slug)
}

func TestCreate_NormalizesTitleAndTemplate(t *testing.T) {
	f := newFixture(t)

	out, err := f.svc.Create(context.Background(), CreateParams{UserID: f.user, Title: "  Mi CV Frontend 2024!!  ", Template: "Classic"})
	require.NoError(t, err)

	assert.Equal(t, "Mi CV Frontend 2024!!", out.Title)
	assert.Equal(t, "mi-cv-frontend-2024", out.Slug)
	assert.Equal(t, templates.Classic, out.Template)
	assert.Equal(t, cv.EmptyData(), out.Data)
	assert.False(t, out.IsPublic)
	assert.Nil(t, out.PublicSlug)
}

func TestCreate_DegenerateTitleGetsEmptySlug(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, "", f.create(t, "!!!").Slug)
	assert.Equal(t, "-2", f.create(t, "???").Slug)
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		title    string
		template string
	}{
		{"blank title", "   ", "modern"},
		{"short title", " ab ", "modern"},
		{"long title", strings.Repeat("x", 101), "modern"},
		{"unknown template", "My CV", "UNKNOWN"},
		{"missing template", "My CV", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Create(ctx, CreateParams{UserID: f.user, Title: tt.title, Template: tt.template})
			assert.True(t, cv.IsValidationError(err), "got %v", err)
		})
	}

	list, err := f.svc.List(ctx, f.user)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestUpdate_ReplacesDataAndTemplate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created := f.create(t, "My CV")

	raw := json.RawMessage(`{
		"personalInfo": {"fullName": "Ada Lovelace", "email": "ada@example.com"},
		"skills": [{"id": "s1", "name": "Go", "level": "expert"}],
		"summary": "Engineer"
	}`)
	tpl := "CLASSIC"
	updated, err := f.svc.Update(ctx, f.user, created.ID, UpdateParams{Data: raw, Template: &tpl})
	require.NoError(t, err)

	assert.Equal(t, templates.Classic, updated.Template)
	assert.Equal(t, "Ada Lovelace", updated.Data.PersonalInfo.FullName)
	require.Len(t, updated.Data.Skills, 1)
	assert.Equal(t, cv.LevelExpert, updated.Data.Skills[0].Level)
	assert.NotNil(t, updated.Data.Experience)
	assert.Equal(t, created.Slug, updated.Slug)
	assert.False(t, updated.UpdatedAt.Before(created.UpdatedAt))

	got, err := f.svc.Get(ctx, f.user, created.ID)
	require.NoError(t, err)
	assert.Equal(t, updated.Data, got.Data)
}

func TestUpdate_EmptyPatchKeepsContent(t *testing.T) {
	f := newFixture(t)
	created := f.create(t, "My CV")

	updated, err := f.svc.Update(context.Background(), f.user, created.ID, UpdateParams{Data: json.RawMessage("null")})
	require.NoError(t, err)
	assert.Equal(t, created.Data, updated.Data)
	assert.Equal(t, created.Template, updated.Template)
}

func TestUpdate_RejectsInvalidInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created := f.create(t, "My CV")

	bad := "fancy"
	_, err := f.svc.Update(ctx, f.user, created.ID, UpdateParams{Template: &bad})
	assert.True(t, cv.IsValidationError(err))

	for _, raw := range []string{`[]`, `"text"`, `{"skills": "go"}`, `{"skills": [{"id": "1", "name": "Go", "level": "guru"}]}`,
		`{"experience": [{"id": "e1", "company": "ACME"}, {"id": "e1", "company": "Initech"}]}`,
	} {
		_, err = f.svc.Update(ctx, f.user, created.ID, UpdateParams{Data: json.RawMessage(raw)})
		assert.True(t, cv.IsValidationError(err), raw)
	}

	got, err := f.svc.Get(ctx, f.user, created.ID)
	require.NoError(t, err)
	assert.Equal(t, templates.Modern, got.Template)
	assert.Equal(t, cv.EmptyData(), got.Data)
}

func TestDuplicate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	public := "public-cv"
	src := &database.CV{
		ID:         uuid.NewString(),
		UserID:     f.user,
		Title:      "My CV",
		Slug:       "my-cv",
		Template:   "creative",
		Data:       `{"summary":"hello"}`,
		IsPublic:   true,
		PublicSlug: &public,
	}
	require.NoError(t, f.cvs.Create(ctx, src))

	dup, err := f.svc.Duplicate(ctx, f.user, src.ID)
	require.NoError(t, err)

	assert.NotEqual(t, src.ID, dup.ID)
	assert.Equal(t, "Copy of My CV", dup.Title)
	assert.Equal(t, "copy-of-my-cv", dup.Slug)
	assert.Equal(t, templates.Creative, dup.Template)
	assert.Equal(t, "hello", dup.Data.Summary)
	assert.False(t, dup.IsPublic)
	assert.Nil(t, dup.PublicSlug)

	again, err := f.svc.Duplicate(ctx, f.user, src.ID)
	require.NoError(t, err)
	assert.Equal(t, "copy-of-my-cv-2", again.Slug)
}

func TestDuplicate_TruncatesTitle(t *testing.T) {
	f := newFixture(t)
	created := f.create(t, strings.Repeat("a", 100))

	dup, err := f.svc.Duplicate(context.Background(), f.user, created.ID)
	require.NoError(t, err)
	assert.Equal(t, cv.MaxTitleLength, len([]rune(dup.Title)))
	assert.True(t, strings.HasPrefix(dup.Title, "Copy of "))
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created := f.create(t, "My CV")

	require.NoError(t, f.svc.Delete(ctx, f.user, created.ID))

	_, err := f.svc.Get(ctx, f.user, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, f.svc.Delete(ctx, f.user, created.ID), ErrNotFound)

	// the slug is free again
	assert.Equal(t, "my-cv", f.create(t, "My CV").Slug)
}

func TestList_NewestUpdateFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.create(t, "First CV")
	f.create(t, "Second CV")

	_, err := f.svc.Update(ctx, f.user, first.ID, UpdateParams{})
	require.NoError(t, err)

	list, err := f.svc.List(ctx, f.user)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID)
}

func TestForeignCVIsNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created := f.create(t, "My CV")

	_, err := f.svc.Get(ctx, f.other, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.svc.Update(ctx, f.other, created.ID, UpdateParams{})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.svc.Duplicate(ctx, f.other, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.svc.Preview(ctx, f.other, created.ID, "")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, f.svc.Delete(ctx, f.other, created.ID), ErrNotFound)

	_, err = f.svc.Get(ctx, f.user, uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)

	list, err := f.svc.List(ctx, f.other)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestPreview(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created := f.create(t, "My CV")

	tpl := "classic"
	_, err := f.svc.Update(ctx, f.user, created.ID, UpdateParams{Template: &tpl})
	require.NoError(t, err)

	doc, err := f.svc.Preview(ctx, f.user, created.ID, "")
	require.NoError(t, err)
	assert.Equal(t, templates.Classic, doc.Template)
	assert.Contains(t, doc.HTML, `id="cv-root"`)

	doc, err = f.svc.Preview(ctx, f.user, created.ID, "MINIMAL")
	require.NoError(t, err)
	assert.Equal(t, templates.Minimal, doc.Template)

	doc, err = f.svc.Preview(ctx, f.user, created.ID, "UNKNOWN")
	require.NoError(t, err)
	assert.Equal(t, templates.Modern, doc.Template)
}

func TestOwnershipRejectedBeforeWrites(t *testing.T) {
	ctx := context.Background()
	store := &MockCVStore{}
	exports := &MockExportStore{}
	queue := &MockQueue{}
	artifacts := &MockArtifacts{}
	svc := NewCVService(store, exports, queue, artifacts, 0, testutil.NewLogger())

	foreign := database.CV{ID: "cv-1", UserID: "owner", Title: "Theirs", Slug: "theirs", Template: "modern", Data: "{}"}
	store.On("GetByID", mock.Anything, "cv-1").Return(foreign, nil)

	tpl := "classic"
	_, err := svc.Update(ctx, "intruder", "cv-1", UpdateParams{Template: &tpl, Data: json.RawMessage(`{"summary":"x"}`)})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.Duplicate(ctx, "intruder", "cv-1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, "intruder", "cv-1"), ErrNotFound)
	_, err = svc.RequestExport(ctx, ExportParams{UserID: "intruder", CVID: "cv-1", Format: "png"})
	assert.ErrorIs(t, err, ErrNotFound)

	store.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "ListSlugs", mock.Anything, mock.Anything)
	exports.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	queue.AssertNotCalled(t, "EnqueueExport", mock.Anything, mock.Anything)
	artifacts.AssertNotCalled(t, "DeletePrefix", mock.Anything, mock.Anything)
}

func TestCreate_RetriesOnConcurrentSlug(t *testing.T) {
	store := &MockCVStore{}
	svc := NewCVService(store, nil, nil, nil, 0, testutil.NewLogger())

	store.On("ListSlugs", mock.Anything, "u1").Return([]string{}, nil).Once()
	store.On("ListSlugs", mock.Anything, "u1").Return([]string{"my-cv"}, nil).Once()
	store.On("Create", mock.Anything, mock.MatchedBy(func(row *database.CV) bool { return row.Slug == "my-cv" })).
		Return(database.ErrDuplicate).Once()
	store.On("Create", mock.Anything, mock.MatchedBy(func(row *database.CV) bool { return row.Slug == "my-cv-2" })).
		Return(nil).Once()

	out, err := svc.Create(context.Background(), CreateParams{UserID: "u1", Title: "My CV", Template: "modern"})
	require.NoError(t, err)
	assert.Equal(t, "my-cv-2", out.Slug)
	store.AssertExpectations(t)
}

func TestCreate_GivesUpAfterRepeatedConflicts(t *testing.T) {
	store := &MockCVStore{}
	svc := NewCVService(store, nil, nil, nil, 0, testutil.NewLogger())

	store.On("ListSlugs", mock.Anything, "u1").Return([]string{}, nil)
	store.On("Create", mock.Anything, mock.Anything).Return(database.ErrDuplicate)

	_, err := svc.Create(context.Background(), CreateParams{UserID: "u1", Title: "My CV", Template: "modern"})
	assert.ErrorIs(t, err, ErrSlugConflict)
	store.AssertNumberOfCalls(t, "Create", maxSlugAttempts)
}

func TestDelete_RemovesExportedFiles(t *testing.T) {
	store := &MockCVStore{}
	artifacts := &MockArtifacts{}
	svc := NewCVService(store, nil, nil, artifacts, 0, testutil.NewLogger())

	store.On("GetByID", mock.Anything, "cv-1").Return(database.CV{ID: "cv-1", UserID: "u1"}, nil)
	store.On("Delete", mock.Anything, "cv-1").Return(nil)
	artifacts.On("DeletePrefix", mock.Anything, "exports/u1/cv-1/").Return(assert.AnError)

	// storage cleanup failures do not fail the delete
	require.NoError(t, svc.Delete(context.Background(), "u1", "cv-1"))
	artifacts.AssertExpectations(t)
}
