package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"cvforge/internal/database"
	"cvforge/internal/tasks"
)

// MockCVStore mocks the CVStore interface
type MockCVStore struct {
	mock.Mock
}

func (m *MockCVStore) Create(ctx context.Context, cv *database.CV) error {
	args := m.Called(ctx, cv)
	return args.Error(0)
}

func (m *MockCVStore) GetByID(ctx context.Context, id string) (database.CV, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(database.CV), args.Error(1)
}

func (m *MockCVStore) ListByUser(ctx context.Context, userID string) ([]database.CV, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]database.CV), args.Error(1)
}

func (m *MockCVStore) ListSlugs(ctx context.Context, userID string) ([]string, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockCVStore) Update(ctx context.Context, id string, changes database.CVChanges) (database.CV, error) {
	args := m.Called(ctx, id, changes)
	return args.Get(0).(database.CV), args.Error(1)
}

func (m *MockCVStore) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockExportStore mocks the ExportStore interface
type MockExportStore struct {
	mock.Mock
}

func (m *MockExportStore) Create(ctx context.Context, export *database.Export) error {
	args := m.Called(ctx, export)
	return args.Error(0)
}

func (m *MockExportStore) GetByID(ctx context.Context, id string) (database.Export, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(database.Export), args.Error(1)
}

func (m *MockExportStore) MarkFailed(ctx context.Context, id, reason string) error {
	args := m.Called(ctx, id, reason)
	return args.Error(0)
}

// MockQueue mocks the ExportQueue interface
type MockQueue struct {
	mock.Mock
}

func (m *MockQueue) EnqueueExport(ctx context.Context, p tasks.ExportPayload) (string, error) {
	args := m.Called(ctx, p)
	return args.String(0), args.Error(1)
}

// MockArtifacts mocks the ArtifactStore interface
type MockArtifacts struct {
	mock.Mock
}

func (m *MockArtifacts) PresignDownload(ctx context.Context, objectKey, filename string, ttl time.Duration) (string, error) {
	args := m.Called(ctx, objectKey, filename, ttl)
	return args.String(0), args.Error(1)
}

func (m *MockArtifacts) DeletePrefix(ctx context.Context, prefix string) error {
	args := m.Called(ctx, prefix)
	return args.Error(0)
}
