package mocks

import (
	"context"

	"github.com/dukex/scenarios/pkg/models"
	"github.com/dukex/scenarios/pkg/persistence"
	"github.com/stretchr/testify/mock"
)

// MockLogRepository is a mock implementation of persistence.LogRepository.
type MockLogRepository struct {
	mock.Mock
}

var _ persistence.LogRepository = (*MockLogRepository)(nil)

func (m *MockLogRepository) Append(ctx context.Context, entry *models.AutomationLogEntry) error {
	args := m.Called(ctx, entry)

	return args.Error(0)
}

func (m *MockLogRepository) Complete(ctx context.Context, id string, completion models.LogCompletion) (*models.AutomationLogEntry, error) {
	args := m.Called(ctx, id, completion)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.AutomationLogEntry), args.Error(1)
}

func (m *MockLogRepository) Get(ctx context.Context, id string) (*models.AutomationLogEntry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.AutomationLogEntry), args.Error(1)
}

func (m *MockLogRepository) Query(ctx context.Context, filter models.LogFilter) ([]*models.AutomationLogEntry, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.AutomationLogEntry), args.Error(1)
}

// MockConnectionRepository is a mock implementation of persistence.ConnectionRepository.
type MockConnectionRepository struct {
	mock.Mock
}

var _ persistence.ConnectionRepository = (*MockConnectionRepository)(nil)

func (m *MockConnectionRepository) SaveConnection(ctx context.Context, connection *models.Connection) error {
	args := m.Called(ctx, connection)

	return args.Error(0)
}

func (m *MockConnectionRepository) GetConnection(ctx context.Context, id string) (*models.Connection, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Connection), args.Error(1)
}

func (m *MockConnectionRepository) ListConnections(ctx context.Context, ownerID string) ([]*models.Connection, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.Connection), args.Error(1)
}

func (m *MockConnectionRepository) DeleteConnection(ctx context.Context, id string) error {
	args := m.Called(ctx, id)

	return args.Error(0)
}
