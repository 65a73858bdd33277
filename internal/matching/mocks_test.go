package matching_test

import (
	"context"

	"randomchat/backend/internal/models"
	"randomchat/backend/internal/storage"

	"github.com/stretchr/testify/mock"
)

// MockDirectory is a testify mock for the storage.Directory interface.
type MockDirectory struct {
	mock.Mock
}

func (m *MockDirectory) CreateUser(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockDirectory) GetUserByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	args := m.Called(ctx, telegramID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockDirectory) GetUserByAnonID(ctx context.Context, anonID string) (*models.User, error) {
	args := m.Called(ctx, anonID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockDirectory) UpdateUser(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockDirectory) TouchLastActive(ctx context.Context, telegramID int64) error {
	args := m.Called(ctx, telegramID)
	return args.Error(0)
}

func (m *MockDirectory) BlockUser(ctx context.Context, blockerAnonID, blockedAnonID string) error {
	args := m.Called(ctx, blockerAnonID, blockedAnonID)
	return args.Error(0)
}

func (m *MockDirectory) SetBanned(ctx context.Context, anonID string, banned bool) error {
	args := m.Called(ctx, anonID, banned)
	return args.Error(0)
}

func (m *MockDirectory) IncrementWarnings(ctx context.Context, anonID string) (int, error) {
	args := m.Called(ctx, anonID)
	return args.Int(0), args.Error(1)
}

func (m *MockDirectory) FindCandidates(ctx context.Context, q storage.CandidateQuery) ([]models.User, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockDirectory) ListUnbannedTelegramIDs(ctx context.Context) ([]int64, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

// MockSessionStore is a testify mock for the storage.SessionStore interface.
type MockSessionStore struct {
	mock.Mock
}

func (m *MockSessionStore) InsertSession(ctx context.Context, session *models.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockSessionStore) FindActiveByTelegramID(ctx context.Context, telegramID int64) (*models.Session, error) {
	args := m.Called(ctx, telegramID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *MockSessionStore) ActiveParticipantIDs(ctx context.Context) ([]int64, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

func (m *MockSessionStore) MarkEnded(ctx context.Context, sessionID string) (bool, error) {
	args := m.Called(ctx, sessionID)
	return args.Bool(0), args.Error(1)
}

func (m *MockSessionStore) IncrementMessageCount(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}
