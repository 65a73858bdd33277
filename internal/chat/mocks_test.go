package chat_test

import (
	"context"
	"sync"

	"randomchat/backend/internal/chat"
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

// MockEventBus records published events.
type MockEventBus struct {
	mock.Mock
}

func (m *MockEventBus) PublishEvent(ctx context.Context, e storage.Event) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

// recordingNotifier captures notices per recipient for assertions.
type recordingNotifier struct {
	mu      sync.Mutex
	notices map[int64][]chat.Notice
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{notices: make(map[int64][]chat.Notice)}
}

func (n *recordingNotifier) Notify(_ context.Context, telegramID int64, notice chat.Notice) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices[telegramID] = append(n.notices[telegramID], notice)
	return nil
}

func (n *recordingNotifier) sent(telegramID int64) []chat.Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.notices[telegramID]
}

func (n *recordingNotifier) kinds(telegramID int64) []chat.NoticeKind {
	kinds := []chat.NoticeKind{}
	for _, notice := range n.sent(telegramID) {
		kinds = append(kinds, notice.Kind)
	}
	return kinds
}
