package moderation_test

import (
	"context"
	"sync"
	"testing"

	"randomchat/backend/internal/models"
	"randomchat/backend/internal/moderation"
	"randomchat/backend/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// fakeDirectory tracks warnings and ban flags for moderation tests.
type fakeDirectory struct {
	mu       sync.Mutex
	warnings map[string]int
	banned   map[string]bool
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{warnings: make(map[string]int), banned: make(map[string]bool)}
}

func (f *fakeDirectory) CreateUser(context.Context, *models.User) error { return nil }
func (f *fakeDirectory) GetUserByTelegramID(context.Context, int64) (*models.User, error) {
	return nil, nil
}
func (f *fakeDirectory) GetUserByAnonID(context.Context, string) (*models.User, error) {
	return nil, nil
}
func (f *fakeDirectory) UpdateUser(context.Context, *models.User) error  { return nil }
func (f *fakeDirectory) TouchLastActive(context.Context, int64) error    { return nil }
func (f *fakeDirectory) BlockUser(context.Context, string, string) error { return nil }

func (f *fakeDirectory) SetBanned(_ context.Context, anonID string, banned bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.banned[anonID] = banned
	return nil
}

func (f *fakeDirectory) IncrementWarnings(_ context.Context, anonID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.warnings[anonID]++
	return f.warnings[anonID], nil
}

func (f *fakeDirectory) FindCandidates(context.Context, storage.CandidateQuery) ([]models.User, error) {
	return nil, nil
}
func (f *fakeDirectory) ListUnbannedTelegramIDs(context.Context) ([]int64, error) { return nil, nil }

func (f *fakeDirectory) isBanned(anonID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.banned[anonID]
}

type MockReportStore struct {
	mock.Mock
}

func (m *MockReportStore) InsertReport(ctx context.Context, report *models.Report) error {
	args := m.Called(ctx, report)
	return args.Error(0)
}

func (m *MockReportStore) ListPendingReports(ctx context.Context, limit int) ([]models.Report, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Report), args.Error(1)
}

type MockBanCache struct {
	mock.Mock
}

func (m *MockBanCache) IsBanned(ctx context.Context, anonID string) (bool, error) {
	args := m.Called(ctx, anonID)
	return args.Bool(0), args.Error(1)
}

func (m *MockBanCache) CacheBan(ctx context.Context, anonID string) error {
	args := m.Called(ctx, anonID)
	return args.Error(0)
}

func (m *MockBanCache) ClearBan(ctx context.Context, anonID string) error {
	args := m.Called(ctx, anonID)
	return args.Error(0)
}

type MockEventBus struct {
	mock.Mock
}

func (m *MockEventBus) PublishEvent(ctx context.Context, e storage.Event) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

type modFixture struct {
	dir     *fakeDirectory
	reports *MockReportStore
	bans    *MockBanCache
	events  *MockEventBus
	svc     *moderation.Service
}

func newModFixture() *modFixture {
	dir := newFakeDirectory()
	reports := new(MockReportStore)
	bans := new(MockBanCache)
	events := new(MockEventBus)
	events.On("PublishEvent", mock.Anything, mock.Anything).Return(nil)
	bans.On("CacheBan", mock.Anything, mock.Anything).Return(nil)
	bans.On("ClearBan", mock.Anything, mock.Anything).Return(nil)
	return &modFixture{
		dir:     dir,
		reports: reports,
		bans:    bans,
		events:  events,
		svc:     moderation.NewService(dir, reports, nil, bans, events, 3),
	}
}

func TestSeverityFor(t *testing.T) {
	assert.Equal(t, "low", moderation.SeverityFor("spam"))
	assert.Equal(t, "medium", moderation.SeverityFor("harassment"))
	assert.Equal(t, "critical", moderation.SeverityFor("threats"))
	assert.Equal(t, "low", moderation.SeverityFor("something else"))
}

func TestWarnBelowThreshold(t *testing.T) {
	fx := newModFixture()

	count, err := fx.svc.Warn(context.Background(), "u_target00")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.False(t, fx.dir.isBanned("u_target00"))
}

func TestWarnThresholdBans(t *testing.T) {
	fx := newModFixture()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := fx.svc.Warn(ctx, "u_target00")
		require.NoError(t, err)
	}
	assert.True(t, fx.dir.isBanned("u_target00"))
	fx.bans.AssertCalled(t, "CacheBan", mock.Anything, "u_target00")
	fx.events.AssertCalled(t, "PublishEvent", mock.Anything, mock.MatchedBy(func(e storage.Event) bool {
		return e.Type == storage.EventUserBanned && e.AnonID == "u_target00"
	}))
}

func TestFileReportLowSeverityNoWarning(t *testing.T) {
	fx := newModFixture()
	fx.reports.On("InsertReport", mock.Anything, mock.Anything).Return(nil)

	report, err := fx.svc.FileReport(context.Background(), "u_reporter", "u_target00", "sess_abc123def456", "spam")
	require.NoError(t, err)
	assert.Equal(t, "low", report.Severity)
	assert.Equal(t, 0, fx.dir.warnings["u_target00"])
	fx.events.AssertCalled(t, "PublishEvent", mock.Anything, mock.MatchedBy(func(e storage.Event) bool {
		return e.Type == storage.EventReportFiled && e.TargetAnonID == "u_target00"
	}))
}

func TestFileReportCriticalBansImmediately(t *testing.T) {
	fx := newModFixture()
	fx.reports.On("InsertReport", mock.Anything, mock.Anything).Return(nil)

	report, err := fx.svc.FileReport(context.Background(), "u_reporter", "u_target00", "sess_abc123def456", "threats")
	require.NoError(t, err)
	assert.Equal(t, "critical", report.Severity)
	assert.Equal(t, 3, fx.dir.warnings["u_target00"])
	assert.True(t, fx.dir.isBanned("u_target00"))
}

func TestBanAndUnban(t *testing.T) {
	fx := newModFixture()
	ctx := context.Background()

	require.NoError(t, fx.svc.Ban(ctx, "u_target00"))
	assert.True(t, fx.dir.isBanned("u_target00"))

	require.NoError(t, fx.svc.Unban(ctx, "u_target00"))
	assert.False(t, fx.dir.isBanned("u_target00"))
	fx.bans.AssertCalled(t, "ClearBan", mock.Anything, "u_target00")
}

func TestIsBannedPrefersCache(t *testing.T) {
	fx := newModFixture()
	fx.bans.On("IsBanned", mock.Anything, "u_target00").Return(true, nil)

	user := &models.User{AnonID: "u_target00", IsBanned: false}
	assert.True(t, fx.svc.IsBanned(context.Background(), user))
}
