package chat_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"randomchat/backend/internal/chat"
	"randomchat/backend/internal/matching"
	"randomchat/backend/internal/models"
	"randomchat/backend/internal/session"
	"randomchat/backend/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// memSessionStore is an in-memory SessionStore with the same exclusivity
// guarantee as the real partial unique index.
type memSessionStore struct {
	mu       sync.Mutex
	sessions map[string]*models.Session
	active   map[int64]string
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{
		sessions: make(map[string]*models.Session),
		active:   make(map[int64]string),
	}
}

func (f *memSessionStore) InsertSession(_ context.Context, s *models.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, busy := f.active[s.UserATelegramID]; busy {
		return storage.ErrSessionConflict
	}
	if _, busy := f.active[s.UserBTelegramID]; busy {
		return storage.ErrSessionConflict
	}
	if s.SessionID == "" {
		s.SessionID = models.NewSessionID()
	}
	cp := *s
	f.sessions[s.SessionID] = &cp
	f.active[s.UserATelegramID] = s.SessionID
	f.active[s.UserBTelegramID] = s.SessionID
	return nil
}

func (f *memSessionStore) FindActiveByTelegramID(_ context.Context, telegramID int64) (*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.active[telegramID]
	if !ok {
		return nil, nil
	}
	cp := *f.sessions[id]
	return &cp, nil
}

func (f *memSessionStore) ActiveParticipantIDs(_ context.Context) ([]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]int64, 0, len(f.active))
	for id := range f.active {
		ids = append(ids, id)
	}
	return ids, nil
}

func (f *memSessionStore) MarkEnded(_ context.Context, sessionID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[sessionID]
	if !ok || s.Status != models.SessionActive {
		return false, nil
	}
	now := time.Now().UTC()
	s.Status = models.SessionEnded
	s.EndedAt = &now
	delete(f.active, s.UserATelegramID)
	delete(f.active, s.UserBTelegramID)
	return true, nil
}

func (f *memSessionStore) IncrementMessageCount(_ context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.sessions[sessionID]; ok {
		s.MessageCount++
	}
	return nil
}

func (f *memSessionStore) messageCount(sessionID string) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.sessions[sessionID]; ok {
		return s.MessageCount
	}
	return 0
}

type fixture struct {
	dir      *MockDirectory
	store    *memSessionStore
	events   *MockEventBus
	notifier *recordingNotifier
	svc      *chat.Service
}

func newFixture() *fixture {
	dir := new(MockDirectory)
	store := newMemSessionStore()
	events := new(MockEventBus)
	events.On("PublishEvent", mock.Anything, mock.Anything).Return(nil)
	notifier := newRecordingNotifier()
	registry := session.NewRegistry(store)
	matcher := matching.NewMatcherService(dir, store)
	return &fixture{
		dir:      dir,
		store:    store,
		events:   events,
		notifier: notifier,
		svc:      chat.NewService(dir, registry, matcher, events, notifier),
	}
}

func anyUser(tgID int64, anonID string) *models.User {
	return &models.User{
		TelegramID: tgID,
		AnonID:     anonID,
		Gender:     models.GenderOther,
		Preference: models.PreferenceAny,
	}
}

func TestStartMatchesAndNotifiesBoth(t *testing.T) {
	fx := newFixture()
	alice := anyUser(1, "u_alice000")
	bob := anyUser(2, "u_bob00000")

	fx.dir.On("FindCandidates", mock.Anything, mock.Anything).Return([]models.User{*bob}, nil)

	res, err := fx.svc.Start(context.Background(), alice)
	require.NoError(t, err)
	assert.Equal(t, chat.StartMatched, res)
	assert.Equal(t, []chat.NoticeKind{chat.NoticeMatchFound}, fx.notifier.kinds(1))
	assert.Equal(t, []chat.NoticeKind{chat.NoticeMatchFound}, fx.notifier.kinds(2))

	fx.events.AssertCalled(t, "PublishEvent", mock.Anything, mock.MatchedBy(func(e storage.Event) bool {
		return e.Type == storage.EventMatchCreated && e.AnonID == "u_alice000" && e.TargetAnonID == "u_bob00000"
	}))
}

func TestStartNoPartner(t *testing.T) {
	fx := newFixture()
	alice := anyUser(1, "u_alice000")
	fx.dir.On("FindCandidates", mock.Anything, mock.Anything).Return([]models.User{}, nil)

	res, err := fx.svc.Start(context.Background(), alice)
	require.NoError(t, err)
	assert.Equal(t, chat.StartNoPartner, res)
	assert.Empty(t, fx.notifier.sent(1))
}

func TestStartWhileInSession(t *testing.T) {
	fx := newFixture()
	alice := anyUser(1, "u_alice000")
	bob := anyUser(2, "u_bob00000")
	require.NoError(t, fx.store.InsertSession(context.Background(), &models.Session{
		UserATelegramID: 1, UserAAnonID: alice.AnonID,
		UserBTelegramID: 2, UserBAnonID: bob.AnonID,
		Status: models.SessionActive,
	}))

	res, err := fx.svc.Start(context.Background(), alice)
	require.NoError(t, err)
	assert.Equal(t, chat.StartAlreadyInSession, res)
}

func TestForwardTextAndCounter(t *testing.T) {
	fx := newFixture()
	alice := anyUser(1, "u_alice000")
	bob := anyUser(2, "u_bob00000")
	sess := &models.Session{
		UserATelegramID: 1, UserAAnonID: alice.AnonID,
		UserBTelegramID: 2, UserBAnonID: bob.AnonID,
		Status: models.SessionActive,
	}
	require.NoError(t, fx.store.InsertSession(context.Background(), sess))
	fx.dir.On("GetUserByAnonID", mock.Anything, "u_bob00000").Return(bob, nil)

	res, err := fx.svc.Forward(context.Background(), alice, chat.Message{Text: "hi"})
	require.NoError(t, err)
	assert.Equal(t, chat.ForwardOK, res)

	sent := fx.notifier.sent(2)
	require.Len(t, sent, 1)
	assert.Equal(t, chat.NoticeRelay, sent[0].Kind)
	assert.Equal(t, "hi", sent[0].Text)
	assert.Equal(t, int64(1), fx.store.messageCount(sess.SessionID))
}

func TestForwardMediaNeedsConsent(t *testing.T) {
	fx := newFixture()
	alice := anyUser(1, "u_alice000")
	bob := anyUser(2, "u_bob00000")
	bob.ConsentFiles = false
	require.NoError(t, fx.store.InsertSession(context.Background(), &models.Session{
		UserATelegramID: 1, UserAAnonID: alice.AnonID,
		UserBTelegramID: 2, UserBAnonID: bob.AnonID,
		Status: models.SessionActive,
	}))
	fx.dir.On("GetUserByAnonID", mock.Anything, "u_bob00000").Return(bob, nil)

	msg := chat.Message{Media: &chat.Media{Kind: chat.MediaPhoto, FileID: "f1"}}
	res, err := fx.svc.Forward(context.Background(), alice, msg)
	require.NoError(t, err)
	assert.Equal(t, chat.ForwardMediaDeclined, res)
	assert.Empty(t, fx.notifier.sent(2))

	// Once the partner consents the same media goes through.
	bob.ConsentFiles = true
	res, err = fx.svc.Forward(context.Background(), alice, msg)
	require.NoError(t, err)
	assert.Equal(t, chat.ForwardOK, res)
	require.Len(t, fx.notifier.sent(2), 1)
	assert.Equal(t, chat.MediaPhoto, fx.notifier.sent(2)[0].Media.Kind)
}

func TestForwardWithoutSession(t *testing.T) {
	fx := newFixture()
	alice := anyUser(1, "u_alice000")

	res, err := fx.svc.Forward(context.Background(), alice, chat.Message{Text: "hello?"})
	require.NoError(t, err)
	assert.Equal(t, chat.ForwardNoSession, res)
}

func TestForwardPartnerVanishedForceEnds(t *testing.T) {
	fx := newFixture()
	alice := anyUser(1, "u_alice000")
	sess := &models.Session{
		UserATelegramID: 1, UserAAnonID: alice.AnonID,
		UserBTelegramID: 2, UserBAnonID: "u_ghost000",
		Status: models.SessionActive,
	}
	require.NoError(t, fx.store.InsertSession(context.Background(), sess))
	fx.dir.On("GetUserByAnonID", mock.Anything, "u_ghost000").Return(nil, nil)

	res, err := fx.svc.Forward(context.Background(), alice, chat.Message{Text: "hi"})
	require.NoError(t, err)
	assert.Equal(t, chat.ForwardPartnerGone, res)
	assert.Equal(t, []chat.NoticeKind{chat.NoticePartnerLeft}, fx.notifier.kinds(1))

	// The dead session was closed, so the user can search again.
	active, err := fx.store.FindActiveByTelegramID(context.Background(), 1)
	require.NoError(t, err)
	assert.Nil(t, active)
}

func TestEndNotifiesPartnerOnce(t *testing.T) {
	fx := newFixture()
	alice := anyUser(1, "u_alice000")
	bob := anyUser(2, "u_bob00000")
	sess := &models.Session{
		UserATelegramID: 1, UserAAnonID: alice.AnonID,
		UserBTelegramID: 2, UserBAnonID: bob.AnonID,
		Status: models.SessionActive,
	}
	require.NoError(t, fx.store.InsertSession(context.Background(), sess))

	res, err := fx.svc.End(context.Background(), alice)
	require.NoError(t, err)
	assert.Equal(t, chat.EndOK, res)
	assert.Equal(t, []chat.NoticeKind{chat.NoticeChatEnded}, fx.notifier.kinds(1))
	assert.Equal(t, []chat.NoticeKind{chat.NoticePartnerLeft}, fx.notifier.kinds(2))

	// The other side ending afterwards sees no session.
	res, err = fx.svc.End(context.Background(), bob)
	require.NoError(t, err)
	assert.Equal(t, chat.EndNoSession, res)
	// Bob still only has the single notice from Alice's end.
	assert.Len(t, fx.notifier.sent(2), 1)
}

func TestBlockExcludesAndEnds(t *testing.T) {
	fx := newFixture()
	alice := anyUser(1, "u_alice000")
	bob := anyUser(2, "u_bob00000")
	require.NoError(t, fx.store.InsertSession(context.Background(), &models.Session{
		UserATelegramID: 1, UserAAnonID: alice.AnonID,
		UserBTelegramID: 2, UserBAnonID: bob.AnonID,
		Status: models.SessionActive,
	}))
	fx.dir.On("BlockUser", mock.Anything, "u_alice000", "u_bob00000").Return(nil)

	res, err := fx.svc.Block(context.Background(), alice)
	require.NoError(t, err)
	assert.Equal(t, chat.EndOK, res)
	fx.dir.AssertExpectations(t)

	active, err := fx.store.FindActiveByTelegramID(context.Background(), 1)
	require.NoError(t, err)
	assert.Nil(t, active)
}

func TestSkipEndsAndRematches(t *testing.T) {
	fx := newFixture()
	alice := anyUser(1, "u_alice000")
	bob := anyUser(2, "u_bob00000")
	carol := anyUser(3, "u_carol000")
	require.NoError(t, fx.store.InsertSession(context.Background(), &models.Session{
		UserATelegramID: 1, UserAAnonID: alice.AnonID,
		UserBTelegramID: 2, UserBAnonID: bob.AnonID,
		Status: models.SessionActive,
	}))
	fx.dir.On("FindCandidates", mock.Anything, mock.Anything).Return([]models.User{*carol}, nil)

	res, err := fx.svc.Skip(context.Background(), alice)
	require.NoError(t, err)
	assert.Equal(t, chat.StartMatched, res)

	active, err := fx.store.FindActiveByTelegramID(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, "u_carol000", active.UserBAnonID)
}
