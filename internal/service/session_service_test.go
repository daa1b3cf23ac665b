package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/users-web/internal/models"
	"github.com/noah-isme/users-web/internal/repository"
)

type countingSessionMetrics struct {
	hits, misses int
}

func (m *countingSessionMetrics) RecordSessionLookup(found bool) {
	if found {
		m.hits++
		return
	}
	m.misses++
}

type brokenSessionStore struct{}

func (brokenSessionStore) Load(context.Context, string) (*models.Session, error) {
	return nil, errors.New("redis down")
}

func (brokenSessionStore) Save(context.Context, *models.Session, time.Duration) error {
	return errors.New("redis down")
}

func (brokenSessionStore) Delete(context.Context, string) error { return nil }

func newTestSessionService(store sessionStore) (*SessionService, *countingSessionMetrics) {
	metrics := &countingSessionMetrics{}
	return NewSessionService(store, SessionConfig{TTL: time.Hour, CSRFSecret: "test-secret", CSRFTTL: time.Minute}, metrics, nil), metrics
}

func TestSessionServiceFlashLifecycle(t *testing.T) {
	store := repository.NewMemorySessionRepository()
	svc, metrics := newTestSessionService(store)
	ctx := context.Background()

	session := svc.Start(ctx, "")
	require.NotEmpty(t, session.ID)
	assert.Equal(t, 0, metrics.hits)

	svc.AddFlash(ctx, session, models.FlashSuccess, "User created successfully!")

	resumed := svc.Start(ctx, session.ID)
	assert.Equal(t, session.ID, resumed.ID)
	assert.Equal(t, 1, metrics.hits)

	flashes := svc.PopFlashes(ctx, resumed)
	assert.Equal(t, []models.Flash{{Level: models.FlashSuccess, Message: "User created successfully!"}}, flashes)

	again := svc.Start(ctx, session.ID)
	assert.Empty(t, svc.PopFlashes(ctx, again))
}

func TestSessionServiceUnknownIDStartsFresh(t *testing.T) {
	svc, metrics := newTestSessionService(repository.NewMemorySessionRepository())
	ctx := context.Background()

	fresh := svc.Start(ctx, "3b241101-e2bb-4255-8caf-4136c566a962")
	assert.NotEqual(t, "3b241101-e2bb-4255-8caf-4136c566a962", fresh.ID)
	assert.Equal(t, 1, metrics.misses)

	forged := svc.Start(ctx, "not-a-uuid")
	assert.NotEqual(t, "not-a-uuid", forged.ID)
}

func TestSessionServiceSurvivesStoreOutage(t *testing.T) {
	svc, _ := newTestSessionService(brokenSessionStore{})
	ctx := context.Background()

	session := svc.Start(ctx, "3b241101-e2bb-4255-8caf-4136c566a962")
	require.NotNil(t, session)
	svc.AddFlash(ctx, session, models.FlashError, "boom")
	assert.Len(t, svc.PopFlashes(ctx, session), 1)
}

func TestSessionServiceCSRF(t *testing.T) {
	svc, _ := newTestSessionService(repository.NewMemorySessionRepository())
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	session := &models.Session{ID: "session-a"}
	other := &models.Session{ID: "session-b"}

	token, err := svc.IssueCSRF(session, "delete42")
	require.NoError(t, err)

	assert.True(t, svc.VerifyCSRF(session, "delete42", token))
	assert.False(t, svc.VerifyCSRF(session, "delete43", token))
	assert.False(t, svc.VerifyCSRF(other, "delete42", token))
	assert.False(t, svc.VerifyCSRF(session, "delete42", ""))
	assert.False(t, svc.VerifyCSRF(session, "delete42", token+"x"))

	now = now.Add(2 * time.Minute)
	assert.False(t, svc.VerifyCSRF(session, "delete42", token))
}

func TestSessionServiceCSRFRejectsForeignSecret(t *testing.T) {
	issuer := NewSessionService(repository.NewMemorySessionRepository(), SessionConfig{CSRFSecret: "one"}, nil, nil)
	verifier := NewSessionService(repository.NewMemorySessionRepository(), SessionConfig{CSRFSecret: "two"}, nil, nil)
	session := &models.Session{ID: "s"}

	token, err := issuer.IssueCSRF(session, "delete1")
	require.NoError(t, err)
	assert.False(t, verifier.VerifyCSRF(session, "delete1", token))
}
