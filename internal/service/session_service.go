package service

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/users-web/internal/models"
	appErrors "github.com/noah-isme/users-web/pkg/errors"
)

type sessionStore interface {
	Load(ctx context.Context, id string) (*models.Session, error)
	Save(ctx context.Context, session *models.Session, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}

type sessionMetrics interface {
	RecordSessionLookup(found bool)
}

// SessionConfig tunes session lifetime and CSRF signing.
type SessionConfig struct {
	TTL        time.Duration
	CSRFSecret string
	CSRFTTL    time.Duration
}

// SessionService manages flash messages and CSRF tokens for a browser session.
type SessionService struct {
	store   sessionStore
	metrics sessionMetrics
	cfg     SessionConfig
	logger  *zap.Logger
	now     func() time.Time
}

// NewSessionService constructs a SessionService.
func NewSessionService(store sessionStore, cfg SessionConfig, metrics sessionMetrics, logger *zap.Logger) *SessionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	if cfg.CSRFTTL <= 0 {
		cfg.CSRFTTL = 2 * time.Hour
	}
	return &SessionService{store: store, metrics: metrics, cfg: cfg, logger: logger, now: time.Now}
}

// Start resumes the session named by id or opens a new one. A store outage
// yields a fresh session so the page still renders.
func (s *SessionService) Start(ctx context.Context, id string) *models.Session {
	if _, err := uuid.Parse(id); err == nil {
		session, err := s.store.Load(ctx, id)
		switch {
		case err == nil:
			s.recordLookup(true)
			return session
		case appErrors.Is(err, appErrors.ErrCacheMiss):
			s.recordLookup(false)
		default:
			s.logger.Warn("session load failed", zap.String("session_id", id), zap.Error(err))
		}
	}

	session := &models.Session{ID: uuid.NewString(), Flashes: []models.Flash{}, CreatedAt: s.now().UTC()}
	if err := s.store.Save(ctx, session, s.cfg.TTL); err != nil {
		s.logger.Warn("session save failed", zap.String("session_id", session.ID), zap.Error(err))
	}
	return session
}

// AddFlash queues a message for the next rendered page and persists it
// immediately so a following redirect can read it.
func (s *SessionService) AddFlash(ctx context.Context, session *models.Session, level models.FlashLevel, message string) {
	session.Flashes = append(session.Flashes, models.Flash{Level: level, Message: message})
	if err := s.store.Save(ctx, session, s.cfg.TTL); err != nil {
		s.logger.Warn("flash save failed", zap.String("session_id", session.ID), zap.Error(err))
	}
}

// PopFlashes returns and clears the queued messages.
func (s *SessionService) PopFlashes(ctx context.Context, session *models.Session) []models.Flash {
	if len(session.Flashes) == 0 {
		return nil
	}
	flashes := session.Flashes
	session.Flashes = []models.Flash{}
	if err := s.store.Save(ctx, session, s.cfg.TTL); err != nil {
		s.logger.Warn("flash clear failed", zap.String("session_id", session.ID), zap.Error(err))
	}
	return flashes
}

// IssueCSRF signs a token for intent bound to the session.
func (s *SessionService) IssueCSRF(session *models.Session, intent string) (string, error) {
	issuedAt := s.now().UTC()
	claims := &models.CSRFClaims{
		SessionID: session.ID,
		Intent:    intent,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.cfg.CSRFTTL)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.CSRFSecret))
	if err != nil {
		return "", fmt.Errorf("sign csrf token: %w", err)
	}
	return signed, nil
}

// VerifyCSRF reports whether token was issued for this session and intent and
// has not expired.
func (s *SessionService) VerifyCSRF(session *models.Session, intent, token string) bool {
	if token == "" || session == nil {
		return false
	}
	claims := &models.CSRFClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.CSRFSecret), nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		s.logger.Debug("csrf token rejected", zap.String("intent", intent), zap.Error(err))
		return false
	}
	return claims.SessionID == session.ID && claims.Intent == intent
}

func (s *SessionService) recordLookup(found bool) {
	if s.metrics != nil {
		s.metrics.RecordSessionLookup(found)
	}
}
