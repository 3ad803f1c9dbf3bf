package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/adminkit-backend/pkg/config"
	"github.com/angelmondragon/adminkit-backend/pkg/db/models"
	"github.com/angelmondragon/adminkit-backend/pkg/security"
	"github.com/jellydator/ttlcache/v2"
	"gorm.io/gorm"
)

const sessionTokenBytes = 32

var ErrInvalidSession = errors.New("invalid session")

type sessionStore interface {
	Create(ctx context.Context, s *models.Session) error
	FindByToken(ctx context.Context, token string) (*models.Session, error)
	Extend(ctx context.Context, id string, expiresAt, now time.Time) error
	DeleteByToken(ctx context.Context, token string) error
	DeleteByUser(ctx context.Context, userID, keepToken string) ([]string, error)
}

type userLookup interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// Resolved is the {user, session} pair attached to authenticated requests.
type Resolved struct {
	User    *models.User    `json:"user"`
	Session *models.Session `json:"session"`
}

// Meta is request metadata recorded on new sessions.
type Meta struct {
	IPAddress string
	UserAgent string
}

// Manager issues, resolves, and revokes database-backed sessions. Resolved
// sessions are cached in-process for the configured cache window.
type Manager struct {
	store     sessionStore
	users     userLookup
	cache     *ttlcache.Cache
	ttl       time.Duration
	updateAge time.Duration
	now       func() time.Time
}

// NewManager constructs a session manager. Call Close on shutdown.
func NewManager(store sessionStore, users userLookup, cfg config.AuthConfig) (*Manager, error) {
	if store == nil {
		return nil, fmt.Errorf("session store is required")
	}
	if users == nil {
		return nil, fmt.Errorf("user lookup is required")
	}
	if cfg.SessionTTL <= 0 {
		return nil, fmt.Errorf("session ttl must be positive")
	}
	if cfg.UpdateAge <= 0 || cfg.UpdateAge >= cfg.SessionTTL {
		return nil, fmt.Errorf("session update age (%s) must be positive and below ttl (%s)", cfg.UpdateAge, cfg.SessionTTL)
	}

	cache := ttlcache.NewCache()
	cache.SkipTTLExtensionOnHit(true)
	if cfg.CacheTTL > 0 {
		if err := cache.SetTTL(cfg.CacheTTL); err != nil {
			return nil, fmt.Errorf("configure session cache: %w", err)
		}
	}

	return &Manager{
		store:     store,
		users:     users,
		cache:     cache,
		ttl:       cfg.SessionTTL,
		updateAge: cfg.UpdateAge,
		now:       time.Now,
	}, nil
}

// Create opens a new session for userID.
func (m *Manager) Create(ctx context.Context, userID string, meta Meta) (*models.Session, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("user id is required")
	}
	token, err := security.NewToken(sessionTokenBytes)
	if err != nil {
		return nil, err
	}
	s := &models.Session{
		Token:     token,
		UserID:    userID,
		ExpiresAt: m.now().Add(m.ttl),
		IPAddress: optional(meta.IPAddress),
		UserAgent: optional(meta.UserAgent),
	}
	if err := m.store.Create(ctx, s); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return s, nil
}

// Resolve returns the session and its user, extending the expiry when the
// session has not been refreshed for longer than the update age.
func (m *Manager) Resolve(ctx context.Context, token string) (*Resolved, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidSession
	}
	now := m.now()

	if cached, err := m.cache.Get(token); err == nil {
		if resolved, ok := cached.(*Resolved); ok && !resolved.Session.Expired(now) {
			return resolved, nil
		}
		_ = m.cache.Remove(token)
	}

	s, err := m.store.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidSession
		}
		return nil, err
	}
	if s.Expired(now) {
		_ = m.store.DeleteByToken(ctx, token)
		return nil, ErrInvalidSession
	}

	if now.Sub(s.UpdatedAt) >= m.updateAge {
		expires := now.Add(m.ttl)
		if err := m.store.Extend(ctx, s.ID, expires, now); err != nil {
			return nil, fmt.Errorf("extend session: %w", err)
		}
		s.ExpiresAt = expires
		s.UpdatedAt = now
	}

	user, err := m.users.FindByID(ctx, s.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidSession
		}
		return nil, err
	}

	resolved := &Resolved{User: user, Session: s}
	_ = m.cache.Set(token, resolved)
	return resolved, nil
}

// Revoke deletes a single session.
func (m *Manager) Revoke(ctx context.Context, token string) error {
	_ = m.cache.Remove(token)
	return m.store.DeleteByToken(ctx, token)
}

// RevokeUser deletes every session of userID except keepToken.
func (m *Manager) RevokeUser(ctx context.Context, userID, keepToken string) error {
	tokens, err := m.store.DeleteByUser(ctx, userID, keepToken)
	for _, t := range tokens {
		_ = m.cache.Remove(t)
	}
	m.Forget(userID)
	if err != nil {
		return fmt.Errorf("revoke user sessions: %w", err)
	}
	return nil
}

// Forget drops cached sessions of userID so the next lookup reloads the user.
func (m *Manager) Forget(userID string) {
	for token, item := range m.cache.GetItems() {
		if resolved, ok := item.(*Resolved); ok && resolved.User != nil && resolved.User.ID == userID {
			_ = m.cache.Remove(token)
		}
	}
}

// TTL returns the configured session lifetime.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Close stops the cache janitor.
func (m *Manager) Close() error {
	return m.cache.Close()
}

func optional(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
