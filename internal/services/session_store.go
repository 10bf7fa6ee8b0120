package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SAP-F-2025/quizhub-practice/internal/cache"
	"github.com/SAP-F-2025/quizhub-practice/internal/models"
)

const sessionKeyPrefix = "quiz_session:"

// SessionStore persists session snapshots so a session survives a reload or
// a restart of the service
type SessionStore interface {
	Save(ctx context.Context, snapshot *models.SessionSnapshot) error
	// Load returns ErrSessionNotFound when no snapshot exists
	Load(ctx context.Context, sessionID string) (*models.SessionSnapshot, error)
	Delete(ctx context.Context, sessionID string) error
}

type cacheSessionStore struct {
	cache cache.CacheService
	ttl   time.Duration
}

func NewCacheSessionStore(cacheService cache.CacheService, ttl time.Duration) SessionStore {
	return &cacheSessionStore{
		cache: cacheService,
		ttl:   ttl,
	}
}

func sessionKey(sessionID string) string {
	return sessionKeyPrefix + sessionID
}

func (s *cacheSessionStore) Save(ctx context.Context, snapshot *models.SessionSnapshot) error {
	return s.cache.Set(ctx, sessionKey(snapshot.ID), snapshot, s.ttl)
}

func (s *cacheSessionStore) Load(ctx context.Context, sessionID string) (*models.SessionSnapshot, error) {
	var snapshot models.SessionSnapshot
	if err := s.cache.Get(ctx, sessionKey(sessionID), &snapshot); err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load session snapshot: %w", err)
	}
	return &snapshot, nil
}

func (s *cacheSessionStore) Delete(ctx context.Context, sessionID string) error {
	return s.cache.Delete(ctx, sessionKey(sessionID))
}
