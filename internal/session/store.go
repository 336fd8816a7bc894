package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"photogallery/internal/cache"
)

const sessionKeyPrefix = "session:"

// StoreInterface defines the interface for session persistence.
type StoreInterface interface {
	// Load returns the session stored under id, or a fresh guest session
	// with a new id when id is empty or unknown.
	Load(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Destroy(ctx context.Context, id string) error
}

// Store keeps sessions as JSON documents in the cache.
type Store struct {
	cache cache.Store
	ttl   time.Duration
}

// Ensure Store implements StoreInterface
var _ StoreInterface = (*Store)(nil)

// NewStore creates a new session store.
func NewStore(cache cache.Store, ttl time.Duration) *Store {
	return &Store{cache: cache, ttl: ttl}
}

// Load retrieves session data from the cache.
func (s *Store) Load(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return fresh(), nil
	}
	data, err := s.cache.Get(ctx, sessionKeyPrefix+id)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if data == nil {
		return fresh(), nil
	}

	var d Data
	if err := json.Unmarshal(data, &d); err != nil {
		// A corrupt document is replaced rather than trusted.
		return fresh(), nil
	}
	return New(id, d), nil
}

// Save stores the session with the configured TTL, refreshing its expiry.
func (s *Store) Save(ctx context.Context, sess *Session) error {
	payload, err := json.Marshal(sess.data)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := s.cache.Set(ctx, sessionKeyPrefix+sess.id, payload, s.ttl); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Destroy removes a session.
func (s *Store) Destroy(ctx context.Context, id string) error {
	return s.cache.Delete(ctx, sessionKeyPrefix+id)
}

func fresh() *Session {
	return New(uuid.NewString(), Data{})
}
