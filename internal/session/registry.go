// Package session keeps the live wizard session of every user.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"myfinance/internal/cache"
	"myfinance/internal/log"
	"myfinance/internal/store"
	"myfinance/internal/wizard"
)

const (
	DefaultTTL     = 30 * time.Minute
	DefaultMaxSize = 10000
)

type entry struct {
	mu      sync.Mutex
	session *wizard.Session
}

// Registry hands out one Session per user. Calls for the same user run one at
// a time; different users never block each other once their session exists.
// An idle session expires after the TTL and its draft is dropped.
type Registry struct {
	sessions *cache.LRUCache[int64, *entry]
	profiles store.ProfileStore
	logger   *log.Logger

	createMu sync.Mutex
}

type Config struct {
	TTL     time.Duration
	MaxSize int
	// Profiles seeds new sessions with the user's default currency. Optional.
	Profiles store.ProfileStore
	Logger   *log.Logger
}

func NewRegistry(cfg Config) *Registry {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = DefaultMaxSize
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentSession)

	r := &Registry{
		sessions: cache.NewLRUCache[int64, *entry](cfg.MaxSize, cfg.TTL),
		profiles: cfg.Profiles,
		logger:   logger,
	}
	r.sessions.OnEvict(func(userID int64, e *entry) {
		r.logger.Debug("Session expired", log.FieldUserID, userID)
	})
	return r
}

// Cleaner exposes the underlying cache for a cache.Manager sweep.
func (r *Registry) Cleaner() cache.Cleaner {
	return r.sessions
}

// Do runs fn with the user's session, creating it on first use.
func (r *Registry) Do(ctx context.Context, userID int64, fn func(*wizard.Session) error) error {
	e, err := r.entry(ctx, userID)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	// Touch again so a long call does not leave the entry near expiry. An
	// entry evicted meanwhile may already have a successor; leave it alone.
	defer r.sessions.Touch(userID, func(cur *entry) bool { return cur == e })
	return fn(e.session)
}

// Forget drops the user's session and any draft in it.
func (r *Registry) Forget(userID int64) {
	r.sessions.Delete(userID)
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	return r.sessions.Size()
}

func (r *Registry) entry(ctx context.Context, userID int64) (*entry, error) {
	if e, ok := r.sessions.Get(userID); ok {
		return e, nil
	}

	r.createMu.Lock()
	defer r.createMu.Unlock()

	if e, ok := r.sessions.Get(userID); ok {
		return e, nil
	}

	var currency string
	if r.profiles != nil {
		c, ok, err := r.profiles.DefaultCurrency(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("load profile for user %d: %w", userID, err)
		}
		if ok {
			currency = c
		}
	}

	e := &entry{session: wizard.NewSession(userID, currency)}
	r.sessions.Set(userID, e)
	r.logger.DebugContext(ctx, "Session created",
		log.FieldUserID, userID,
		log.FieldCurrency, currency)
	return e, nil
}
