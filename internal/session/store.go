package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/arogyamitra/medrag/internal/vector"
	"go.uber.org/zap"
)

// ErrNotFound is returned when a session id has never been seen (or was
// evicted). On the query path callers treat it like an empty index.
var ErrNotFound = errors.New("session not found")

// ErrEmptyID is returned for an empty session identifier. The id is an opaque
// token from the calling layer; non-emptiness is the only format check.
var ErrEmptyID = errors.New("session id is empty")

// Store maps session ids to Sessions. Lookups across different sessions run
// concurrently; mutations to one session serialize on that session's write
// lock, not on the store.
type Store struct {
	dimensions int
	logger     *zap.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLogger sets a logger for lifecycle events.
func WithLogger(l *zap.Logger) StoreOption {
	return func(st *Store) { st.logger = l }
}

// NewStore creates a store whose sessions index vectors of the given dimension.
func NewStore(dimensions int, opts ...StoreOption) *Store {
	st := &Store{
		dimensions: dimensions,
		sessions:   make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(st)
	}
	return st
}

// CreateOrGet returns the session for id, creating it lazily on first use.
func (st *Store) CreateOrGet(id string) (*Session, error) {
	if id == "" {
		return nil, ErrEmptyID
	}
	st.mu.RLock()
	sess, ok := st.sessions[id]
	st.mu.RUnlock()
	if ok {
		return sess, nil
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if sess, ok := st.sessions[id]; ok {
		return sess, nil
	}
	var indexOpts []vector.MemoryIndexOption
	if st.logger != nil {
		indexOpts = append(indexOpts, vector.WithLogger(st.logger))
	}
	index, err := vector.NewMemoryIndex(st.dimensions, indexOpts...)
	if err != nil {
		return nil, err
	}
	sess = newSession(id, index, time.Now())
	st.sessions[id] = sess
	if st.logger != nil {
		st.logger.Debug("session created", zap.String("session_id", id))
	}
	return sess, nil
}

// Get returns the session for id, or ErrNotFound.
func (st *Store) Get(id string) (*Session, error) {
	if id == "" {
		return nil, ErrEmptyID
	}
	st.mu.RLock()
	defer st.mu.RUnlock()
	sess, ok := st.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return sess, nil
}

// Touch updates the session's last-access time if it exists.
func (st *Store) Touch(id string) {
	st.mu.RLock()
	sess, ok := st.sessions[id]
	st.mu.RUnlock()
	if ok {
		sess.Touch(time.Now())
	}
}

// Close removes the session explicitly, waiting for any in-flight ingestion.
// Returns false when the session does not exist.
func (st *Store) Close(id string) bool {
	st.mu.RLock()
	sess, ok := st.sessions[id]
	st.mu.RUnlock()
	if !ok {
		return false
	}
	sess.LockWrite()
	st.mu.Lock()
	delete(st.sessions, id)
	st.mu.Unlock()
	sess.UnlockWrite()
	if st.logger != nil {
		st.logger.Info("session closed", zap.String("session_id", id))
	}
	return true
}

// EvictIdle removes every session idle longer than timeout and returns how
// many were evicted. Each candidate's write lock is taken first so eviction
// never races an in-flight ingestion; last-access is re-checked under the lock
// in case a request slipped in.
func (st *Store) EvictIdle(now time.Time, timeout time.Duration) int {
	st.mu.RLock()
	candidates := make([]*Session, 0)
	for _, sess := range st.sessions {
		if now.Sub(sess.LastAccess()) > timeout {
			candidates = append(candidates, sess)
		}
	}
	st.mu.RUnlock()

	evicted := 0
	for _, sess := range candidates {
		sess.LockWrite()
		if now.Sub(sess.LastAccess()) > timeout {
			st.mu.Lock()
			delete(st.sessions, sess.ID())
			st.mu.Unlock()
			evicted++
			if st.logger != nil {
				st.logger.Info("session evicted",
					zap.String("session_id", sess.ID()),
					zap.Int("chunks", sess.Index().Size()),
					zap.Time("last_access", sess.LastAccess()),
				)
			}
		}
		sess.UnlockWrite()
	}
	return evicted
}

// Len returns the number of live sessions.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// StartSweeper runs EvictIdle every interval until ctx is done.
func (st *Store) StartSweeper(ctx context.Context, interval, timeout time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := st.EvictIdle(time.Now(), timeout); n > 0 && st.logger != nil {
					st.logger.Debug("idle sweep", zap.Int("evicted", n))
				}
			}
		}
	}()
}
