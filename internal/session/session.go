// Package session provides the process-wide store mapping session ids to
// isolated per-user state: documents, vector index, and conversation history.
package session

import (
	"sync"
	"time"

	"github.com/arogyamitra/medrag/internal/models"
	"github.com/arogyamitra/medrag/internal/vector"
)

// Session is the unit of isolation: one user's documents, index, and
// conversation. All state is exclusively owned; eviction reclaims everything.
type Session struct {
	id        string
	createdAt time.Time
	index     *vector.MemoryIndex

	// writeMu serializes ingestion into this session and guards it against
	// concurrent eviction. Queries do not take it; the index has its own
	// read lock so reads stay concurrent with an in-flight ingestion.
	writeMu sync.Mutex

	mu         sync.RWMutex
	lastAccess time.Time
	documents  []*models.Document
	turns      []models.Turn
}

func newSession(id string, index *vector.MemoryIndex, now time.Time) *Session {
	return &Session{
		id:         id,
		createdAt:  now,
		lastAccess: now,
		index:      index,
	}
}

// ID returns the opaque session identifier.
func (s *Session) ID() string { return s.id }

// CreatedAt returns the session creation time.
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// Index returns the session's vector index.
func (s *Session) Index() *vector.MemoryIndex { return s.index }

// LockWrite acquires the single-writer lock. Ingestion and eviction must hold
// it; at most one of either runs against a session at a time.
func (s *Session) LockWrite() { s.writeMu.Lock() }

// UnlockWrite releases the single-writer lock.
func (s *Session) UnlockWrite() { s.writeMu.Unlock() }

// Touch updates the last-access time.
func (s *Session) Touch(now time.Time) {
	s.mu.Lock()
	s.lastAccess = now
	s.mu.Unlock()
}

// LastAccess returns the last-access time.
func (s *Session) LastAccess() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastAccess
}

// AddDocument appends a completed document record.
func (s *Session) AddDocument(doc *models.Document) {
	s.mu.Lock()
	s.documents = append(s.documents, doc)
	s.mu.Unlock()
}

// Document returns the document with the given id, if present.
func (s *Session) Document(id string) (*models.Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, d := range s.documents {
		if d.ID == id {
			return d, true
		}
	}
	return nil, false
}

// Documents returns a copy of the ingested document list in ingestion order.
func (s *Session) Documents() []*models.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*models.Document(nil), s.documents...)
}

// DocumentCount returns the number of ingested documents.
func (s *Session) DocumentCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.documents)
}

// AppendTurn records a question/answer pair, keeping at most maxTurns entries.
func (s *Session) AppendTurn(turn models.Turn, maxTurns int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = append(s.turns, turn)
	if maxTurns > 0 && len(s.turns) > maxTurns {
		s.turns = s.turns[len(s.turns)-maxTurns:]
	}
}

// RecentTurns returns up to n most recent turns, oldest first.
func (s *Session) RecentTurns(n int) []models.Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if n <= 0 || len(s.turns) == 0 {
		return nil
	}
	if n > len(s.turns) {
		n = len(s.turns)
	}
	return append([]models.Turn(nil), s.turns[len(s.turns)-n:]...)
}
