// Package session tracks a short rolling conversation window per user.
// State is process-local by design; durable session storage is a
// collaborator concern.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/medhelm/nursedesk/internal/models"
)

// DefaultMaxHistory is the conversation window bound when none is configured.
const DefaultMaxHistory = 10

// Store holds one bounded conversation context per user identity. The user
// id is the sole partition key; appends for one user are serialized by a
// per-context mutex so FIFO order and the length bound hold under
// concurrent events.
type Store struct {
	mu         sync.RWMutex
	contexts   map[string]*userContext
	maxHistory int
}

type userContext struct {
	mu              sync.Mutex
	history         []models.HistoryEntry
	lastInteraction time.Time
}

// NewStore creates a session store. maxHistory <= 0 uses DefaultMaxHistory.
func NewStore(maxHistory int) *Store {
	if maxHistory <= 0 {
		maxHistory = DefaultMaxHistory
	}
	return &Store{
		contexts:   make(map[string]*userContext),
		maxHistory: maxHistory,
	}
}

// context returns the user's context, creating it lazily on first use.
func (s *Store) context(userID string) *userContext {
	s.mu.RLock()
	uc, ok := s.contexts[userID]
	s.mu.RUnlock()
	if ok {
		return uc
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if uc, ok := s.contexts[userID]; ok {
		return uc
	}
	uc = &userContext{}
	s.contexts[userID] = uc
	return uc
}

func (s *Store) append(userID, role, content string) {
	uc := s.context(userID)
	uc.mu.Lock()
	defer uc.mu.Unlock()

	uc.history = append(uc.history, models.HistoryEntry{
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	})
	if overflow := len(uc.history) - s.maxHistory; overflow > 0 {
		uc.history = append(uc.history[:0:0], uc.history[overflow:]...)
	}
	uc.lastInteraction = time.Now()
}

// AppendUserMessage records an inbound text message.
func (s *Store) AppendUserMessage(userID, content string) {
	s.append(userID, models.RoleUser, content)
}

// AppendUserMedia records an inbound media message as a synthetic
// placeholder, e.g. "[image: <id>]".
func (s *Store) AppendUserMedia(userID, kind, mediaID string) {
	s.append(userID, models.RoleUser, fmt.Sprintf("[%s: %s]", kind, mediaID))
}

// AppendBotMessage records an outbound bot message.
func (s *Store) AppendBotMessage(userID, content string) {
	s.append(userID, models.RoleBot, content)
}

// History returns a copy of the user's bounded history, oldest first.
// Unknown users get an empty history. Mutation must go through appends.
func (s *Store) History(userID string) []models.HistoryEntry {
	s.mu.RLock()
	uc, ok := s.contexts[userID]
	s.mu.RUnlock()
	if !ok {
		return nil
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()
	out := make([]models.HistoryEntry, len(uc.history))
	copy(out, uc.history)
	return out
}

// LastInteraction returns when the user last interacted, false if never.
func (s *Store) LastInteraction(userID string) (time.Time, bool) {
	s.mu.RLock()
	uc, ok := s.contexts[userID]
	s.mu.RUnlock()
	if !ok {
		return time.Time{}, false
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.lastInteraction, true
}

// Clear removes all state for the user. Subsequent access recreates a
// fresh empty context.
func (s *Store) Clear(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.contexts, userID)
}
