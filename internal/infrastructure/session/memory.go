package session

import (
	"context"
	"sync"

	"github.com/praxishq/praxis/internal/application/ports"
	"github.com/praxishq/praxis/internal/domain"
)

// MemoryStore is an in-memory ImpersonationStore suitable for single-instance
// deployment and tests. For multi-instance, use the redis store.
type MemoryStore struct {
	mu   sync.Mutex
	data map[domain.UserID]domain.ImpersonationSession
}

// NewMemoryStore returns an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[domain.UserID]domain.ImpersonationSession)}
}

func (s *MemoryStore) Claim(ctx context.Context, sess domain.ImpersonationSession) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.data[sess.ActorID]; exists {
		return false, nil
	}
	s.data[sess.ActorID] = sess
	return true, nil
}

func (s *MemoryStore) Get(ctx context.Context, actorID domain.UserID) (*domain.ImpersonationSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.data[actorID]
	if !ok {
		return nil, nil
	}
	out := sess
	return &out, nil
}

func (s *MemoryStore) Release(ctx context.Context, actorID domain.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, actorID)
	return nil
}

var _ ports.ImpersonationStore = (*MemoryStore)(nil)
