package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/gkisanet/2026.gemini-file-search/internal/core/domain"
)

// CredentialStore keeps logins for the lifetime of the process.
type CredentialStore struct {
	mu    sync.RWMutex
	items map[string]domain.Credentials
}

func NewCredentialStore() *CredentialStore {
	return &CredentialStore{items: make(map[string]domain.Credentials)}
}

func (s *CredentialStore) Load(_ context.Context, browserID string) (*domain.Credentials, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	creds, ok := s.items[browserID]
	if !ok {
		return nil, domain.WrapError(domain.ErrNotFound, "memory.load_credentials", fmt.Errorf("browser_id=%s", browserID))
	}
	return &creds, nil
}

func (s *CredentialStore) Save(_ context.Context, browserID string, creds domain.Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[browserID] = creds
	return nil
}

func (s *CredentialStore) Delete(_ context.Context, browserID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, browserID)
	return nil
}
