package secrets

import (
	"fmt"
	"strings"
	"sync"
)

// Static keeps secrets in memory.
type Static struct {
	mu      sync.RWMutex
	secrets map[string]string
}

// NewStatic copies pairs into a new in-memory store.
func NewStatic(pairs map[string]string) *Static {
	s := &Static{secrets: make(map[string]string, len(pairs))}
	for k, v := range pairs {
		s.secrets[strings.TrimSpace(k)] = v
	}
	return s
}

func (s *Static) Secret(appID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.secrets[strings.TrimSpace(appID)], nil
}

func (s *Static) Put(appID, secret string) error {
	appID = strings.TrimSpace(appID)
	if appID == "" {
		return fmt.Errorf("appid is empty")
	}
	s.mu.Lock()
	s.secrets[appID] = secret
	s.mu.Unlock()
	return nil
}

func (s *Static) Delete(appID string) error {
	s.mu.Lock()
	delete(s.secrets, strings.TrimSpace(appID))
	s.mu.Unlock()
	return nil
}

func (s *Static) AppIDs() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedKeys(s.secrets), nil
}

func (s *Static) Close() error { return nil }
