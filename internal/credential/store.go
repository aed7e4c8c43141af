// Package credential persists the token and identity of the signed-in user.
package credential

import (
	"errors"
	"sync"
)

var (
	ErrNoCredential         = errors.New("no credential stored")
	ErrIncompleteCredential = errors.New("credential requires token, user id and username")
)

// Credential proves an authenticated session. It is valid only when every
// field is set.
type Credential struct {
	Token    string `yaml:"token"`
	UserID   string `yaml:"user_id"`
	Username string `yaml:"username"`
}

func (c Credential) Complete() bool {
	return c.Token != "" && c.UserID != "" && c.Username != ""
}

// Store is the durable home of the current credential. Save replaces any
// previous value in full; Load returns ErrNoCredential when nothing usable is
// stored.
type Store interface {
	Save(c Credential) error
	Load() (*Credential, error)
	Clear() error
}

// MemoryStore keeps the credential for the lifetime of the process.
type MemoryStore struct {
	mu   sync.Mutex
	cred *Credential
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Save(c Credential) error {
	if !c.Complete() {
		return ErrIncompleteCredential
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cred = &c
	return nil
}

func (s *MemoryStore) Load() (*Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cred == nil {
		return nil, ErrNoCredential
	}
	c := *s.cred
	return &c, nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cred = nil
	return nil
}
