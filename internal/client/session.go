package client

import (
	"sync"

	"github.com/sujalbistaa/shadowspace/internal/models"
)

// Credentials is the persisted login state.
type Credentials struct {
	User  models.User `json:"user"`
	Token string      `json:"token"`
}

// CredentialStore persists credentials across sessions. Implementations
// must tolerate Load on an empty store by returning (nil, nil).
type CredentialStore interface {
	LoadCredentials() (*Credentials, error)
	SaveCredentials(*Credentials) error
	ClearCredentials() error
}

// Session is the explicit auth state a client carries instead of global
// mutable state. Init reads any persisted token; Logout is the teardown
// that clears it everywhere.
type Session struct {
	store CredentialStore

	mu    sync.Mutex
	creds *Credentials
}

func NewSession(store CredentialStore) *Session {
	return &Session{store: store}
}

// Init loads persisted credentials, if any. A load failure leaves the
// session logged out rather than failing startup.
func (s *Session) Init() error {
	creds, err := s.store.LoadCredentials()
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.creds = creds
	s.mu.Unlock()
	return nil
}

// Login stores fresh credentials in memory and on disk.
func (s *Session) Login(creds Credentials) error {
	s.mu.Lock()
	s.creds = &creds
	s.mu.Unlock()
	return s.store.SaveCredentials(&creds)
}

// Logout clears the session everywhere.
func (s *Session) Logout() error {
	s.mu.Lock()
	s.creds = nil
	s.mu.Unlock()
	return s.store.ClearCredentials()
}

// Token returns the bearer token, or "" when logged out.
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.creds == nil {
		return ""
	}
	return s.creds.Token
}

// User returns the logged-in user, if any.
func (s *Session) User() (models.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.creds == nil {
		return models.User{}, false
	}
	return s.creds.User, true
}
