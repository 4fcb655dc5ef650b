// Package state holds one state service per Hub20 resource plus the Hub
// coordinator that sequences their lifecycles. Services record their last
// request error instead of letting it escape; callers branch on getters.
package state

import (
	"context"
	"sync"

	"github.com/mushroomlabs/hub20-go/api"
	"github.com/mushroomlabs/hub20-go/storage"
)

// AuthService owns the session credentials and the authenticated user's
// profile.
type AuthService struct {
	mu       sync.RWMutex
	client   *api.Client
	store    storage.Storage
	token    string
	username string
	profile  api.User
	loaded   bool
	err      error
}

// NewAuthService creates the auth service.
func NewAuthService(client *api.Client, store storage.Storage) *AuthService {
	return &AuthService{client: client, store: store}
}

// Initialize restores persisted credentials and attaches the token to the
// shared client.
func (s *AuthService) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if token, ok := s.store.Get(storage.TokenKey); ok {
		s.token = token
		s.client.SetToken(token)
	}
	if username, ok := s.store.Get(storage.UsernameKey); ok {
		s.username = username
	}
	return nil
}

// Login exchanges credentials for a session token, persists it, and attaches
// it to the shared client. Nothing is persisted on failure.
func (s *AuthService) Login(ctx context.Context, username, password string) error {
	token, err := s.client.Auth().Login(ctx, username, password)
	if err != nil {
		s.setErr(err)
		return err
	}

	s.mu.Lock()
	s.token = token
	s.username = username
	s.err = nil
	s.mu.Unlock()

	s.client.SetToken(token)
	if err := s.store.Set(storage.TokenKey, token); err != nil {
		return err
	}
	return s.store.Set(storage.UsernameKey, username)
}

// Logout invalidates the server session. Persisted credentials are cleared
// even when the server call fails.
func (s *AuthService) Logout(ctx context.Context) error {
	defer func() {
		s.store.Delete(storage.TokenKey)
		s.store.Delete(storage.UsernameKey)
		s.client.ClearToken()

		s.mu.Lock()
		s.token = ""
		s.username = ""
		s.profile = api.User{}
		s.loaded = false
		s.mu.Unlock()
	}()

	if err := s.client.Auth().Logout(ctx); err != nil {
		s.setErr(err)
		return err
	}
	return nil
}

// FetchProfile loads the authenticated user's account details.
func (s *AuthService) FetchProfile(ctx context.Context) error {
	profile, err := s.client.Auth().AccountDetails(ctx)
	if err != nil {
		s.setErr(err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile = profile
	s.loaded = true
	s.err = nil
	return nil
}

// UpdateProfile patches the authenticated user's account details.
func (s *AuthService) UpdateProfile(ctx context.Context, fields map[string]any) error {
	profile, err := s.client.Auth().UpdateAccountDetails(ctx, fields)
	if err != nil {
		s.setErr(err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile = profile
	s.loaded = true
	s.err = nil
	return nil
}

// IsAuthenticated reports whether a session token is present.
func (s *AuthService) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != ""
}

// IsAdmin reports whether the loaded profile has staff access.
func (s *AuthService) IsAdmin() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded && s.profile.IsAdmin
}

// Username returns the logged-in username.
func (s *AuthService) Username() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.username
}

// Profile returns the loaded account details and whether they are present.
func (s *AuthService) Profile() (api.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile, s.loaded
}

// Err returns the last recorded request error.
func (s *AuthService) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// Reset clears the in-memory session state and detaches the token from the
// shared client. Persisted credentials are left alone; Logout clears those.
func (s *AuthService) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.username = ""
	s.profile = api.User{}
	s.loaded = false
	s.err = nil
	s.client.ClearToken()
}

func (s *AuthService) setErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}
