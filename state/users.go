package state

import (
	"context"
	"sort"
	"sync"

	"github.com/mushroomlabs/hub20-go/api"
)

// UsersService holds the hub's user directory, keyed by username.
type UsersService struct {
	mu     sync.RWMutex
	client *api.Client
	users  map[string]api.User
	err    error
}

// NewUsersService creates the users service.
func NewUsersService(client *api.Client) *UsersService {
	return &UsersService{
		client: client,
		users:  make(map[string]api.User),
	}
}

// Initialize fetches the user directory.
func (s *UsersService) Initialize(ctx context.Context) error {
	return s.Refresh(ctx)
}

// Refresh re-fetches the user directory, replacing it wholesale.
func (s *UsersService) Refresh(ctx context.Context) error {
	users, err := s.client.Users().List(ctx)
	if err != nil {
		s.setErr(err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = make(map[string]api.User, len(users))
	for _, user := range users {
		s.users[user.Username] = user
	}
	s.err = nil
	return nil
}

// Fetch loads a single user by username and upserts it.
func (s *UsersService) Fetch(ctx context.Context, username string) (api.User, error) {
	user, err := s.client.Users().Get(ctx, username)
	if err != nil {
		s.setErr(err)
		return api.User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.Username] = user
	s.err = nil
	return user, nil
}

// Search queries the directory by a free-form term and upserts the results.
func (s *UsersService) Search(ctx context.Context, term string) ([]api.User, error) {
	users, err := s.client.Users().Search(ctx, term)
	if err != nil {
		s.setErr(err)
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range users {
		s.users[user.Username] = user
	}
	s.err = nil
	return users, nil
}

// All returns the known users sorted by username.
func (s *UsersService) All() []api.User {
	s.mu.RLock()
	out := make([]api.User, 0, len(s.users))
	for _, user := range s.users {
		out = append(out, user)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].Username < out[j].Username
	})
	return out
}

// Get returns a user by username.
func (s *UsersService) Get(username string) (api.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[username]
	return user, ok
}

// Err returns the last recorded request error.
func (s *UsersService) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// Reset drops the loaded directory.
func (s *UsersService) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = make(map[string]api.User)
	s.err = nil
}

func (s *UsersService) setErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}
