package state

import (
	"context"
	"sync"

	"github.com/mushroomlabs/hub20-go/api"
	"github.com/mushroomlabs/hub20-go/storage"
)

// ServerService tracks the backend connection: root URL and advertised
// version, validated before use and persisted across restarts.
type ServerService struct {
	mu      sync.RWMutex
	client  *api.Client
	store   storage.Storage
	url     string
	version string
	err     error
}

// NewServerService creates the server service.
func NewServerService(client *api.Client, store storage.Storage) *ServerService {
	return &ServerService{client: client, store: store}
}

// StoredURL returns the persisted server URL from a previous session, if any.
func (s *ServerService) StoredURL() (string, bool) {
	return s.store.Get(storage.ServerURLKey)
}

// Connect probes url for a compatible backend. On success the client's base
// URL is switched over and the URL and version are persisted; on failure
// nothing changes and the error is recorded.
func (s *ServerService) Connect(ctx context.Context, url string) error {
	version, err := s.client.CheckServer(ctx, url)
	if err != nil {
		s.setErr(err)
		return err
	}

	s.client.SetBaseURL(url)

	s.mu.Lock()
	s.url = url
	s.version = version
	s.err = nil
	s.mu.Unlock()

	if err := s.store.Set(storage.ServerURLKey, url); err != nil {
		return err
	}
	return s.store.Set(storage.ServerVersionKey, version)
}

// URL returns the connected server root.
func (s *ServerService) URL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.url
}

// Version returns the connected server's advertised version.
func (s *ServerService) Version() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Err returns the last recorded connection error.
func (s *ServerService) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// Reset forgets the connection and clears the persisted URL and version.
func (s *ServerService) Reset() {
	s.mu.Lock()
	s.url = ""
	s.version = ""
	s.err = nil
	s.mu.Unlock()

	s.store.Delete(storage.ServerURLKey)
	s.store.Delete(storage.ServerVersionKey)
}

func (s *ServerService) setErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}
