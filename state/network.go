package state

import (
	"context"
	"sync"

	"github.com/mushroomlabs/hub20-go/api"
)

// NetworkService tracks the hub's view of its blockchain node: connectivity,
// sync state and the current chain height, which block-created events keep
// moving forward between refreshes.
type NetworkService struct {
	mu           sync.RWMutex
	client       *api.Client
	status       api.NetworkStatus
	currentBlock int64
	loaded       bool
	err          error
}

// NewNetworkService creates the network service.
func NewNetworkService(client *api.Client) *NetworkService {
	return &NetworkService{client: client}
}

// Initialize fetches the network status.
func (s *NetworkService) Initialize(ctx context.Context) error {
	return s.Refresh(ctx)
}

// Refresh re-fetches the network status and resets the chain height to the
// reported highest block.
func (s *NetworkService) Refresh(ctx context.Context) error {
	status, err := s.client.Network().Status(ctx)
	if err != nil {
		s.setErr(err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
	s.currentBlock = status.Ethereum.HighestBlock
	s.loaded = true
	s.err = nil
	return nil
}

// SetCurrentBlock records a newer chain height. Older heights are ignored.
func (s *NetworkService) SetCurrentBlock(number int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if number > s.currentBlock {
		s.currentBlock = number
	}
}

// SetOnline overrides the node connectivity flag, driven by node
// availability events between refreshes.
func (s *NetworkService) SetOnline(online bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status.Ethereum.Online = online
}

// Status returns the last fetched network status and whether it is loaded.
func (s *NetworkService) Status() (api.NetworkStatus, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status, s.loaded
}

// CurrentBlock returns the tracked chain height.
func (s *NetworkService) CurrentBlock() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentBlock
}

// Online reports node connectivity.
func (s *NetworkService) Online() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status.Ethereum.Online
}

// Synced reports whether the node is caught up with the chain.
func (s *NetworkService) Synced() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status.Ethereum.Synced
}

// Err returns the last recorded request error.
func (s *NetworkService) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// Reset drops the loaded network state.
func (s *NetworkService) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = api.NetworkStatus{}
	s.currentBlock = 0
	s.loaded = false
	s.err = nil
}

func (s *NetworkService) setErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}
