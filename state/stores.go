package state

import (
	"context"
	"sort"
	"sync"

	"github.com/mushroomlabs/hub20-go/api"
)

// StoresService holds the user's merchant stores, keyed by id.
type StoresService struct {
	mu     sync.RWMutex
	client *api.Client
	stores map[string]api.Store
	err    error
}

// NewStoresService creates the stores service.
func NewStoresService(client *api.Client) *StoresService {
	return &StoresService{
		client: client,
		stores: make(map[string]api.Store),
	}
}

// Initialize fetches the store list.
func (s *StoresService) Initialize(ctx context.Context) error {
	return s.Refresh(ctx)
}

// Refresh re-fetches the store list, replacing it wholesale.
func (s *StoresService) Refresh(ctx context.Context) error {
	stores, err := s.client.Stores().List(ctx)
	if err != nil {
		s.setErr(err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.stores = make(map[string]api.Store, len(stores))
	for _, store := range stores {
		s.stores[store.ID] = store
	}
	s.err = nil
	return nil
}

// Create registers a new store and records it.
func (s *StoresService) Create(ctx context.Context, store api.Store) (api.Store, error) {
	created, err := s.client.Stores().Create(ctx, store)
	if err != nil {
		s.setErr(err)
		return api.Store{}, err
	}
	s.upsert(created)
	return created, nil
}

// Fetch loads a single store by id and upserts it.
func (s *StoresService) Fetch(ctx context.Context, storeID string) (api.Store, error) {
	store, err := s.client.Stores().Get(ctx, storeID)
	if err != nil {
		s.setErr(err)
		return api.Store{}, err
	}
	s.upsert(store)
	return store, nil
}

// Update replaces a store's editable fields and records the result.
func (s *StoresService) Update(ctx context.Context, store api.Store) (api.Store, error) {
	updated, err := s.client.Stores().Update(ctx, store)
	if err != nil {
		s.setErr(err)
		return api.Store{}, err
	}
	s.upsert(updated)
	return updated, nil
}

// Remove deletes a store and drops it from state.
func (s *StoresService) Remove(ctx context.Context, storeID string) error {
	if err := s.client.Stores().Remove(ctx, storeID); err != nil {
		s.setErr(err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.stores, storeID)
	s.err = nil
	return nil
}

// All returns the stores sorted by name.
func (s *StoresService) All() []api.Store {
	s.mu.RLock()
	out := make([]api.Store, 0, len(s.stores))
	for _, store := range s.stores {
		out = append(out, store)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out
}

// Get returns a store by id.
func (s *StoresService) Get(storeID string) (api.Store, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	store, ok := s.stores[storeID]
	return store, ok
}

// Err returns the last recorded request error.
func (s *StoresService) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// Reset drops all loaded stores.
func (s *StoresService) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stores = make(map[string]api.Store)
	s.err = nil
}

func (s *StoresService) upsert(store api.Store) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stores[store.ID] = store
	s.err = nil
}

func (s *StoresService) setErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}
