package api

import "context"

// StoresClient handles merchant store CRUD.
type StoresClient struct {
	client *Client
}

func storePayload(store Store) map[string]any {
	return map[string]any{
		"name":                store.Name,
		"site_url":            store.SiteURL,
		"accepted_currencies": store.AcceptedCurrencies,
	}
}

// Create registers a new merchant store.
func (s *StoresClient) Create(ctx context.Context, store Store) (Store, error) {
	resp, err := s.client.post(ctx, "/stores", storePayload(store))
	return decode[Store](resp, err)
}

// List returns all of the user's stores.
func (s *StoresClient) List(ctx context.Context) ([]Store, error) {
	resp, err := s.client.get(ctx, "/stores")
	return decode[[]Store](resp, err)
}

// Get returns a single store by id.
func (s *StoresClient) Get(ctx context.Context, storeID string) (Store, error) {
	resp, err := s.client.get(ctx, "/stores/"+storeID)
	return decode[Store](resp, err)
}

// Update replaces the editable fields of an existing store.
func (s *StoresClient) Update(ctx context.Context, store Store) (Store, error) {
	resp, err := s.client.put(ctx, "/stores/"+store.ID, storePayload(store))
	return decode[Store](resp, err)
}

// Remove deletes a store.
func (s *StoresClient) Remove(ctx context.Context, storeID string) error {
	resp, err := s.client.delete(ctx, "/stores/"+storeID)
	if err != nil {
		return err
	}
	return resp.Error()
}
