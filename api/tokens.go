package api

import "context"

// TokensClient handles the hub's currency reference data.
type TokensClient struct {
	client *Client
}

// List returns every token tracked by the hub.
func (t *TokensClient) List(ctx context.Context) ([]Token, error) {
	resp, err := t.client.get(ctx, "/tokens/")
	return decode[[]Token](resp, err)
}

// Get returns the token descriptor for an address.
func (t *TokensClient) Get(ctx context.Context, address string) (Token, error) {
	resp, err := t.client.get(ctx, "/tokens/token/"+address)
	return decode[Token](resp, err)
}
