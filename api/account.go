package api

import "context"

// AccountClient handles balances, credits and debits.
type AccountClient struct {
	client *Client
}

// Balances returns the user's balance per token.
func (a *AccountClient) Balances(ctx context.Context) ([]Balance, error) {
	resp, err := a.client.get(ctx, "/balances")
	return decode[[]Balance](resp, err)
}

// TokenBalance returns the balance for a single token address.
func (a *AccountClient) TokenBalance(ctx context.Context, address string) (Balance, error) {
	resp, err := a.client.get(ctx, "/balance/"+address)
	return decode[Balance](resp, err)
}

// Credits returns the user's incoming book entries.
func (a *AccountClient) Credits(ctx context.Context) ([]BookEntry, error) {
	resp, err := a.client.get(ctx, "/credits")
	return decode[[]BookEntry](resp, err)
}

// Debits returns the user's outgoing book entries.
func (a *AccountClient) Debits(ctx context.Context) ([]BookEntry, error) {
	resp, err := a.client.get(ctx, "/debits")
	return decode[[]BookEntry](resp, err)
}
