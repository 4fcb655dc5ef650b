package api

import "context"

// AuditClient handles the admin-only accounting endpoints.
type AuditClient struct {
	client *Client
}

// AccountingReport returns the per-ledger balance sheets.
func (a *AuditClient) AccountingReport(ctx context.Context) (AccountingBooks, error) {
	resp, err := a.client.getRoot(ctx, "/status/accounting")
	return decode[AccountingBooks](resp, err)
}

// WalletBalances returns the balances held by each of the hub's wallets,
// keyed by wallet address.
func (a *AuditClient) WalletBalances(ctx context.Context) (map[string][]TokenBalance, error) {
	resp, err := a.client.getRoot(ctx, "/status/accounts")
	return decode[map[string][]TokenBalance](resp, err)
}
