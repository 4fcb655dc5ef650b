package state

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/mushroomlabs/hub20-go/api"
)

// AuditService holds the admin-only accounting report and per-wallet
// balances.
type AuditService struct {
	mu      sync.RWMutex
	client  *api.Client
	books   api.AccountingBooks
	wallets map[string][]api.TokenBalance
	loaded  bool
	err     error
}

// NewAuditService creates the audit service.
func NewAuditService(client *api.Client) *AuditService {
	return &AuditService{client: client}
}

// Initialize fetches the accounting report and wallet balances.
func (s *AuditService) Initialize(ctx context.Context) error {
	return s.Refresh(ctx)
}

// Refresh re-fetches the accounting report and wallet balances.
func (s *AuditService) Refresh(ctx context.Context) error {
	books, err := s.client.Audit().AccountingReport(ctx)
	if err != nil {
		s.setErr(err)
		return err
	}
	wallets, err := s.client.Audit().WalletBalances(ctx)
	if err != nil {
		s.setErr(err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.books = books
	s.wallets = wallets
	s.loaded = true
	s.err = nil
	return nil
}

// Books returns the per-ledger accounting report and whether it is loaded.
func (s *AuditService) Books() (api.AccountingBooks, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.books, s.loaded
}

// WalletBalances returns the hub's wallet balances keyed by address.
func (s *AuditService) WalletBalances() map[string][]api.TokenBalance {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string][]api.TokenBalance, len(s.wallets))
	for address, balances := range s.wallets {
		out[address] = append([]api.TokenBalance(nil), balances...)
	}
	return out
}

// Err returns the last recorded request error.
func (s *AuditService) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// Reset drops the loaded accounting data.
func (s *AuditService) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.books = api.AccountingBooks{}
	s.wallets = nil
	s.loaded = false
	s.err = nil
}

func (s *AuditService) setErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// SumBalances totals a ledger's entries, which must all reference the same
// token.
func SumBalances(entries []api.TokenBalance) (decimal.Decimal, error) {
	total := decimal.Zero
	for i, entry := range entries {
		if i > 0 && (entry.Address != entries[0].Address || entry.Code != entries[0].Code) {
			return decimal.Zero, fmt.Errorf(
				"cannot sum balances across tokens: %s vs %s", entries[0].Code, entry.Code,
			)
		}
		total = total.Add(entry.Balance)
	}
	return total, nil
}
