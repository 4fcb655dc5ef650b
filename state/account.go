package state

import (
	"context"
	"sort"
	"sync"

	"github.com/mushroomlabs/hub20-go/api"
)

// AccountService holds the user's balances and transaction history. Balances
// are replaced wholesale on each fetch; a failed balance fetch clears all
// financial data rather than leaving possibly-stale numbers visible.
type AccountService struct {
	mu       sync.RWMutex
	client   *api.Client
	balances []api.Balance
	credits  []api.BookEntry
	debits   []api.BookEntry
	err      error
}

// NewAccountService creates the account service.
func NewAccountService(client *api.Client) *AccountService {
	return &AccountService{client: client}
}

// Initialize fetches balances, credits and debits.
func (s *AccountService) Initialize(ctx context.Context) error {
	return s.Refresh(ctx)
}

// Refresh re-fetches balances, credits and debits. Any failure clears the
// loaded financial data.
func (s *AccountService) Refresh(ctx context.Context) error {
	balances, err := s.client.Account().Balances(ctx)
	if err != nil {
		s.clearOnError(err)
		return err
	}
	credits, err := s.client.Account().Credits(ctx)
	if err != nil {
		s.clearOnError(err)
		return err
	}
	debits, err := s.client.Account().Debits(ctx)
	if err != nil {
		s.clearOnError(err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances = balances
	s.credits = credits
	s.debits = debits
	s.err = nil
	return nil
}

// Balances returns the per-token balances.
func (s *AccountService) Balances() []api.Balance {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]api.Balance, len(s.balances))
	copy(out, s.balances)
	return out
}

// OpenBalances returns the balances with a nonzero absolute amount.
func (s *AccountService) OpenBalances() []api.Balance {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []api.Balance
	for _, balance := range s.balances {
		if !balance.Amount.IsZero() {
			out = append(out, balance)
		}
	}
	return out
}

// Balance returns the balance for a token address, if present.
func (s *AccountService) Balance(address string) (api.Balance, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, balance := range s.balances {
		if balance.Currency.Address == address {
			return balance, true
		}
	}
	return api.Balance{}, false
}

// Credits returns the incoming book entries.
func (s *AccountService) Credits() []api.BookEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]api.BookEntry, len(s.credits))
	copy(out, s.credits)
	return out
}

// Debits returns the outgoing book entries.
func (s *AccountService) Debits() []api.BookEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]api.BookEntry, len(s.debits))
	copy(out, s.debits)
	return out
}

// Transactions merges credits and debits, sorted by creation time ascending.
func (s *AccountService) Transactions() []api.BookEntry {
	s.mu.RLock()
	out := make([]api.BookEntry, 0, len(s.credits)+len(s.debits))
	out = append(out, s.credits...)
	out = append(out, s.debits...)
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].Created.Before(out[j].Created)
	})
	return out
}

// Err returns the last recorded request error.
func (s *AccountService) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// Reset drops all loaded account data.
func (s *AccountService) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances = nil
	s.credits = nil
	s.debits = nil
	s.err = nil
}

func (s *AccountService) clearOnError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances = nil
	s.credits = nil
	s.debits = nil
	s.err = err
}
