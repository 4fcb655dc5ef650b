package state

import (
	"context"
	"sync"

	"github.com/mushroomlabs/hub20-go/api"
)

// TokensService holds the hub's currency reference data. The token list is
// fetched once per session and replaced wholesale on refresh; the by-address
// and by-code views are derived on demand, never stored.
type TokensService struct {
	mu     sync.RWMutex
	client *api.Client
	tokens []api.Token
	err    error
}

// NewTokensService creates the tokens service.
func NewTokensService(client *api.Client) *TokensService {
	return &TokensService{client: client}
}

// Initialize fetches the token list.
func (s *TokensService) Initialize(ctx context.Context) error {
	return s.Refresh(ctx)
}

// Refresh re-fetches the token list. Prior data is kept on failure.
func (s *TokensService) Refresh(ctx context.Context) error {
	tokens, err := s.client.Tokens().List(ctx)
	if err != nil {
		s.setErr(err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = tokens
	s.err = nil
	return nil
}

// All returns the token list in fetch order.
func (s *TokensService) All() []api.Token {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]api.Token, len(s.tokens))
	copy(out, s.tokens)
	return out
}

// ByAddress maps contract address to token. On duplicate addresses the
// last-seen entry wins.
func (s *TokensService) ByAddress() map[string]api.Token {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]api.Token, len(s.tokens))
	for _, token := range s.tokens {
		out[token.Address] = token
	}
	return out
}

// ByCode maps token code to token. On duplicate codes the last-seen entry
// wins.
func (s *TokensService) ByCode() map[string]api.Token {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]api.Token, len(s.tokens))
	for _, token := range s.tokens {
		out[token.Code] = token
	}
	return out
}

// Get returns the token for an address, if known.
func (s *TokensService) Get(address string) (api.Token, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var found api.Token
	var ok bool
	for _, token := range s.tokens {
		if token.Address == address {
			found = token
			ok = true
		}
	}
	return found, ok
}

// Err returns the last recorded request error.
func (s *TokensService) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// Reset drops all loaded reference data.
func (s *TokensService) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = nil
	s.err = nil
}

func (s *TokensService) setErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}
