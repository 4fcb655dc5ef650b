// Package checkout implements the payment-tracking state machine behind the
// embeddable checkout widget: one session per checkout, its own websocket,
// transfer bookkeeping per settlement rail, and caller-supplied hooks.
package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/mushroomlabs/hub20-go/api"
	"github.com/mushroomlabs/hub20-go/coingecko"
)

// Settlement rails funds can move through.
const (
	RailBlockchain = "blockchain"
	RailRaiden     = "raiden"
)

// Events published on the per-checkout websocket.
const (
	EventTransferBroadcast = "blockchain.transfer.broadcast"
	EventPaymentReceived   = "payment.received"
	EventPaymentConfirmed  = "payment.confirmed"
)

var (
	// ErrNoExchangeRate indicates no cached rate exists for the token.
	ErrNoExchangeRate = errors.New("no exchange rate for token")

	// ErrUnsupportedRail indicates a payment event referencing a settlement
	// rail this session does not track.
	ErrUnsupportedRail = errors.New("unsupported settlement rail")

	// ErrNoCheckout indicates an operation that needs an open checkout.
	ErrNoCheckout = errors.New("no open checkout")
)

// Transfer is one observed movement of funds towards the checkout.
type Transfer struct {
	Identifier string
	Token      api.Token
	Amount     decimal.Decimal
	Status     api.TransferStatus
}

// Config holds a checkout session's construction parameters.
type Config struct {
	// APIRoot is the Hub20 server root, e.g. https://hub.example.com.
	APIRoot string

	// StoreID identifies the merchant store being paid.
	StoreID string

	// Currency is the fiat pricing currency, e.g. "EUR".
	Currency string

	// Amount is the amount due, in the pricing currency.
	Amount decimal.Decimal

	// Identifier ties the checkout to an external order. Generated when
	// empty.
	Identifier string

	Hooks  Hooks
	Logger zerolog.Logger

	// HTTPClient overrides the HTTP client used for checkout calls.
	HTTPClient *http.Client

	// Rates overrides the price oracle client.
	Rates *coingecko.Client
}

// Session tracks a single payment from checkout creation through
// confirmation or cancellation.
type Session struct {
	mu         sync.RWMutex
	apiRoot    string
	storeID    string
	currency   string
	fiatAmount decimal.Decimal
	identifier string
	hooks      Hooks
	log        zerolog.Logger
	httpClient *http.Client
	rates      *coingecko.Client

	store         api.Store
	storeLoaded   bool
	selectedToken string
	tokens        map[string]api.Token
	exchangeRates map[string]decimal.Decimal
	tokenLogos    map[string]string

	checkout *api.Checkout
	socket   *websocket.Conn
	done     chan struct{}

	blockchainTransfers map[string]Transfer
	raidenTransfers     map[string]Transfer
}

// NewSession creates a checkout session.
func NewSession(cfg Config) (*Session, error) {
	if cfg.APIRoot == "" {
		return nil, errors.New("checkout: api root is required")
	}
	if cfg.StoreID == "" {
		return nil, errors.New("checkout: store id is required")
	}
	if !cfg.Amount.IsPositive() {
		return nil, errors.New("checkout: amount due must be positive")
	}
	if cfg.Identifier == "" {
		cfg.Identifier = uuid.NewString()
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if cfg.Rates == nil {
		cfg.Rates = coingecko.New(coingecko.Config{})
	}

	return &Session{
		apiRoot:             strings.TrimSuffix(cfg.APIRoot, "/"),
		storeID:             cfg.StoreID,
		currency:            strings.ToUpper(cfg.Currency),
		fiatAmount:          cfg.Amount,
		identifier:          cfg.Identifier,
		hooks:               cfg.Hooks,
		log:                 cfg.Logger.With().Str("component", "checkout").Logger(),
		httpClient:          cfg.HTTPClient,
		rates:               cfg.Rates,
		tokens:              make(map[string]api.Token),
		exchangeRates:       make(map[string]decimal.Decimal),
		tokenLogos:          make(map[string]string),
		blockchainTransfers: make(map[string]Transfer),
		raidenTransfers:     make(map[string]Transfer),
	}, nil
}

// Identifier returns the external identifier attached to the checkout.
func (s *Session) Identifier() string {
	return s.identifier
}

// LoadStore fetches the merchant store record.
func (s *Session) LoadStore(ctx context.Context) error {
	var store api.Store
	if err := s.getJSON(ctx, "/api/stores/"+s.storeID, &store); err != nil {
		return fmt.Errorf("load store: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.store = store
	s.storeLoaded = true
	return nil
}

// LoadTokens fetches each accepted token's descriptor, exchange rate and
// logo. Rate lookup failures go through the error hook; the token stays
// usable once a later rate fetch succeeds.
func (s *Session) LoadTokens(ctx context.Context) error {
	s.mu.RLock()
	if !s.storeLoaded {
		s.mu.RUnlock()
		return errors.New("checkout: store not loaded")
	}
	addresses := append([]string(nil), s.store.AcceptedCurrencies...)
	s.mu.RUnlock()

	for _, address := range addresses {
		var token api.Token
		if err := s.getJSON(ctx, "/api/tokens/token/"+address, &token); err != nil {
			return fmt.Errorf("load token %s: %w", address, err)
		}

		s.mu.Lock()
		s.tokens[token.Address] = token
		s.mu.Unlock()

		s.refreshRate(ctx, token)

		logo := s.rates.TokenLogoURL(ctx, token)
		s.mu.Lock()
		s.tokenLogos[token.Address] = logo
		s.mu.Unlock()
	}
	return nil
}

// RefreshRates re-fetches the exchange rate for every loaded token.
func (s *Session) RefreshRates(ctx context.Context) {
	for _, token := range s.AcceptedTokens() {
		s.refreshRate(ctx, token)
	}
}

func (s *Session) refreshRate(ctx context.Context, token api.Token) {
	rate, err := s.rates.TokenRate(ctx, token, s.currency)
	if err != nil {
		s.hooks.failed(fmt.Errorf("failed to get exchange rate for %s: %w", token.Code, err))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.exchangeRates[token.Address] = rate
}

// AcceptedTokens returns the store's accepted tokens, in store order.
func (s *Session) AcceptedTokens() []api.Token {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]api.Token, 0, len(s.store.AcceptedCurrencies))
	for _, address := range s.store.AcceptedCurrencies {
		if token, ok := s.tokens[address]; ok {
			out = append(out, token)
		}
	}
	return out
}

// Token returns a loaded token by address.
func (s *Session) Token(address string) (api.Token, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	token, ok := s.tokens[address]
	return token, ok
}

// ExchangeRate returns the cached fiat rate for a token.
func (s *Session) ExchangeRate(token api.Token) (decimal.Decimal, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rate, ok := s.exchangeRates[token.Address]
	return rate, ok
}

// TokenLogo returns the resolved logo URL for a token.
func (s *Session) TokenLogo(token api.Token) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokenLogos[token.Address]
}

// SelectToken marks the token the payer chose to pay with.
func (s *Session) SelectToken(token api.Token) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selectedToken = token.Address
}

// SelectedToken returns the token the payer chose, if any.
func (s *Session) SelectedToken() (api.Token, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	token, ok := s.tokens[s.selectedToken]
	return token, ok
}

// ConvertToTokenAmount converts the fiat amount due into token units at the
// cached exchange rate, rounded to the token's decimal precision.
func (s *Session) ConvertToTokenAmount(token api.Token) (decimal.Decimal, error) {
	rate, ok := s.ExchangeRate(token)
	if !ok || rate.IsZero() {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrNoExchangeRate, token.Code)
	}
	return s.fiatAmount.Div(rate).Round(token.Decimals), nil
}

// CopyToClipboard hands content to the clipboard hook.
func (s *Session) CopyToClipboard(content string) {
	s.hooks.copied(content)
}

// Notify hands a message to the notification hook.
func (s *Session) Notify(message string) {
	s.hooks.notify(message)
}

func (s *Session) getJSON(ctx context.Context, path string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.apiRoot+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	return s.doJSON(req, target)
}

func (s *Session) postJSON(ctx context.Context, path string, payload, target any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiRoot+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	return s.doJSON(req, target)
}

func (s *Session) doJSON(req *http.Request, target any) error {
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("hub20 error: status %d", resp.StatusCode)
	}
	if target == nil {
		return nil
	}
	return json.Unmarshal(body, target)
}
