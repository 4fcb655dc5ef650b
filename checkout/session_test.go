package checkout

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/mushroomlabs/hub20-go/api"
	"github.com/mushroomlabs/hub20-go/coingecko"
)

const testTokenAddress = "0xabc"

// checkoutBackend fakes the store, token, checkout and websocket endpoints
// the widget talks to.
type checkoutBackend struct {
	srv      *httptest.Server
	upgrader websocket.Upgrader
	conns    chan *websocket.Conn
	deleted  chan string
}

func newCheckoutBackend(t *testing.T) *checkoutBackend {
	t.Helper()
	b := &checkoutBackend{
		conns:   make(chan *websocket.Conn, 1),
		deleted: make(chan string, 1),
	}
	b.srv = httptest.NewServer(http.HandlerFunc(b.handle))
	t.Cleanup(b.srv.Close)
	return b
}

func (b *checkoutBackend) handle(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/ws/checkout/") {
		conn, err := b.upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		b.conns <- conn
		return
	}

	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.URL.Path == "/api/stores/store-1":
		w.Write([]byte(`{"id": "store-1", "name": "Test Shop", "accepted_currencies": ["0xabc"]}`))
	case r.URL.Path == "/api/tokens/token/0xabc":
		w.Write([]byte(`{"address": "0xabc", "code": "XYZ", "decimals": 2, "network_id": 1}`))
	case r.URL.Path == "/api/checkout" && r.Method == http.MethodPost:
		var payload map[string]string
		json.NewDecoder(r.Body).Decode(&payload)
		w.Write([]byte(`{
			"id": "c-1",
			"store": "` + payload["store"] + `",
			"token": "` + payload["token"] + `",
			"amount": "` + payload["amount"] + `",
			"external_identifier": "` + payload["external_identifier"] + `",
			"created": "2020-01-01T00:00:00Z",
			"cancellation": null,
			"routes": [{"type": "blockchain", "address": "0xdead"}]
		}`))
	case r.URL.Path == "/api/checkout/c-1" && r.Method == http.MethodGet:
		w.Write([]byte(`{
			"id": "c-1",
			"store": "store-1",
			"token": "0xabc",
			"amount": "2",
			"external_identifier": "order-42",
			"created": "2020-01-01T00:00:00Z",
			"cancellation": null,
			"routes": [{"type": "blockchain", "address": "0xdead"}]
		}`))
	case r.URL.Path == "/api/checkout/c-1" && r.Method == http.MethodDelete:
		b.deleted <- r.URL.Path
		w.Write([]byte(`{}`))
	default:
		http.NotFound(w, r)
	}
}

// newRateServer fakes the price oracle: 1 token = 50 fiat.
func newRateServer(t *testing.T) *coingecko.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if strings.HasPrefix(r.URL.Path, "/simple/token_price/") {
			w.Write([]byte(`{"0xabc": {"usd": 50}}`))
			return
		}
		http.NotFound(w, r)
	}))
	t.Cleanup(srv.Close)
	return coingecko.New(coingecko.Config{URL: srv.URL})
}

func newTestSession(t *testing.T, backend *checkoutBackend, hooks Hooks) *Session {
	t.Helper()
	session, err := NewSession(Config{
		APIRoot:    backend.srv.URL,
		StoreID:    "store-1",
		Currency:   "usd",
		Amount:     decimal.NewFromInt(100),
		Identifier: "order-42",
		Hooks:      hooks,
		Logger:     zerolog.Nop(),
		Rates:      newRateServer(t),
	})
	require.NoError(t, err)

	require.NoError(t, session.LoadStore(context.Background()))
	require.NoError(t, session.LoadTokens(context.Background()))
	return session
}

func waitHook[T any](t *testing.T, ch chan T, what string) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
		var zero T
		return zero
	}
}

func TestConvertToTokenAmount(t *testing.T) {
	backend := newCheckoutBackend(t)
	session := newTestSession(t, backend, Hooks{})

	token, ok := session.Token(testTokenAddress)
	require.True(t, ok)

	// 100 fiat at 50 fiat/token comes out to 2 tokens.
	amount, err := session.ConvertToTokenAmount(token)
	require.NoError(t, err)
	assert.True(t, amount.Equal(decimal.NewFromInt(2)), "amount=%s want 2", amount)

	// Logo lookup failed upstream, so the fallback image is used.
	assert.Equal(t, coingecko.EthereumLogoURL, session.TokenLogo(token))
}

func TestConvertWithoutRateFails(t *testing.T) {
	session, err := NewSession(Config{
		APIRoot: "http://localhost",
		StoreID: "store-1",
		Amount:  decimal.NewFromInt(100),
		Logger:  zerolog.Nop(),
	})
	require.NoError(t, err)

	_, err = session.ConvertToTokenAmount(api.Token{Address: "0xabc", Code: "XYZ", Decimals: 2})
	assert.ErrorIs(t, err, ErrNoExchangeRate)
}

func TestCheckoutPaymentFlow(t *testing.T) {
	backend := newCheckoutBackend(t)

	created := make(chan api.Checkout, 1)
	finished := make(chan api.Checkout, 1)
	receivedPayments := make(chan gjson.Result, 2)
	confirmedPayments := make(chan gjson.Result, 2)

	session := newTestSession(t, backend, Hooks{
		OnCheckoutCreated:  func(c api.Checkout) { created <- c },
		OnCheckoutFinished: func(c api.Checkout) { finished <- c },
		OnPaymentReceived:  func(v gjson.Result) { receivedPayments <- v },
		OnPaymentConfirmed: func(v gjson.Result) { confirmedPayments <- v },
	})

	token, ok := session.Token(testTokenAddress)
	require.True(t, ok)

	checkout, err := session.MakeCheckout(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "c-1", checkout.ID)
	assert.Equal(t, "order-42", checkout.ExternalIdentifier)
	waitHook(t, created, "checkout created hook")

	blockchain, raiden := session.Routing()
	require.NotNil(t, blockchain)
	assert.Equal(t, "0xdead", blockchain.Address)
	assert.Nil(t, raiden)

	conn := waitHook(t, backend.conns, "checkout websocket")

	// 1.5 tokens observed but unconfirmed: not yet paid, 0.5 outstanding.
	conn.WriteMessage(websocket.TextMessage, []byte(`{
		"event": "payment.received",
		"voucher": {"id": "v-1"},
		"token": "0xabc",
		"amount": "1.5",
		"identifier": "transfer-1"
	}`))
	waitHook(t, receivedPayments, "payment received hook")

	assert.False(t, session.IsPaid())
	assert.True(t, session.AmountPending().Equal(decimal.RequireFromString("1.5")))
	assert.True(t, session.AmountDue().Equal(decimal.RequireFromString("0.5")), "due=%s", session.AmountDue())

	// Confirming the remaining 0.5 crosses the order amount.
	conn.WriteMessage(websocket.TextMessage, []byte(`{
		"event": "payment.confirmed",
		"voucher": {"id": "v-2"},
		"token": "0xabc",
		"amount": "0.5",
		"identifier": "transfer-2",
		"payment_method": "blockchain"
	}`))
	waitHook(t, confirmedPayments, "payment confirmed hook")
	waitHook(t, finished, "checkout finished hook")

	assert.True(t, session.IsPaid())
	assert.True(t, session.AmountConfirmed().Equal(decimal.RequireFromString("0.5")))
	assert.True(t, session.AmountDue().IsZero())
	assert.Len(t, session.Transfers(), 2)
}

func TestUnsupportedRailReportsError(t *testing.T) {
	backend := newCheckoutBackend(t)

	errs := make(chan error, 2)
	confirmed := make(chan gjson.Result, 1)
	session := newTestSession(t, backend, Hooks{
		OnError:            func(err error) { errs <- err },
		OnPaymentConfirmed: func(v gjson.Result) { confirmed <- v },
	})

	token, ok := session.Token(testTokenAddress)
	require.True(t, ok)
	_, err := session.MakeCheckout(context.Background(), token)
	require.NoError(t, err)

	conn := waitHook(t, backend.conns, "checkout websocket")
	conn.WriteMessage(websocket.TextMessage, []byte(`{
		"event": "payment.confirmed",
		"voucher": {"id": "v-1"},
		"token": "0xabc",
		"amount": "1",
		"identifier": "transfer-1",
		"payment_method": "paypal"
	}`))

	err = waitHook(t, errs, "error hook")
	assert.ErrorIs(t, err, ErrUnsupportedRail)
	waitHook(t, confirmed, "payment confirmed hook")

	// The bogus transfer was not booked anywhere.
	assert.Empty(t, session.Transfers())
}

func TestResetCancelsCheckout(t *testing.T) {
	backend := newCheckoutBackend(t)

	canceled := make(chan api.Checkout, 1)
	session := newTestSession(t, backend, Hooks{
		OnCheckoutCanceled: func(c api.Checkout) { canceled <- c },
	})

	token, ok := session.Token(testTokenAddress)
	require.True(t, ok)
	_, err := session.MakeCheckout(context.Background(), token)
	require.NoError(t, err)
	waitHook(t, backend.conns, "checkout websocket")

	require.NoError(t, session.Reset(context.Background()))
	waitHook(t, backend.deleted, "checkout cancellation request")
	waitHook(t, canceled, "checkout canceled hook")

	_, ok = session.Checkout()
	assert.False(t, ok)
	assert.Empty(t, session.Transfers())
	assert.False(t, session.IsPaid())
}

func TestSessionGeneratesIdentifier(t *testing.T) {
	session, err := NewSession(Config{
		APIRoot: "http://localhost",
		StoreID: "store-1",
		Amount:  decimal.NewFromInt(1),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, session.Identifier())

	_, err = NewSession(Config{APIRoot: "http://localhost", StoreID: "store-1"})
	assert.Error(t, err, "zero amount must be rejected")
}
