package state

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/mushroomlabs/hub20-go/api"
)

func newJSONServer(t *testing.T, routes map[string]string) *api.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return api.New(api.Config{URL: srv.URL})
}

func TestOpenBalancesExcludeZeroAmounts(t *testing.T) {
	client := newJSONServer(t, map[string]string{
		"/api/balances": `[
			{"currency": {"address": "0xaaa", "code": "DAI", "decimals": 18, "network_id": 1}, "amount": "10.5"},
			{"currency": {"address": "0xbbb", "code": "USDC", "decimals": 6, "network_id": 1}, "amount": "0"},
			{"currency": {"address": "", "code": "ETH", "decimals": 18, "network_id": 1}, "amount": "-0.2"}
		]`,
		"/api/credits": `[]`,
		"/api/debits":  `[]`,
	})

	account := NewAccountService(client)
	if err := account.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() err = %v", err)
	}

	open := account.OpenBalances()
	if len(open) != 2 {
		t.Fatalf("open balances=%d want 2", len(open))
	}
	for _, balance := range open {
		if balance.Amount.IsZero() {
			t.Fatalf("zero balance %s leaked into open balances", balance.Currency.Code)
		}
	}
}

func TestBalanceFetchFailureClearsData(t *testing.T) {
	client := newJSONServer(t, map[string]string{
		"/api/balances": `[{"currency": {"address": "0xaaa", "code": "DAI", "decimals": 18, "network_id": 1}, "amount": "10.5"}]`,
		"/api/credits":  `[]`,
		"/api/debits":   `[]`,
	})

	account := NewAccountService(client)
	if err := account.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() err = %v", err)
	}
	if len(account.Balances()) != 1 {
		t.Fatal("expected one balance after initialize")
	}

	// Point the client at a dead server and refresh.
	client.SetBaseURL("http://127.0.0.1:1")
	if err := account.Refresh(context.Background()); err == nil {
		t.Fatal("Refresh() expected error")
	}
	if len(account.Balances()) != 0 {
		t.Fatal("stale balances survived a failed refresh")
	}
	if account.Err() == nil {
		t.Fatal("error was not recorded")
	}
}

func TestTokensByAddressLastSeenWins(t *testing.T) {
	client := newJSONServer(t, map[string]string{
		"/api/tokens/": `[
			{"address": "0xaaa", "code": "DAI", "decimals": 18, "network_id": 1},
			{"address": "0xbbb", "code": "USDC", "decimals": 6, "network_id": 1},
			{"address": "0xaaa", "code": "SAI", "decimals": 18, "network_id": 1}
		]`,
	})

	tokens := NewTokensService(client)
	if err := tokens.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() err = %v", err)
	}

	byAddress := tokens.ByAddress()
	if len(byAddress) != 2 {
		t.Fatalf("entries=%d want 2 (one per unique address)", len(byAddress))
	}
	for address, token := range byAddress {
		if token.Address != address {
			t.Fatalf("key %q maps to token with address %q", address, token.Address)
		}
	}
	if got := byAddress["0xaaa"].Code; got != "SAI" {
		t.Fatalf("duplicate address resolved to %q want SAI (last seen)", got)
	}
}

func TestFundingDerivations(t *testing.T) {
	client := newJSONServer(t, map[string]string{
		"/api/deposits": `[
			{"id": "d-1", "token": "0xaaa", "amount": "10", "status": "open", "created": "2020-01-01T00:00:00Z"},
			{"id": "d-2", "token": "0xaaa", "amount": "5", "status": "paid", "created": "2020-01-02T00:00:00Z"},
			{"id": "d-3", "token": "0xbbb", "amount": "1", "status": "open", "created": "2020-01-03T00:00:00Z"}
		]`,
		"/api/transfers": `[]`,
	})

	funding := NewFundingService(client)
	if err := funding.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() err = %v", err)
	}

	open := funding.OpenDeposits()
	if len(open) != 2 {
		t.Fatalf("open deposits=%d want 2", len(open))
	}
	for _, deposit := range open {
		if deposit.Status != api.DepositOpen {
			t.Fatalf("deposit %s has status %q", deposit.ID, deposit.Status)
		}
	}

	byToken := funding.DepositsByToken()
	if len(byToken["0xaaa"]) != 2 || len(byToken["0xbbb"]) != 1 {
		t.Fatalf("byToken partition wrong: %v", byToken)
	}
}

func TestSumBalancesRejectsMixedTokens(t *testing.T) {
	same := []api.TokenBalance{
		{Address: "0xaaa", Code: "DAI", Balance: decimal.RequireFromString("1.5")},
		{Address: "0xaaa", Code: "DAI", Balance: decimal.RequireFromString("2.5")},
	}
	total, err := SumBalances(same)
	if err != nil {
		t.Fatalf("SumBalances() err = %v", err)
	}
	if !total.Equal(decimal.RequireFromString("4")) {
		t.Fatalf("total=%s want 4", total)
	}

	mixed := []api.TokenBalance{
		{Address: "0xaaa", Code: "DAI", Balance: decimal.NewFromInt(1)},
		{Address: "0xbbb", Code: "USDC", Balance: decimal.NewFromInt(1)},
	}
	if _, err := SumBalances(mixed); err == nil {
		t.Fatal("expected error for mixed-token sum")
	}
}
