package coingecko

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/mushroomlabs/hub20-go/api"
)

func newOracle(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Config{URL: srv.URL})
}

func TestEthereumRate(t *testing.T) {
	oracle := newOracle(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/simple/price" {
			http.NotFound(w, r)
			return
		}
		if got := r.URL.Query().Get("vs_currencies"); got != "eur" {
			t.Errorf("vs_currencies=%q want eur", got)
		}
		w.Write([]byte(`{"ethereum": {"eur": 1820.55}}`))
	})

	rate, err := oracle.EthereumRate(context.Background(), "EUR")
	if err != nil {
		t.Fatalf("EthereumRate() err = %v", err)
	}
	if !rate.Equal(decimal.RequireFromString("1820.55")) {
		t.Fatalf("rate=%s want 1820.55", rate)
	}
}

func TestTokenRateByContract(t *testing.T) {
	oracle := newOracle(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/simple/token_price/ethereum" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"0xabc": {"usd": 1.01}}`))
	})

	token := api.Token{Address: "0xABC", Code: "DAI", Decimals: 18}
	rate, err := oracle.TokenRate(context.Background(), token, "USD")
	if err != nil {
		t.Fatalf("TokenRate() err = %v", err)
	}
	if !rate.Equal(decimal.RequireFromString("1.01")) {
		t.Fatalf("rate=%s want 1.01", rate)
	}
}

func TestNativeTokenPricedAsEthereum(t *testing.T) {
	var path string
	oracle := newOracle(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.Write([]byte(`{"ethereum": {"usd": 2000}}`))
	})

	token := api.Token{Address: "", Code: "ETH", Decimals: 18}
	if _, err := oracle.TokenRate(context.Background(), token, "usd"); err != nil {
		t.Fatalf("TokenRate() err = %v", err)
	}
	if path != "/simple/price" {
		t.Fatalf("path=%q want /simple/price", path)
	}
}

func TestTokenLogoFallback(t *testing.T) {
	oracle := newOracle(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	// Known codes come from the static table without a lookup.
	if got := oracle.TokenLogoURL(context.Background(), api.Token{Address: "0x1", Code: "DAI"}); got == EthereumLogoURL {
		t.Fatal("known code should not fall back to the default logo")
	}

	// Unknown token with a failing lookup gets the fallback.
	if got := oracle.TokenLogoURL(context.Background(), api.Token{Address: "0x2", Code: "XYZ"}); got != EthereumLogoURL {
		t.Fatalf("logo=%q want fallback", got)
	}
}

func TestTokenLogoFromContractLookup(t *testing.T) {
	oracle := newOracle(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/coins/ethereum/contract/0x2" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"image": {"small": "https://img.example/xyz.png"}}`))
	})

	got := oracle.TokenLogoURL(context.Background(), api.Token{Address: "0x2", Code: "XYZ"})
	if got != "https://img.example/xyz.png" {
		t.Fatalf("logo=%q want contract image", got)
	}
}
