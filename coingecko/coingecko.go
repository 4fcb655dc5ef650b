// Package coingecko fetches token exchange rates and logos from the public
// CoinGecko API.
package coingecko

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"

	"github.com/mushroomlabs/hub20-go/api"
)

// APIRoot is the public CoinGecko v3 endpoint.
const APIRoot = "https://api.coingecko.com/api/v3"

// EthereumLogoURL is the fallback logo for tokens CoinGecko does not know.
const EthereumLogoURL = "https://ethereum.org/static/ethereum.png"

// Platform is the asset platform used for ERC20 contract lookups.
const Platform = "ethereum"

// knownLogos maps token codes to logo URLs, saving a contract lookup for
// the common assets.
var knownLogos = map[string]string{
	"ETH":  EthereumLogoURL,
	"DAI":  "https://assets.coingecko.com/coins/images/9956/small/dai-multi-collateral-mcd.png",
	"USDC": "https://assets.coingecko.com/coins/images/6319/small/USD_Coin_icon.png",
	"USDT": "https://assets.coingecko.com/coins/images/325/small/Tether-logo.png",
	"WBTC": "https://assets.coingecko.com/coins/images/7598/small/wrapped_bitcoin_wbtc.png",
	"RDN":  "https://assets.coingecko.com/coins/images/1132/small/raiden-logo.jpg",
}

// Config controls the CoinGecko client.
type Config struct {
	// URL overrides the API root. Defaults to APIRoot.
	URL string

	// HTTPClient overrides the HTTP client. Defaults to one with a 15s
	// timeout.
	HTTPClient *http.Client
}

// Client talks to the CoinGecko REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a CoinGecko client.
func New(cfg Config) *Client {
	if cfg.URL == "" {
		cfg.URL = APIRoot
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		httpClient: cfg.HTTPClient,
	}
}

// EthereumRate returns the price of ETH in the given fiat currency.
func (c *Client) EthereumRate(ctx context.Context, currency string) (decimal.Decimal, error) {
	currency = strings.ToLower(currency)
	path := fmt.Sprintf("/simple/price?ids=ethereum&vs_currencies=%s", url.QueryEscape(currency))

	body, err := c.get(ctx, path)
	if err != nil {
		return decimal.Zero, err
	}

	rate := gjson.GetBytes(body, "ethereum."+currency)
	if !rate.Exists() {
		return decimal.Zero, fmt.Errorf("no ethereum rate for %q", currency)
	}
	return decimal.NewFromFloat(rate.Float()), nil
}

// TokenRate returns the price of the token in the given fiat currency. The
// native token is priced as ETH; ERC20 tokens are priced by contract address.
func (c *Client) TokenRate(ctx context.Context, token api.Token, currency string) (decimal.Decimal, error) {
	if token.Native() {
		return c.EthereumRate(ctx, currency)
	}

	currency = strings.ToLower(currency)
	address := strings.ToLower(token.Address)
	path := fmt.Sprintf(
		"/simple/token_price/%s?contract_addresses=%s&vs_currencies=%s",
		Platform, url.QueryEscape(address), url.QueryEscape(currency),
	)

	body, err := c.get(ctx, path)
	if err != nil {
		return decimal.Zero, err
	}

	rate := gjson.GetBytes(body, address+"."+currency)
	if !rate.Exists() {
		return decimal.Zero, fmt.Errorf("no %s rate for token %s", currency, token.Code)
	}
	return decimal.NewFromFloat(rate.Float()), nil
}

// TokenLogoURL resolves a logo URL for the token. Known codes are served
// from a static table; everything else goes through a contract lookup, and
// failures fall back to the generic Ethereum logo.
func (c *Client) TokenLogoURL(ctx context.Context, token api.Token) string {
	if logo, ok := knownLogos[strings.ToUpper(token.Code)]; ok {
		return logo
	}
	if token.Native() || token.Address == "" {
		return EthereumLogoURL
	}

	path := fmt.Sprintf("/coins/%s/contract/%s", Platform, url.QueryEscape(strings.ToLower(token.Address)))
	body, err := c.get(ctx, path)
	if err != nil {
		return EthereumLogoURL
	}

	logo := gjson.GetBytes(body, "image.small")
	if logo.Type != gjson.String || logo.String() == "" {
		return EthereumLogoURL
	}
	return logo.String()
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("build coingecko request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("coingecko request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read coingecko response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("coingecko returned status %d", resp.StatusCode)
	}
	return body, nil
}
