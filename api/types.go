package api

import (
	"time"

	"github.com/shopspring/decimal"
)

// Token describes a currency tracked by the hub. Address is the on-chain
// contract address; it is empty for the network's native coin.
type Token struct {
	Address   string `json:"address"`
	Code      string `json:"code"`
	Name      string `json:"name,omitempty"`
	Decimals  int32  `json:"decimals"`
	NetworkID int64  `json:"network_id"`
}

// Native reports whether the token is the network's base coin.
func (t Token) Native() bool {
	return t.Address == ""
}

// Balance is a signed amount of a single token.
type Balance struct {
	Currency Token           `json:"currency"`
	Amount   decimal.Decimal `json:"amount"`
}

// BookEntry is a single credit or debit on the user's account.
type BookEntry struct {
	ID        string          `json:"id"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  Token           `json:"currency"`
	Reference string          `json:"reference,omitempty"`
	Created   time.Time       `json:"created"`
}

// DepositStatus is the lifecycle status of a deposit request.
type DepositStatus string

const (
	DepositOpen     DepositStatus = "open"
	DepositPaid     DepositStatus = "paid"
	DepositExpired  DepositStatus = "expired"
	DepositCanceled DepositStatus = "canceled"
)

// Deposit is a request for the user to receive funds.
type Deposit struct {
	ID      string          `json:"id"`
	Token   string          `json:"token"`
	Amount  decimal.Decimal `json:"amount"`
	Status  DepositStatus   `json:"status"`
	Created time.Time       `json:"created"`
	URL     string          `json:"url,omitempty"`
}

// PaymentOrder is a request for a specific amount to be paid by some payer.
type PaymentOrder struct {
	ID      string          `json:"id"`
	Token   string          `json:"token"`
	Amount  decimal.Decimal `json:"amount"`
	Status  DepositStatus   `json:"status"`
	Created time.Time       `json:"created"`
	URL     string          `json:"url,omitempty"`
}

// TransferStatus is the settlement status of a transfer.
type TransferStatus string

const (
	TransferPending   TransferStatus = "pending"
	TransferSent      TransferStatus = "sent"
	TransferReceived  TransferStatus = "received"
	TransferConfirmed TransferStatus = "confirmed"
	TransferExpired   TransferStatus = "expired"
)

// Transfer is a single movement of funds.
type Transfer struct {
	ID      string          `json:"id"`
	Token   string          `json:"token"`
	Amount  decimal.Decimal `json:"amount"`
	Status  TransferStatus  `json:"status"`
	Address string          `json:"address,omitempty"`
	Created time.Time       `json:"created"`
}

// Store is a merchant entity accepting payments through the hub.
type Store struct {
	ID                 string   `json:"id"`
	Name               string   `json:"name"`
	SiteURL            string   `json:"site_url"`
	AcceptedCurrencies []string `json:"accepted_currencies"`
	URL                string   `json:"url,omitempty"`
}

// User is an entry in the hub's user directory.
type User struct {
	Username  string `json:"username"`
	Email     string `json:"email,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	IsAdmin   bool   `json:"is_staff,omitempty"`
}

// TokenBalance is a token reference plus a balance, as reported by the
// accounting endpoints.
type TokenBalance struct {
	Address   string          `json:"address"`
	Code      string          `json:"code"`
	NetworkID int64           `json:"network_id"`
	Balance   decimal.Decimal `json:"balance"`
}

// AccountingBooks is the admin-facing accounting report, one balance sheet
// per internal ledger.
type AccountingBooks struct {
	Treasury          []TokenBalance `json:"treasury"`
	UserAccounts      []TokenBalance `json:"user_accounts"`
	Wallets           []TokenBalance `json:"wallets"`
	Raiden            []TokenBalance `json:"raiden"`
	ExternalAddresses []TokenBalance `json:"external_addresses"`
}

// EthereumStatus describes the hub's view of its ethereum node.
type EthereumStatus struct {
	Network      int64 `json:"network"`
	Online       bool  `json:"online"`
	Synced       bool  `json:"synced"`
	HighestBlock int64 `json:"highest_block"`
}

// NetworkStatus is the response of the network status endpoint.
type NetworkStatus struct {
	Ethereum EthereumStatus `json:"ethereum"`
}

// PaymentRoute is one settlement rail available to pay a checkout.
type PaymentRoute struct {
	Type       string     `json:"type"`
	Address    string     `json:"address,omitempty"`
	Identifier string     `json:"identifier,omitempty"`
	Expiration *time.Time `json:"expiration_time,omitempty"`
}

// Checkout is a payment order created through a merchant store's widget.
type Checkout struct {
	ID                 string          `json:"id"`
	Store              string          `json:"store"`
	Token              string          `json:"token"`
	Amount             decimal.Decimal `json:"amount"`
	ExternalIdentifier string          `json:"external_identifier"`
	Status             string          `json:"status,omitempty"`
	Created            time.Time       `json:"created"`
	Cancellation       *time.Time      `json:"cancellation"`
	Routes             []PaymentRoute  `json:"routes,omitempty"`
	URL                string          `json:"url,omitempty"`
}

// Canceled reports whether the checkout has been canceled.
func (c *Checkout) Canceled() bool {
	return c != nil && c.Cancellation != nil
}

// Route returns the first payment route of the given rail type, if any.
func (c *Checkout) Route(railType string) *PaymentRoute {
	if c == nil {
		return nil
	}
	for i := range c.Routes {
		if c.Routes[i].Type == railType {
			return &c.Routes[i]
		}
	}
	return nil
}
