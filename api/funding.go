package api

import (
	"context"

	"github.com/shopspring/decimal"
)

// FundingClient handles deposits, payment orders and transfers.
type FundingClient struct {
	client *Client
}

// CreateDeposit opens a new deposit request for the given token.
func (f *FundingClient) CreateDeposit(ctx context.Context, token Token) (Deposit, error) {
	resp, err := f.client.post(ctx, "/deposits", map[string]string{
		"token": token.Address,
	})
	return decode[Deposit](resp, err)
}

// Deposits returns all of the user's deposit requests.
func (f *FundingClient) Deposits(ctx context.Context) ([]Deposit, error) {
	resp, err := f.client.get(ctx, "/deposits")
	return decode[[]Deposit](resp, err)
}

// Deposit returns a single deposit by id.
func (f *FundingClient) Deposit(ctx context.Context, depositID string) (Deposit, error) {
	resp, err := f.client.get(ctx, "/deposit/"+depositID)
	return decode[Deposit](resp, err)
}

// CancelDeposit cancels an open deposit request.
func (f *FundingClient) CancelDeposit(ctx context.Context, depositID string) error {
	resp, err := f.client.delete(ctx, "/deposit/"+depositID)
	if err != nil {
		return err
	}
	return resp.Error()
}

// CreatePaymentOrder creates an order for amount of token.
func (f *FundingClient) CreatePaymentOrder(ctx context.Context, token Token, amount decimal.Decimal) (PaymentOrder, error) {
	resp, err := f.client.post(ctx, "/payment/orders", map[string]any{
		"amount": amount,
		"token":  token.Address,
	})
	return decode[PaymentOrder](resp, err)
}

// PaymentOrder returns a single payment order by id.
func (f *FundingClient) PaymentOrder(ctx context.Context, orderID string) (PaymentOrder, error) {
	resp, err := f.client.get(ctx, "/payment/orders/"+orderID)
	return decode[PaymentOrder](resp, err)
}

// CancelPaymentOrder cancels an open payment order.
func (f *FundingClient) CancelPaymentOrder(ctx context.Context, orderID string) error {
	resp, err := f.client.delete(ctx, "/payment/orders/"+orderID)
	if err != nil {
		return err
	}
	return resp.Error()
}

// Transfers returns all of the user's transfers.
func (f *FundingClient) Transfers(ctx context.Context) ([]Transfer, error) {
	resp, err := f.client.get(ctx, "/transfers")
	return decode[[]Transfer](resp, err)
}

// ScheduleTransfer schedules an outgoing transfer. Extra rail-specific
// parameters (recipient address, payment identifier, ...) go in options.
func (f *FundingClient) ScheduleTransfer(ctx context.Context, token Token, amount decimal.Decimal, options map[string]any) (Transfer, error) {
	payload := map[string]any{
		"amount": amount,
		"token":  token.Address,
	}
	for k, v := range options {
		payload[k] = v
	}
	resp, err := f.client.post(ctx, "/transfers", payload)
	return decode[Transfer](resp, err)
}
