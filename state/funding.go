package state

import (
	"context"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/mushroomlabs/hub20-go/api"
)

// FundingService holds the user's deposits, payment orders and transfers.
// Deposits and orders are keyed by server-assigned id so repeated fetches
// and event-driven re-fetches upsert idempotently.
type FundingService struct {
	mu        sync.RWMutex
	client    *api.Client
	deposits  map[string]api.Deposit
	orders    map[string]api.PaymentOrder
	transfers []api.Transfer
	err       error
}

// NewFundingService creates the funding service.
func NewFundingService(client *api.Client) *FundingService {
	return &FundingService{
		client:   client,
		deposits: make(map[string]api.Deposit),
		orders:   make(map[string]api.PaymentOrder),
	}
}

// Initialize fetches the deposit and transfer lists.
func (s *FundingService) Initialize(ctx context.Context) error {
	deposits, err := s.client.Funding().Deposits(ctx)
	if err != nil {
		s.setErr(err)
		return err
	}

	s.mu.Lock()
	s.deposits = make(map[string]api.Deposit, len(deposits))
	for _, deposit := range deposits {
		s.deposits[deposit.ID] = deposit
	}
	s.err = nil
	s.mu.Unlock()

	return s.fetchTransfers(ctx)
}

// Refresh re-fetches each known deposit by id, then the transfer list.
func (s *FundingService) Refresh(ctx context.Context) error {
	s.mu.RLock()
	ids := make([]string, 0, len(s.deposits))
	for id := range s.deposits {
		ids = append(ids, id)
	}
	s.mu.RUnlock()

	for _, id := range ids {
		if err := s.FetchDeposit(ctx, id); err != nil {
			return err
		}
	}
	return s.fetchTransfers(ctx)
}

// CreateDeposit opens a new deposit request and records it.
func (s *FundingService) CreateDeposit(ctx context.Context, token api.Token) (api.Deposit, error) {
	deposit, err := s.client.Funding().CreateDeposit(ctx, token)
	if err != nil {
		s.setErr(err)
		return api.Deposit{}, err
	}
	s.upsertDeposit(deposit)
	return deposit, nil
}

// FetchDeposit re-fetches a single deposit by id and upserts it.
func (s *FundingService) FetchDeposit(ctx context.Context, depositID string) error {
	deposit, err := s.client.Funding().Deposit(ctx, depositID)
	if err != nil {
		s.setErr(err)
		return err
	}
	s.upsertDeposit(deposit)
	return nil
}

// CancelDeposit cancels an open deposit and re-fetches its record.
func (s *FundingService) CancelDeposit(ctx context.Context, depositID string) error {
	if err := s.client.Funding().CancelDeposit(ctx, depositID); err != nil {
		s.setErr(err)
		return err
	}
	return s.FetchDeposit(ctx, depositID)
}

// CreatePaymentOrder creates an order for amount of token and records it.
func (s *FundingService) CreatePaymentOrder(ctx context.Context, token api.Token, amount decimal.Decimal) (api.PaymentOrder, error) {
	order, err := s.client.Funding().CreatePaymentOrder(ctx, token, amount)
	if err != nil {
		s.setErr(err)
		return api.PaymentOrder{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[order.ID] = order
	s.err = nil
	return order, nil
}

// CancelPaymentOrder cancels an open payment order and drops it.
func (s *FundingService) CancelPaymentOrder(ctx context.Context, orderID string) error {
	if err := s.client.Funding().CancelPaymentOrder(ctx, orderID); err != nil {
		s.setErr(err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.orders, orderID)
	s.err = nil
	return nil
}

// ScheduleTransfer schedules an outgoing transfer and records it.
func (s *FundingService) ScheduleTransfer(ctx context.Context, token api.Token, amount decimal.Decimal, options map[string]any) (api.Transfer, error) {
	transfer, err := s.client.Funding().ScheduleTransfer(ctx, token, amount, options)
	if err != nil {
		s.setErr(err)
		return api.Transfer{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.transfers = append(s.transfers, transfer)
	s.err = nil
	return transfer, nil
}

// Deposits returns all deposit records sorted by creation time ascending.
func (s *FundingService) Deposits() []api.Deposit {
	s.mu.RLock()
	out := make([]api.Deposit, 0, len(s.deposits))
	for _, deposit := range s.deposits {
		out = append(out, deposit)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].Created.Before(out[j].Created)
	})
	return out
}

// OpenDeposits returns the deposits still waiting for funds.
func (s *FundingService) OpenDeposits() []api.Deposit {
	var out []api.Deposit
	for _, deposit := range s.Deposits() {
		if deposit.Status == api.DepositOpen {
			out = append(out, deposit)
		}
	}
	return out
}

// DepositsByToken partitions the deposits by token address.
func (s *FundingService) DepositsByToken() map[string][]api.Deposit {
	out := make(map[string][]api.Deposit)
	for _, deposit := range s.Deposits() {
		out[deposit.Token] = append(out[deposit.Token], deposit)
	}
	return out
}

// Deposit returns a deposit record by id.
func (s *FundingService) Deposit(depositID string) (api.Deposit, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	deposit, ok := s.deposits[depositID]
	return deposit, ok
}

// PaymentOrders returns all known payment orders sorted by creation time.
func (s *FundingService) PaymentOrders() []api.PaymentOrder {
	s.mu.RLock()
	out := make([]api.PaymentOrder, 0, len(s.orders))
	for _, order := range s.orders {
		out = append(out, order)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].Created.Before(out[j].Created)
	})
	return out
}

// Transfers returns the transfer list.
func (s *FundingService) Transfers() []api.Transfer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]api.Transfer, len(s.transfers))
	copy(out, s.transfers)
	return out
}

// Err returns the last recorded request error.
func (s *FundingService) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// Reset drops all loaded funding data.
func (s *FundingService) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deposits = make(map[string]api.Deposit)
	s.orders = make(map[string]api.PaymentOrder)
	s.transfers = nil
	s.err = nil
}

func (s *FundingService) fetchTransfers(ctx context.Context) error {
	transfers, err := s.client.Funding().Transfers(ctx)
	if err != nil {
		s.setErr(err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.transfers = transfers
	s.err = nil
	return nil
}

func (s *FundingService) upsertDeposit(deposit api.Deposit) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deposits[deposit.ID] = deposit
	s.err = nil
}

func (s *FundingService) setErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}
