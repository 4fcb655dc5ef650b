package checkout

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"

	"github.com/mushroomlabs/hub20-go/api"
	"github.com/mushroomlabs/hub20-go/events"
)

// pendingStatuses are the transfer states that count towards the amount in
// flight but not yet confirmed.
var pendingStatuses = map[api.TransferStatus]bool{
	api.TransferSent:     true,
	api.TransferReceived: true,
	api.TransferPending:  true,
}

// updateTimeout bounds the checkout re-fetch triggered by a socket message.
const updateTimeout = 30 * time.Second

// MakeCheckout converts the fiat amount due into token units, submits the
// checkout to the backend and opens the per-checkout websocket. The created
// checkout is handed to the OnCheckoutCreated hook.
func (s *Session) MakeCheckout(ctx context.Context, token api.Token) (api.Checkout, error) {
	amount, err := s.ConvertToTokenAmount(token)
	if err != nil {
		s.hooks.failed(err)
		return api.Checkout{}, err
	}

	var checkout api.Checkout
	payload := map[string]string{
		"store":               s.storeID,
		"amount":              amount.String(),
		"token":               token.Address,
		"external_identifier": s.identifier,
	}
	if err := s.postJSON(ctx, "/api/checkout", payload, &checkout); err != nil {
		err = fmt.Errorf("create checkout: %w", err)
		s.hooks.failed(err)
		return api.Checkout{}, err
	}

	wsRoot, err := events.WebSocketURL(s.apiRoot)
	if err != nil {
		s.hooks.failed(err)
		return api.Checkout{}, err
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	socket, _, err := dialer.DialContext(ctx, wsRoot+"/ws/checkout/"+checkout.ID, nil)
	if err != nil {
		err = fmt.Errorf("open checkout socket: %w", err)
		s.hooks.failed(err)
		return api.Checkout{}, err
	}

	s.mu.Lock()
	s.checkout = &checkout
	s.selectedToken = token.Address
	s.socket = socket
	s.done = make(chan struct{})
	s.mu.Unlock()

	go s.readLoop(socket, s.done)

	s.hooks.checkoutCreated(checkout)
	return checkout, nil
}

// Checkout returns the open checkout record, if any.
func (s *Session) Checkout() (api.Checkout, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.checkout == nil {
		return api.Checkout{}, false
	}
	return *s.checkout, true
}

// UpdateCheckout re-fetches the open checkout record.
func (s *Session) UpdateCheckout(ctx context.Context) error {
	s.mu.RLock()
	current := s.checkout
	s.mu.RUnlock()

	if current == nil {
		return ErrNoCheckout
	}

	var checkout api.Checkout
	if err := s.getJSON(ctx, "/api/checkout/"+current.ID, &checkout); err != nil {
		return fmt.Errorf("update checkout: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkout = &checkout
	return nil
}

// Routing returns the available payment route per settlement rail.
func (s *Session) Routing() (blockchain, raiden *api.PaymentRoute) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.checkout == nil {
		return nil, nil
	}
	return s.checkout.Route(RailBlockchain), s.checkout.Route(RailRaiden)
}

// Reset cancels the open checkout on the backend, closes the socket and
// clears all local payment state. The canceled checkout is handed to the
// OnCheckoutCanceled hook.
func (s *Session) Reset(ctx context.Context) error {
	s.mu.Lock()
	checkout := s.checkout
	socket := s.socket
	done := s.done
	s.checkout = nil
	s.socket = nil
	s.done = nil
	s.selectedToken = ""
	s.blockchainTransfers = make(map[string]Transfer)
	s.raidenTransfers = make(map[string]Transfer)
	s.mu.Unlock()

	if socket != nil {
		close(done)
		socket.Close()
	}

	if checkout == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, s.apiRoot+"/api/checkout/"+checkout.ID, nil)
	if err != nil {
		return err
	}
	if err := s.doJSON(req, nil); err != nil {
		return fmt.Errorf("cancel checkout: %w", err)
	}

	s.hooks.checkoutCanceled(*checkout)
	return nil
}

// =============================================================================
// Transfer bookkeeping
// =============================================================================

// Transfers returns every observed transfer, blockchain first.
func (s *Session) Transfers() []Transfer {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Transfer, 0, len(s.blockchainTransfers)+len(s.raidenTransfers))
	for _, transfer := range s.blockchainTransfers {
		out = append(out, transfer)
	}
	for _, transfer := range s.raidenTransfers {
		out = append(out, transfer)
	}
	return out
}

// AmountPending sums the blockchain transfers still waiting for
// confirmation.
func (s *Session) AmountPending() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := decimal.Zero
	for _, transfer := range s.blockchainTransfers {
		if pendingStatuses[transfer.Status] {
			total = total.Add(transfer.Amount)
		}
	}
	return total
}

// AmountConfirmed sums the confirmed transfers across both rails.
func (s *Session) AmountConfirmed() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := decimal.Zero
	for _, transfer := range s.blockchainTransfers {
		if transfer.Status == api.TransferConfirmed {
			total = total.Add(transfer.Amount)
		}
	}
	for _, transfer := range s.raidenTransfers {
		if transfer.Status == api.TransferConfirmed {
			total = total.Add(transfer.Amount)
		}
	}
	return total
}

// AmountTransferred is the total moved towards the checkout, pending plus
// confirmed.
func (s *Session) AmountTransferred() decimal.Decimal {
	return s.AmountPending().Add(s.AmountConfirmed())
}

// AmountDue is the outstanding token amount, clamped at zero.
func (s *Session) AmountDue() decimal.Decimal {
	checkout, ok := s.Checkout()
	if !ok {
		return decimal.Zero
	}

	due := checkout.Amount.Sub(s.AmountTransferred())
	if due.IsNegative() {
		return decimal.Zero
	}
	return due
}

// IsPaid reports whether the transferred amount covers the order amount.
func (s *Session) IsPaid() bool {
	checkout, ok := s.Checkout()
	if !ok {
		return false
	}
	return s.AmountTransferred().GreaterThanOrEqual(checkout.Amount)
}

// IsCanceled reports whether the checkout has been canceled.
func (s *Session) IsCanceled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.checkout.Canceled()
}

func (s *Session) registerTransfer(rail string, transfer Transfer) error {
	if transfer.Identifier == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	switch rail {
	case RailBlockchain:
		s.blockchainTransfers[transfer.Identifier] = transfer
	case RailRaiden:
		s.raidenTransfers[transfer.Identifier] = transfer
	default:
		return fmt.Errorf("%w: did not expect to receive %s payment", ErrUnsupportedRail, rail)
	}
	return nil
}

// =============================================================================
// Socket handling
// =============================================================================

func (s *Session) readLoop(socket *websocket.Conn, done chan struct{}) {
	for {
		select {
		case <-done:
			return
		default:
		}

		_, raw, err := socket.ReadMessage()
		if err != nil {
			return
		}
		s.handleMessage(raw)
	}
}

// handleMessage processes one frame from the per-checkout socket: the
// checkout record is always re-fetched, then the event is dispatched.
func (s *Session) handleMessage(raw []byte) {
	if !gjson.ValidBytes(raw) {
		s.log.Warn().Msg("dropping malformed checkout frame")
		return
	}
	message := gjson.ParseBytes(raw)

	ctx, cancel := context.WithTimeout(context.Background(), updateTimeout)
	defer cancel()
	if err := s.UpdateCheckout(ctx); err != nil {
		s.log.Warn().Err(err).Msg("checkout re-fetch failed")
	}

	voucher := message.Get("voucher")

	switch message.Get("event").String() {
	case EventTransferBroadcast:
		s.registerTransfer(RailBlockchain, s.messageTransfer(message, api.TransferPending))
		s.hooks.paymentSent(voucher)

	case EventPaymentReceived:
		s.registerTransfer(RailBlockchain, s.messageTransfer(message, api.TransferReceived))
		s.hooks.paymentReceived(voucher)

	case EventPaymentConfirmed:
		rail := message.Get("payment_method").String()
		transfer := s.messageTransfer(message, api.TransferConfirmed)
		if err := s.registerTransfer(rail, transfer); err != nil {
			s.hooks.failed(err)
		}
		s.hooks.paymentConfirmed(voucher)

	default:
		s.log.Debug().Str("event", message.Get("event").String()).Msg("unhandled checkout event")
		return
	}

	if s.IsPaid() {
		if checkout, ok := s.Checkout(); ok {
			s.hooks.checkoutFinished(checkout)
		}
	}
}

func (s *Session) messageTransfer(message gjson.Result, status api.TransferStatus) Transfer {
	address := message.Get("token").String()
	token, _ := s.Token(address)

	amount, err := decimal.NewFromString(message.Get("amount").String())
	if err != nil {
		amount = decimal.NewFromFloat(message.Get("amount").Float())
	}

	return Transfer{
		Identifier: message.Get("identifier").String(),
		Token:      token,
		Amount:     amount,
		Status:     status,
	}
}
