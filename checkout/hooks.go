package checkout

import (
	"github.com/tidwall/gjson"

	"github.com/mushroomlabs/hub20-go/api"
)

// Hooks are the caller-supplied callbacks fired by the checkout session.
// They run synchronously on the goroutine that observed the event. A nil
// hook is skipped.
type Hooks struct {
	OnCheckoutCreated  func(api.Checkout)
	OnCheckoutFinished func(api.Checkout)
	OnCheckoutCanceled func(api.Checkout)

	// Payment hooks receive the voucher payload attached to the event.
	OnPaymentSent      func(gjson.Result)
	OnPaymentReceived  func(gjson.Result)
	OnPaymentConfirmed func(gjson.Result)
	OnPaymentCanceled  func(gjson.Result)

	OnCopyToClipboard func(string)
	OnError           func(error)
	OnNotification    func(string)
}

func (h Hooks) checkoutCreated(c api.Checkout) {
	if h.OnCheckoutCreated != nil {
		h.OnCheckoutCreated(c)
	}
}

func (h Hooks) checkoutFinished(c api.Checkout) {
	if h.OnCheckoutFinished != nil {
		h.OnCheckoutFinished(c)
	}
}

func (h Hooks) checkoutCanceled(c api.Checkout) {
	if h.OnCheckoutCanceled != nil {
		h.OnCheckoutCanceled(c)
	}
}

func (h Hooks) paymentSent(voucher gjson.Result) {
	if h.OnPaymentSent != nil {
		h.OnPaymentSent(voucher)
	}
}

func (h Hooks) paymentReceived(voucher gjson.Result) {
	if h.OnPaymentReceived != nil {
		h.OnPaymentReceived(voucher)
	}
}

func (h Hooks) paymentConfirmed(voucher gjson.Result) {
	if h.OnPaymentConfirmed != nil {
		h.OnPaymentConfirmed(voucher)
	}
}

func (h Hooks) paymentCanceled(voucher gjson.Result) {
	if h.OnPaymentCanceled != nil {
		h.OnPaymentCanceled(voucher)
	}
}

func (h Hooks) copied(content string) {
	if h.OnCopyToClipboard != nil {
		h.OnCopyToClipboard(content)
	}
}

func (h Hooks) failed(err error) {
	if h.OnError != nil {
		h.OnError(err)
	}
}

func (h Hooks) notify(message string) {
	if h.OnNotification != nil {
		h.OnNotification(message)
	}
}
