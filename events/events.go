// Package events maintains the session-wide realtime channel to a Hub20
// backend and decodes its event envelopes.
package events

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/tidwall/gjson"
)

// Type tags an inbound realtime event.
type Type string

// Event types published on the session channel.
const (
	BlockCreated          Type = "blockchain.block.created"
	DepositBroadcast      Type = "blockchain.deposit.broadcast"
	DepositReceived       Type = "blockchain.deposit.received"
	RouteExpired          Type = "blockchain.payment_route.expired"
	NodeUnavailable       Type = "ethereum_node.unavailable"
	NodeOK                Type = "ethereum_node.ok"
	RaidenDepositReceived Type = "raiden.deposit.received"
	RaidenRouteExpired    Type = "raiden.payment_route.expired"
)

// Path is the session channel endpoint, relative to the websocket root.
const Path = "/ws/events"

// ErrMalformedEvent indicates a frame that could not be decoded into an
// event envelope. Handlers are expected to log and drop these.
var ErrMalformedEvent = errors.New("malformed event frame")

// Envelope is a decoded realtime frame: an event tag plus its payload.
type Envelope struct {
	Event Type
	Data  gjson.Result
}

// Decode parses a raw frame. The canonical shape nests the payload under
// "data"; older backends sent the payload fields at the top level, which is
// still accepted.
func Decode(raw []byte) (Envelope, error) {
	if !gjson.ValidBytes(raw) {
		return Envelope{}, fmt.Errorf("%w: not valid json", ErrMalformedEvent)
	}

	body := gjson.ParseBytes(raw)
	event := body.Get("event")
	if !event.Exists() || event.Type != gjson.String {
		return Envelope{}, fmt.Errorf("%w: missing event tag", ErrMalformedEvent)
	}

	data := body.Get("data")
	if !data.Exists() {
		// Legacy flat shape: payload fields alongside the event tag.
		data = body
	}

	return Envelope{
		Event: Type(event.String()),
		Data:  data,
	}, nil
}

// WebSocketURL derives the websocket root from an HTTP server URL by
// swapping the scheme (http→ws, https→wss).
func WebSocketURL(serverURL string) (string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return "", fmt.Errorf("parse server url: %w", err)
	}

	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}

	u.Path = ""
	u.RawQuery = ""
	return u.String(), nil
}
