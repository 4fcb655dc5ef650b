package state

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mushroomlabs/hub20-go/api"
	"github.com/mushroomlabs/hub20-go/events"
	"github.com/mushroomlabs/hub20-go/storage"
)

// State is the Hub lifecycle state.
type State int

const (
	StateIdle State = iota
	StateInitializing
	StateRunning
	StateFinalized
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateInitializing:
		return "initializing"
	case StateRunning:
		return "running"
	case StateFinalized:
		return "finalized"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// ErrAlreadyRunning is returned when Initialize is called on a Hub that has
// not been torn down.
var ErrAlreadyRunning = errors.New("hub is already initialized")

// ErrNotRunning is returned by Refresh on a Hub that is not running.
var ErrNotRunning = errors.New("hub is not running")

// eventFetchTimeout bounds the deposit re-fetch triggered by a realtime
// event.
const eventFetchTimeout = 30 * time.Second

type initStep struct {
	name string
	run  func(context.Context) error
}

// Config holds the Hub's construction parameters.
type Config struct {
	// ServerURL is the backend root to connect to. If empty, the URL
	// persisted by a previous session is used.
	ServerURL string

	// Storage persists session credentials. Defaults to an in-memory store.
	Storage storage.Storage

	// Client overrides the API client. Mostly useful in tests.
	Client *api.Client

	// Logger receives lifecycle and event-routing logs.
	Logger zerolog.Logger
}

// Hub composes the per-resource state services and sequences their
// lifecycles: sequential dependency-ordered initialization, concurrent
// refresh, guaranteed-completion teardown, and routing of realtime events
// into service mutations.
type Hub struct {
	mu        sync.Mutex
	state     State
	serverURL string
	log       zerolog.Logger

	client  *api.Client
	channel *events.Channel

	server        *ServerService
	auth          *AuthService
	tokens        *TokensService
	account       *AccountService
	funding       *FundingService
	stores        *StoresService
	users         *UsersService
	audit         *AuditService
	network       *NetworkService
	notifications *NotificationsService
}

// NewHub creates a Hub and its service tree.
func NewHub(cfg Config) *Hub {
	store := cfg.Storage
	if store == nil {
		store = storage.NewMemoryStorage()
	}
	client := cfg.Client
	if client == nil {
		client = api.New(api.Config{URL: cfg.ServerURL})
	}

	return &Hub{
		serverURL:     cfg.ServerURL,
		log:           cfg.Logger.With().Str("component", "hub").Logger(),
		client:        client,
		channel:       events.NewChannel(cfg.Logger),
		server:        NewServerService(client, store),
		auth:          NewAuthService(client, store),
		tokens:        NewTokensService(client),
		account:       NewAccountService(client),
		funding:       NewFundingService(client),
		stores:        NewStoresService(client),
		users:         NewUsersService(client),
		audit:         NewAuditService(client),
		network:       NewNetworkService(client),
		notifications: NewNotificationsService(),
	}
}

// State returns the Hub lifecycle state.
func (h *Hub) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Service accessors.

func (h *Hub) Server() *ServerService               { return h.server }
func (h *Hub) Auth() *AuthService                   { return h.auth }
func (h *Hub) Tokens() *TokensService               { return h.tokens }
func (h *Hub) Account() *AccountService             { return h.account }
func (h *Hub) Funding() *FundingService             { return h.funding }
func (h *Hub) Stores() *StoresService               { return h.stores }
func (h *Hub) Users() *UsersService                 { return h.users }
func (h *Hub) Audit() *AuditService                 { return h.audit }
func (h *Hub) Network() *NetworkService             { return h.network }
func (h *Hub) Notifications() *NotificationsService { return h.notifications }
func (h *Hub) Events() *events.Channel              { return h.channel }

// Client exposes the underlying API client for calls that do not go through
// a state service.
func (h *Hub) Client() *api.Client { return h.client }

// Initialize connects to the backend and, if a session can be restored,
// cascade-initializes the dependent services in dependency order, opening
// the realtime channel last. An unreachable or incompatible server aborts
// the whole sequence; individual service failures after that are recorded
// in the service and logged, not propagated.
func (h *Hub) Initialize(ctx context.Context) error {
	h.mu.Lock()
	if h.state == StateInitializing || h.state == StateRunning {
		h.mu.Unlock()
		return ErrAlreadyRunning
	}
	h.state = StateInitializing
	h.mu.Unlock()

	serverURL := h.serverURL
	if serverURL == "" {
		if stored, ok := h.server.StoredURL(); ok {
			serverURL = stored
		}
	}

	if err := h.server.Connect(ctx, serverURL); err != nil {
		h.setState(StateIdle)
		return fmt.Errorf("server check failed: %w", err)
	}
	h.log.Info().Str("url", serverURL).Str("version", h.server.Version()).Msg("connected to hub20 server")

	h.auth.Initialize(ctx)
	if !h.auth.IsAuthenticated() {
		h.log.Info().Msg("no stored session, waiting for login")
		h.setState(StateIdle)
		return nil
	}

	if err := h.auth.FetchProfile(ctx); err != nil {
		h.log.Warn().Err(err).Msg("could not load account profile")
	}

	steps := []initStep{
		{"tokens", h.tokens.Initialize},
		{"account", h.account.Initialize},
	}
	if h.auth.IsAdmin() {
		steps = append(steps, initStep{"audit", h.audit.Initialize})
	}
	steps = append(steps,
		initStep{"network", h.network.Initialize},
		initStep{"stores", h.stores.Initialize},
		initStep{"funding", h.funding.Initialize},
		initStep{"users", h.users.Initialize},
	)

	for _, step := range steps {
		if err := step.run(ctx); err != nil {
			h.log.Warn().Err(err).Str("service", step.name).Msg("service initialization failed")
		}
	}

	h.channel.SetHandler(h.handleEvent)
	if err := h.channel.Connect(ctx, serverURL); err != nil {
		h.log.Warn().Err(err).Msg("event channel connection failed")
	}

	h.setState(StateRunning)
	return nil
}

// Refresh re-fetches the volatile data concurrently. It is a no-op unless
// the Hub is running.
func (h *Hub) Refresh(ctx context.Context) error {
	if h.State() != StateRunning {
		return ErrNotRunning
	}

	refreshers := []func(context.Context) error{
		h.account.Refresh,
		h.stores.Refresh,
		h.funding.Refresh,
	}
	if h.auth.IsAdmin() {
		refreshers = append(refreshers, h.audit.Refresh)
	}

	var wg sync.WaitGroup
	for _, refresh := range refreshers {
		wg.Add(1)
		go func(refresh func(context.Context) error) {
			defer wg.Done()
			if err := refresh(ctx); err != nil {
				h.log.Warn().Err(err).Msg("refresh failed")
			}
		}(refresh)
	}
	wg.Wait()
	return nil
}

// TearDown logs out and resets every service in reverse dependency order.
// Each step runs even if a prior one fails; the Hub ends up finalized
// unconditionally and the collected errors are returned.
func (h *Hub) TearDown(ctx context.Context) error {
	defer h.setState(StateFinalized)

	var errs []error

	if h.auth.IsAuthenticated() {
		if err := h.auth.Logout(ctx); err != nil {
			errs = append(errs, fmt.Errorf("logout: %w", err))
		}
	}

	h.auth.Reset()
	h.account.Reset()
	h.notifications.Reset()
	h.funding.Reset()
	h.stores.Reset()

	if err := h.channel.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close event channel: %w", err))
	}

	h.audit.Reset()

	return errors.Join(errs...)
}

func (h *Hub) setState(state State) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.state = state
}

// handleEvent routes an inbound realtime event to the owning service.
// Unrecognized types are logged and ignored.
func (h *Hub) handleEvent(envelope events.Envelope) {
	switch envelope.Event {
	case events.BlockCreated:
		number := envelope.Data.Get("number")
		if !number.Exists() {
			number = envelope.Data.Get("block_number")
		}
		h.network.SetCurrentBlock(number.Int())

	case events.DepositBroadcast:
		h.notifications.Post("Deposit transaction broadcast, waiting for confirmation", SeverityInfo)

	case events.DepositReceived, events.RaidenDepositReceived:
		if id := h.eventDepositID(envelope); id != "" {
			ctx, cancel := context.WithTimeout(context.Background(), eventFetchTimeout)
			defer cancel()
			if err := h.funding.FetchDeposit(ctx, id); err != nil {
				h.log.Warn().Err(err).Str("deposit", id).Msg("deposit re-fetch failed")
			}
		}
		h.notifications.Post("Deposit received", SeveritySuccess)

	case events.RouteExpired, events.RaidenRouteExpired:
		h.notifications.Post("Payment route expired", SeverityWarning)

	case events.NodeUnavailable:
		h.network.SetOnline(false)
		h.notifications.Post("Ethereum node is unavailable", SeverityDanger)

	case events.NodeOK:
		h.network.SetOnline(true)
		h.notifications.Post("Connection to ethereum node is back", SeveritySuccess)

	default:
		h.log.Debug().Str("event", string(envelope.Event)).Msg("unhandled event type")
	}
}

func (h *Hub) eventDepositID(envelope events.Envelope) string {
	id := envelope.Data.Get("deposit_id")
	if !id.Exists() {
		id = envelope.Data.Get("id")
	}
	return id.String()
}
