// Package hostlink is the client side of the UI/host bridge: typed requests
// with correlated responses over whichever transport the embedding provides,
// plus multiplexed notification subscriptions shared across any number of
// independent listeners.
package hostlink

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/machinefabric/hostlink-go/transport"
	"github.com/machinefabric/hostlink-go/wire"
)

// ResponseHandler receives the response envelope correlated to a request.
// Return true to keep the pending entry so the same id can receive further
// responses (multi-message sequences layered on one request); return false to
// release it.
type ResponseHandler func(env *wire.Envelope) bool

// Config describes the channels the embedding provides.
type Config struct {
	// Origin of the host's HTTP endpoint. Empty disables the network channel.
	Origin string

	// Bridge is the structured message channel injected by the embedding.
	Bridge transport.MessageChannel

	// Handler is the string-only message handler of WebKit-class embeddings.
	Handler transport.StringHandler

	// Channels appends extra transports after the standard three.
	Channels []transport.Transport

	// Validator optionally checks request payloads against registered
	// schemas before they are sent.
	Validator *SchemaValidator
}

// Client owns the pending-call table and the subscription table for one UI
// surface. Construct one per process and share it; all methods are safe for
// concurrent use.
type Client struct {
	selector  *transport.Selector
	events    *transport.Events
	validator *SchemaValidator
	clientID  string

	mu      sync.Mutex
	nextID  uint64
	pending map[uint64]ResponseHandler

	notifications *Router
}

// NewClient builds a Client over the configured channels, registers the
// inbound bridge listeners, and clears any host-side subscription state left
// over from a prior UI instance.
func NewClient(cfg Config) *Client {
	clientID := uuid.NewString()

	var channels []transport.Transport
	if cfg.Origin != "" {
		channels = append(channels, transport.NewHTTPTransport(cfg.Origin, clientID))
	}
	if cfg.Bridge != nil {
		channels = append(channels, transport.NewEventBridge(cfg.Bridge))
	}
	if cfg.Handler != nil {
		channels = append(channels, transport.NewHandlerBridge(cfg.Handler))
	}
	channels = append(channels, cfg.Channels...)

	c := newClient(transport.NewSelector(channels...), cfg.Validator)
	c.clientID = clientID

	if err := c.UnsubscribeFromAll(); err != nil {
		log.Debug().Err(err).Msg("unsubscribe-all housekeeping failed")
	}
	return c
}

func newClient(selector *transport.Selector, validator *SchemaValidator) *Client {
	c := &Client{
		selector:  selector,
		events:    transport.NewEvents(),
		validator: validator,
		clientID:  uuid.NewString(),
		pending:   make(map[uint64]ResponseHandler),
	}
	c.events.OnMessage(c.HandleInbound)
	c.notifications = newRouter(c)
	return c
}

// Events returns the inbound sink the embedding delivers bridge messages to.
func (c *Client) Events() *transport.Events {
	return c.events
}

// Notifications returns the notification router for this client.
func (c *Client) Notifications() *Router {
	return c.notifications
}

// Send encodes payload under kind, assigns the next request id, and delivers
// the envelope over the selected transport. With a nil handler the request is
// fire-and-forget: no resources are retained for it. Transport failures are
// surfaced immediately; there is no retry.
func (c *Client) Send(ctx context.Context, kind wire.Kind, payload interface{}, handler ResponseHandler) error {
	if c.validator != nil {
		if err := c.validator.ValidatePayload(kind, payload); err != nil {
			return err
		}
	}

	var raw []byte
	if payload != nil {
		var err error
		raw, err = wire.EncodePayload(payload)
		if err != nil {
			return fmt.Errorf("encoding %s payload: %w", kind, err)
		}
	}

	c.mu.Lock()
	c.nextID++
	id := c.nextID
	if handler != nil {
		c.pending[id] = handler
	}
	c.mu.Unlock()

	data, err := wire.EncodeEnvelope(wire.NewRequest(id, kind, raw))
	if err != nil {
		c.forget(id)
		return fmt.Errorf("encoding %s envelope: %w", kind, err)
	}

	if err := c.selector.Send(ctx, string(kind), data, c.HandleInbound); err != nil {
		c.forget(id)
		return err
	}
	return nil
}

// Call sends a request and waits for its single correlated response. A
// host-reported error envelope is returned as a *HostError. There is no way
// to cancel the request once sent; cancelling ctx only stops the wait.
func (c *Client) Call(ctx context.Context, kind wire.Kind, payload interface{}) (*wire.Envelope, error) {
	ch := make(chan *wire.Envelope, 1)
	err := c.Send(ctx, kind, payload, func(env *wire.Envelope) bool {
		select {
		case ch <- env:
		default:
		}
		return false
	})
	if err != nil {
		return nil, err
	}

	select {
	case env := <-ch:
		if env.Type == wire.EnvelopeError {
			return nil, &HostError{Message: env.Message}
		}
		return env, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// callResult performs a Call whose response carries only a host Result
// acknowledgement.
func (c *Client) callResult(ctx context.Context, kind wire.Kind, payload interface{}) error {
	env, err := c.Call(ctx, kind, payload)
	if err != nil {
		return err
	}
	return resultErr(env)
}

// resultErr extracts a host Result payload, mapping a failed result to a
// *HostError. Envelopes with no payload count as success.
func resultErr(env *wire.Envelope) error {
	if len(env.Payload) == 0 {
		return nil
	}
	var res wire.Result
	if err := wire.DecodePayload(env.Payload, &res); err != nil {
		return fmt.Errorf("decoding result payload: %w", err)
	}
	if !res.Ok {
		return &HostError{Message: res.Error}
	}
	return nil
}

// HandleInbound decodes one inbound message and routes it: notifications go
// to the router's fan-out, responses to the pending call their id names.
// Undecodable bytes and unknown ids are logged and dropped, never raised.
func (c *Client) HandleInbound(data []byte) {
	env, err := wire.DecodeEnvelope(data)
	if err != nil {
		log.Error().Err(err).Int("bytes", len(data)).Msg("dropping undecodable host message")
		return
	}

	if env.IsNotification() {
		c.notifications.dispatch(env)
		return
	}

	if env.Id == nil {
		log.Debug().Str("type", env.Type.String()).Msg("dropping host message with no id")
		return
	}

	c.mu.Lock()
	handler, ok := c.pending[*env.Id]
	c.mu.Unlock()
	if !ok {
		// Ids are never recycled, so a late response for a removed id is
		// always a stale duplicate.
		log.Debug().Uint64("id", *env.Id).Msg("dropping response with no pending call")
		return
	}

	if !handler(env) {
		c.forget(*env.Id)
	}
}

func (c *Client) forget(id uint64) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

// Subscribe registers handler for a notification category. See
// Router.Subscribe.
func (c *Client) Subscribe(ctx context.Context, category wire.NotificationCategory, handler NotificationHandler) (*Subscription, error) {
	return c.notifications.Subscribe(ctx, category, handler)
}

// UnsubscribeFromAll asks the host to drop every push subscription belonging
// to this UI surface. Issued once at startup to clear state left by a prior
// instance; local handler lists are untouched.
func (c *Client) UnsubscribeFromAll() error {
	req := wire.NotificationRequest{Category: wire.CategoryAll, Subscribe: false}
	return c.Send(context.Background(), wire.KindNotificationRequest, req, nil)
}
