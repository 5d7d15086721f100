package hostlink

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/machinefabric/hostlink-go/wire"
)

// Disposition tells the router whether a handler keeps receiving deliveries
// after returning from a notification callback.
type Disposition int

const (
	KeepListening Disposition = iota
	Unsubscribe
)

// Notification is one host-pushed event delivered to category subscribers.
type Notification struct {
	Category wire.NotificationCategory
	Payload  []byte
}

// Decode unmarshals the notification payload into v.
func (n Notification) Decode(v interface{}) error {
	return wire.DecodePayload(n.Payload, v)
}

// NotificationHandler receives every delivery for its category until it
// returns Unsubscribe or its Subscription handle is unsubscribed. Both paths
// converge on the same removal procedure.
type NotificationHandler func(n Notification) Disposition

type registeredHandler struct {
	token uuid.UUID
	fn    NotificationHandler
}

// categoryState tracks one category's subscription: while registering, later
// subscribers wait on done instead of issuing a second start request; once
// active, handlers is the fan-out list in registration order.
type categoryState struct {
	registering bool
	done        chan struct{} // closed when registration settles
	err         error         // registration outcome, read only after done
	handlers    []registeredHandler
}

// Router owns the per-category subscription table. It asks the host to start
// pushing a category at most once no matter how many listeners subscribe, and
// fans each inbound notification out to every current handler.
type Router struct {
	client *Client

	mu   sync.Mutex
	subs map[wire.NotificationCategory]*categoryState
}

func newRouter(client *Client) *Router {
	return &Router{
		client: client,
		subs:   make(map[wire.NotificationCategory]*categoryState),
	}
}

// Subscription is the handle returned by Subscribe. Unsubscribe stops future
// deliveries to the handler it names; a delivery already in progress is not
// affected.
type Subscription struct {
	router   *Router
	category wire.NotificationCategory
	token    uuid.UUID
}

// Category returns the notification category this handle subscribes to.
func (s *Subscription) Category() wire.NotificationCategory {
	return s.category
}

// Unsubscribe removes the handler from the category's list.
func (s *Subscription) Unsubscribe() {
	s.router.remove(s.category, s.token)
}

// Subscribe registers handler for a category. The first subscriber sends one
// start request to the host and returns once the host acknowledges; callers
// arriving while that registration is in flight wait for its outcome rather
// than issuing a second start request. Subscribers to an already-active
// category are appended immediately with no host round trip.
func (r *Router) Subscribe(ctx context.Context, category wire.NotificationCategory, handler NotificationHandler) (*Subscription, error) {
	if handler == nil {
		return nil, errors.New("hostlink: nil notification handler")
	}
	if category == wire.CategoryAll {
		return nil, errors.New("hostlink: cannot subscribe to the all-categories sentinel")
	}

	for {
		r.mu.Lock()
		state, ok := r.subs[category]
		if !ok {
			state = &categoryState{registering: true, done: make(chan struct{})}
			r.subs[category] = state
			r.mu.Unlock()
			return r.register(ctx, category, state, handler)
		}

		if state.registering {
			done := state.done
			r.mu.Unlock()
			select {
			case <-done:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			if state.err != nil {
				return nil, state.err
			}
			// The category may have been torn down again since the
			// registration settled; re-evaluate from the top.
			continue
		}

		sub := r.appendLocked(category, state, handler)
		r.mu.Unlock()
		return sub, nil
	}
}

// register performs the single start-category round trip for the first
// subscriber and settles the pending state for everyone waiting on it.
func (r *Router) register(ctx context.Context, category wire.NotificationCategory, state *categoryState, handler NotificationHandler) (*Subscription, error) {
	req := wire.NotificationRequest{Category: category, Subscribe: true}
	env, err := r.client.Call(ctx, wire.KindNotificationRequest, req)
	if err == nil {
		err = resultErr(env)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err != nil {
		state.err = err
		delete(r.subs, category)
		close(state.done)
		log.Warn().Err(err).Str("category", string(category)).Msg("notification registration failed")
		return nil, err
	}

	state.registering = false
	sub := r.appendLocked(category, state, handler)
	close(state.done)
	return sub, nil
}

func (r *Router) appendLocked(category wire.NotificationCategory, state *categoryState, handler NotificationHandler) *Subscription {
	token := uuid.New()
	state.handlers = append(state.handlers, registeredHandler{token: token, fn: handler})
	return &Subscription{router: r, category: category, token: token}
}

// remove is the single removal procedure both unsubscribe paths converge on.
// The entry is deleted rather than left empty once the last handler goes; the
// host-side subscription deliberately stays active and is cleared by the
// unsubscribe-all housekeeping of the next UI instance.
func (r *Router) remove(category wire.NotificationCategory, token uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.subs[category]
	if !ok || state.registering {
		return
	}

	kept := make([]registeredHandler, 0, len(state.handlers))
	for _, h := range state.handlers {
		if h.token != token {
			kept = append(kept, h)
		}
	}
	state.handlers = kept

	if len(state.handlers) == 0 {
		delete(r.subs, category)
	}
}

// dispatch fans one inbound notification out to every handler registered for
// its category at the start of the delivery. Handlers are invoked in
// registration order against a snapshot, so handlers added or removed from
// within a callback never corrupt the in-progress iteration; removals
// triggered by Unsubscribe return values are applied against the live list
// afterwards, by identity.
func (r *Router) dispatch(env *wire.Envelope) {
	r.mu.Lock()
	state, ok := r.subs[env.Category]
	if !ok || state.registering {
		r.mu.Unlock()
		log.Debug().Str("category", string(env.Category)).Msg("dropping notification with no subscribers")
		return
	}
	snapshot := append([]registeredHandler(nil), state.handlers...)
	r.mu.Unlock()

	n := Notification{Category: env.Category, Payload: env.Payload}
	var expired []uuid.UUID
	for _, h := range snapshot {
		if safeInvoke(h, n) == Unsubscribe {
			expired = append(expired, h.token)
		}
	}
	for _, token := range expired {
		r.remove(env.Category, token)
	}
}

// safeInvoke shields the fan-out from handler panics: a failed handler never
// blocks delivery to the rest of the snapshot and never counts as an
// unsubscribe signal.
func safeInvoke(h registeredHandler, n Notification) (d Disposition) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Interface("panic", rec).Str("category", string(n.Category)).Msg("notification handler panicked")
			d = KeepListening
		}
	}()
	return h.fn(n)
}
