// Package transport moves encoded envelopes between the UI surface and the
// native host over whichever channel the embedding provides: an HTTP
// round trip, a structured message bridge, or a string-only message handler.
package transport

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
)

// Inbound receives encoded bytes returned by the host. For the HTTP channel
// it is called synchronously with the response body; bridge channels deliver
// inbound bytes out of band through Events instead.
type Inbound func(data []byte)

// Transport is a single physical channel to the host.
type Transport interface {
	Name() string

	// Available reports whether the embedding provides this channel.
	Available() bool

	// Send delivers encoded bytes for the named request kind. Failures are
	// surfaced immediately to the caller; there is no retry.
	Send(ctx context.Context, kind string, data []byte, inbound Inbound) error
}

var (
	// ErrUnsupportedEnvironment is returned when no channel to the host is
	// available.
	ErrUnsupportedEnvironment = errors.New("transport: no channel to the host is available in this environment")

	// ErrUpdateRequired is returned when the embedding's message handler
	// predates the binary protocol.
	ErrUpdateRequired = errors.New("transport: the embedding does not support the binary protocol, update the host application")
)

// Selector picks, at call time, which channel carries an encoded envelope.
// Channels are tried in the priority order given at construction; exactly one
// channel is used per call, never raced against another.
type Selector struct {
	channels []Transport
}

// NewSelector creates a Selector over channels in priority order.
func NewSelector(channels ...Transport) *Selector {
	return &Selector{channels: channels}
}

// Send delivers data over the first available channel.
func (s *Selector) Send(ctx context.Context, kind string, data []byte, inbound Inbound) error {
	for _, t := range s.channels {
		if !t.Available() {
			continue
		}
		log.Trace().Str("transport", t.Name()).Str("kind", kind).Int("bytes", len(data)).Msg("sending envelope")
		return t.Send(ctx, kind, data, inbound)
	}
	log.Error().Str("kind", kind).Msg("no channel to the host is available")
	return ErrUnsupportedEnvironment
}
