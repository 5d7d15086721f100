package transport

import (
	"encoding/base64"
	"sync"

	"github.com/rs/zerolog/log"
)

// Events is the inbound side of the bridge channels. The embedding pushes
// base64 protocol messages and out-of-band error strings here; the client
// registers both listeners once at startup.
type Events struct {
	mu        sync.Mutex
	onMessage func(data []byte)
	onError   func(message string)
}

// NewEvents creates an Events sink with no listeners registered.
func NewEvents() *Events {
	return &Events{}
}

// OnMessage registers the protocol-message listener. A later call replaces
// the previous listener.
func (e *Events) OnMessage(fn func(data []byte)) {
	e.mu.Lock()
	e.onMessage = fn
	e.mu.Unlock()
}

// OnError registers the out-of-band error listener.
func (e *Events) OnError(fn func(message string)) {
	e.mu.Lock()
	e.onError = fn
	e.mu.Unlock()
}

// DeliverMessage decodes a base64 protocol message pushed by the host and
// hands the raw bytes to the registered listener. Malformed input is logged
// and dropped, never propagated past the transport boundary.
func (e *Events) DeliverMessage(encoded string) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		log.Error().Err(err).Msg("dropping malformed bridge message")
		return
	}
	e.mu.Lock()
	fn := e.onMessage
	e.mu.Unlock()
	if fn == nil {
		log.Debug().Int("bytes", len(raw)).Msg("dropping bridge message, no listener registered")
		return
	}
	fn(raw)
}

// DeliverError surfaces an out-of-band error event pushed by the host.
func (e *Events) DeliverError(message string) {
	log.Error().Str("source", "host").Msg(message)
	e.mu.Lock()
	fn := e.onError
	e.mu.Unlock()
	if fn != nil {
		fn(message)
	}
}
