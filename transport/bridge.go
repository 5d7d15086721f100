package transport

import (
	"context"
	"encoding/base64"
)

// MessageChannel is the structured bridge object injected by the embedding.
// It accepts a pre-encoded base64 string; inbound messages arrive later, out
// of band, through Events.
type MessageChannel interface {
	PostMessage(encoded string) error
}

// EventBridge delivers envelopes through a host-injected MessageChannel.
type EventBridge struct {
	channel MessageChannel
}

// NewEventBridge wraps a MessageChannel as a Transport.
func NewEventBridge(channel MessageChannel) *EventBridge {
	return &EventBridge{channel: channel}
}

// Name returns the transport name
func (b *EventBridge) Name() string {
	return "event-bridge"
}

// Available reports whether the embedding injected a bridge object.
func (b *EventBridge) Available() bool {
	return b != nil && b.channel != nil
}

// Send posts the envelope as base64. The inbound callback is unused: replies
// come back through the Events listener, not per call.
func (b *EventBridge) Send(_ context.Context, _ string, data []byte, _ Inbound) error {
	return b.channel.PostMessage(base64.StdEncoding.EncodeToString(data))
}

// StringHandler is the message-handler bridge exposed by WebKit-class
// embeddings. It only accepts string payloads and may predate the binary
// protocol entirely.
type StringHandler interface {
	PostMessage(encoded string) error
	SupportsBinaryProtocol() bool
}

// HandlerBridge delivers envelopes through a string-only message handler.
type HandlerBridge struct {
	handler StringHandler
}

// NewHandlerBridge wraps a StringHandler as a Transport.
func NewHandlerBridge(handler StringHandler) *HandlerBridge {
	return &HandlerBridge{handler: handler}
}

// Name returns the transport name
func (b *HandlerBridge) Name() string {
	return "handler-bridge"
}

// Available reports whether the embedding exposes a message handler.
func (b *HandlerBridge) Available() bool {
	return b != nil && b.handler != nil
}

// Send posts the envelope as base64. If the handler predates the binary
// protocol the call fails fast with ErrUpdateRequired rather than hanging.
func (b *HandlerBridge) Send(_ context.Context, _ string, data []byte, _ Inbound) error {
	if !b.handler.SupportsBinaryProtocol() {
		return ErrUpdateRequired
	}
	return b.handler.PostMessage(base64.StdEncoding.EncodeToString(data))
}
