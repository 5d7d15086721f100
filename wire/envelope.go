// Package wire defines the envelope protocol crossing the UI/host boundary:
// a tagged message union carrying exactly one typed payload plus an optional
// correlation identifier, encoded to a deterministic CBOR form.
package wire

import "fmt"

// EnvelopeType discriminates the message union on the wire.
type EnvelopeType uint8

const (
	EnvelopeRequest      EnvelopeType = 1
	EnvelopeResponse     EnvelopeType = 2
	EnvelopeNotification EnvelopeType = 3
	EnvelopeError        EnvelopeType = 4
)

// String returns the envelope type name
func (et EnvelopeType) String() string {
	switch et {
	case EnvelopeRequest:
		return "REQUEST"
	case EnvelopeResponse:
		return "RESPONSE"
	case EnvelopeNotification:
		return "NOTIFICATION"
	case EnvelopeError:
		return "ERROR"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", uint8(et))
	}
}

// Kind names the concrete payload type inside a request or response envelope.
// The kind also names the HTTP endpoint path for the network transport.
type Kind string

const (
	KindNotificationRequest Kind = "notification.request"
	KindResult              Kind = "result"

	KindFileRead           Kind = "fs.read"
	KindFileWrite          Kind = "fs.write"
	KindFileAppend         Kind = "fs.append"
	KindDirectoryList      Kind = "fs.list"
	KindDirectoryCreate    Kind = "fs.create_directory"
	KindSymlinkDestination Kind = "fs.symlink_destination"

	KindProcessRun Kind = "process.run"

	KindSettingsGet    Kind = "settings.get"
	KindSettingsSet    Kind = "settings.set"
	KindSettingsRemove Kind = "settings.remove"

	KindStateGet    Kind = "state.get"
	KindStateSet    Kind = "state.set"
	KindStateRemove Kind = "state.remove"

	KindWindowPosition Kind = "window.position"
	KindWindowFocus    Kind = "window.focus"

	KindTelemetryTrack           Kind = "telemetry.track"
	KindTelemetryAggregateMetric Kind = "telemetry.aggregate_session_metric"
)

// NotificationCategory enumerates the kinds of asynchronous, host-initiated
// push events a UI surface can subscribe to.
type NotificationCategory string

const (
	// CategoryAll is a sentinel accepted only by unsubscribe requests; the
	// host never pushes a notification under it.
	CategoryAll NotificationCategory = "all"

	CategorySettingsChanged      NotificationCategory = "settings_change"
	CategoryLocalStateChanged    NotificationCategory = "local_state_change"
	CategoryPrompt               NotificationCategory = "prompt"
	CategoryProcessChanged       NotificationCategory = "process_change"
	CategoryKeybindingPressed    NotificationCategory = "keybinding_pressed"
	CategoryFocusChanged         NotificationCategory = "focus_change"
	CategoryHistoryUpdated       NotificationCategory = "history_update"
	CategoryEvent                NotificationCategory = "event"
	CategoryAccessibilityChanged NotificationCategory = "accessibility_change"
)

// Envelope is one decoded message unit. Requests always carry an Id,
// notifications never do, and responses carry the Id of the request they
// answer. Error envelopes carry the host's error text for a request.
type Envelope struct {
	Type     EnvelopeType
	Id       *uint64
	Kind     Kind                 // set on requests and responses
	Category NotificationCategory // set on notifications
	Payload  []byte               // CBOR-encoded payload body
	Message  string               // host-reported error text (EnvelopeError only)
}

// NewRequest creates a request envelope. Ids are assigned by the request
// multiplexer, start at 1, and are never reused within a process lifetime.
func NewRequest(id uint64, kind Kind, payload []byte) *Envelope {
	return &Envelope{Type: EnvelopeRequest, Id: &id, Kind: kind, Payload: payload}
}

// NewResponse creates a response envelope correlated to the request with id.
func NewResponse(id uint64, kind Kind, payload []byte) *Envelope {
	return &Envelope{Type: EnvelopeResponse, Id: &id, Kind: kind, Payload: payload}
}

// NewNotification creates a push-notification envelope. Notifications are
// never correlated to a request.
func NewNotification(category NotificationCategory, payload []byte) *Envelope {
	return &Envelope{Type: EnvelopeNotification, Category: category, Payload: payload}
}

// NewError creates a host-error envelope answering the request with id.
func NewError(id uint64, message string) *Envelope {
	return &Envelope{Type: EnvelopeError, Id: &id, Message: message}
}

// IsNotification reports whether the envelope is a host-initiated push event.
func (e *Envelope) IsNotification() bool {
	return e.Type == EnvelopeNotification
}

// HasId reports whether the envelope carries a correlation identifier.
func (e *Envelope) HasId() bool {
	return e.Id != nil
}

// Result is the host acknowledgement payload for requests that have no richer
// response body.
type Result struct {
	Ok    bool   `cbor:"ok" json:"ok"`
	Error string `cbor:"error,omitempty" json:"error,omitempty"`
}

// NotificationRequest asks the host to start or stop pushing a category.
// Stopping CategoryAll clears every subscription the host holds for the
// calling surface.
type NotificationRequest struct {
	Category  NotificationCategory `cbor:"category" json:"category"`
	Subscribe bool                 `cbor:"subscribe" json:"subscribe"`
}
