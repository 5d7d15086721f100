package wire

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Envelopes are encoded in CBOR canonical form so equal envelopes always
// produce identical bytes.
var encMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	encMode = em
}

// EncodeEnvelope encodes an Envelope to its CBOR wire form. The encoding is
// self-describing: the decoded map carries the envelope type discriminant and
// enough fields to rebuild the union member exactly.
func EncodeEnvelope(env *Envelope) ([]byte, error) {
	m := make(map[string]interface{})
	m["envelope"] = uint8(env.Type)

	switch env.Type {
	case EnvelopeRequest:
		if env.Id == nil {
			return nil, errors.New("request envelope requires an id")
		}
		if env.Kind == "" {
			return nil, errors.New("request envelope requires a kind")
		}
		m["id"] = *env.Id
		m["kind"] = string(env.Kind)
		if env.Payload != nil {
			m["payload"] = env.Payload
		}

	case EnvelopeResponse:
		if env.Id == nil {
			return nil, errors.New("response envelope requires an id")
		}
		m["id"] = *env.Id
		if env.Kind != "" {
			m["kind"] = string(env.Kind)
		}
		if env.Payload != nil {
			m["payload"] = env.Payload
		}

	case EnvelopeNotification:
		if env.Id != nil {
			return nil, errors.New("notification envelope must not carry an id")
		}
		if env.Category == "" {
			return nil, errors.New("notification envelope requires a category")
		}
		m["category"] = string(env.Category)
		if env.Payload != nil {
			m["payload"] = env.Payload
		}

	case EnvelopeError:
		if env.Id != nil {
			m["id"] = *env.Id
		}
		m["message"] = env.Message

	default:
		return nil, fmt.Errorf("unknown envelope type %d", env.Type)
	}

	return encMode.Marshal(m)
}

// DecodeEnvelope decodes CBOR bytes into an Envelope. Malformed input returns
// an error and never panics; callers drop undecodable messages after logging.
func DecodeEnvelope(data []byte) (*Envelope, error) {
	var m map[string]interface{}
	if err := cbor.Unmarshal(data, &m); err != nil {
		return nil, err
	}

	etVal, ok := m["envelope"]
	if !ok {
		return nil, errors.New("missing envelope type")
	}
	et, ok := etVal.(uint64)
	if !ok {
		return nil, errors.New("envelope type must be uint")
	}

	env := &Envelope{Type: EnvelopeType(et)}

	if idVal, ok := m["id"]; ok {
		id, ok := idVal.(uint64)
		if !ok {
			return nil, errors.New("envelope id must be uint")
		}
		env.Id = &id
	}

	switch env.Type {
	case EnvelopeRequest:
		if env.Id == nil {
			return nil, errors.New("REQUEST envelope requires id")
		}
		kind, ok := m["kind"].(string)
		if !ok {
			return nil, errors.New("REQUEST envelope requires kind string")
		}
		env.Kind = Kind(kind)
		if payload, ok := m["payload"].([]byte); ok {
			env.Payload = payload
		}

	case EnvelopeResponse:
		if env.Id == nil {
			return nil, errors.New("RESPONSE envelope requires id")
		}
		if kind, ok := m["kind"].(string); ok {
			env.Kind = Kind(kind)
		}
		if payload, ok := m["payload"].([]byte); ok {
			env.Payload = payload
		}

	case EnvelopeNotification:
		if env.Id != nil {
			return nil, errors.New("NOTIFICATION envelope must not carry id")
		}
		category, ok := m["category"].(string)
		if !ok {
			return nil, errors.New("NOTIFICATION envelope requires category string")
		}
		env.Category = NotificationCategory(category)
		if payload, ok := m["payload"].([]byte); ok {
			env.Payload = payload
		}

	case EnvelopeError:
		message, ok := m["message"].(string)
		if !ok {
			return nil, errors.New("ERROR envelope requires message string")
		}
		env.Message = message

	default:
		return nil, fmt.Errorf("unknown envelope type %d", et)
	}

	return env, nil
}

// EncodePayload encodes a typed payload body for embedding in an envelope.
func EncodePayload(v interface{}) ([]byte, error) {
	return encMode.Marshal(v)
}

// DecodePayload decodes an envelope payload body into v.
func DecodePayload(data []byte, v interface{}) error {
	if len(data) == 0 {
		return errors.New("empty payload")
	}
	return cbor.Unmarshal(data, v)
}
