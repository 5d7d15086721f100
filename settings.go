package hostlink

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/machinefabric/hostlink-go/wire"
)

// Settings requests. Values are arbitrary JSON-like documents owned by the
// host's settings store; this module only moves them.

type settingsKeyRequest struct {
	Key string `cbor:"key" json:"key"`
}

type settingsSetRequest struct {
	Key   string      `cbor:"key" json:"key"`
	Value interface{} `cbor:"value" json:"value"`
}

type settingsValueResponse struct {
	Value interface{} `cbor:"value" json:"value"`
}

// SettingsChanged is the payload of a settings_change notification.
type SettingsChanged struct {
	Key   string      `cbor:"key" json:"key"`
	Value interface{} `cbor:"value" json:"value"`
}

// GetSetting returns the value stored under key, or nil if unset.
func (c *Client) GetSetting(ctx context.Context, key string) (interface{}, error) {
	env, err := c.Call(ctx, wire.KindSettingsGet, settingsKeyRequest{Key: key})
	if err != nil {
		return nil, err
	}
	var resp settingsValueResponse
	if err := wire.DecodePayload(env.Payload, &resp); err != nil {
		return nil, fmt.Errorf("decoding setting value: %w", err)
	}
	return resp.Value, nil
}

// SetSetting stores value under key in the host's settings store.
func (c *Client) SetSetting(ctx context.Context, key string, value interface{}) error {
	return c.callResult(ctx, wire.KindSettingsSet, settingsSetRequest{Key: key, Value: value})
}

// RemoveSetting deletes key from the host's settings store.
func (c *Client) RemoveSetting(ctx context.Context, key string) error {
	return c.callResult(ctx, wire.KindSettingsRemove, settingsKeyRequest{Key: key})
}

// OnSettingsChanged subscribes fn to settings-change notifications with a
// typed payload. Payloads that fail to decode are logged and skipped without
// affecting the subscription.
func (c *Client) OnSettingsChanged(ctx context.Context, fn func(change SettingsChanged) Disposition) (*Subscription, error) {
	return c.Subscribe(ctx, wire.CategorySettingsChanged, func(n Notification) Disposition {
		var change SettingsChanged
		if err := n.Decode(&change); err != nil {
			log.Error().Err(err).Msg("dropping undecodable settings-change payload")
			return KeepListening
		}
		return fn(change)
	})
}
