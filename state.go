package hostlink

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/machinefabric/hostlink-go/wire"
)

// Local-state requests: the host's ephemeral key/value store, same shape as
// settings but not persisted across host restarts.

type stateKeyRequest struct {
	Key string `cbor:"key" json:"key"`
}

type stateSetRequest struct {
	Key   string      `cbor:"key" json:"key"`
	Value interface{} `cbor:"value" json:"value"`
}

type stateValueResponse struct {
	Value interface{} `cbor:"value" json:"value"`
}

// LocalStateChanged is the payload of a local_state_change notification.
type LocalStateChanged struct {
	Key   string      `cbor:"key" json:"key"`
	Value interface{} `cbor:"value" json:"value"`
}

// GetLocalState returns the state value stored under key, or nil if unset.
func (c *Client) GetLocalState(ctx context.Context, key string) (interface{}, error) {
	env, err := c.Call(ctx, wire.KindStateGet, stateKeyRequest{Key: key})
	if err != nil {
		return nil, err
	}
	var resp stateValueResponse
	if err := wire.DecodePayload(env.Payload, &resp); err != nil {
		return nil, fmt.Errorf("decoding state value: %w", err)
	}
	return resp.Value, nil
}

// SetLocalState stores value under key in the host's local state.
func (c *Client) SetLocalState(ctx context.Context, key string, value interface{}) error {
	return c.callResult(ctx, wire.KindStateSet, stateSetRequest{Key: key, Value: value})
}

// RemoveLocalState deletes key from the host's local state.
func (c *Client) RemoveLocalState(ctx context.Context, key string) error {
	return c.callResult(ctx, wire.KindStateRemove, stateKeyRequest{Key: key})
}

// OnLocalStateChanged subscribes fn to local-state-change notifications with
// a typed payload.
func (c *Client) OnLocalStateChanged(ctx context.Context, fn func(change LocalStateChanged) Disposition) (*Subscription, error) {
	return c.Subscribe(ctx, wire.CategoryLocalStateChanged, func(n Notification) Disposition {
		var change LocalStateChanged
		if err := n.Decode(&change); err != nil {
			log.Error().Err(err).Msg("dropping undecodable local-state-change payload")
			return KeepListening
		}
		return fn(change)
	})
}
