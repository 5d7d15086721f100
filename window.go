package hostlink

import (
	"context"
	"fmt"

	"github.com/machinefabric/hostlink-go/wire"
)

// Window-positioning requests. Coordinates are in the host's logical pixel
// space, anchored to the surface the client belongs to.

// Point is a position in logical pixels.
type Point struct {
	X float32 `cbor:"x" json:"x"`
	Y float32 `cbor:"y" json:"y"`
}

// Size is an extent in logical pixels.
type Size struct {
	Width  float32 `cbor:"width" json:"width"`
	Height float32 `cbor:"height" json:"height"`
}

// PositionWindowRequest asks the host to move and size the surface's window.
// With DryRun set the host only reports where the window would land.
type PositionWindowRequest struct {
	Anchor Point `cbor:"anchor" json:"anchor"`
	Size   Size  `cbor:"size" json:"size"`
	DryRun bool  `cbor:"dry_run,omitempty" json:"dry_run,omitempty"`
}

// WindowPlacement reports how the host placed (or would place) the window.
type WindowPlacement struct {
	IsAbove   bool `cbor:"is_above" json:"is_above"`
	IsClipped bool `cbor:"is_clipped" json:"is_clipped"`
}

// FocusAction names a window focus transition.
type FocusAction string

const (
	FocusTake   FocusAction = "take"
	FocusReturn FocusAction = "return"
)

type windowFocusRequest struct {
	Action FocusAction `cbor:"action" json:"action"`
}

// PositionWindow moves and sizes the surface's window on the host.
func (c *Client) PositionWindow(ctx context.Context, req PositionWindowRequest) (*WindowPlacement, error) {
	env, err := c.Call(ctx, wire.KindWindowPosition, req)
	if err != nil {
		return nil, err
	}
	var placement WindowPlacement
	if err := wire.DecodePayload(env.Payload, &placement); err != nil {
		return nil, fmt.Errorf("decoding window placement: %w", err)
	}
	return &placement, nil
}

// RequestWindowFocus asks the host to move keyboard focus to or away from
// the surface's window.
func (c *Client) RequestWindowFocus(ctx context.Context, action FocusAction) error {
	return c.callResult(ctx, wire.KindWindowFocus, windowFocusRequest{Action: action})
}
