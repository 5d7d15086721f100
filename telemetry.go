package hostlink

import (
	"context"

	"github.com/machinefabric/hostlink-go/wire"
)

// Telemetry requests. The host owns batching and delivery to the backend;
// the client only reports.

type telemetryTrackRequest struct {
	Event      string            `cbor:"event" json:"event"`
	Properties map[string]string `cbor:"properties,omitempty" json:"properties,omitempty"`
}

type aggregateMetricRequest struct {
	Metric string `cbor:"metric" json:"metric"`
	Value  int64  `cbor:"value" json:"value"`
}

// TrackEvent reports a telemetry event. Fire-and-forget: no response is
// awaited and no resources are retained for the request.
func (c *Client) TrackEvent(ctx context.Context, event string, properties map[string]string) error {
	req := telemetryTrackRequest{Event: event, Properties: properties}
	return c.Send(ctx, wire.KindTelemetryTrack, req, nil)
}

// AggregateSessionMetric adds value to a session-scoped counter the host
// aggregates before reporting, and waits for the host to acknowledge.
func (c *Client) AggregateSessionMetric(ctx context.Context, metric string, value int64) error {
	return c.callResult(ctx, wire.KindTelemetryAggregateMetric, aggregateMetricRequest{Metric: metric, Value: value})
}
