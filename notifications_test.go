package hostlink

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/machinefabric/hostlink-go/wire"
)

func notify(t *testing.T, client *Client, category wire.NotificationCategory, payload interface{}) {
	t.Helper()
	var raw []byte
	if payload != nil {
		var err error
		raw, err = wire.EncodePayload(payload)
		require.NoError(t, err)
	}
	client.HandleInbound(encodeEnvelope(t, wire.NewNotification(category, raw)))
}

func TestSharedCategorySendsOneStartRequest(t *testing.T) {
	stub := &hostStub{respond: ackAll(t)}
	client := newStubClient(stub)
	ctx := context.Background()

	var order []string
	_, err := client.Subscribe(ctx, wire.CategoryPrompt, func(Notification) Disposition {
		order = append(order, "h1")
		return KeepListening
	})
	require.NoError(t, err)

	_, err = client.Subscribe(ctx, wire.CategoryPrompt, func(Notification) Disposition {
		order = append(order, "h2")
		return KeepListening
	})
	require.NoError(t, err)

	starts := stub.requestsOfKind(wire.KindNotificationRequest)
	require.Len(t, starts, 1, "second subscriber must not trigger a second start request")

	notify(t, client, wire.CategoryPrompt, nil)
	assert.Equal(t, []string{"h1", "h2"}, order, "handlers fire once each, in registration order")
}

func TestUnsubscribeStopsOnlyThatHandler(t *testing.T) {
	stub := &hostStub{respond: ackAll(t)}
	client := newStubClient(stub)
	ctx := context.Background()

	var first, second int
	sub1, err := client.Subscribe(ctx, wire.CategoryPrompt, func(Notification) Disposition {
		first++
		return KeepListening
	})
	require.NoError(t, err)
	_, err = client.Subscribe(ctx, wire.CategoryPrompt, func(Notification) Disposition {
		second++
		return KeepListening
	})
	require.NoError(t, err)

	notify(t, client, wire.CategoryPrompt, nil)
	sub1.Unsubscribe()
	notify(t, client, wire.CategoryPrompt, nil)

	assert.Equal(t, 1, first)
	assert.Equal(t, 2, second)
}

func TestHandlerUnsubscribesFromWithinCallback(t *testing.T) {
	stub := &hostStub{respond: ackAll(t)}
	client := newStubClient(stub)
	ctx := context.Background()

	calls := 0
	_, err := client.Subscribe(ctx, wire.CategoryEvent, func(Notification) Disposition {
		calls++
		return Unsubscribe
	})
	require.NoError(t, err)

	notify(t, client, wire.CategoryEvent, nil)
	notify(t, client, wire.CategoryEvent, nil)
	assert.Equal(t, 1, calls, "a handler that signalled unsubscribe is not invoked again")
}

func TestHandlerAddedDuringDispatchGetsNextDelivery(t *testing.T) {
	stub := &hostStub{respond: ackAll(t)}
	client := newStubClient(stub)
	ctx := context.Background()

	lateCalls := 0
	registered := false
	_, err := client.Subscribe(ctx, wire.CategoryEvent, func(Notification) Disposition {
		if !registered {
			registered = true
			_, err := client.Subscribe(ctx, wire.CategoryEvent, func(Notification) Disposition {
				lateCalls++
				return KeepListening
			})
			require.NoError(t, err)
		}
		return Unsubscribe
	})
	require.NoError(t, err)

	notify(t, client, wire.CategoryEvent, nil)
	assert.Equal(t, 0, lateCalls, "handler added mid-dispatch must not see the in-progress delivery")

	notify(t, client, wire.CategoryEvent, nil)
	assert.Equal(t, 1, lateCalls, "handler added mid-dispatch receives the next delivery")
}

func TestHandlerPanicDoesNotBlockFanOut(t *testing.T) {
	stub := &hostStub{respond: ackAll(t)}
	client := newStubClient(stub)
	ctx := context.Background()

	var survivorCalls int
	_, err := client.Subscribe(ctx, wire.CategoryEvent, func(Notification) Disposition {
		panic("handler bug")
	})
	require.NoError(t, err)
	_, err = client.Subscribe(ctx, wire.CategoryEvent, func(Notification) Disposition {
		survivorCalls++
		return KeepListening
	})
	require.NoError(t, err)

	notify(t, client, wire.CategoryEvent, nil)
	notify(t, client, wire.CategoryEvent, nil)

	// The panicking handler stays subscribed: a fault is not an unsubscribe
	// signal, and it never blocks delivery to the rest of the list.
	assert.Equal(t, 2, survivorCalls)
}

func TestSubscribeRejectedOnHostError(t *testing.T) {
	stub := &hostStub{}
	stub.respond = func(env *wire.Envelope) *wire.Envelope {
		return wire.NewError(*env.Id, "unknown category")
	}
	client := newStubClient(stub)

	_, err := client.Subscribe(context.Background(), wire.CategoryPrompt, func(Notification) Disposition {
		return KeepListening
	})
	var hostErr *HostError
	require.ErrorAs(t, err, &hostErr)
	assert.Equal(t, "unknown category", hostErr.Message)

	// The failed registration tears down the pending state: nothing is
	// delivered and a later subscribe starts fresh.
	notify(t, client, wire.CategoryPrompt, nil)
	stub.mu.Lock()
	stub.respond = ackAll(t)
	stub.mu.Unlock()

	_, err = client.Subscribe(context.Background(), wire.CategoryPrompt, func(Notification) Disposition {
		return KeepListening
	})
	require.NoError(t, err)
	assert.Len(t, stub.requestsOfKind(wire.KindNotificationRequest), 2)
}

func TestConcurrentFirstSubscribersShareOneStartRequest(t *testing.T) {
	gate := make(chan struct{})
	stub := &hostStub{}
	stub.respond = func(env *wire.Envelope) *wire.Envelope {
		<-gate // hold the registration in flight
		payload, _ := wire.EncodePayload(wire.Result{Ok: true})
		return wire.NewResponse(*env.Id, wire.KindResult, payload)
	}
	client := newStubClient(stub)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	started := make(chan struct{}, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			started <- struct{}{}
			_, errs[i] = client.Subscribe(context.Background(), wire.CategoryPrompt, func(Notification) Disposition {
				return KeepListening
			})
		}(i)
	}

	<-started
	<-started
	close(gate)
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.Len(t, stub.requestsOfKind(wire.KindNotificationRequest), 1,
		"concurrent first subscribers must share a single start request")
}

func TestResubscribeAfterLastHandlerRemoved(t *testing.T) {
	stub := &hostStub{respond: ackAll(t)}
	client := newStubClient(stub)
	ctx := context.Background()

	sub, err := client.Subscribe(ctx, wire.CategoryPrompt, func(Notification) Disposition {
		return KeepListening
	})
	require.NoError(t, err)
	sub.Unsubscribe()

	// The empty entry was deleted, not left behind; a new first subscriber
	// registers with the host again.
	_, err = client.Subscribe(ctx, wire.CategoryPrompt, func(Notification) Disposition {
		return KeepListening
	})
	require.NoError(t, err)
	assert.Len(t, stub.requestsOfKind(wire.KindNotificationRequest), 2)
}

func TestNotificationWithoutSubscribersIsDropped(t *testing.T) {
	stub := &hostStub{}
	client := newStubClient(stub)
	// Must not panic.
	notify(t, client, wire.CategoryFocusChanged, nil)
}

func TestSubscribeToAllSentinelRejected(t *testing.T) {
	client := newStubClient(&hostStub{})
	_, err := client.Subscribe(context.Background(), wire.CategoryAll, func(Notification) Disposition {
		return KeepListening
	})
	assert.Error(t, err)
}

func TestSubscribeNotificationDeliveryEndToEnd(t *testing.T) {
	stub := &hostStub{respond: ackAll(t)}
	client := newStubClient(stub)
	ctx := context.Background()

	var order []string
	_, err := client.Subscribe(ctx, wire.CategorySettingsChanged, func(n Notification) Disposition {
		var change SettingsChanged
		require.NoError(t, n.Decode(&change))
		order = append(order, "h1:"+change.Key)
		return KeepListening
	})
	require.NoError(t, err)
	require.Len(t, stub.requestsOfKind(wire.KindNotificationRequest), 1)

	_, err = client.Subscribe(ctx, wire.CategorySettingsChanged, func(n Notification) Disposition {
		order = append(order, "h2")
		return KeepListening
	})
	require.NoError(t, err)
	require.Len(t, stub.requestsOfKind(wire.KindNotificationRequest), 1,
		"no second start request for an already-active category")

	notify(t, client, wire.CategorySettingsChanged, SettingsChanged{Key: "app.theme", Value: "dark"})
	assert.Equal(t, []string{"h1:app.theme", "h2"}, order)
}

func TestTypedSettingsSubscription(t *testing.T) {
	stub := &hostStub{respond: ackAll(t)}
	client := newStubClient(stub)

	var got SettingsChanged
	_, err := client.OnSettingsChanged(context.Background(), func(change SettingsChanged) Disposition {
		got = change
		return KeepListening
	})
	require.NoError(t, err)

	notify(t, client, wire.CategorySettingsChanged, SettingsChanged{Key: "editor.font", Value: "mono"})
	assert.Equal(t, "editor.font", got.Key)
	assert.Equal(t, "mono", got.Value)
}
