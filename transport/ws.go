package transport

import (
	"context"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// WebSocketChannel adapts a local websocket connection to the MessageChannel
// contract, for embeddings that expose the structured bridge over a socket
// instead of an injected host object. Outbound messages are posted as text
// frames; inbound text frames are fed into Events as bridge messages.
type WebSocketChannel struct {
	conn *websocket.Conn

	// guards writes, gorilla allows only one concurrent writer
	mu sync.Mutex

	done chan struct{}
}

// DialWebSocketChannel connects to the host's bridge socket and starts
// pumping inbound frames into events.
func DialWebSocketChannel(ctx context.Context, url string, events *Events) (*WebSocketChannel, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dialing bridge socket: %w", err)
	}
	c := &WebSocketChannel{
		conn: conn,
		done: make(chan struct{}),
	}
	go c.readLoop(events)
	return c, nil
}

func (c *WebSocketChannel) readLoop(events *Events) {
	defer close(c.done)
	for {
		msgType, data, err := c.conn.ReadMessage()
		if err != nil {
			log.Debug().Err(err).Msg("bridge socket closed")
			return
		}
		if msgType != websocket.TextMessage {
			log.Debug().Int("type", msgType).Msg("ignoring non-text bridge frame")
			continue
		}
		events.DeliverMessage(string(data))
	}
}

// PostMessage sends one base64 protocol message to the host.
func (c *WebSocketChannel) PostMessage(encoded string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, []byte(encoded))
}

// Close tears down the socket and waits for the read loop to stop.
func (c *WebSocketChannel) Close() error {
	err := c.conn.Close()
	<-c.done
	return err
}
