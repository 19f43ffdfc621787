// Package websocket carries log hub events to stream consumers over a
// WebSocket connection: buffered history first, then live events, with
// periodic pings so half-open connections are detected and detached.
package websocket

import (
	"context"
	"encoding/json"
	"time"

	ws "github.com/coder/websocket"

	"github.com/ferncreek/porchlight/internal/loghub"
)

const pingInterval = 15 * time.Second

// frame is the wire shape of one streamed event.
type frame struct {
	Event string       `json:"event"`
	Data  loghub.Event `json:"data"`
}

// Client streams hub events over a single WebSocket connection.
type Client struct {
	hub  *loghub.Hub
	conn *ws.Conn
}

// NewClient creates a Client for the given connection.
func NewClient(hub *loghub.Hub, conn *ws.Conn) *Client {
	return &Client{hub: hub, conn: conn}
}

// Run subscribes to the hub, replays the buffered history, then streams
// live events until the connection drops, the subscriber is detached,
// or ctx is canceled. The subscription is always released on return.
func (c *Client) Run(ctx context.Context) {
	sub, snapshot := c.hub.Subscribe()
	defer c.hub.Unsubscribe(sub)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// A read pump is needed even though clients never send anything:
	// it is how the transport reports closure.
	go func() {
		defer cancel()
		for {
			if _, _, err := c.conn.Read(ctx); err != nil {
				return
			}
		}
	}()

	for _, event := range snapshot {
		if err := c.write(ctx, event); err != nil {
			return
		}
	}

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-sub.C:
			if !ok {
				// Hub detached us (stalled subscriber).
				return
			}
			if err := c.write(ctx, event); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.Ping(ctx); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (c *Client) write(ctx context.Context, event loghub.Event) error {
	data, err := json.Marshal(frame{Event: "log", Data: event})
	if err != nil {
		return err
	}
	return c.conn.Write(ctx, ws.MessageText, data)
}
