package ws

import (
	"context"
	"fmt"
	"net/url"

	"github.com/fuubian/Scrabble-sub000/internal/ports"
	"github.com/gorilla/websocket"
	"github.com/heroiclabs/nakama-common/runtime"
)

// Client is a guest's connection to a Host. It implements ports.Network.
type Client struct {
	conn    *conn
	inbound chan []byte
	logger  runtime.Logger
}

var _ ports.Network = (*Client)(nil)

// JoinURL appends the admission token to the host's websocket address.
func JoinURL(hostURL, token string) (string, error) {
	u, err := url.Parse(hostURL)
	if err != nil {
		return "", fmt.Errorf("parse host url: %w", err)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Dial connects to the host at hostURL presenting token.
func Dial(ctx context.Context, hostURL, token string, logger runtime.Logger) (*Client, error) {
	target, err := JoinURL(hostURL, token)
	if err != nil {
		return nil, err
	}
	ws, resp, err := websocket.DefaultDialer.DialContext(ctx, target, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (status %d)", hostURL, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial %s: %w", hostURL, err)
	}

	c := &Client{conn: newConn(ws), inbound: make(chan []byte, 64), logger: logger}
	go c.conn.writePump()
	go func() {
		defer close(c.inbound)
		err := c.conn.readPump(func(frame []byte) {
			select {
			case c.inbound <- frame:
			case <-c.conn.closed:
			}
		})
		c.logger.Info("Client: connection to host ended: %v", err)
	}()
	return c, nil
}

func (c *Client) Broadcast(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.conn.enqueue(data)
}

// Inbound is closed when the connection to the host ends.
func (c *Client) Inbound() <-chan []byte { return c.inbound }

func (c *Client) Close() error {
	c.conn.close()
	return nil
}
