package realtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

var (
	ErrTransport = errors.New("transport error")
	// ErrClosed is returned by Conn.Receive once the peer closed the
	// connection cleanly.
	ErrClosed = errors.New("connection closed")
)

const realtimePath = "/event/realtime"

// Conn is a text-frame WebSocket connection.
type Conn interface {
	Send(data []byte) error
	Receive() ([]byte, error)
	Close() error
}

// Dialer opens a Conn negotiating the given subprotocols.
type Dialer interface {
	Dial(ctx context.Context, url string, subprotocols []string, header http.Header) (Conn, error)
}

// URL returns the realtime endpoint for host.
func URL(realtimeHost string) string {
	return "wss://" + realtimeHost + realtimePath
}

// WebsocketDialer dials with gorilla/websocket.
type WebsocketDialer struct {
	HandshakeTimeout time.Duration
	CloseTimeout     time.Duration
}

var _ Dialer = (*WebsocketDialer)(nil)

func (d *WebsocketDialer) Dial(ctx context.Context, url string, subprotocols []string, header http.Header) (Conn, error) {
	timeout := d.HandshakeTimeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: timeout,
		Subprotocols:     subprotocols,
	}

	conn, resp, err := dialer.DialContext(ctx, url, header)
	if err != nil {
		if resp != nil {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return nil, fmt.Errorf("dialing %v: %w (status %d: %s)", url, err, resp.StatusCode, body)
		}
		return nil, fmt.Errorf("dialing %v: %w", url, err)
	}

	closeTimeout := d.CloseTimeout
	if closeTimeout == 0 {
		closeTimeout = time.Second
	}
	return &wsConn{conn: conn, closeTimeout: closeTimeout}, nil
}

type wsConn struct {
	conn         *websocket.Conn
	closeTimeout time.Duration
}

func (c *wsConn) Send(data []byte) error {
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *wsConn) Receive() ([]byte, error) {
	for {
		typ, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil, fmt.Errorf("%w: %v", ErrClosed, err)
			}
			return nil, err
		}
		if typ == websocket.TextMessage || typ == websocket.BinaryMessage {
			return data, nil
		}
	}
}

// Close sends a close frame and releases the socket. Safe to call
// concurrently with Receive.
func (c *wsConn) Close() error {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(c.closeTimeout))
	return c.conn.Close()
}
