// Package client is a Go client for the realtime connection core. It
// dials the websocket endpoint, completes the handshake and hands
// every inbound packet to a Handler.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"

	"github.com/coder/websocket"
	"github.com/rs/zerolog"

	cidpkg "github.com/botorabi/Meet4Eat-sub002/internal/cid"
	"github.com/botorabi/Meet4Eat-sub002/pkg/protocol"
)

var ErrNotConnected = errors.New("client is not connected")

// Client is a single realtime connection. It is safe to send from
// multiple goroutines once connected.
type Client struct {
	cfg       Config
	handler   Handler
	log       zerolog.Logger
	conn      *websocket.Conn
	connected atomic.Bool
	cancel    context.CancelFunc
}

func New(cfg Config) *Client {
	if cfg.UserAgent == "" {
		cfg.UserAgent = "meet4eat-client/" + protocol.ProtocolVersion
	}
	return &Client{
		cfg:     cfg,
		handler: NopHandler{},
		log:     zerolog.Nop(),
	}
}

// SetHandler installs the event handler. Call before Connect.
func (c *Client) SetHandler(h Handler) {
	c.handler = h
}

// SetLogger installs a logger for dropped messages and read errors.
func (c *Client) SetLogger(log zerolog.Logger) {
	c.log = log
}

// IsConnected reports whether the handshake completed and the read
// loop is running.
func (c *Client) IsConnected() bool {
	return c.connected.Load()
}

// buildDialHeaders constructs the headers for the websocket dial.
// Extracted to allow unit testing of header propagation.
func buildDialHeaders(ctx context.Context, cfg Config) http.Header {
	headers := http.Header{"User-Agent": {cfg.UserAgent}}
	if cfg.Token != "" {
		headers["Authorization"] = []string{"Bearer " + cfg.Token}
	}
	cidpkg.AddHeaderFromContext(headers, ctx)
	return headers
}

// Connect dials the server and waits for the connection ack on the
// system channel. On success a background read loop feeds the handler
// until the connection ends.
func (c *Client) Connect(ctx context.Context) error {
	conn, _, err := websocket.Dial(ctx, c.cfg.ServerURL, &websocket.DialOptions{
		HTTPHeader: buildDialHeaders(ctx, c.cfg),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}

	ack, err := c.readAck(ctx, conn)
	if err != nil {
		_ = conn.Close(websocket.StatusProtocolError, "bad handshake ack")
		return err
	}

	c.conn = conn
	c.connected.Store(true)
	c.handler.OnConnected(ack)

	loopCtx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	go c.readLoop(loopCtx)
	return nil
}

func (c *Client) readAck(ctx context.Context, conn *websocket.Conn) (ConnectionStatus, error) {
	_, data, err := conn.Read(ctx)
	if err != nil {
		return ConnectionStatus{}, fmt.Errorf("no connection ack: %w", err)
	}
	p, err := protocol.Decode(data)
	if err != nil {
		return ConnectionStatus{}, fmt.Errorf("invalid connection ack: %w", err)
	}
	if p.Channel != protocol.ChannelSystem {
		return ConnectionStatus{}, fmt.Errorf("expected ack on system channel, got %q", p.Channel)
	}
	status := statusFromPacket(p)
	if status.Status != "ok" {
		return ConnectionStatus{}, fmt.Errorf("server refused connection: %s", status.Description)
	}
	return status, nil
}

func (c *Client) readLoop(ctx context.Context) {
	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			c.connected.Store(false)
			c.handler.OnDisconnected(err)
			return
		}
		p, err := protocol.Decode(data)
		if err != nil {
			c.log.Debug().Err(err).Msg("dropping undecodable packet from server")
			continue
		}
		c.handler.OnPacket(p)
	}
}

// Send encodes and writes a packet.
func (c *Client) Send(ctx context.Context, p *protocol.Packet) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}
	b, err := protocol.Encode(p)
	if err != nil {
		return err
	}
	return c.conn.Write(ctx, websocket.MessageText, b)
}

// Ping asks the server to echo the current client clock. The answer
// arrives as a packet with data {cmd:"ping", pong:<sent time>}.
func (c *Client) Ping(ctx context.Context) error {
	p := protocol.New(protocol.ChannelSystem, map[string]any{"cmd": "ping"})
	p.Time = protocol.Now()
	return c.Send(ctx, p)
}

// SendChatToEvent posts a chat message to all members of a meeting
// event the user belongs to.
func (c *Client) SendChatToEvent(ctx context.Context, eventID, text string) error {
	return c.Send(ctx, protocol.New(protocol.ChannelChat, map[string]any{
		"receiverEvent": eventID,
		"text":          text,
	}))
}

// SendChatToUser sends a private chat message.
func (c *Client) SendChatToUser(ctx context.Context, userID, text string) error {
	return c.Send(ctx, protocol.New(protocol.ChannelChat, map[string]any{
		"receiverUser": userID,
		"text":         text,
	}))
}

// SendEventMessage sends a coordination message to all members of a
// meeting event. The event id is added to the payload.
func (c *Client) SendEventMessage(ctx context.Context, eventID string, data map[string]any) error {
	payload := map[string]any{"eventId": eventID}
	for k, v := range data {
		payload[k] = v
	}
	return c.Send(ctx, protocol.New(protocol.ChannelEvent, payload))
}

// Close ends the connection.
func (c *Client) Close() error {
	if c.cancel != nil {
		c.cancel()
	}
	c.connected.Store(false)
	if c.conn == nil {
		return nil
	}
	return c.conn.Close(websocket.StatusNormalClosure, "client closed")
}
