// Package conn owns the lifecycle of a client connection: handshake
// identity binding, registration, the read/write pumps, keepalive and
// teardown. Sessions are created and destroyed here and nowhere else;
// the rest of the core only looks them up and writes to them.
package conn

import (
	"context"
	"fmt"
	"time"

	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/segmentio/ksuid"

	"github.com/botorabi/Meet4Eat-sub002/internal/config"
	"github.com/botorabi/Meet4Eat-sub002/internal/dispatch"
	"github.com/botorabi/Meet4Eat-sub002/internal/metrics"
	"github.com/botorabi/Meet4Eat-sub002/internal/notify"
	"github.com/botorabi/Meet4Eat-sub002/internal/state"
	"github.com/botorabi/Meet4Eat-sub002/internal/types"
	"github.com/botorabi/Meet4Eat-sub002/pkg/protocol"
)

// Manager accepts WebSocket connections and runs each one through the
// connecting → bound → open → closed lifecycle.
type Manager struct {
	reg      *state.Registry
	router   *dispatch.Router
	identity types.IdentityProvider
	notifier *notify.Notifier
	cfg      config.Config
	log      zerolog.Logger
}

func NewManager(reg *state.Registry, router *dispatch.Router, identity types.IdentityProvider, notifier *notify.Notifier, cfg config.Config, log zerolog.Logger) *Manager {
	return &Manager{
		reg:      reg,
		router:   router,
		identity: identity,
		notifier: notifier,
		cfg:      cfg,
		log:      log.With().Str("component", "conn").Logger(),
	}
}

// HandleWebSocket upgrades the request and services the connection
// until it closes. It blocks for the lifetime of the connection.
func (m *Manager) HandleWebSocket(c *gin.Context) {
	ws, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		m.log.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}

	sess := newSession(ksuid.New().String(), ws, m.cfg.SendBuffer, m.cfg.WriteTimeout, m.log)
	sess.setState(StateConnecting)
	m.log.Debug().Str("session", sess.ID()).Msg("new client connected")

	// The handshake only consumes the identity established outside
	// this core. Without one the connection never reaches the
	// registry.
	user, err := m.identity.Authenticate(c.Request.Context(), c.Request)
	if err != nil {
		metrics.HandshakesRejected.Inc()
		m.log.Debug().Err(err).Str("session", sess.ID()).
			Msg("closing connection, no authenticated identity")
		_ = ws.Close(websocket.StatusPolicyViolation, "user is not authenticated")
		return
	}
	sess.setState(StateBound)

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	m.open(user, sess)
	defer m.closeSession(user, sess, ws)

	go sess.writePump(ctx)
	go m.keepalive(ctx, ws, cancel, sess.ID())

	inbound := make(chan *protocol.Packet, m.cfg.InboundBuffer)
	go m.dispatchLoop(ctx, sess, inbound)

	m.readLoop(ctx, sess, inbound)
}

// open registers the session and acknowledges the established identity
// on the system channel. A duplicate registration is a lifecycle bug
// worth a warning, but the connection stays usable.
func (m *Manager) open(user types.User, sess *wsSession) {
	registered := m.reg.AddSession(user, sess)
	if !registered {
		m.log.Warn().Str("user", user.ID).Str("session", sess.ID()).
			Msg("could not store user's connection")
	}
	sess.setState(StateOpen)
	metrics.ConnectionsTotal.Inc()
	metrics.ConnectionsActive.Inc()

	if registered && m.reg.SessionCount(user.ID) == 1 {
		m.notifier.NotifyOnlineStatus(user, true)
	}

	ack := protocol.New(protocol.ChannelSystem, map[string]any{
		"protocolVersion": protocol.ProtocolVersion,
		"status":          "ok",
		"description":     fmt.Sprintf("User %s established a connection", user.Name),
	})
	b, err := protocol.Encode(ack)
	if err != nil {
		m.log.Error().Err(err).Msg("cannot encode connection ack")
		return
	}
	if !sess.Send(b) {
		m.log.Warn().Str("session", sess.ID()).Msg("could not queue connection ack")
	}

	m.log.Info().Str("user", user.ID).Str("name", user.Name).
		Str("session", sess.ID()).Msg("connection open")
}

// closeSession tears the connection down and unregisters it. Safe to
// reach from both the read loop exit and transport errors; the second
// caller finds nothing left to do.
func (m *Manager) closeSession(user types.User, sess *wsSession, ws *websocket.Conn) {
	sess.shutdown()
	if sess.State() == StateClosed {
		return
	}
	sess.setState(StateClosed)
	metrics.ConnectionsActive.Dec()

	if !m.reg.RemoveSession(user.ID, sess) {
		m.log.Warn().Str("user", user.ID).Str("session", sess.ID()).
			Msg("could not remove user's connection")
	} else if m.reg.SessionCount(user.ID) == 0 {
		m.notifier.NotifyOnlineStatus(user, false)
	}

	_ = ws.Close(websocket.StatusNormalClosure, "")
	m.log.Info().Str("user", user.ID).Str("session", sess.ID()).Msg("connection closed")
}

// readLoop decodes inbound messages and queues them for dispatch. A
// malformed message is logged and dropped; the connection stays open.
// Any transport error ends the connection.
func (m *Manager) readLoop(ctx context.Context, sess *wsSession, inbound chan<- *protocol.Packet) {
	defer close(inbound)

	for {
		typ, data, err := sess.conn.Read(ctx)
		if err != nil {
			m.log.Debug().Err(err).Str("session", sess.ID()).Msg("connection read ended")
			return
		}
		if typ != websocket.MessageText {
			m.log.Debug().Str("session", sess.ID()).Msg("ignoring non-text message")
			continue
		}

		p, err := protocol.Decode(data)
		if err != nil {
			metrics.PacketsDropped.WithLabelValues("decode").Inc()
			m.log.Debug().Err(err).Str("session", sess.ID()).
				Msg("invalid message format received from client, ignoring it")
			continue
		}

		select {
		case inbound <- p:
		case <-ctx.Done():
			return
		}
	}
}

// dispatchLoop drains the connection's inbound queue one packet at a
// time, which keeps per-session arrival order while freeing the
// transport reader immediately.
func (m *Manager) dispatchLoop(ctx context.Context, sess *wsSession, inbound <-chan *protocol.Packet) {
	for p := range inbound {
		m.router.DispatchInbound(ctx, p, sess.ID())
	}
}

// keepalive pings the peer at the configured interval and gives up on
// the connection when a pong does not arrive in time.
func (m *Manager) keepalive(ctx context.Context, ws *websocket.Conn, cancel context.CancelFunc, sessionID string) {
	ticker := time.NewTicker(m.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pctx, pcancel := context.WithTimeout(ctx, m.cfg.PongTimeout)
			err := ws.Ping(pctx)
			pcancel()
			if err != nil {
				m.log.Debug().Err(err).Str("session", sessionID).
					Msg("keepalive failed, dropping connection")
				cancel()
				return
			}
		}
	}
}
