// Package dispatch routes packets between live sessions and the
// channel handlers. Inbound, it attributes a packet to its sending
// user and invokes the handler registered for the packet's channel.
// Outbound, it resolves recipient user IDs to live sessions and fans
// the encoded packet out to all of them.
package dispatch

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/botorabi/Meet4Eat-sub002/internal/metrics"
	"github.com/botorabi/Meet4Eat-sub002/internal/state"
	"github.com/botorabi/Meet4Eat-sub002/internal/types"
	"github.com/botorabi/Meet4Eat-sub002/pkg/protocol"
)

// InboundEvent is the hand-off between the router and a channel
// handler: the decoded packet plus the attributed sender and the
// session it arrived on.
type InboundEvent struct {
	Sender    types.User
	SessionID string
	Packet    *protocol.Packet
}

// Handler processes all packets of one logical channel.
type Handler interface {
	HandleMessage(ctx context.Context, ev InboundEvent)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, ev InboundEvent)

func (f HandlerFunc) HandleMessage(ctx context.Context, ev InboundEvent) { f(ctx, ev) }

// Router is the message distribution core. Handlers are registered
// once at startup; registration is not safe concurrently with
// dispatching.
type Router struct {
	reg      *state.Registry
	handlers map[protocol.Channel]Handler
	log      zerolog.Logger
}

func NewRouter(reg *state.Registry, log zerolog.Logger) *Router {
	return &Router{
		reg:      reg,
		handlers: make(map[protocol.Channel]Handler),
		log:      log.With().Str("component", "router").Logger(),
	}
}

// Handle registers the handler for a channel.
func (r *Router) Handle(ch protocol.Channel, h Handler) {
	r.handlers[ch] = h
}

// Registry exposes the connection registry to channel handlers that
// need to resolve connected users.
func (r *Router) Registry() *state.Registry {
	return r.reg
}

// DispatchInbound attributes the packet to the session's bound user
// and invokes the matching channel handler. A packet that cannot be
// attributed, or whose channel has no handler, is logged and dropped.
// The caller provides the asynchrony: each connection drains its own
// inbound queue, so handlers here run in arrival order per session.
func (r *Router) DispatchInbound(ctx context.Context, p *protocol.Packet, sessionID string) {
	sender, ok := r.reg.User(sessionID)
	if !ok {
		metrics.PacketsDropped.WithLabelValues("unattributable").Inc()
		r.log.Warn().Str("session", sessionID).Msg("packet from unregistered session dropped")
		return
	}

	h, ok := r.handlers[p.Channel]
	if !ok {
		metrics.PacketsDropped.WithLabelValues("unknown_channel").Inc()
		r.log.Debug().Str("channel", string(p.Channel)).Str("user", sender.ID).
			Msg("packet on unknown channel dropped")
		return
	}

	metrics.PacketsDispatched.WithLabelValues(string(p.Channel)).Inc()
	h.HandleMessage(ctx, InboundEvent{Sender: sender, SessionID: sessionID, Packet: p})
}

// SendPacket writes the packet to every live session of every
// recipient, except the optionally excluded session. Recipients with
// no live sessions are skipped silently; the user is simply offline.
// The session list is snapshotted first so no registry lock is held
// while writing, and writes go into per-session buffers, so one slow
// client cannot stall the fan-out.
func (r *Router) SendPacket(p *protocol.Packet, recipientIDs []string, excludeSessionID string) {
	b, err := protocol.Encode(p)
	if err != nil {
		r.log.Error().Err(err).Msg("cannot encode outbound packet")
		return
	}

	for _, id := range recipientIDs {
		for _, s := range r.reg.Sessions(id) {
			if s.ID() == excludeSessionID {
				continue
			}
			r.write(s, b, id)
		}
	}
}

// SendToSession writes the packet to one specific session of a user.
// Used by the system channel so a ping answer reaches only the
// connection that asked.
func (r *Router) SendToSession(p *protocol.Packet, userID, sessionID string) {
	b, err := protocol.Encode(p)
	if err != nil {
		r.log.Error().Err(err).Msg("cannot encode outbound packet")
		return
	}

	for _, s := range r.reg.Sessions(userID) {
		if s.ID() == sessionID {
			r.write(s, b, userID)
			return
		}
	}
}

func (r *Router) write(s state.Session, b []byte, userID string) {
	if !s.Send(b) {
		metrics.SendBufferDrops.Inc()
		r.log.Warn().Str("user", userID).Str("session", s.ID()).
			Msg("outbound packet dropped, session buffer full or closed")
		return
	}
	metrics.FanoutWrites.Inc()
}
