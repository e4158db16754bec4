// Package channels implements the per-channel business rules behind
// the message router: chat distribution, meeting-event fan-out and
// system commands.
package channels

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/botorabi/Meet4Eat-sub002/internal/dispatch"
	"github.com/botorabi/Meet4Eat-sub002/pkg/protocol"
)

// SystemHandler serves the system channel. The only supported command
// is ping: the reply goes back exclusively on the session the request
// arrived on, echoing the request's time so the client can compute its
// round trip.
type SystemHandler struct {
	router *dispatch.Router
	log    zerolog.Logger
}

func NewSystemHandler(router *dispatch.Router, log zerolog.Logger) *SystemHandler {
	return &SystemHandler{
		router: router,
		log:    log.With().Str("component", "system").Logger(),
	}
}

func (h *SystemHandler) HandleMessage(_ context.Context, ev dispatch.InboundEvent) {
	if ev.Packet.Data == nil {
		h.log.Warn().Str("user", ev.Sender.ID).Msg("system packet without payload")
		return
	}

	cmd := ev.Packet.DataString("cmd")
	if cmd != "ping" {
		h.log.Warn().Str("user", ev.Sender.ID).Str("cmd", cmd).
			Msg("unsupported system command")
		return
	}

	reply := protocol.New(protocol.ChannelSystem, map[string]any{
		"cmd":  "ping",
		"pong": ev.Packet.Time,
	})
	h.router.SendToSession(reply, ev.Sender.ID, ev.SessionID)
}
