package channels

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/botorabi/Meet4Eat-sub002/internal/dispatch"
	"github.com/botorabi/Meet4Eat-sub002/internal/types"
)

// EventHandler serves the meeting-event channel. A packet targets one
// meeting event; it is forwarded to every member of that event plus
// the sender, so the sender's other devices see it too.
type EventHandler struct {
	router  *dispatch.Router
	members types.Membership
	log     zerolog.Logger
}

func NewEventHandler(router *dispatch.Router, members types.Membership, log zerolog.Logger) *EventHandler {
	return &EventHandler{
		router:  router,
		members: members,
		log:     log.With().Str("component", "event").Logger(),
	}
}

func (h *EventHandler) HandleMessage(ctx context.Context, ev dispatch.InboundEvent) {
	eventID := ev.Packet.DataString("eventId")
	if eventID == "" {
		h.log.Warn().Str("user", ev.Sender.ID).Msg("event packet without event id")
		return
	}

	memberIDs, err := h.members.GetMembers(ctx, eventID)
	if err != nil {
		h.log.Warn().Err(err).Str("user", ev.Sender.ID).Str("event", eventID).
			Msg("cannot resolve event members")
		return
	}

	recipients := includeSender(memberIDs, ev.Sender.ID)
	ev.Packet.Stamp(ev.Sender.ID, ev.Sender.Name)
	h.router.SendPacket(ev.Packet, recipients, "")
}

// includeSender returns the recipient list with the sender present
// exactly once.
func includeSender(memberIDs []string, senderID string) []string {
	seen := make(map[string]struct{}, len(memberIDs)+1)
	out := make([]string, 0, len(memberIDs)+1)
	for _, id := range append(memberIDs, senderID) {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
