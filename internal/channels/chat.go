package channels

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/botorabi/Meet4Eat-sub002/internal/dispatch"
	"github.com/botorabi/Meet4Eat-sub002/internal/state"
	"github.com/botorabi/Meet4Eat-sub002/internal/types"
)

// ChatHandler serves the chat channel. The payload names the recipient
// context: "receiverEvent" sends to all members of a meeting event the
// sender belongs to, "receiverUser" sends a private message. The
// handler only attaches the sender identity and forwards; who belongs
// to an event is the membership collaborator's business.
type ChatHandler struct {
	router  *dispatch.Router
	reg     *state.Registry
	members types.Membership
	log     zerolog.Logger
}

func NewChatHandler(router *dispatch.Router, members types.Membership, log zerolog.Logger) *ChatHandler {
	return &ChatHandler{
		router:  router,
		reg:     router.Registry(),
		members: members,
		log:     log.With().Str("component", "chat").Logger(),
	}
}

func (h *ChatHandler) HandleMessage(ctx context.Context, ev dispatch.InboundEvent) {
	receiverUser := ev.Packet.DataString("receiverUser")
	receiverEvent := ev.Packet.DataString("receiverEvent")
	if receiverUser == "" && receiverEvent == "" {
		h.log.Warn().Str("user", ev.Sender.ID).Msg("chat packet without receiver")
		return
	}

	if receiverEvent != "" {
		h.sendToEvent(ctx, ev, receiverEvent)
		return
	}
	h.sendToUser(ev, receiverUser)
}

// sendToEvent distributes a chat message to all members of a meeting
// event. The sender must be one of them, otherwise the message is
// silently ignored.
func (h *ChatHandler) sendToEvent(ctx context.Context, ev dispatch.InboundEvent, eventID string) {
	memberIDs, err := h.members.GetMembers(ctx, eventID)
	if err != nil {
		h.log.Warn().Err(err).Str("user", ev.Sender.ID).Str("event", eventID).
			Msg("cannot resolve chat recipients")
		return
	}
	if !contains(memberIDs, ev.Sender.ID) {
		h.log.Warn().Str("user", ev.Sender.ID).Str("event", eventID).
			Msg("chat to an event the sender is not a member of")
		return
	}

	ev.Packet.Stamp(ev.Sender.ID, ev.Sender.Name)
	h.router.SendPacket(ev.Packet, includeSender(memberIDs, ev.Sender.ID), "")
}

// sendToUser delivers a private message to the recipient and back to
// the sender's own sessions. An offline recipient is not an error;
// the message is simply dropped, this layer is best-effort.
func (h *ChatHandler) sendToUser(ev dispatch.InboundEvent, userID string) {
	if _, ok := h.reg.ConnectedUser(userID); !ok {
		return
	}

	ev.Packet.Stamp(ev.Sender.ID, ev.Sender.Name)
	h.router.SendPacket(ev.Packet, []string{ev.Sender.ID, userID}, "")
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
