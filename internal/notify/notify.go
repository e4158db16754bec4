// Package notify is the fan-out path for notifications produced inside
// the application rather than by inbound client packets. Business code
// queues an event; a single consumer loop assembles the notify-channel
// packet and hands it to the router. The queue replaces the container
// event bus of the old backend: enqueueing never blocks the caller.
package notify

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/botorabi/Meet4Eat-sub002/internal/dispatch"
	"github.com/botorabi/Meet4Eat-sub002/internal/metrics"
	"github.com/botorabi/Meet4Eat-sub002/internal/types"
	"github.com/botorabi/Meet4Eat-sub002/pkg/protocol"
)

// UsersEvent notifies an explicit list of recipients. An empty SenderID
// means the notification is system-originated.
type UsersEvent struct {
	SenderID     string
	Type         string
	Subject      string
	Text         string
	Data         map[string]any
	RecipientIDs []string
}

// RelativesEvent notifies all relatives of the sending user. It
// requires a valid, active sender.
type RelativesEvent struct {
	SenderID string
	Type     string
	Subject  string
	Text     string
	Data     map[string]any
}

type queued interface {
	isNotification()
}

func (UsersEvent) isNotification()     {}
func (RelativesEvent) isNotification() {}

// Notifier consumes queued notification events and fans them out.
type Notifier struct {
	router    *dispatch.Router
	members   types.Membership
	directory types.UserDirectory
	queue     chan queued
	log       zerolog.Logger
}

func NewNotifier(router *dispatch.Router, members types.Membership, directory types.UserDirectory, buffer int, log zerolog.Logger) *Notifier {
	return &Notifier{
		router:    router,
		members:   members,
		directory: directory,
		queue:     make(chan queued, buffer),
		log:       log.With().Str("component", "notify").Logger(),
	}
}

// NotifyUsers queues a notification for an explicit recipient list.
// The event is dropped with a warning when the queue is full.
func (n *Notifier) NotifyUsers(ev UsersEvent) {
	n.enqueue(ev)
}

// NotifyUserRelatives queues a notification for all relatives of the
// sending user.
func (n *Notifier) NotifyUserRelatives(ev RelativesEvent) {
	n.enqueue(ev)
}

// NotifyOnlineStatus tells a user's relatives that the user went on or
// off line. Sent when the first session of a user appears and when the
// last one goes.
func (n *Notifier) NotifyOnlineStatus(user types.User, online bool) {
	text := "offline"
	if online {
		text = "online"
	}
	n.NotifyUserRelatives(RelativesEvent{
		SenderID: user.ID,
		Type:     "notify-user-online",
		Subject:  "User Online Status",
		Text:     text,
		Data:     map[string]any{"userId": user.ID, "online": online},
	})
}

func (n *Notifier) enqueue(ev queued) {
	select {
	case n.queue <- ev:
	default:
		n.log.Warn().Msg("notification queue full, event dropped")
	}
}

// Run consumes the queue until ctx is cancelled. It is meant to run in
// its own goroutine for the lifetime of the process.
func (n *Notifier) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-n.queue:
			n.deliver(ctx, ev)
		}
	}
}

func (n *Notifier) deliver(ctx context.Context, ev queued) {
	switch ev := ev.(type) {
	case UsersEvent:
		n.deliverUsers(ev)
	case RelativesEvent:
		n.deliverRelatives(ctx, ev)
	}
}

// deliverUsers sends to the explicit recipient list. The sender is
// stamped when it maps to a connected user; a system notification has
// no source.
func (n *Notifier) deliverUsers(ev UsersEvent) {
	packet := protocol.New(protocol.ChannelNotify, payload(ev.Type, ev.Subject, ev.Text, ev.Data))
	if ev.SenderID != "" {
		if sender, ok := n.router.Registry().ConnectedUser(ev.SenderID); ok {
			packet.SourceID = sender.ID
			packet.Source = sender.Name
		}
	}

	n.router.SendPacket(packet, ev.RecipientIDs, "")
	metrics.NotificationsSent.WithLabelValues("users").Inc()
}

// deliverRelatives resolves the recipient list dynamically. Unlike
// deliverUsers this path refuses to act without a valid, active
// sender: the recipient set is defined by the sender's relationships.
func (n *Notifier) deliverRelatives(ctx context.Context, ev RelativesEvent) {
	if ev.SenderID == "" {
		n.log.Warn().Msg("relatives notification without sender")
		return
	}

	sender, err := n.directory.FindUser(ctx, ev.SenderID)
	if err != nil || !sender.Active {
		n.log.Warn().Err(err).Str("user", ev.SenderID).
			Msg("relatives notification from an invalid or inactive sender")
		return
	}

	relatives, err := n.members.GetUserRelatives(ctx, sender.ID)
	if err != nil {
		n.log.Warn().Err(err).Str("user", sender.ID).Msg("cannot resolve relatives")
		return
	}

	packet := protocol.New(protocol.ChannelNotify, payload(ev.Type, ev.Subject, ev.Text, ev.Data))
	packet.SourceID = sender.ID
	packet.Source = sender.Name

	n.router.SendPacket(packet, relatives, "")
	metrics.NotificationsSent.WithLabelValues("relatives").Inc()
}

func payload(kind, subject, text string, data map[string]any) map[string]any {
	out := map[string]any{
		"type":    kind,
		"subject": subject,
		"text":    text,
	}
	if data != nil {
		out["data"] = data
	}
	return out
}
