package channels_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/botorabi/Meet4Eat-sub002/internal/channels"
	"github.com/botorabi/Meet4Eat-sub002/internal/dispatch"
	"github.com/botorabi/Meet4Eat-sub002/internal/types"
	"github.com/botorabi/Meet4Eat-sub002/pkg/protocol"
)

func TestChatToEventMembers(t *testing.T) {
	env := newEnv()
	env.mem.PutEvent("e1", "a", "b")

	alice := types.User{ID: "a", Name: "Alice"}
	sa := env.connect(t, alice, "sa")
	sb := env.connect(t, types.User{ID: "b"}, "sb")

	h := channels.NewChatHandler(env.router, env.mem, zerolog.Nop())
	h.HandleMessage(context.Background(), dispatch.InboundEvent{
		Sender:    alice,
		SessionID: "sa",
		Packet:    protocol.New(protocol.ChannelChat, map[string]any{"receiverEvent": "e1", "text": "hi"}),
	})

	if len(sa.packets(t)) != 1 || len(sb.packets(t)) != 1 {
		t.Fatalf("expected both members to receive the chat message: %d/%d",
			len(sa.packets(t)), len(sb.packets(t)))
	}
	got := sb.packets(t)[0]
	if got.SourceID != "a" || got.Source != "Alice" || got.Time == 0 {
		t.Fatalf("sender not stamped: %+v", got)
	}
}

func TestChatToEventRequiresMembership(t *testing.T) {
	env := newEnv()
	env.mem.PutEvent("e1", "a", "b")

	mallory := types.User{ID: "m", Name: "Mallory"}
	sm := env.connect(t, mallory, "sm")
	sa := env.connect(t, types.User{ID: "a"}, "sa")

	h := channels.NewChatHandler(env.router, env.mem, zerolog.Nop())
	h.HandleMessage(context.Background(), dispatch.InboundEvent{
		Sender:    mallory,
		SessionID: "sm",
		Packet:    protocol.New(protocol.ChannelChat, map[string]any{"receiverEvent": "e1"}),
	})

	if len(sa.packets(t)) != 0 || len(sm.packets(t)) != 0 {
		t.Fatalf("a non-member must not be able to post to an event chat")
	}
}

func TestPrivateChat(t *testing.T) {
	env := newEnv()

	alice := types.User{ID: "a", Name: "Alice"}
	sa := env.connect(t, alice, "sa")
	sb := env.connect(t, types.User{ID: "b"}, "sb")
	sc := env.connect(t, types.User{ID: "c"}, "sc")

	h := channels.NewChatHandler(env.router, env.mem, zerolog.Nop())
	h.HandleMessage(context.Background(), dispatch.InboundEvent{
		Sender:    alice,
		SessionID: "sa",
		Packet:    protocol.New(protocol.ChannelChat, map[string]any{"receiverUser": "b", "text": "psst"}),
	})

	if len(sb.packets(t)) != 1 {
		t.Fatalf("recipient did not receive the private message")
	}
	if len(sa.packets(t)) != 1 {
		t.Fatalf("sender's sessions must also see the private message")
	}
	if len(sc.packets(t)) != 0 {
		t.Fatalf("third party received a private message")
	}
}

func TestPrivateChatToOfflineUserIsDropped(t *testing.T) {
	env := newEnv()
	alice := types.User{ID: "a"}
	sa := env.connect(t, alice, "sa")

	h := channels.NewChatHandler(env.router, env.mem, zerolog.Nop())
	h.HandleMessage(context.Background(), dispatch.InboundEvent{
		Sender:    alice,
		SessionID: "sa",
		Packet:    protocol.New(protocol.ChannelChat, map[string]any{"receiverUser": "offline"}),
	})

	if len(sa.packets(t)) != 0 {
		t.Fatalf("no echo expected when the recipient is offline")
	}
}

func TestChatWithoutReceiverIsDropped(t *testing.T) {
	env := newEnv()
	alice := types.User{ID: "a"}
	sa := env.connect(t, alice, "sa")

	h := channels.NewChatHandler(env.router, env.mem, zerolog.Nop())
	h.HandleMessage(context.Background(), dispatch.InboundEvent{
		Sender:    alice,
		SessionID: "sa",
		Packet:    protocol.New(protocol.ChannelChat, map[string]any{"text": "to nobody"}),
	})

	if len(sa.packets(t)) != 0 {
		t.Fatalf("chat without receiver must be dropped")
	}
}
