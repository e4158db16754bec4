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

func TestPingRepliesOnlyToOriginatingSession(t *testing.T) {
	env := newEnv()
	u := types.User{ID: "u1", Name: "Alice"}
	s1 := env.connect(t, u, "s1")
	s2 := env.connect(t, u, "s2")

	h := channels.NewSystemHandler(env.router, zerolog.Nop())
	env.router.Handle(protocol.ChannelSystem, h)

	ping := protocol.New(protocol.ChannelSystem, map[string]any{"cmd": "ping"})
	ping.Time = 1000
	env.router.DispatchInbound(context.Background(), ping, "s1")

	replies := s1.packets(t)
	if len(replies) != 1 {
		t.Fatalf("expected one reply on the originating session, got %d", len(replies))
	}
	if len(s2.packets(t)) != 0 {
		t.Fatalf("ping reply leaked to another session of the same user")
	}

	reply := replies[0]
	if reply.Channel != protocol.ChannelSystem {
		t.Fatalf("expected system channel reply, got %q", reply.Channel)
	}
	if reply.DataString("cmd") != "ping" {
		t.Fatalf("expected cmd ping, got %v", reply.Data)
	}
	// JSON numbers decode as float64.
	if pong, _ := reply.Data["pong"].(float64); pong != 1000 {
		t.Fatalf("expected pong to echo the request time, got %v", reply.Data["pong"])
	}
}

func TestUnsupportedCommandIsDropped(t *testing.T) {
	env := newEnv()
	s := env.connect(t, types.User{ID: "u1"}, "s1")

	h := channels.NewSystemHandler(env.router, zerolog.Nop())

	h.HandleMessage(context.Background(), dispatch.InboundEvent{
		Sender:    types.User{ID: "u1"},
		SessionID: "s1",
		Packet:    protocol.New(protocol.ChannelSystem, map[string]any{"cmd": "selfdestruct"}),
	})
	h.HandleMessage(context.Background(), dispatch.InboundEvent{
		Sender:    types.User{ID: "u1"},
		SessionID: "s1",
		Packet:    protocol.New(protocol.ChannelSystem, nil),
	})

	if len(s.packets(t)) != 0 {
		t.Fatalf("no reply expected for unsupported commands")
	}
}
