package protocol_test

import (
	"strings"
	"testing"

	"github.com/botorabi/Meet4Eat-sub002/pkg/protocol"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	p := protocol.New(protocol.ChannelChat, map[string]any{"text": "hi"})
	p.SourceID = "42"

	b, err := protocol.Encode(p)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	got, err := protocol.Decode(b)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if got.Channel != protocol.ChannelChat {
		t.Fatalf("expected chat channel, got %q", got.Channel)
	}
	if got.SourceID != "42" {
		t.Fatalf("expected sourceId 42, got %q", got.SourceID)
	}
	if got.DataString("text") != "hi" {
		t.Fatalf("payload lost in round trip: %v", got.Data)
	}
	if got.Time == 0 {
		t.Fatalf("expected encoder to fill zero time")
	}
}

func TestEncodeDoesNotMutateZeroTime(t *testing.T) {
	p := protocol.New(protocol.ChannelSystem, nil)
	if _, err := protocol.Encode(p); err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if p.Time != 0 {
		t.Fatalf("encode mutated the caller's packet time: %d", p.Time)
	}
}

func TestEncodeKeepsExplicitTime(t *testing.T) {
	p := protocol.New(protocol.ChannelSystem, map[string]any{"cmd": "ping"})
	p.Time = 1000

	b, err := protocol.Encode(p)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	got, err := protocol.Decode(b)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if got.Time != 1000 {
		t.Fatalf("expected time 1000, got %d", got.Time)
	}
}

func TestEncodeOmitsAbsentData(t *testing.T) {
	b, err := protocol.Encode(protocol.New(protocol.ChannelNotify, nil))
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if strings.Contains(string(b), `"data"`) {
		t.Fatalf("expected data to be omitted, got %s", b)
	}
}

func TestDecodeUnknownChannel(t *testing.T) {
	p, err := protocol.Decode([]byte(`{"channel":"bogus","sourceId":"","source":"","time":5}`))
	if err != nil {
		t.Fatalf("unknown channel must still decode: %v", err)
	}
	if p.Channel.Known() {
		t.Fatalf("channel %q should not be known", p.Channel)
	}
}

func TestDecodeMalformed(t *testing.T) {
	for _, in := range []string{"", "not json", `{"channel":12}`, `{"time":"later"}`} {
		if _, err := protocol.Decode([]byte(in)); err == nil {
			t.Fatalf("expected decode error for %q", in)
		}
	}
}

func TestChannelKnown(t *testing.T) {
	for _, c := range []protocol.Channel{
		protocol.ChannelSystem, protocol.ChannelNotify,
		protocol.ChannelChat, protocol.ChannelEvent,
	} {
		if !c.Known() {
			t.Fatalf("channel %q should be known", c)
		}
	}
	if protocol.Channel("").Known() {
		t.Fatalf("empty channel must not be known")
	}
}
