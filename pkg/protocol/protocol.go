// Package protocol defines the wire format shared between the realtime
// server and its clients. Every message is a single JSON document, a
// Packet, multiplexing four logical channels over one WebSocket
// connection.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ProtocolVersion is reported in the connection acknowledgement sent on
// the system channel right after a successful handshake.
const ProtocolVersion = "1.0.0"

// Channel identifies which handler processes a packet. Unknown values
// survive decoding; the router is responsible for dropping them.
type Channel string

const (
	// ChannelSystem carries connection acks and system commands (ping).
	ChannelSystem Channel = "system"
	// ChannelNotify carries user notifications pushed by the server.
	ChannelNotify Channel = "notify"
	// ChannelChat carries chat messages.
	ChannelChat Channel = "chat"
	// ChannelEvent carries meeting-event coordination messages.
	ChannelEvent Channel = "event"
)

// Known reports whether c is one of the four routable channels.
func (c Channel) Known() bool {
	switch c {
	case ChannelSystem, ChannelNotify, ChannelChat, ChannelEvent:
		return true
	}
	return false
}

var ErrMalformed = errors.New("malformed packet")

// Packet is a single wire message. SourceID and Source are empty for
// system-originated packets. Time is epoch milliseconds; a zero Time is
// filled with the current wall clock at encode time.
type Packet struct {
	Channel  Channel        `json:"channel"`
	SourceID string         `json:"sourceId"`
	Source   string         `json:"source"`
	Data     map[string]any `json:"data,omitempty"`
	Time     int64          `json:"time"`
}

// New creates a packet on the given channel carrying data. Source
// fields stay empty until a handler stamps the sender.
func New(channel Channel, data map[string]any) *Packet {
	return &Packet{Channel: channel, Data: data}
}

// Stamp sets the sender identity and refreshes the packet time.
func (p *Packet) Stamp(sourceID, source string) {
	p.SourceID = sourceID
	p.Source = source
	p.Time = Now()
}

// DataString returns the string value stored under key in the packet
// payload, or "" when the payload or the key is absent or not a string.
func (p *Packet) DataString(key string) string {
	if p.Data == nil {
		return ""
	}
	s, _ := p.Data[key].(string)
	return s
}

// Now returns the current time in epoch milliseconds.
func Now() int64 {
	return time.Now().UnixMilli()
}

// Encode serializes a packet. A zero Time is replaced with the current
// time without mutating the caller's packet.
func Encode(p *Packet) ([]byte, error) {
	out := *p
	if out.Time == 0 {
		out.Time = Now()
	}
	b, err := json.Marshal(&out)
	if err != nil {
		return nil, fmt.Errorf("encode packet: %w", err)
	}
	return b, nil
}

// Decode parses a wire message. It fails only on malformed JSON or
// wrongly typed scalar fields; an unrecognized channel string decodes
// fine and is left for the router to drop.
func Decode(b []byte) (*Packet, error) {
	var p Packet
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return &p, nil
}
