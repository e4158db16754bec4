package client

import "github.com/botorabi/Meet4Eat-sub002/pkg/protocol"

// Config configures a realtime client connection.
type Config struct {
	// ServerURL is the websocket endpoint, e.g. ws://host:8080/ws.
	ServerURL string
	// Token authenticates the connection (sent as a bearer token).
	Token string
	// UserAgent is optional; a default is used when empty.
	UserAgent string
}

// ConnectionStatus is the server's answer to a successful handshake.
type ConnectionStatus struct {
	ProtocolVersion string
	Status          string
	Description     string
}

// Handler receives client-side connection events. All callbacks run on
// the client's read goroutine.
type Handler interface {
	OnConnected(status ConnectionStatus)
	OnPacket(p *protocol.Packet)
	OnDisconnected(err error)
}

// NopHandler ignores every event. Embed it to implement only the
// callbacks you care about.
type NopHandler struct{}

func (NopHandler) OnConnected(ConnectionStatus) {}
func (NopHandler) OnPacket(*protocol.Packet)    {}
func (NopHandler) OnDisconnected(error)         {}

func statusFromPacket(p *protocol.Packet) ConnectionStatus {
	return ConnectionStatus{
		ProtocolVersion: p.DataString("protocolVersion"),
		Status:          p.DataString("status"),
		Description:     p.DataString("description"),
	}
}
