package channels_test

import (
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/botorabi/Meet4Eat-sub002/internal/dispatch"
	"github.com/botorabi/Meet4Eat-sub002/internal/state"
	"github.com/botorabi/Meet4Eat-sub002/internal/store"
	"github.com/botorabi/Meet4Eat-sub002/internal/types"
	"github.com/botorabi/Meet4Eat-sub002/pkg/protocol"
)

type captureSession struct {
	id string

	mu   sync.Mutex
	sent [][]byte
}

func (c *captureSession) ID() string { return c.id }

func (c *captureSession) Send(b []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, b)
	return true
}

func (c *captureSession) packets(t *testing.T) []*protocol.Packet {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*protocol.Packet, 0, len(c.sent))
	for _, b := range c.sent {
		p, err := protocol.Decode(b)
		if err != nil {
			t.Fatalf("session %s received undecodable bytes: %v", c.id, err)
		}
		out = append(out, p)
	}
	return out
}

// testEnv wires a registry, router and memory collaborators the way
// the server does, minus the transport.
type testEnv struct {
	reg    *state.Registry
	router *dispatch.Router
	mem    *store.Memory
}

func newEnv() *testEnv {
	reg := state.NewRegistry(zerolog.Nop())
	return &testEnv{
		reg:    reg,
		router: dispatch.NewRouter(reg, zerolog.Nop()),
		mem:    store.NewMemory(),
	}
}

func (e *testEnv) connect(t *testing.T, u types.User, sessionID string) *captureSession {
	t.Helper()
	s := &captureSession{id: sessionID}
	if !e.reg.AddSession(u, s) {
		t.Fatalf("cannot register session %s", sessionID)
	}
	return s
}
