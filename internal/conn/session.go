package conn

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"github.com/rs/zerolog"
)

// SessionState is the lifecycle position of one connection.
type SessionState int32

const (
	StateConnecting SessionState = iota
	StateBound
	StateOpen
	StateClosed
)

func (s SessionState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateBound:
		return "bound"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// wsSession is the transport session registered with the connection
// registry. Outbound writes go through a buffered channel drained by a
// single write pump, so any goroutine may call Send concurrently with
// the connection's own reads.
type wsSession struct {
	id           string
	conn         *websocket.Conn
	send         chan []byte
	done         chan struct{}
	shutdownOnce sync.Once
	state        atomic.Int32
	writeTimeout time.Duration
	log          zerolog.Logger
}

func newSession(id string, conn *websocket.Conn, sendBuffer int, writeTimeout time.Duration, log zerolog.Logger) *wsSession {
	return &wsSession{
		id:           id,
		conn:         conn,
		send:         make(chan []byte, sendBuffer),
		done:         make(chan struct{}),
		writeTimeout: writeTimeout,
		log:          log.With().Str("session", id).Logger(),
	}
}

func (s *wsSession) ID() string { return s.id }

// Send enqueues an encoded packet for delivery. It never blocks: a
// full buffer or a closed session reports false and the packet is the
// caller's to drop. A slow client therefore loses its own packets
// instead of stalling fan-out to everyone else.
func (s *wsSession) Send(b []byte) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.send <- b:
		return true
	case <-s.done:
		return false
	default:
		return false
	}
}

func (s *wsSession) State() SessionState {
	return SessionState(s.state.Load())
}

func (s *wsSession) setState(st SessionState) {
	s.state.Store(int32(st))
}

// shutdown stops the write pump and marks the session dead for
// senders. Idempotent.
func (s *wsSession) shutdown() {
	s.shutdownOnce.Do(func() {
		close(s.done)
	})
}

// writePump is the session's only writer. It runs until the session
// shuts down or a write fails.
func (s *wsSession) writePump(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case b := <-s.send:
			wctx, cancel := context.WithTimeout(ctx, s.writeTimeout)
			err := s.conn.Write(wctx, websocket.MessageText, b)
			cancel()
			if err != nil {
				s.log.Debug().Err(err).Msg("session write failed")
				s.shutdown()
				return
			}
		}
	}
}
