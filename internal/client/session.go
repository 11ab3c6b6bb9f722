package client

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"localboard/internal/protocol"
	"localboard/internal/state"
)

// Session is a client's connection to the host. Outbound calls may come from
// any goroutine; inbound events go to the Reconciler from Run's goroutine.
type Session struct {
	conn *websocket.Conn
	rec  *Reconciler
	mu   sync.Mutex // serialises writes
}

// Dial connects to the host at addr, which may be host:port or a
// localboard:// link.
func Dial(ctx context.Context, addr string, rec *Reconciler) (*Session, error) {
	addr = strings.TrimSuffix(strings.TrimPrefix(addr, "localboard://"), "/")
	u := url.URL{Scheme: "ws", Host: addr, Path: "/ws"}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", u.String(), err)
	}
	log.Printf("[CLIENT] Connected to %s as %s", addr, conn.LocalAddr())
	return &Session{conn: conn, rec: rec}, nil
}

// Run reads host events until the connection fails or ctx is cancelled.
func (s *Session) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() { s.conn.Close() })
	defer stop()
	for {
		_, frame, err := s.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("disconnected from host: %w", err)
		}
		msg, err := protocol.Decode(frame)
		if err != nil {
			log.Printf("[CLIENT] Bad frame from host: %v", err)
			continue
		}
		if err := s.rec.Handle(msg); err != nil {
			log.Printf("[CLIENT] Ignoring host event: %v", err)
		}
	}
}

func (s *Session) send(msg protocol.Message, err error) error {
	if err != nil {
		return err
	}
	frame, err := protocol.Encode(msg)
	if err != nil {
		return fmt.Errorf("encode %s: %w", msg.Event, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		return fmt.Errorf("send %s: %w", msg.Event, err)
	}
	return nil
}

// SendSegment relays a live segment to the other clients.
func (s *Session) SendSegment(seg state.Segment) error {
	return s.send(protocol.Segment(seg))
}

// Commit records op in the host's log.
func (s *Session) Commit(op state.Operation) error {
	return s.send(protocol.Operation(op))
}

func (s *Session) Undo() error  { return s.send(protocol.Bare(protocol.EventRequestUndo), nil) }
func (s *Session) Redo() error  { return s.send(protocol.Bare(protocol.EventRequestRedo), nil) }
func (s *Session) Clear() error { return s.send(protocol.Bare(protocol.EventRequestClear), nil) }

// Close sends a close frame and shuts the connection.
func (s *Session) Close() error {
	s.mu.Lock()
	_ = s.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	s.mu.Unlock()
	return s.conn.Close()
}
