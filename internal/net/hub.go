package net

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"localboard/internal/protocol"
	"localboard/internal/state"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10

	defaultSendQueue = 256
)

// ErrHubStopped is returned by calls made after the hub's Run has returned.
var ErrHubStopped = errors.New("hub stopped")

// Peer is one connected board client.
type Peer struct {
	ID   PeerID
	conn *websocket.Conn
	send chan []byte
}

type inbound struct {
	from PeerID
	msg  protocol.Message
}

// Hub owns the operation log and the set of connected peers. Every inbound
// message, connect and disconnect is processed by the single goroutine running
// Run, one at a time, so the log never sees concurrent access.
type Hub struct {
	peers       map[PeerID]*Peer
	broadcaster *Broadcaster

	register   chan *Peer
	unregister chan *Peer
	inbound    chan inbound
	snapshots  chan chan []state.Operation
	done       chan struct{}

	upgrader        websocket.Upgrader
	sendQueue       int
	maxMessageBytes int64
}

// NewHub creates a hub around l. sendQueue bounds each peer's outbound queue;
// a peer that falls that far behind is disconnected.
func NewHub(l *state.OperationLog, sendQueue int, maxMessageBytes int64) *Hub {
	if sendQueue < 1 {
		sendQueue = defaultSendQueue
	}
	h := &Hub{
		peers:      make(map[PeerID]*Peer),
		register:   make(chan *Peer),
		unregister: make(chan *Peer),
		inbound:    make(chan inbound),
		snapshots:  make(chan chan []state.Operation),
		done:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		sendQueue:       sendQueue,
		maxMessageBytes: maxMessageBytes,
	}
	h.broadcaster = NewBroadcaster(l, h)
	return h
}

// Run processes hub events until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	log.Println("[HUB] Running")
	for {
		select {
		case p := <-h.register:
			h.peers[p.ID] = p
			log.Printf("[HUB] Peer %s joined (%d connected)", p.ID, len(h.peers))
			h.broadcaster.Connected(p.ID)
		case p := <-h.unregister:
			if _, ok := h.peers[p.ID]; ok {
				h.drop(p)
				log.Printf("[HUB] Peer %s left (%d connected)", p.ID, len(h.peers))
			}
		case in := <-h.inbound:
			h.broadcaster.Handle(in.from, in.msg)
		case reply := <-h.snapshots:
			reply <- h.broadcaster.Snapshot()
		case <-ctx.Done():
			for _, p := range h.peers {
				h.drop(p)
			}
			log.Println("[HUB] Stopped")
			return
		}
	}
}

func (h *Hub) drop(p *Peer) {
	delete(h.peers, p.ID)
	close(p.send)
}

// Snapshot asks the event loop for the committed sequence.
func (h *Hub) Snapshot(ctx context.Context) ([]state.Operation, error) {
	reply := make(chan []state.Operation, 1)
	select {
	case h.snapshots <- reply:
	case <-h.done:
		return nil, ErrHubStopped
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case ops := <-reply:
		return ops, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Emit implements Transport. Only called from Run.
func (h *Hub) Emit(to PeerID, msg protocol.Message) {
	p, ok := h.peers[to]
	if !ok {
		return
	}
	frame, err := protocol.Encode(msg)
	if err != nil {
		log.Printf("[HUB] Failed to encode %s: %v", msg.Event, err)
		return
	}
	h.enqueue(p, frame)
}

// BroadcastExcept implements Transport. Only called from Run.
func (h *Hub) BroadcastExcept(from PeerID, msg protocol.Message) {
	h.fanOut(msg, from)
}

// BroadcastAll implements Transport. Only called from Run.
func (h *Hub) BroadcastAll(msg protocol.Message) {
	h.fanOut(msg, "")
}

func (h *Hub) fanOut(msg protocol.Message, exclude PeerID) {
	frame, err := protocol.Encode(msg)
	if err != nil {
		log.Printf("[HUB] Failed to encode %s: %v", msg.Event, err)
		return
	}
	for id, p := range h.peers {
		if id != exclude {
			h.enqueue(p, frame)
		}
	}
}

func (h *Hub) enqueue(p *Peer, frame []byte) {
	select {
	case p.send <- frame:
	default:
		log.Printf("[HUB] Peer %s is not keeping up, disconnecting", p.ID)
		h.drop(p)
	}
}

// ServeWS upgrades the request and attaches the connection to the hub.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[HUB] Upgrade failed for %s: %v", r.RemoteAddr, err)
		return
	}
	p := &Peer{
		ID:   PeerID(uuid.NewString()),
		conn: conn,
		send: make(chan []byte, h.sendQueue),
	}
	select {
	case h.register <- p:
	case <-h.done:
		conn.Close()
		return
	}
	log.Printf("[HUB] Accepted %s from %s", p.ID, r.RemoteAddr)
	go h.writePump(p)
	go h.readPump(p)
}

func (h *Hub) readPump(p *Peer) {
	defer func() {
		select {
		case h.unregister <- p:
		case <-h.done:
		}
		p.conn.Close()
	}()
	if h.maxMessageBytes > 0 {
		p.conn.SetReadLimit(h.maxMessageBytes)
	}
	_ = p.conn.SetReadDeadline(time.Now().Add(pongWait))
	p.conn.SetPongHandler(func(string) error {
		return p.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, frame, err := p.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[HUB] Peer %s read error: %v", p.ID, err)
			}
			return
		}
		msg, err := protocol.Decode(frame)
		if err != nil {
			log.Printf("[HUB] Peer %s sent a bad frame: %v", p.ID, err)
			continue
		}
		select {
		case h.inbound <- inbound{from: p.ID, msg: msg}:
		case <-h.done:
			return
		}
	}
}

func (h *Hub) writePump(p *Peer) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		p.conn.Close()
	}()
	for {
		select {
		case frame, ok := <-p.send:
			_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = p.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := p.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				log.Printf("[HUB] Write to %s failed: %v", p.ID, err)
				return
			}
		case <-ticker.C:
			_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := p.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
