package net

import (
	"log"

	"localboard/internal/protocol"
	"localboard/internal/state"
)

// PeerID identifies one connected client for the lifetime of its connection.
type PeerID string

// Transport delivers messages to connected peers. Sends are fire-and-forget.
type Transport interface {
	Emit(to PeerID, msg protocol.Message)
	BroadcastExcept(from PeerID, msg protocol.Message)
	BroadcastAll(msg protocol.Message)
}

// Broadcaster applies inbound events to the operation log and decides who
// hears about it:
//
//	draw-stroke    relay verbatim to everyone but the sender
//	add-operation  append, no broadcast (the pixels were already previewed)
//	request-undo   undo, then global-redraw to everyone
//	request-redo   redo, then global-redraw to everyone
//	request-clear  clear, then global-clear to everyone
//	connect        load-history to the new peer only
//
// It must only be used from one goroutine.
type Broadcaster struct {
	log *state.OperationLog
	out Transport
}

func NewBroadcaster(l *state.OperationLog, out Transport) *Broadcaster {
	return &Broadcaster{log: l, out: out}
}

// Connected sends the current committed sequence to a newly joined peer.
func (b *Broadcaster) Connected(peer PeerID) {
	msg, err := protocol.Operations(protocol.EventLoadHistory, b.log.Snapshot())
	if err != nil {
		log.Printf("[SYNC] Failed to build history for %s: %v", peer, err)
		return
	}
	b.out.Emit(peer, msg)
}

// Handle processes one inbound message from peer.
func (b *Broadcaster) Handle(from PeerID, msg protocol.Message) {
	switch msg.Event {
	case protocol.EventDrawStroke:
		if _, err := state.DecodeSegment(msg.Payload); err != nil {
			log.Printf("[SYNC] Dropping segment from %s: %v", from, err)
			return
		}
		b.out.BroadcastExcept(from, msg)

	case protocol.EventAddOperation:
		op, err := state.DecodeOperation(msg.Payload)
		if err != nil {
			log.Printf("[SYNC] Dropping operation from %s: %v", from, err)
			return
		}
		b.log.Append(op)

	case protocol.EventRequestUndo:
		if committed, ok := b.log.Undo(); ok {
			b.redraw(committed)
		}

	case protocol.EventRequestRedo:
		if committed, ok := b.log.Redo(); ok {
			b.redraw(committed)
		}

	case protocol.EventRequestClear:
		b.log.Clear()
		b.out.BroadcastAll(protocol.Bare(protocol.EventGlobalClear))

	default:
		log.Printf("[SYNC] Ignoring unknown event %q from %s", msg.Event, from)
	}
}

func (b *Broadcaster) redraw(committed []state.Operation) {
	msg, err := protocol.Operations(protocol.EventGlobalRedraw, committed)
	if err != nil {
		log.Printf("[SYNC] Failed to build redraw: %v", err)
		return
	}
	b.out.BroadcastAll(msg)
}

// Snapshot returns the committed sequence.
func (b *Broadcaster) Snapshot() []state.Operation {
	return b.log.Snapshot()
}
