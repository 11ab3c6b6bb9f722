// Package protocol defines the JSON envelope exchanged between board clients
// and the host over a websocket.
package protocol

import (
	"encoding/json"
	"fmt"

	"localboard/internal/state"
)

// Event names a message on the wire.
type Event string

const (
	// Client to host.
	EventDrawStroke   Event = "draw-stroke"   // live segment, also relayed host to client
	EventAddOperation Event = "add-operation" // commit one operation
	EventRequestUndo  Event = "request-undo"
	EventRequestRedo  Event = "request-redo"
	EventRequestClear Event = "request-clear"

	// Host to client.
	EventLoadHistory  Event = "load-history"  // committed sequence, sent once on connect
	EventGlobalRedraw Event = "global-redraw" // committed sequence after undo or redo
	EventGlobalClear  Event = "global-clear"
)

// Message is the envelope for all websocket traffic.
type Message struct {
	Event   Event           `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Bare builds a message without payload.
func Bare(event Event) Message {
	return Message{Event: event}
}

// Operations builds a message carrying a full committed sequence.
func Operations(event Event, ops []state.Operation) (Message, error) {
	data, err := state.EncodeOperations(ops)
	if err != nil {
		return Message{}, fmt.Errorf("encode %s: %w", event, err)
	}
	return Message{Event: event, Payload: data}, nil
}

// Operation builds an add-operation message.
func Operation(op state.Operation) (Message, error) {
	data, err := state.EncodeOperation(op)
	if err != nil {
		return Message{}, fmt.Errorf("encode %s: %w", EventAddOperation, err)
	}
	return Message{Event: EventAddOperation, Payload: data}, nil
}

// Segment builds a draw-stroke message.
func Segment(seg state.Segment) (Message, error) {
	data, err := json.Marshal(seg)
	if err != nil {
		return Message{}, fmt.Errorf("encode %s: %w", EventDrawStroke, err)
	}
	return Message{Event: EventDrawStroke, Payload: data}, nil
}

// Decode parses one websocket frame.
func Decode(frame []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(frame, &m); err != nil {
		return Message{}, fmt.Errorf("decode message: %w", err)
	}
	if m.Event == "" {
		return Message{}, fmt.Errorf("decode message: missing event")
	}
	return m, nil
}

// Encode serialises m for a websocket text frame.
func Encode(m Message) ([]byte, error) {
	return json.Marshal(m)
}
