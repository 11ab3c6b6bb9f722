package client

import (
	"fmt"
	"log"

	"localboard/internal/protocol"
	"localboard/internal/state"
)

// Renderer is the local drawing surface a Reconciler keeps in step with the
// host.
type Renderer interface {
	DrawOperation(state.Operation)
	DrawSegment(state.Segment)
	Clear()
}

// Reconciler applies host events to a Renderer. History and redraws replace
// the whole surface; live segments are drawn on top without being recorded.
type Reconciler struct {
	renderer Renderer
	onChange func()
}

// NewReconciler returns a Reconciler drawing on r. onChange, if not nil, runs
// after every event that touched the surface.
func NewReconciler(r Renderer, onChange func()) *Reconciler {
	return &Reconciler{renderer: r, onChange: onChange}
}

// Replay discards the surface and redraws ops in order. Order matters: later
// operations cover earlier ones and fills depend on what is already drawn.
func (c *Reconciler) Replay(ops []state.Operation) {
	c.renderer.Clear()
	for _, op := range ops {
		c.renderer.DrawOperation(op)
	}
	c.changed()
}

// Segment draws a live segment from another client.
func (c *Reconciler) Segment(seg state.Segment) {
	c.renderer.DrawSegment(seg)
	c.changed()
}

// Clear wipes the surface.
func (c *Reconciler) Clear() {
	c.renderer.Clear()
	c.changed()
}

// Handle dispatches one message from the host.
func (c *Reconciler) Handle(msg protocol.Message) error {
	switch msg.Event {
	case protocol.EventLoadHistory, protocol.EventGlobalRedraw:
		ops, err := state.DecodeOperations(msg.Payload)
		if err != nil {
			return fmt.Errorf("%s: %w", msg.Event, err)
		}
		log.Printf("[CLIENT] %s with %d operations", msg.Event, len(ops))
		c.Replay(ops)
	case protocol.EventDrawStroke:
		seg, err := state.DecodeSegment(msg.Payload)
		if err != nil {
			return fmt.Errorf("%s: %w", msg.Event, err)
		}
		c.Segment(seg)
	case protocol.EventGlobalClear:
		c.Clear()
	default:
		return fmt.Errorf("unexpected event %q", msg.Event)
	}
	return nil
}

func (c *Reconciler) changed() {
	if c.onChange != nil {
		c.onChange()
	}
}
