package client

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"localboard/internal/protocol"
	"localboard/internal/raster"
	"localboard/internal/state"
)

type call struct {
	name string
	op   state.Operation
	seg  state.Segment
}

type recordingRenderer struct {
	calls []call
}

func (r *recordingRenderer) DrawOperation(op state.Operation) {
	r.calls = append(r.calls, call{name: "op", op: op})
}
func (r *recordingRenderer) DrawSegment(s state.Segment) {
	r.calls = append(r.calls, call{name: "segment", seg: s})
}
func (r *recordingRenderer) Clear() { r.calls = append(r.calls, call{name: "clear"}) }

func TestReplayClearsThenDrawsInOrder(t *testing.T) {
	r := &recordingRenderer{}
	changes := 0
	rec := NewReconciler(r, func() { changes++ })

	a := state.Fill{X: 1, Y: 1, Color: "#000000"}
	b := state.Line{StartX: 0, StartY: 0, EndX: 5, EndY: 5, Color: "#ff0000", StrokeWidth: 2, LineStyle: state.LineDotted}
	payload, err := state.EncodeOperations([]state.Operation{a, b})
	assert.NoError(t, err)

	assert.NoError(t, rec.Handle(protocol.Message{Event: protocol.EventGlobalRedraw, Payload: payload}))
	assert.Equal(t, []call{{name: "clear"}, {name: "op", op: a}, {name: "op", op: b}}, r.calls)
	assert.Equal(t, 1, changes)
}

func TestSegmentAndClear(t *testing.T) {
	r := &recordingRenderer{}
	rec := NewReconciler(r, nil)

	seg := json.RawMessage(`{"startX":1,"startY":2,"endX":3,"endY":4,"color":"#000000","width":5}`)
	assert.NoError(t, rec.Handle(protocol.Message{Event: protocol.EventDrawStroke, Payload: seg}))
	assert.NoError(t, rec.Handle(protocol.Bare(protocol.EventGlobalClear)))
	assert.Equal(t, []call{
		{name: "segment", seg: state.Segment{StartX: 1, StartY: 2, EndX: 3, EndY: 4, Color: "#000000", Width: 5}},
		{name: "clear"},
	}, r.calls)
}

func TestHandleRejectsBadPayload(t *testing.T) {
	r := &recordingRenderer{}
	rec := NewReconciler(r, nil)
	assert.Error(t, rec.Handle(protocol.Message{Event: protocol.EventLoadHistory, Payload: json.RawMessage(`[{"type":"blob"}]`)}))
	assert.Error(t, rec.Handle(protocol.Bare(protocol.EventRequestUndo)))
	assert.Empty(t, r.calls)
}

func TestReplayConvergesRegardlessOfLocalState(t *testing.T) {
	ops := []state.Operation{
		state.Rect{X: 2, Y: 2, Width: 16, Height: 16, Color: "#000000", StrokeWidth: 2, LineStyle: state.LineSolid},
		state.Fill{X: 10, Y: 10, Color: "#ff0000"},
	}
	clean := raster.NewSurface(20, 20)
	NewReconciler(clean, nil).Replay(ops)

	dirty := raster.NewSurface(20, 20)
	dirty.DrawOperation(state.Fill{X: 0, Y: 0, Color: "#00ff00"})
	dirty.DrawSegment(state.Segment{StartX: 0, StartY: 0, EndX: 20, EndY: 20, Color: "#0000ff", Width: 3})
	NewReconciler(dirty, nil).Replay(ops)

	assert.Equal(t, clean.Snapshot().Pix, dirty.Snapshot().Pix)
}
