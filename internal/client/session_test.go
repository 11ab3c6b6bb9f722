package client

import (
	"context"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	boardnet "localboard/internal/net"
	"localboard/internal/state"
)

// syncRenderer records draws from the session goroutine.
type syncRenderer struct {
	mu   sync.Mutex
	ops  []state.Operation
	segs []state.Segment
	n    int // replays and clears seen
}

func (r *syncRenderer) DrawOperation(op state.Operation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, op)
}

func (r *syncRenderer) DrawSegment(s state.Segment) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.segs = append(r.segs, s)
}

func (r *syncRenderer) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = nil
	r.n++
}

func (r *syncRenderer) seen() ([]state.Operation, []state.Segment, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]state.Operation(nil), r.ops...), append([]state.Segment(nil), r.segs...), r.n
}

func connect(t *testing.T, ctx context.Context, addr string) (*Session, *syncRenderer) {
	t.Helper()
	r := &syncRenderer{}
	s, err := Dial(ctx, addr, NewReconciler(r, nil))
	require.NoError(t, err)
	go func() { _ = s.Run(ctx) }()
	t.Cleanup(func() { _ = s.Close() })
	return s, r
}

func TestSessionsConverge(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := boardnet.NewHub(state.NewOperationLog(), 16, 1<<20)
	go h.Run(ctx)
	srv := httptest.NewServer(boardnet.NewRouter(h, boardnet.Canvas{Width: 50, Height: 50}))
	defer srv.Close()
	addr := "localboard://" + strings.TrimPrefix(srv.URL, "http://") + "/"

	alice, aliceView := connect(t, ctx, addr)
	_, bobView := connect(t, ctx, addr)

	// both received their (empty) history
	require.Eventually(t, func() bool {
		_, _, a := aliceView.seen()
		_, _, b := bobView.seen()
		return a == 1 && b == 1
	}, 2*time.Second, 10*time.Millisecond)

	seg := state.Segment{StartX: 0, StartY: 0, EndX: 4, EndY: 4, Color: "#000000", Width: 2}
	require.NoError(t, alice.SendSegment(seg))
	require.Eventually(t, func() bool {
		_, segs, _ := bobView.seen()
		return len(segs) == 1
	}, 2*time.Second, 10*time.Millisecond)
	_, segs, _ := bobView.seen()
	assert.Equal(t, seg, segs[0])

	fill := state.Fill{X: 3, Y: 3, Color: "#123456"}
	require.NoError(t, alice.Commit(fill))
	require.NoError(t, alice.Undo())
	require.NoError(t, alice.Redo())

	for _, view := range []*syncRenderer{aliceView, bobView} {
		require.Eventually(t, func() bool {
			ops, _, n := view.seen()
			return n == 3 && len(ops) == 1
		}, 2*time.Second, 10*time.Millisecond)
		ops, _, _ := view.seen()
		assert.Equal(t, fill, ops[0])
	}

	require.NoError(t, alice.Clear())
	require.Eventually(t, func() bool {
		ops, _, n := bobView.seen()
		return n == 4 && len(ops) == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestDialFailure(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := Dial(ctx, "127.0.0.1:1", NewReconciler(&syncRenderer{}, nil))
	assert.Error(t, err)
}
