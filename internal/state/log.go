package state

import "log"

// OperationLog is the authoritative, ordered record of what is on the board:
// the committed operations plus a redo stack of undone ones.
//
// It does no locking. The server hands it to exactly one goroutine, the hub
// event loop, which processes one message at a time.
type OperationLog struct {
	committed []Operation
	redo      []Operation
}

func NewOperationLog() *OperationLog {
	return &OperationLog{}
}

// Append commits op and discards the redo stack.
func (l *OperationLog) Append(op Operation) {
	l.committed = append(l.committed, op)
	l.redo = nil
	log.Printf("[LOG] Appended %s (committed=%d)", op.Kind(), len(l.committed))
}

// Undo moves the last committed operation onto the redo stack and returns the
// new committed sequence. It reports false and changes nothing when there is
// nothing to undo.
func (l *OperationLog) Undo() ([]Operation, bool) {
	n := len(l.committed)
	if n == 0 {
		return nil, false
	}
	op := l.committed[n-1]
	l.committed[n-1] = nil
	l.committed = l.committed[:n-1]
	l.redo = append(l.redo, op)
	log.Printf("[LOG] Undid %s (committed=%d, redo=%d)", op.Kind(), len(l.committed), len(l.redo))
	return l.Snapshot(), true
}

// Redo moves the most recently undone operation back onto the end of the
// committed sequence.
func (l *OperationLog) Redo() ([]Operation, bool) {
	n := len(l.redo)
	if n == 0 {
		return nil, false
	}
	op := l.redo[n-1]
	l.redo[n-1] = nil
	l.redo = l.redo[:n-1]
	l.committed = append(l.committed, op)
	log.Printf("[LOG] Redid %s (committed=%d, redo=%d)", op.Kind(), len(l.committed), len(l.redo))
	return l.Snapshot(), true
}

// Clear empties both the committed sequence and the redo stack.
func (l *OperationLog) Clear() {
	l.committed = nil
	l.redo = nil
	log.Println("[LOG] Cleared")
}

// Snapshot returns a copy of the committed sequence. It is never nil.
func (l *OperationLog) Snapshot() []Operation {
	ops := make([]Operation, len(l.committed))
	copy(ops, l.committed)
	return ops
}

func (l *OperationLog) Len() int     { return len(l.committed) }
func (l *OperationLog) RedoLen() int { return len(l.redo) }
