// Package history provides a bounded linear undo/redo log of state snapshots.
//
// The recorder stores the state that existed before each committed change.
// Undo hands back the previous state and parks the current one on the redo
// stack; any new commit discards the redo stack. While paused, commits are
// ignored so that a burst of intermediate updates can be folded into one entry
// by the caller.
package history

// DefaultLimit is used when New is given a non-positive limit.
const DefaultLimit = 100

type Recorder[T any] struct {
	past   []T
	future []T
	limit  int
	paused bool
	clone  func(T) T
}

// New returns a recorder keeping at most limit undo entries. clone, when not
// nil, is applied to every state entering the recorder.
func New[T any](limit int, clone func(T) T) *Recorder[T] {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if clone == nil {
		clone = func(v T) T { return v }
	}
	return &Recorder[T]{
		past:  make([]T, 0, limit),
		limit: limit,
		clone: clone,
	}
}

// Commit records prev, the state before a change. It reports false when paused.
func (r *Recorder[T]) Commit(prev T) bool {
	if r.paused {
		return false
	}
	r.push(prev)
	return true
}

func (r *Recorder[T]) push(prev T) {
	if len(r.past) >= r.limit {
		// oldest first
		copy(r.past, r.past[1:])
		r.past = r.past[:len(r.past)-1]
	}
	r.past = append(r.past, r.clone(prev))
	r.future = r.future[:0]
}

func (r *Recorder[T]) Pause() {
	r.paused = true
}

func (r *Recorder[T]) Resume() {
	r.paused = false
}

func (r *Recorder[T]) Paused() bool {
	return r.paused
}

// Undo returns the previous state and stores current for Redo.
func (r *Recorder[T]) Undo(current T) (T, bool) {
	if len(r.past) == 0 {
		var zero T
		return zero, false
	}
	prev := r.past[len(r.past)-1]
	r.past = r.past[:len(r.past)-1]
	r.future = append(r.future, r.clone(current))
	return prev, true
}

// Redo returns the next state and stores current for Undo.
func (r *Recorder[T]) Redo(current T) (T, bool) {
	if len(r.future) == 0 {
		var zero T
		return zero, false
	}
	next := r.future[len(r.future)-1]
	r.future = r.future[:len(r.future)-1]
	r.past = append(r.past, r.clone(current))
	return next, true
}

func (r *Recorder[T]) CanUndo() bool { return len(r.past) > 0 }
func (r *Recorder[T]) CanRedo() bool { return len(r.future) > 0 }

// Depth is the number of undo entries.
func (r *Recorder[T]) Depth() int { return len(r.past) }

// FutureDepth is the number of redo entries.
func (r *Recorder[T]) FutureDepth() int { return len(r.future) }

func (r *Recorder[T]) Limit() int { return r.limit }

// Clear drops both stacks and resumes recording.
func (r *Recorder[T]) Clear() {
	r.past = r.past[:0]
	r.future = r.future[:0]
	r.paused = false
}
