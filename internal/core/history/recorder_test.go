package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUndoRedoRoundTrip(t *testing.T) {
	r := New[int](10, nil)
	state := 0

	for i := 1; i <= 3; i++ {
		require.True(t, r.Commit(state))
		state = i
	}
	require.Equal(t, 3, r.Depth())

	prev, ok := r.Undo(state)
	require.True(t, ok)
	assert.Equal(t, 2, prev)
	state = prev

	next, ok := r.Redo(state)
	require.True(t, ok)
	assert.Equal(t, 3, next)
	assert.Equal(t, 3, r.Depth())
	assert.Equal(t, 0, r.FutureDepth())
}

func TestEmptyStacksReportUnavailable(t *testing.T) {
	r := New[string](5, nil)

	_, ok := r.Undo("x")
	assert.False(t, ok)
	_, ok = r.Redo("x")
	assert.False(t, ok)
	assert.False(t, r.CanUndo())
	assert.False(t, r.CanRedo())
}

func TestCommitClearsRedo(t *testing.T) {
	r := New[int](5, nil)
	r.Commit(0)
	r.Commit(1)

	_, ok := r.Undo(2)
	require.True(t, ok)
	require.True(t, r.CanRedo())

	r.Commit(1)
	assert.False(t, r.CanRedo())
}

func TestLimitEvictsOldest(t *testing.T) {
	r := New[int](3, nil)
	for i := 0; i < 5; i++ {
		r.Commit(i)
	}
	require.Equal(t, 3, r.Depth())

	var got []int
	state := 5
	for r.CanUndo() {
		state, _ = r.Undo(state)
		got = append(got, state)
	}
	assert.Equal(t, []int{4, 3, 2}, got)
}

func TestPauseIgnoresCommits(t *testing.T) {
	r := New[int](5, nil)
	r.Pause()
	assert.False(t, r.Commit(1))
	assert.False(t, r.Commit(2))
	assert.Equal(t, 0, r.Depth())

	r.Resume()
	assert.True(t, r.Commit(3))
	assert.Equal(t, 1, r.Depth())
}

func TestCloneIsolatesStoredStates(t *testing.T) {
	clone := func(s []int) []int { return append([]int(nil), s...) }
	r := New(5, clone)

	state := []int{1, 2}
	r.Commit(state)
	state[0] = 99

	prev, ok := r.Undo(state)
	require.True(t, ok)
	assert.Equal(t, []int{1, 2}, prev)
}

func TestDefaultLimitAndClear(t *testing.T) {
	r := New[int](0, nil)
	assert.Equal(t, DefaultLimit, r.Limit())

	r.Commit(1)
	r.Pause()
	r.Clear()
	assert.Equal(t, 0, r.Depth())
	assert.False(t, r.Paused())
}
