// Package builder couples the assembly store with undo/redo history and change
// notification. It is the single entry point input layers talk to.
package builder

import (
	"sync"

	"github.com/zeusync/droneforge/internal/core/assembly"
	"github.com/zeusync/droneforge/internal/core/catalog"
	"github.com/zeusync/droneforge/internal/core/events/bus"
	"github.com/zeusync/droneforge/internal/core/history"
	"github.com/zeusync/droneforge/internal/core/observability/log"
	"github.com/zeusync/droneforge/internal/core/projector"
)

// Builder serializes all commands on one mutex, so events from several input
// sources are applied one at a time in arrival order.
//
// Recording policy: every successful mutation commits the state it replaced.
// StartCarry pauses recording and remembers the pre-drag state; StopCarry,
// Lock, Remove of the carried part, Deselect and Reset close the drag by
// committing that state once, if anything changed during the drag. Only
// mutations of the carried part fold into the drag; a mutation of any other
// part mid-drag splits it, so that mutation keeps its own entry.
type Builder struct {
	mu      sync.Mutex
	store   *assembly.Store
	history *history.Recorder[assembly.Snapshot]
	opts    options
	logger  log.Log

	dragStart assembly.Snapshot
	dragDirty bool
}

func New(store *assembly.Store, opts ...Option) *Builder {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Builder{
		store:   store,
		history: history.New(o.historyLimit, assembly.Snapshot.Clone),
		opts:    o,
		logger:  o.logger.With(log.String("component", "builder")),
	}
}

func (b *Builder) Catalog() *catalog.Catalog {
	return b.store.Catalog()
}

func (b *Builder) Spawn(kind catalog.PartKind, at *assembly.Vec3) (assembly.PartID, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	prev := b.store.Snapshot()
	id, err := b.store.Spawn(kind, at)
	if err != nil {
		return "", b.reject("spawn", err)
	}
	b.record(prev)
	if b.store.Carrying() {
		b.beginDrag()
	}
	b.changed("spawn", log.String("part_id", string(id)), log.String("kind", string(kind)))
	return id, nil
}

// Select reports whether the active part changed.
func (b *Builder) Select(id assembly.PartID) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	changed, err := b.store.Select(id)
	if err != nil {
		return false, b.reject("select", err)
	}
	if changed {
		b.changed("select", log.String("part_id", string(id)))
	}
	return changed, nil
}

func (b *Builder) Deselect() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.store.ActiveID() == "" {
		return
	}
	b.store.Deselect()
	b.endDrag()
	b.changed("deselect")
}

func (b *Builder) StartCarry() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.startCarryLocked()
}

func (b *Builder) startCarryLocked() error {
	if b.store.Carrying() {
		return nil
	}
	if err := b.store.StartCarry(); err != nil {
		return b.reject("start_carry", err)
	}
	b.beginDrag()
	b.changed("start_carry", log.String("part_id", string(b.store.ActiveID())))
	return nil
}

func (b *Builder) StopCarry() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	wasCarrying := b.store.Carrying()
	if err := b.store.StopCarry(); err != nil {
		return b.reject("stop_carry", err)
	}
	if !wasCarrying {
		return nil
	}
	b.endDrag()
	b.changed("stop_carry", log.String("part_id", string(b.store.ActiveID())))
	return nil
}

// PickUp selects id and starts carrying it.
func (b *Builder) PickUp(id assembly.PartID) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, err := b.store.Select(id); err != nil {
		return b.reject("pickup", err)
	}
	return b.startCarryLocked()
}

func (b *Builder) SetPosition(id assembly.PartID, x, y, z float64) error {
	return b.mutate("set_position", id, func() error {
		return b.store.SetPosition(id, x, y, z)
	})
}

// Move applies a projected ground point to the part, keeping its elevation.
func (b *Builder) Move(id assembly.PartID, pt projector.GroundPoint) error {
	return b.mutate("move", id, func() error {
		return b.store.MoveTo(id, pt)
	})
}

// MoveCarried moves whichever part is being carried.
func (b *Builder) MoveCarried(pt projector.GroundPoint) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.store.Carrying() {
		return b.reject("move", assembly.ErrInvalidCarry)
	}
	id := b.store.ActiveID()
	return b.mutateLocked("move", id, func() error {
		return b.store.MoveTo(id, pt)
	})
}

func (b *Builder) SetElevation(id assembly.PartID, y float64) error {
	return b.mutate("set_elevation", id, func() error {
		return b.store.SetElevation(id, y)
	})
}

func (b *Builder) RotateStep(id assembly.PartID) error {
	return b.mutate("rotate", id, func() error {
		return b.store.RotateStep(id)
	})
}

func (b *Builder) Lock(id assembly.PartID) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	prev := b.store.Snapshot()
	wasCarrying := b.store.Carrying()
	if err := b.store.Lock(id); err != nil {
		return b.reject("lock", err)
	}
	if wasCarrying {
		b.endDrag()
	}
	b.record(prev)
	b.changed("lock", log.String("part_id", string(id)), log.Int("step", b.store.CurrentStep()))
	return nil
}

func (b *Builder) Remove(id assembly.PartID) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	prev := b.store.Snapshot()
	wasCarrying := b.store.Carrying()
	if err := b.store.Remove(id); err != nil {
		return b.reject("remove", err)
	}
	if wasCarrying && !b.store.Carrying() {
		b.endDrag()
	}
	b.record(prev)
	b.changed("remove", log.String("part_id", string(id)))
	return nil
}

// Reset clears the assembly. The cleared state is itself undoable.
func (b *Builder) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	prev := b.store.Snapshot()
	b.store.Reset()
	b.endDrag()
	if len(prev.Parts) > 0 || prev.Step > 0 {
		b.record(prev)
	}
	b.changed("reset")
}

// Undo restores the previous snapshot. It reports false when nothing can be
// undone or a drag is in progress.
func (b *Builder) Undo() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.store.Carrying() {
		b.reject("undo", assembly.ErrCarrying)
		return false
	}
	snap, ok := b.history.Undo(b.store.Snapshot())
	if !ok {
		return false
	}
	b.store.Restore(snap)
	b.changed("undo", log.Int("depth", b.history.Depth()))
	return true
}

// Redo re-applies an undone snapshot. Same availability rules as Undo.
func (b *Builder) Redo() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.store.Carrying() {
		b.reject("redo", assembly.ErrCarrying)
		return false
	}
	snap, ok := b.history.Redo(b.store.Snapshot())
	if !ok {
		return false
	}
	b.store.Restore(snap)
	b.changed("redo", log.Int("depth", b.history.Depth()))
	return true
}

func (b *Builder) CanUndo() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.history.CanUndo() && !b.store.Carrying()
}

func (b *Builder) CanRedo() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.history.CanRedo() && !b.store.Carrying()
}

// HistoryDepth is the number of undo entries.
func (b *Builder) HistoryDepth() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.history.Depth()
}

// Recording reports whether mutations are currently being recorded.
func (b *Builder) Recording() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return !b.history.Paused()
}

func (b *Builder) ClearHistory() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.history.Clear()
	b.dragDirty = false
	if b.store.Carrying() {
		b.beginDrag()
	}
}

func (b *Builder) View() Update {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.updateLocked()
}

func (b *Builder) Part(id assembly.PartID) (assembly.Part, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.store.Part(id)
}

func (b *Builder) mutate(op string, id assembly.PartID, fn func() error) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.mutateLocked(op, id, fn)
}

func (b *Builder) mutateLocked(op string, id assembly.PartID, fn func() error) error {
	fold := b.foldsIntoDrag(id)
	var prev assembly.Snapshot
	if !fold {
		prev = b.store.Snapshot()
	}
	if err := fn(); err != nil {
		return b.reject(op, err)
	}
	if fold {
		b.dragDirty = true
	} else {
		b.record(prev)
	}
	b.changed(op, log.String("part_id", string(id)))
	return nil
}

// foldsIntoDrag reports whether a mutation of id belongs to the open drag.
func (b *Builder) foldsIntoDrag(id assembly.PartID) bool {
	return b.history.Paused() && b.store.Carrying() && id == b.store.ActiveID()
}

// record commits prev as its own entry. An open drag is closed first and
// reopened from the current state afterwards.
func (b *Builder) record(prev assembly.Snapshot) {
	if !b.history.Paused() {
		b.history.Commit(prev)
		return
	}
	b.endDrag()
	b.history.Commit(prev)
	if b.store.Carrying() {
		b.beginDrag()
	}
}

func (b *Builder) beginDrag() {
	b.dragStart = b.store.Snapshot()
	b.dragDirty = false
	b.history.Pause()
}

func (b *Builder) endDrag() {
	if !b.history.Paused() {
		return
	}
	b.history.Resume()
	if b.dragDirty {
		b.history.Commit(b.dragStart)
	}
	b.dragStart = assembly.Snapshot{}
	b.dragDirty = false
}

func (b *Builder) updateLocked() Update {
	carrying := b.store.Carrying()
	return Update{
		View:         b.store.View(),
		CanUndo:      b.history.CanUndo() && !carrying,
		CanRedo:      b.history.CanRedo() && !carrying,
		HistoryDepth: b.history.Depth(),
	}
}

func (b *Builder) changed(op string, fields ...log.Field) {
	update := b.updateLocked()
	b.logger.Debug("assembly changed", append(fields,
		log.String("op", op),
		log.String("state", update.State.String()),
		log.Int("parts", len(update.Parts)),
		log.Int("history_depth", update.HistoryDepth))...)

	if b.opts.bus == nil {
		return
	}
	ev := bus.NewEvent(EventChanged, b.opts.source, update, map[string]any{"op": op})
	if err := b.opts.bus.PublishToTopic(b.opts.topic, ev); err != nil {
		b.logger.Warn("change handler failed", log.String("op", op), log.Error(err))
	}
}

func (b *Builder) reject(op string, err error) error {
	b.logger.Debug("command rejected", log.String("op", op), log.Error(err))
	if b.opts.bus != nil {
		ev := bus.NewEvent(EventRejected, b.opts.source, Rejection{Op: op, Reason: err.Error(), Err: err}, nil)
		if perr := b.opts.bus.PublishToTopic(b.opts.topic, ev); perr != nil {
			b.logger.Warn("rejection handler failed", log.String("op", op), log.Error(perr))
		}
	}
	return err
}
