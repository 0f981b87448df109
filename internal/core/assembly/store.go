// Package assembly holds the authoritative part collection and the interaction
// state machine that gates every mutation of it.
//
// A Store is not safe for concurrent use. Callers serialize input events before
// they reach it; see the builder package for the recorded, locked wrapper.
package assembly

import (
	"fmt"
	"math"

	"github.com/zeusync/droneforge/internal/core/catalog"
	"github.com/zeusync/droneforge/internal/core/projector"
)

// RotationStep is the yaw increment applied by RotateStep.
const RotationStep = math.Pi / 4

const fullTurn = 2 * math.Pi

type Store struct {
	cat      *catalog.Catalog
	opts     options
	parts    []Part
	active   PartID
	carrying bool
	step     int
}

func NewStore(cat *catalog.Catalog, opts ...Option) *Store {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Store{cat: cat, opts: o}
}

func (s *Store) Catalog() *catalog.Catalog {
	return s.cat
}

// Guided reports whether spawning follows the catalog build sequence.
func (s *Store) Guided() bool {
	return s.opts.guided && s.cat.Guided()
}

// Spawn creates a part and makes it active. In guided mode kind must match the
// current step; an empty kind means "whatever the current step needs". at, when
// not nil, overrides the spawn point entirely.
func (s *Store) Spawn(kind catalog.PartKind, at *Vec3) (PartID, error) {
	if s.carrying {
		return "", ErrCarrying
	}

	pos := s.opts.spawnPoint
	var stepID string

	if s.Guided() {
		step, ok := s.cat.Step(s.step)
		if !ok {
			return "", ErrSequenceExhausted
		}
		if kind == "" {
			kind = step.Kind
		}
		if kind != step.Kind {
			return "", fmt.Errorf("%w: step %q needs %s, got %s", ErrSequenceViolation, step.ID, step.Kind, kind)
		}
		for _, p := range s.parts {
			if p.Step == step.ID {
				return "", ErrStepAlreadySpawned
			}
		}
		stepID = step.ID
		pos.Y = step.DefaultElevation
	} else if !s.cat.Has(kind) {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	if at != nil {
		pos = *at
	}

	part := Part{
		ID:       s.opts.newID(),
		Kind:     kind,
		Step:     stepID,
		Position: pos,
	}
	s.parts = append(s.parts, part)
	s.active = part.ID
	s.carrying = s.opts.carryOnSpawn
	return part.ID, nil
}

// Select makes id the active part. changed is false when id already was active.
func (s *Store) Select(id PartID) (changed bool, err error) {
	if s.carrying {
		if id == s.active {
			return false, nil
		}
		return false, rejectSelection(ErrCarrying)
	}
	i := s.indexOf(id)
	if i < 0 {
		return false, rejectSelection(ErrPartNotFound)
	}
	if s.parts[i].Locked {
		return false, rejectSelection(ErrPartLocked)
	}
	if s.active == id {
		return false, nil
	}
	s.active = id
	return true, nil
}

// Deselect clears the active part. Carrying ends with it.
func (s *Store) Deselect() {
	s.active = ""
	s.carrying = false
}

func (s *Store) StartCarry() error {
	i := s.indexOf(s.active)
	if i < 0 {
		return ErrInvalidCarry
	}
	if s.parts[i].Locked {
		return fmt.Errorf("%w: %w", ErrInvalidCarry, ErrPartLocked)
	}
	s.carrying = true
	return nil
}

// StopCarry drops the carried part where it is. Selection is kept.
func (s *Store) StopCarry() error {
	if s.active == "" {
		return ErrInvalidCarry
	}
	s.carrying = false
	return nil
}

// PickUp selects id and starts carrying it in one gesture.
func (s *Store) PickUp(id PartID) error {
	if _, err := s.Select(id); err != nil {
		return err
	}
	return s.StartCarry()
}

// SetPosition overwrites all three coordinates of an unlocked part.
func (s *Store) SetPosition(id PartID, x, y, z float64) error {
	p, err := s.mutable(id)
	if err != nil {
		return err
	}
	p.Position = Vec3{X: x, Y: y, Z: z}
	return nil
}

// MoveTo applies a ground-plane point, keeping the part's elevation.
func (s *Store) MoveTo(id PartID, pt projector.GroundPoint) error {
	p, err := s.mutable(id)
	if err != nil {
		return err
	}
	p.Position.X = pt.X
	p.Position.Z = pt.Z
	return nil
}

// SetElevation changes only Y.
func (s *Store) SetElevation(id PartID, y float64) error {
	p, err := s.mutable(id)
	if err != nil {
		return err
	}
	if limit := s.opts.maxElevation; limit > 0 {
		y = math.Min(math.Max(y, 0), limit)
	}
	p.Position.Y = y
	return nil
}

// RotateStep turns the part by RotationStep around the vertical axis.
func (s *Store) RotateStep(id PartID) error {
	p, err := s.mutable(id)
	if err != nil {
		return err
	}
	p.Rotation.Y = normalizeAngle(p.Rotation.Y + RotationStep)
	return nil
}

// Lock commits the active part. In guided mode the sequence advances.
func (s *Store) Lock(id PartID) error {
	i := s.indexOf(id)
	if i < 0 {
		return ErrPartNotFound
	}
	if s.parts[i].Locked {
		return ErrPartLocked
	}
	if id != s.active {
		return ErrNotActive
	}
	s.parts[i].Locked = true
	s.active = ""
	s.carrying = false
	if s.Guided() && s.step < s.cat.Len() {
		s.step++
	}
	return nil
}

// Remove deletes a part whatever its lock state.
func (s *Store) Remove(id PartID) error {
	i := s.indexOf(id)
	if i < 0 {
		return ErrPartNotFound
	}
	s.parts = append(s.parts[:i], s.parts[i+1:]...)
	if s.active == id {
		s.active = ""
		s.carrying = false
	}
	return nil
}

func (s *Store) Reset() {
	s.parts = nil
	s.active = ""
	s.carrying = false
	s.step = 0
}

// Snapshot copies the recordable state.
func (s *Store) Snapshot() Snapshot {
	return Snapshot{Parts: s.parts, Step: s.step}.Clone()
}

// Restore replaces the recordable state. An active pointer that no longer
// names an unlocked part is dropped.
func (s *Store) Restore(snap Snapshot) {
	snap = snap.Clone()
	s.parts = snap.Parts
	s.step = snap.Step
	if i := s.indexOf(s.active); i < 0 || s.parts[i].Locked {
		s.active = ""
		s.carrying = false
	}
}

func (s *Store) Parts() []Part {
	return s.Snapshot().Parts
}

func (s *Store) Part(id PartID) (Part, bool) {
	i := s.indexOf(id)
	if i < 0 {
		return Part{}, false
	}
	return s.parts[i], true
}

func (s *Store) Len() int {
	return len(s.parts)
}

func (s *Store) ActiveID() PartID {
	return s.active
}

func (s *Store) Carrying() bool {
	return s.carrying
}

func (s *Store) State() State {
	switch {
	case s.active == "":
		return Idle
	case s.carrying:
		return Carrying
	default:
		return Selected
	}
}

func (s *Store) CurrentStep() int {
	return s.step
}

// CurrentTask is the step waiting to be built. ok is false outside guided mode
// or once the sequence is done.
func (s *Store) CurrentTask() (catalog.BuildStep, bool) {
	if !s.Guided() {
		return catalog.BuildStep{}, false
	}
	return s.cat.Step(s.step)
}

func (s *Store) Finished() bool {
	return s.Guided() && s.step >= s.cat.Len()
}

// Progress returns locked steps over total steps. Free placement counts locked parts.
func (s *Store) Progress() (done, total int) {
	if s.Guided() {
		return s.step, s.cat.Len()
	}
	for _, p := range s.parts {
		if p.Locked {
			done++
		}
	}
	return done, len(s.parts)
}

func (s *Store) mutable(id PartID) (*Part, error) {
	i := s.indexOf(id)
	if i < 0 {
		return nil, ErrPartNotFound
	}
	if s.parts[i].Locked {
		return nil, ErrPartLocked
	}
	return &s.parts[i], nil
}

func (s *Store) indexOf(id PartID) int {
	if id == "" {
		return -1
	}
	for i := range s.parts {
		if s.parts[i].ID == id {
			return i
		}
	}
	return -1
}

// normalizeAngle folds a into [0, 2π).
func normalizeAngle(a float64) float64 {
	a = math.Mod(a, fullTurn)
	if a < 0 {
		a += fullTurn
	}
	if fullTurn-a < 1e-9 {
		a = 0
	}
	return a
}
