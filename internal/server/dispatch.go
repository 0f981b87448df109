package server

import (
	"fmt"

	"github.com/zeusync/droneforge/internal/core/assembly"
	"github.com/zeusync/droneforge/internal/core/builder"
	"github.com/zeusync/droneforge/internal/core/projector"
)

// dispatch applies cmd to b. The returned id is set for spawn.
func dispatch(b *builder.Builder, proj projector.Projector, cmd Command) (assembly.PartID, error) {
	switch cmd.Op {
	case OpSpawn:
		return b.Spawn(cmd.Kind, cmd.Position)
	case OpSelect:
		_, err := b.Select(cmd.ID)
		return cmd.ID, err
	case OpDeselect:
		b.Deselect()
		return "", nil
	case OpPickUp:
		return cmd.ID, b.PickUp(cmd.ID)
	case OpStartCarry:
		return "", b.StartCarry()
	case OpStopCarry:
		return "", b.StopCarry()
	case OpMove:
		pt, err := groundPoint(proj, cmd)
		if err != nil {
			return "", err
		}
		if cmd.ID == "" {
			return "", b.MoveCarried(pt)
		}
		return cmd.ID, b.Move(cmd.ID, pt)
	case OpSetPosition:
		if cmd.Position == nil {
			return "", fmt.Errorf("%w: position", ErrMissingArgument)
		}
		p := cmd.Position
		return cmd.ID, b.SetPosition(cmd.ID, p.X, p.Y, p.Z)
	case OpSetElevation:
		if cmd.Y == nil {
			return "", fmt.Errorf("%w: y", ErrMissingArgument)
		}
		return cmd.ID, b.SetElevation(cmd.ID, *cmd.Y)
	case OpRotate:
		return cmd.ID, b.RotateStep(cmd.ID)
	case OpLock:
		return cmd.ID, b.Lock(cmd.ID)
	case OpRemove:
		return cmd.ID, b.Remove(cmd.ID)
	case OpReset:
		b.Reset()
		return "", nil
	case OpUndo:
		if !b.Undo() {
			return "", ErrHistoryUnavailable
		}
		return "", nil
	case OpRedo:
		if !b.Redo() {
			return "", ErrHistoryUnavailable
		}
		return "", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownOp, cmd.Op)
	}
}

func groundPoint(proj projector.Projector, cmd Command) (projector.GroundPoint, error) {
	if cmd.Point != nil {
		return *cmd.Point, nil
	}
	if cmd.Ray == nil {
		return projector.GroundPoint{}, fmt.Errorf("%w: point or ray", ErrMissingArgument)
	}
	pt, ok := proj.Project(*cmd.Ray)
	if !ok {
		return projector.GroundPoint{}, ErrInvalidPoint
	}
	return pt, nil
}
