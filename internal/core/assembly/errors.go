package assembly

import (
	"errors"
	"fmt"
)

// Rejected transitions. The store is left untouched whenever one is returned.
var (
	ErrPartNotFound     = errors.New("part not found")
	ErrPartLocked       = errors.New("part is locked")
	ErrNotActive        = errors.New("part is not the active part")
	ErrCarrying         = errors.New("a part is being carried")
	ErrUnknownKind      = errors.New("unknown part kind")
	ErrInvalidSelection = errors.New("invalid selection")
	ErrInvalidCarry     = errors.New("invalid carry")

	ErrSequenceViolation  = errors.New("build sequence violation")
	ErrSequenceExhausted  = fmt.Errorf("%w: sequence exhausted", ErrSequenceViolation)
	ErrStepAlreadySpawned = fmt.Errorf("%w: step part already spawned", ErrSequenceViolation)
)

func rejectSelection(cause error) error {
	return fmt.Errorf("%w: %w", ErrInvalidSelection, cause)
}
