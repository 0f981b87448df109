package builder

import "github.com/zeusync/droneforge/internal/core/assembly"

const (
	EventChanged  = "assembly.changed"
	EventRejected = "assembly.rejected"
)

// Update is the renderer-facing state: the assembly view plus history availability.
type Update struct {
	assembly.View
	CanUndo      bool `json:"can_undo"`
	CanRedo      bool `json:"can_redo"`
	HistoryDepth int  `json:"history_depth"`
}

// Rejection is published when a command is refused.
type Rejection struct {
	Op     string `json:"op"`
	Reason string `json:"reason"`
	Err    error  `json:"-"`
}
