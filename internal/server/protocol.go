package server

import (
	"github.com/zeusync/droneforge/internal/core/assembly"
	"github.com/zeusync/droneforge/internal/core/builder"
	"github.com/zeusync/droneforge/internal/core/catalog"
	"github.com/zeusync/droneforge/internal/core/projector"
)

// Command ops accepted on the websocket.
const (
	OpSpawn        = "spawn"
	OpSelect       = "select"
	OpDeselect     = "deselect"
	OpPickUp       = "pickup"
	OpStartCarry   = "start_carry"
	OpStopCarry    = "stop_carry"
	OpMove         = "move"
	OpSetPosition  = "set_position"
	OpSetElevation = "set_elevation"
	OpRotate       = "rotate"
	OpLock         = "lock"
	OpRemove       = "remove"
	OpReset        = "reset"
	OpUndo         = "undo"
	OpRedo         = "redo"
)

// Message types sent to clients.
const (
	MessageState    = "state"
	MessageAck      = "ack"
	MessageRejected = "rejected"
)

// Command is one client request. Only the fields the op needs are read.
type Command struct {
	Seq      uint64                 `json:"seq,omitempty"`
	Op       string                 `json:"op"`
	ID       assembly.PartID        `json:"id,omitempty"`
	Kind     catalog.PartKind       `json:"kind,omitempty"`
	Position *assembly.Vec3         `json:"position,omitempty"`
	Point    *projector.GroundPoint `json:"point,omitempty"`
	Ray      *projector.Ray         `json:"ray,omitempty"`
	Y        *float64               `json:"y,omitempty"`
}

// Message is one server push. State messages go to every client in the room;
// acks and rejections only to the sender.
type Message struct {
	Type   string          `json:"type"`
	Seq    uint64          `json:"seq,omitempty"`
	Op     string          `json:"op,omitempty"`
	PartID assembly.PartID `json:"part_id,omitempty"`
	Error  string          `json:"error,omitempty"`
	State  *builder.Update `json:"state,omitempty"`
}

// CatalogResponse is served on GET /catalog.
type CatalogResponse struct {
	Parts    []catalog.Entry     `json:"parts"`
	Sequence []catalog.BuildStep `json:"sequence,omitempty"`
}
