package assembly

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"
	"github.com/jinzhu/copier"

	"github.com/zeusync/droneforge/internal/core/catalog"
)

// PartID identifies a placed part for its whole lifetime. IDs are never reused.
type PartID string

// Vec3 is a world-space triple. Y is elevation, X and Z lie on the ground plane.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Part is one placed instance of a catalog kind.
type Part struct {
	ID       PartID           `json:"id"`
	Kind     catalog.PartKind `json:"kind"`
	Step     string           `json:"step,omitempty"`
	Position Vec3             `json:"position"`
	Rotation Vec3             `json:"rotation"`
	Locked   bool             `json:"locked"`
}

// Yaw is the rotation around the vertical axis, in radians.
func (p Part) Yaw() float64 {
	return p.Rotation.Y
}

// Snapshot is the recordable part of the store: the collection and guided progress.
// It never carries the active pointer or the carry flag.
type Snapshot struct {
	Parts []Part `json:"parts"`
	Step  int    `json:"step"`
}

// Clone deep-copies the snapshot.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{Step: s.Step}
	if err := copier.CopyWithOption(&out.Parts, &s.Parts, copier.Option{DeepCopy: true}); err != nil {
		out.Parts = append([]Part(nil), s.Parts...)
	}
	if len(out.Parts) == 0 {
		out.Parts = nil
	}
	return out
}

// Fingerprint hashes a part collection. Equal collections give equal fingerprints.
func Fingerprint(parts []Part) uint64 {
	h := xxhash.New()
	var buf [8]byte
	writeFloat := func(f float64) {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(f))
		_, _ = h.Write(buf[:])
	}
	for _, p := range parts {
		_, _ = h.WriteString(string(p.ID))
		_, _ = h.WriteString("\x00")
		_, _ = h.WriteString(string(p.Kind))
		_, _ = h.WriteString("\x00")
		_, _ = h.WriteString(p.Step)
		_, _ = h.WriteString("\x00")
		writeFloat(p.Position.X)
		writeFloat(p.Position.Y)
		writeFloat(p.Position.Z)
		writeFloat(p.Rotation.X)
		writeFloat(p.Rotation.Y)
		writeFloat(p.Rotation.Z)
		if p.Locked {
			_, _ = h.Write([]byte{1})
		} else {
			_, _ = h.Write([]byte{0})
		}
	}
	return h.Sum64()
}
