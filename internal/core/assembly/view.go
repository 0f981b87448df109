package assembly

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"

	"github.com/zeusync/droneforge/internal/core/catalog"
)

// View is the read-only picture handed to renderers after every change.
type View struct {
	Parts       []Part             `json:"parts"`
	ActiveID    PartID             `json:"active_id,omitempty"`
	Carrying    bool               `json:"carrying"`
	State       State              `json:"state"`
	Guided      bool               `json:"guided"`
	CurrentStep int                `json:"current_step"`
	TotalSteps  int                `json:"total_steps"`
	CurrentTask *catalog.BuildStep `json:"current_task,omitempty"`
	Finished    bool               `json:"finished"`
	Progress    Progress           `json:"progress"`
	// Revision changes whenever anything else in the view does.
	Revision uint64 `json:"revision"`
}

// Progress counts finished work: locked steps in guided mode, locked parts otherwise.
type Progress struct {
	Done  int `json:"done"`
	Total int `json:"total"`
}

func (s *Store) View() View {
	parts := s.Parts()
	v := View{
		Parts:       parts,
		ActiveID:    s.active,
		Carrying:    s.carrying,
		State:       s.State(),
		Guided:      s.Guided(),
		CurrentStep: s.step,
		Finished:    s.Finished(),
		Revision:    s.revision(parts),
	}
	v.Progress.Done, v.Progress.Total = s.Progress()
	if v.Guided {
		v.TotalSteps = s.cat.Len()
	}
	if task, ok := s.CurrentTask(); ok {
		v.CurrentTask = &task
	}
	return v
}

func (s *Store) revision(parts []Part) uint64 {
	h := xxhash.New()
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], Fingerprint(parts))
	_, _ = h.Write(buf[:])
	_, _ = h.WriteString(string(s.active))
	_, _ = h.WriteString("\x00")
	if s.carrying {
		_, _ = h.Write([]byte{1})
	} else {
		_, _ = h.Write([]byte{0})
	}
	binary.LittleEndian.PutUint64(buf[:], uint64(s.step))
	_, _ = h.Write(buf[:])
	return h.Sum64()
}

// Active returns the active part from the view.
func (v View) Active() (Part, bool) {
	if v.ActiveID == "" {
		return Part{}, false
	}
	for _, p := range v.Parts {
		if p.ID == v.ActiveID {
			return p, true
		}
	}
	return Part{}, false
}
