// Package catalog holds the static table of part kinds and the optional guided
// build sequence.
package catalog

import (
	"fmt"
	"sort"
)

// PlaceholderAsset is returned for kinds that have no model asset configured.
const PlaceholderAsset = "placeholder:box"

// Catalog is immutable after New.
type Catalog struct {
	entries  []Entry
	byKind   map[PartKind]int
	sequence []BuildStep
}

// New validates the table and returns a catalog. Entries are ordered by
// category, keeping declaration order inside a category.
func New(entries []Entry, sequence []BuildStep) (*Catalog, error) {
	if len(entries) == 0 {
		return nil, ErrEmptyCatalog
	}

	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Category.rank() < sorted[j].Category.rank()
	})

	byKind := make(map[PartKind]int, len(sorted))
	for i, e := range sorted {
		if e.Kind == "" {
			return nil, fmt.Errorf("%w: entry %d has no kind", ErrUnknownKind, i)
		}
		if _, exists := byKind[e.Kind]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateKind, e.Kind)
		}
		if sorted[i].Label == "" {
			sorted[i].Label = string(e.Kind)
		}
		if sorted[i].Category == "" {
			sorted[i].Category = CategoryOther
		}
		byKind[e.Kind] = i
	}

	stepIDs := make(map[string]struct{}, len(sequence))
	for i, step := range sequence {
		if step.ID == "" {
			return nil, fmt.Errorf("%w: step %d has no id", ErrInvalidStep, i)
		}
		if _, dup := stepIDs[step.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate step id %q", ErrInvalidStep, step.ID)
		}
		if _, ok := byKind[step.Kind]; !ok {
			return nil, fmt.Errorf("%w: step %q uses %q", ErrUnknownKind, step.ID, step.Kind)
		}
		stepIDs[step.ID] = struct{}{}
	}

	seq := make([]BuildStep, len(sequence))
	copy(seq, sequence)

	return &Catalog{entries: sorted, byKind: byKind, sequence: seq}, nil
}

// Entries returns a copy of the listing.
func (c *Catalog) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

func (c *Catalog) Lookup(kind PartKind) (Entry, bool) {
	i, ok := c.byKind[kind]
	if !ok {
		return Entry{}, false
	}
	return c.entries[i], true
}

func (c *Catalog) Has(kind PartKind) bool {
	_, ok := c.byKind[kind]
	return ok
}

// Guided reports whether the catalog carries a build sequence.
func (c *Catalog) Guided() bool {
	return len(c.sequence) > 0
}

// Sequence returns a copy of the build sequence.
func (c *Catalog) Sequence() []BuildStep {
	out := make([]BuildStep, len(c.sequence))
	copy(out, c.sequence)
	return out
}

func (c *Catalog) Len() int {
	return len(c.sequence)
}

func (c *Catalog) Step(i int) (BuildStep, bool) {
	if i < 0 || i >= len(c.sequence) {
		return BuildStep{}, false
	}
	return c.sequence[i], true
}

// Asset returns the model asset configured for kind, if any.
func (c *Catalog) Asset(kind PartKind) (string, bool) {
	e, ok := c.Lookup(kind)
	if !ok || e.Asset == "" {
		return "", false
	}
	return e.Asset, true
}

// AssetOrPlaceholder never fails: kinds without an asset render as PlaceholderAsset.
func (c *Catalog) AssetOrPlaceholder(kind PartKind) string {
	if a, ok := c.Asset(kind); ok {
		return a
	}
	return PlaceholderAsset
}
