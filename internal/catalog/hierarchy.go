package catalog

import (
	"path"
	"strings"
)

// Option is a single selectable catalog entry. The backend sometimes sends
// bare values and sometimes label/value pairs; by the time an Option exists
// both fields are always populated.
type Option struct {
	Label string
	Value string
}

// DisplayLabel derives a human-readable label from a raw option value.
// Path-like values (chapter page references, uploaded file names) lose
// their directory prefix and extension.
func DisplayLabel(value string) string {
	label := path.Base(strings.ReplaceAll(value, "\\", "/"))
	if ext := path.Ext(label); ext != "" && ext != label {
		label = strings.TrimSuffix(label, ext)
	}
	if label == "" || label == "." || label == "/" {
		return value
	}
	return label
}

// MarkOptions builds the option set for a mark-weight level from the
// configured weights. The weights come from configuration, not a backend
// catalog.
func MarkOptions(values []string) []Option {
	opts := make([]Option, 0, len(values))
	for _, v := range values {
		label := v + " marks"
		if v == "1" {
			label = "1 mark"
		}
		opts = append(opts, Option{Label: label, Value: v})
	}
	return opts
}

// Param is one resolved parent value passed as a query parameter when
// fetching the next level's options.
type Param struct {
	Name  string
	Value string
}

// Fetch describes an option load the hierarchy wants performed: the level to
// populate, the resolved parent values scoping the request, and the
// hierarchy generation at dispatch time. A completed fetch whose generation
// no longer matches the hierarchy must be discarded.
type Fetch struct {
	Level      int
	Parents    []Param
	Generation uint64
}

type level struct {
	name    string
	value   string
	options []Option
}

// Hierarchy is an N-level dependent selection: class → subject → chapter,
// or subject → marks → question. The level names are fixed at construction;
// only values and option lists change afterwards.
type Hierarchy struct {
	levels []level
	gen    uint64
}

// NewHierarchy creates a hierarchy with the given ordered level names.
func NewHierarchy(names ...string) *Hierarchy {
	h := &Hierarchy{levels: make([]level, len(names))}
	for i, n := range names {
		h.levels[i].name = n
	}
	return h
}

// Len returns the number of levels.
func (h *Hierarchy) Len() int { return len(h.levels) }

// Name returns the name of level i.
func (h *Hierarchy) Name(i int) string { return h.levels[i].name }

// Value returns the current value of level i ("" when unselected).
func (h *Hierarchy) Value(i int) string { return h.levels[i].value }

// Options returns the available options for level i.
func (h *Hierarchy) Options(i int) []Option { return h.levels[i].options }

// Generation returns the current hierarchy generation. It advances on every
// SetValue and Reset, invalidating fetches dispatched before the change.
func (h *Hierarchy) Generation() uint64 { return h.gen }

// SetValue sets level i's value, clears the value and options of every
// deeper level, and returns a Fetch for level i+1 when one exists and the
// new value is non-empty. Setting the identical value again behaves the same
// way: children are cleared and the next level re-fetched.
func (h *Hierarchy) SetValue(i int, value string) *Fetch {
	h.levels[i].value = value
	for j := i + 1; j < len(h.levels); j++ {
		h.levels[j].value = ""
		h.levels[j].options = nil
	}
	h.gen++

	if value == "" || i+1 >= len(h.levels) {
		return nil
	}
	return h.fetchFor(i + 1)
}

// SetOptions installs fetched options for level i. It reports whether the
// result was applied; a stale generation means the hierarchy changed while
// the fetch was in flight and the result is dropped.
func (h *Hierarchy) SetOptions(i int, gen uint64, opts []Option) bool {
	if gen != h.gen {
		return false
	}
	h.levels[i].options = opts
	return true
}

// ClearOptions empties level i's options, used when a fetch fails.
func (h *Hierarchy) ClearOptions(i int, gen uint64) bool {
	return h.SetOptions(i, gen, nil)
}

// FullyResolved reports whether every level has a non-empty value.
func (h *Hierarchy) FullyResolved() bool {
	for i := range h.levels {
		if h.levels[i].value == "" {
			return false
		}
	}
	return true
}

// Enabled reports whether level i may be interacted with: the first level is
// always enabled, deeper levels require the parent to be selected and to
// have produced at least one option for this level.
func (h *Hierarchy) Enabled(i int) bool {
	if i == 0 {
		return true
	}
	return h.levels[i-1].value != "" && len(h.levels[i].options) > 0
}

// Reset clears every value and option list and returns a Fetch for the root
// level.
func (h *Hierarchy) Reset() *Fetch {
	for i := range h.levels {
		h.levels[i].value = ""
		h.levels[i].options = nil
	}
	h.gen++
	return h.fetchFor(0)
}

// RootFetch returns a Fetch for level 0 at the current generation, used to
// arm the initial option load without disturbing state.
func (h *Hierarchy) RootFetch() *Fetch {
	return h.fetchFor(0)
}

// Params returns every resolved level as name/value pairs, in order.
func (h *Hierarchy) Params() []Param {
	params := make([]Param, 0, len(h.levels))
	for i := range h.levels {
		if h.levels[i].value != "" {
			params = append(params, Param{Name: h.levels[i].name, Value: h.levels[i].value})
		}
	}
	return params
}

func (h *Hierarchy) fetchFor(i int) *Fetch {
	parents := make([]Param, 0, i)
	for j := 0; j < i; j++ {
		parents = append(parents, Param{Name: h.levels[j].name, Value: h.levels[j].value})
	}
	return &Fetch{Level: i, Parents: parents, Generation: h.gen}
}
