package session

import "strings"

// RemainingItems tracks the pending work items of a session, typically the
// unanswered questions. The list reaching empty is what enables finish.
type RemainingItems struct {
	items []string
}

// Seed replaces the list with the session's initial items. Called once at
// session start.
func (r *RemainingItems) Seed(items []string) {
	r.items = make([]string, len(items))
	copy(r.items, items)
}

// Remove deletes the first item equal to value after trimming whitespace on
// both sides. An absent value is a no-op: the backend's verdict and the
// local list may already be consistent.
func (r *RemainingItems) Remove(value string) {
	want := strings.TrimSpace(value)
	for i, item := range r.items {
		if strings.TrimSpace(item) == want {
			r.items = append(r.items[:i], r.items[i+1:]...)
			return
		}
	}
}

// IsEmpty reports whether no items remain.
func (r *RemainingItems) IsEmpty() bool { return len(r.items) == 0 }

// Len returns the number of pending items.
func (r *RemainingItems) Len() int { return len(r.items) }

// Items returns a copy of the pending items in order.
func (r *RemainingItems) Items() []string {
	out := make([]string, len(r.items))
	copy(out, r.items)
	return out
}

// Clear empties the list.
func (r *RemainingItems) Clear() {
	r.items = nil
}
