package session

// Sender identifies who produced an interaction entry.
type Sender string

const (
	SenderUser   Sender = "user"
	SenderSystem Sender = "system"
)

// Entry is one exchange in the conversation. Order within the log is the
// timestamp; entries carry no other clock.
type Entry struct {
	Sender  Sender
	Content string
}

// Log is the append-only record of a session's exchanges. Entries are never
// reordered or mutated in place; the log stores raw content and leaves
// formatting to the presentation layer.
type Log struct {
	entries []Entry
}

// Append adds an entry at the end.
func (l *Log) Append(e Entry) {
	l.entries = append(l.entries, e)
}

// Entries returns a copy of the log in chronological order.
func (l *Log) Entries() []Entry {
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of entries.
func (l *Log) Len() int { return len(l.entries) }

// Clear empties the log. Only the controller calls this, on finish or reset.
func (l *Log) Clear() {
	l.entries = nil
}
