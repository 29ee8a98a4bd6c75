package features

import (
	"strings"
)

const (
	// FallbackText is returned to the caller when the store has no data for the session.
	FallbackText = "Unable to fetch attributes for the session"
	// EntryDelimiter separates rendered features.
	EntryDelimiter = "\n---\n"
)

// Entry is one feature value reported for a session.
type Entry struct {
	Name  string
	Value any
}

// String renders the entry as "name: value".
func (e Entry) String() string {
	return e.Name + ": " + FormatValue(e.Value)
}

// Result is the outcome of a lookup: either a Report or Empty.
type Result interface {
	isResult()
}

// Report carries the features returned for a session, in response order,
// without the entity key echo. It may hold zero entries when the store
// returned only the entity key.
type Report struct {
	Entries []Entry
}

// Empty means the store returned no result object or no data.
type Empty struct{}

func (Report) isResult() {}
func (Empty) isResult()  {}

// Render converts a lookup result into the text handed to the caller.
func Render(r Result) string {
	switch r := r.(type) {
	case Report:
		lines := make([]string, 0, len(r.Entries))
		for _, e := range r.Entries {
			lines = append(lines, e.String())
		}
		return strings.Join(lines, EntryDelimiter)
	default:
		return FallbackText
	}
}
