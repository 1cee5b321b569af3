package contract

import "fmt"

// ErrorReport is an ordered, append-only list of violation messages.
type ErrorReport struct {
	problems []string
}

// Add appends a message.
func (r *ErrorReport) Add(msg string) { r.problems = append(r.problems, msg) }

// Addf appends a formatted message.
func (r *ErrorReport) Addf(format string, args ...any) { r.Add(fmt.Sprintf(format, args...)) }

// Problems returns a copy of the messages in insertion order.
func (r *ErrorReport) Problems() []string { return append([]string(nil), r.problems...) }

// Len returns the number of messages.
func (r *ErrorReport) Len() int { return len(r.problems) }

// Empty reports whether nothing was recorded.
func (r *ErrorReport) Empty() bool { return len(r.problems) == 0 }

// Err returns a StructureError for a non-empty report, nil otherwise.
func (r *ErrorReport) Err() error {
	if r.Empty() {
		return nil
	}
	return &StructureError{Problems: r.Problems()}
}
