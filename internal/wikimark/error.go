package wikimark

import "fmt"

// SyntaxError reports malformed wiki input. Start and End index into Text,
// the line as seen by the failing filter, so a caller can slice the line
// into before/at/after pieces to highlight the offending span. Line numbers
// are one-based.
//
// It is the only error the renderer raises; everything else that fails to
// match simply passes through as plain text.
type SyntaxError struct {
	Message    string
	Line       int
	Text       string
	Start, End int
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}
