package dataset

import "fmt"

// LoadError reports why a dataset could not be built. Source is the file
// path or "database".
type LoadError struct {
	Source string
	Line   int
	Column string
	Reason string
	Err    error
}

func (e *LoadError) Error() string {
	msg := "load " + e.Source
	if e.Line > 0 {
		msg += fmt.Sprintf(" line %d", e.Line)
	}
	if e.Column != "" {
		msg += " column " + e.Column
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
