// Package operation enumerates the dashboard views a shell can select.
package operation

import (
	"errors"
	"fmt"
	"strings"
)

// Operation identifies one pre-canned dashboard view.
type Operation int

const (
	ViewDataset Operation = iota
	SearchByID
	SearchByName
	FilterByMinMarks
	FilterByMinAttendance
	ScatterPlot
	PieChart

	// Count is the number of operations; tables indexed by Operation use it
	// as their length.
	Count
)

// Input describes the single parameter an operation asks for.
type Input string

const (
	InputNone      Input = "none"
	InputID        Input = "id"
	InputKeyword   Input = "keyword"
	InputThreshold Input = "threshold"
)

// ErrUnknown is returned for labels, slugs or menu numbers that do not
// name an operation.
var ErrUnknown = errors.New("unknown operation")

// Descriptor is the shell-facing description of an operation.
type Descriptor struct {
	Operation Operation `json:"-"`
	Slug      string    `json:"slug"`
	Label     string    `json:"label"`
	Input     Input     `json:"input"`
	Prompt    string    `json:"prompt,omitempty"`
	Default   string    `json:"default,omitempty"`
}

var descriptors = [Count]Descriptor{
	ViewDataset:           {Slug: "view-dataset", Label: "View Dataset", Input: InputNone},
	SearchByID:            {Slug: "search-by-id", Label: "Search by Student ID", Input: InputID, Prompt: "Enter Student ID"},
	SearchByName:          {Slug: "search-by-name", Label: "Search by Student Name", Input: InputKeyword, Prompt: "Enter Name or Keyword"},
	FilterByMinMarks:      {Slug: "filter-by-marks", Label: "Filter by Minimum Marks", Input: InputThreshold, Prompt: "Select Minimum Marks", Default: "50"},
	FilterByMinAttendance: {Slug: "filter-by-attendance", Label: "Filter by Minimum Attendance", Input: InputThreshold, Prompt: "Select Minimum Attendance %", Default: "75"},
	ScatterPlot:           {Slug: "scatter-plot", Label: "Scatter Plot (Marks vs Attendance)", Input: InputNone},
	PieChart:              {Slug: "pie-chart", Label: "Pie Chart (Class Distribution)", Input: InputNone},
}

func (o Operation) Valid() bool {
	return o >= 0 && o < Count
}

// Describe returns the descriptor for o. It panics on invalid values.
func (o Operation) Describe() Descriptor {
	d := descriptors[o]
	d.Operation = o
	return d
}

func (o Operation) String() string {
	if !o.Valid() {
		return fmt.Sprintf("Operation(%d)", int(o))
	}
	return descriptors[o].Label
}

func (o Operation) Slug() string {
	if !o.Valid() {
		return ""
	}
	return descriptors[o].Slug
}

// All returns every operation in menu order.
func All() []Operation {
	ops := make([]Operation, 0, Count)
	for o := Operation(0); o < Count; o++ {
		ops = append(ops, o)
	}
	return ops
}

// Parse resolves a slug or label, ignoring case and surrounding space.
func Parse(s string) (Operation, error) {
	s = strings.TrimSpace(s)
	for o := Operation(0); o < Count; o++ {
		d := descriptors[o]
		if strings.EqualFold(s, d.Slug) || strings.EqualFold(s, d.Label) {
			return o, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknown, s)
}

// FromMenu resolves a 1-based menu number.
func FromMenu(n int) (Operation, error) {
	o := Operation(n - 1)
	if !o.Valid() {
		return 0, fmt.Errorf("%w: menu choice %d", ErrUnknown, n)
	}
	return o, nil
}
