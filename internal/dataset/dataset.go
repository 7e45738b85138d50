// Package dataset loads the student table and exposes it as an immutable,
// ordered Dataset that is safe to share between goroutines.
package dataset

import "studentdash/internal/model"

// Dataset is an ordered, read-only sequence of student records.
// The zero value is an empty dataset.
type Dataset struct {
	records []model.Student
}

// New copies records into a Dataset so later changes to the slice
// cannot leak into it.
func New(records []model.Student) Dataset {
	cp := make([]model.Student, len(records))
	copy(cp, records)
	return Dataset{records: cp}
}

func (d Dataset) Len() int {
	return len(d.records)
}

// At returns the record at position i. It panics if i is out of range.
func (d Dataset) At(i int) model.Student {
	return d.records[i]
}

// Records returns a copy of all records in file order.
func (d Dataset) Records() []model.Student {
	cp := make([]model.Student, len(d.records))
	copy(cp, d.records)
	return cp
}

// Each calls fn for every record in order without copying the table.
func (d Dataset) Each(fn func(i int, s model.Student)) {
	for i, s := range d.records {
		fn(i, s)
	}
}
