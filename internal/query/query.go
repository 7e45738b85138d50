// Package query implements the read-only lookups over a Dataset. Every
// function is pure: it never mutates the dataset and reports "no match" as
// an empty, non-nil slice.
package query

import (
	"strings"

	"studentdash/internal/dataset"
	"studentdash/internal/model"
)

// ListAll returns every record in file order.
func ListAll(d dataset.Dataset) []model.Student {
	return d.Records()
}

// Head returns the first n records, or all of them when n exceeds the size.
func Head(d dataset.Dataset, n int) []model.Student {
	if n > d.Len() {
		n = d.Len()
	}
	if n < 0 {
		n = 0
	}
	out := make([]model.Student, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, d.At(i))
	}
	return out
}

// FindByID returns all records with the given StudentID. IDs are not
// guaranteed unique, so more than one match is possible.
func FindByID(d dataset.Dataset, id int) []model.Student {
	return where(d, func(s model.Student) bool {
		return s.StudentID == id
	})
}

// SearchByName matches keyword case-insensitively anywhere in Name.
// An empty keyword matches every record.
func SearchByName(d dataset.Dataset, keyword string) []model.Student {
	needle := strings.ToLower(strings.TrimSpace(keyword))
	return where(d, func(s model.Student) bool {
		return strings.Contains(strings.ToLower(s.Name), needle)
	})
}

// FilterByMinMarks keeps records with Marks >= threshold.
func FilterByMinMarks(d dataset.Dataset, threshold float64) []model.Student {
	return where(d, func(s model.Student) bool {
		return s.Marks >= threshold
	})
}

// FilterByMinAttendance keeps records with Attendance >= threshold.
func FilterByMinAttendance(d dataset.Dataset, threshold float64) []model.Student {
	return where(d, func(s model.Student) bool {
		return s.Attendance >= threshold
	})
}

func where(d dataset.Dataset, keep func(model.Student) bool) []model.Student {
	out := make([]model.Student, 0)
	d.Each(func(_ int, s model.Student) {
		if keep(s) {
			out = append(out, s)
		}
	})
	return out
}
