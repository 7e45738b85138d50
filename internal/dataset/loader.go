package dataset

import (
	"encoding/csv"
	"errors"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"studentdash/internal/model"
)

// Required CSV header names. Column order in the file does not matter.
const (
	ColStudentID  = "StudentID"
	ColName       = "Name"
	ColClass      = "Class"
	ColMarks      = "Marks"
	ColAttendance = "Attendance"
)

var requiredColumns = []string{ColStudentID, ColName, ColClass, ColMarks, ColAttendance}

// Load reads the CSV file at path into a Dataset.
func Load(path string) (Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		reason := "cannot open file"
		if errors.Is(err, os.ErrNotExist) {
			reason = "file not found"
		}
		return Dataset{}, &LoadError{Source: path, Reason: reason, Err: err}
	}
	defer file.Close()

	return Read(file, path)
}

// Read parses CSV data from r. source is only used in error messages.
func Read(r io.Reader, source string) (Dataset, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return Dataset{}, &LoadError{Source: source, Reason: "missing header row"}
	}
	if err != nil {
		return Dataset{}, readError(source, err)
	}

	index, err := columnIndex(source, header)
	if err != nil {
		return Dataset{}, err
	}

	var records []model.Student
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Dataset{}, readError(source, err)
		}
		line, _ := reader.FieldPos(0)

		student, err := parseRow(source, line, row, index)
		if err != nil {
			return Dataset{}, err
		}
		records = append(records, student)
	}

	return Dataset{records: records}, nil
}

func columnIndex(source string, header []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := index[h]; !dup {
			index[h] = i
		}
	}

	var missing []string
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &LoadError{
			Source: source,
			Reason: "missing required columns: " + strings.Join(missing, ", "),
		}
	}
	return index, nil
}

func parseRow(source string, line int, row []string, index map[string]int) (model.Student, error) {
	cell := func(col string) string {
		return strings.TrimSpace(row[index[col]])
	}

	id, err := strconv.Atoi(cell(ColStudentID))
	if err != nil {
		return model.Student{}, &LoadError{Source: source, Line: line, Column: ColStudentID, Reason: "not an integer", Err: err}
	}
	number := func(col string) (float64, error) {
		v, err := strconv.ParseFloat(cell(col), 64)
		if err != nil {
			return 0, &LoadError{Source: source, Line: line, Column: col, Reason: "not a number", Err: err}
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, &LoadError{Source: source, Line: line, Column: col, Reason: "not a finite number"}
		}
		return v, nil
	}

	marks, err := number(ColMarks)
	if err != nil {
		return model.Student{}, err
	}
	attendance, err := number(ColAttendance)
	if err != nil {
		return model.Student{}, err
	}

	return model.Student{
		StudentID:  id,
		Name:       cell(ColName),
		Class:      cell(ColClass),
		Marks:      marks,
		Attendance: attendance,
	}, nil
}

func readError(source string, err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return &LoadError{Source: source, Line: pe.Line, Reason: "malformed csv", Err: pe.Err}
	}
	return &LoadError{Source: source, Reason: "cannot read file", Err: err}
}
