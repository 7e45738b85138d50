package model

// Student is one row of the student performance dataset.
type Student struct {
	StudentID  int     `json:"student_id"`
	Name       string  `json:"name"`
	Class      string  `json:"class"`
	Marks      float64 `json:"marks"`
	Attendance float64 `json:"attendance"`
}

// StudentRow is the database form of a Student. Position keeps the
// original file order since StudentID is not unique.
type StudentRow struct {
	ID         uint   `gorm:"primaryKey"`
	Position   int    `gorm:"index;not null"`
	StudentID  int    `gorm:"index;not null"`
	Name       string `gorm:"not null"`
	Class      string `gorm:"index;not null"`
	Marks      float64
	Attendance float64
}

func (StudentRow) TableName() string {
	return "students"
}

func NewStudentRow(position int, s Student) StudentRow {
	return StudentRow{
		Position:   position,
		StudentID:  s.StudentID,
		Name:       s.Name,
		Class:      s.Class,
		Marks:      s.Marks,
		Attendance: s.Attendance,
	}
}

func (r StudentRow) Student() Student {
	return Student{
		StudentID:  r.StudentID,
		Name:       r.Name,
		Class:      r.Class,
		Marks:      r.Marks,
		Attendance: r.Attendance,
	}
}
