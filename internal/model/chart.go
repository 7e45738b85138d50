package model

// ScatterPoint is one marks-vs-attendance point. Size mirrors Marks and
// Group carries the class used for colouring.
type ScatterPoint struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Label string  `json:"label"`
	Size  float64 `json:"size"`
	Group string  `json:"group"`
}

// ClassCount is one pie slice.
type ClassCount struct {
	Class   string  `json:"class"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}
