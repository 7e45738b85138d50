package chart

import (
	"math"
	"sort"

	"studentdash/internal/dataset"
	"studentdash/internal/model"
)

// ToScatterPoints maps each record to one point, in dataset order.
func ToScatterPoints(d dataset.Dataset) []model.ScatterPoint {
	points := make([]model.ScatterPoint, 0, d.Len())
	d.Each(func(_ int, s model.Student) {
		points = append(points, model.ScatterPoint{
			X:     s.Marks,
			Y:     s.Attendance,
			Label: s.Name,
			Size:  s.Marks,
			Group: s.Class,
		})
	})
	return points
}

// ToClassDistribution counts records per class. Classes with no records
// never appear.
func ToClassDistribution(d dataset.Dataset) map[string]int {
	counts := make(map[string]int)
	d.Each(func(_ int, s model.Student) {
		counts[s.Class]++
	})
	return counts
}

// SortedDistribution turns counts into slices ordered by count descending,
// then class name, with each slice's share of the total in percent.
func SortedDistribution(counts map[string]int) []model.ClassCount {
	total := 0
	for _, n := range counts {
		total += n
	}

	slices := make([]model.ClassCount, 0, len(counts))
	for class, n := range counts {
		pct := 0.0
		if total > 0 {
			pct = roundTo2(float64(n) * 100 / float64(total))
		}
		slices = append(slices, model.ClassCount{Class: class, Count: n, Percent: pct})
	}

	sort.Slice(slices, func(i, j int) bool {
		if slices[i].Count != slices[j].Count {
			return slices[i].Count > slices[j].Count
		}
		return slices[i].Class < slices[j].Class
	})
	return slices
}

// groupPoints splits points by Group, keeping first-seen group order.
func groupPoints(points []model.ScatterPoint) ([]string, map[string][]model.ScatterPoint) {
	grouped := make(map[string][]model.ScatterPoint)
	order := make([]string, 0)
	for _, p := range points {
		if _, exists := grouped[p.Group]; !exists {
			order = append(order, p.Group)
		}
		grouped[p.Group] = append(grouped[p.Group], p)
	}
	return order, grouped
}

func roundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}
