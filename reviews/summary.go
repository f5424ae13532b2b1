// Package reviews aggregates star ratings from pre-seeded and user-written
// reviews.
package reviews

import (
	"math"
)

// Summary is the rating breakdown shown above a room's reviews. Distribution
// and Percentages always carry the keys 1 through 5.
type Summary struct {
	Count        int             `json:"count"`
	Average      float64         `json:"average"`
	Distribution map[int]int     `json:"distribution"`
	Percentages  map[int]float64 `json:"percentages"`
}

// Summarize counts ratings per star. Values outside 1..5 are ignored.
func Summarize(ratings []int) Summary {
	s := Summary{
		Distribution: make(map[int]int, 5),
		Percentages:  make(map[int]float64, 5),
	}
	for star := 1; star <= 5; star++ {
		s.Distribution[star] = 0
		s.Percentages[star] = 0
	}

	sum := 0
	for _, r := range ratings {
		if r < 1 || r > 5 {
			continue
		}
		s.Distribution[r]++
		s.Count++
		sum += r
	}
	if s.Count == 0 {
		return s
	}

	s.Average = round(float64(sum)/float64(s.Count), 2)
	for star, n := range s.Distribution {
		s.Percentages[star] = round(float64(n)*100/float64(s.Count), 1)
	}
	return s
}

// Combine blends a room's imported aggregate rating with the average of
// reviews written on the site, weighting each by its review count. A base
// rating with no count is treated as a single review.
func Combine(baseRating float64, baseCount int, manualAvg float64, manualCount int) (float64, int) {
	if baseRating > 0 && baseCount <= 0 {
		baseCount = 1
	}
	if baseRating <= 0 {
		baseCount = 0
	}
	if manualCount <= 0 {
		manualCount = 0
	}
	total := baseCount + manualCount
	if total == 0 {
		return 0, 0
	}
	avg := (baseRating*float64(baseCount) + manualAvg*float64(manualCount)) / float64(total)
	return round(avg, 2), total
}

func round(f float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(f*p) / p
}
