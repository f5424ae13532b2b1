package location

import (
	"math"
	"sort"
	"strings"
)

// AggregateRow is one GROUP BY row as it comes out of the database, keyed by
// whatever spelling the rows carry ("CA", "California", "los angeles").
// City is only set on state rows, which are grouped by state and city so that
// cities can be counted across spellings. AvgRating averages the Rated rooms
// only; rooms without a rating count in Rooms but not in the average.
type AggregateRow struct {
	Key       string  `gorm:"column:key"`
	City      string  `gorm:"column:city"`
	Rooms     int64   `gorm:"column:rooms"`
	Rated     int64   `gorm:"column:rated"`
	AvgRating float64 `gorm:"column:avg_rating"`
}

// StateStats is the merged per-state summary.
type StateStats struct {
	State     State   `json:"state"`
	Slug      string  `json:"slug"`
	Rooms     int64   `json:"rooms"`
	AvgRating float64 `json:"avgRating"`
	Cities    int64   `json:"cities"`
	Known     bool    `json:"known"`
}

// CityStats is the merged per-city summary.
type CityStats struct {
	Name      string   `json:"name"`
	Slug      string   `json:"slug"`
	Rooms     int64    `json:"rooms"`
	AvgRating float64  `json:"avgRating"`
	Rated     int64    `json:"-"`
	Spellings []string `json:"-"`
}

// ratingAcc combines per-group averages, weighting each by its rated rooms.
type ratingAcc struct {
	rated    int64
	weighted float64
}

func (a *ratingAcc) add(rated int64, avg float64) {
	a.rated += rated
	a.weighted += float64(rated) * avg
}

func (a ratingAcc) avg() float64 {
	if a.rated == 0 {
		return 0
	}
	return round2(a.weighted / float64(a.rated))
}

// StateRating is the rated-weighted average over a state's merged cities.
func StateRating(cities []CityStats) float64 {
	var r ratingAcc
	for _, c := range cities {
		r.add(c.Rated, c.AvgRating)
	}
	return r.avg()
}

// MergeStateStats folds rows whose keys spell the same state differently into
// one entry per canonical state. Cities are counted once per slug across all
// spellings of the state. Rows with unknown states are kept under their
// trimmed raw spelling.
func MergeStateStats(rows []AggregateRow) []StateStats {
	type acc struct {
		stats  StateStats
		r      ratingAcc
		cities map[string]struct{}
	}
	merged := map[string]*acc{}
	for _, row := range rows {
		raw := strings.TrimSpace(row.Key)
		if raw == "" {
			continue
		}
		st, ok := NormalizeState(raw)
		if !ok {
			st = State{Name: raw}
		}
		key := st.Code
		if !ok {
			key = "?" + strings.ToLower(raw)
		}
		a := merged[key]
		if a == nil {
			a = &acc{stats: StateStats{State: st, Slug: Slugify(st.Name), Known: ok}, cities: map[string]struct{}{}}
			merged[key] = a
		}
		a.stats.Rooms += row.Rooms
		a.r.add(row.Rated, row.AvgRating)
		if slug := Slugify(row.City); slug != "" {
			a.cities[slug] = struct{}{}
		}
	}

	out := make([]StateStats, 0, len(merged))
	for _, a := range merged {
		a.stats.AvgRating = a.r.avg()
		a.stats.Cities = int64(len(a.cities))
		out = append(out, a.stats)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].State.Name < out[j].State.Name })
	return out
}

// MergeCityStats folds city spellings that share a slug ("St. Louis" and
// "St Louis") and keeps the spelling backed by the most rooms as the name.
func MergeCityStats(rows []AggregateRow) []CityStats {
	type acc struct {
		stats    CityStats
		r        ratingAcc
		topRooms int64
	}
	merged := map[string]*acc{}
	for _, row := range rows {
		raw := strings.TrimSpace(row.Key)
		slug := Slugify(raw)
		if slug == "" {
			continue
		}
		a := merged[slug]
		if a == nil {
			a = &acc{stats: CityStats{Slug: slug}}
			merged[slug] = a
		}
		if row.Rooms > a.topRooms || a.stats.Name == "" {
			a.stats.Name = raw
			a.topRooms = row.Rooms
		}
		a.stats.Rooms += row.Rooms
		a.stats.Rated += row.Rated
		a.stats.Spellings = append(a.stats.Spellings, row.Key)
		a.r.add(row.Rated, row.AvgRating)
	}

	out := make([]CityStats, 0, len(merged))
	for _, a := range merged {
		a.stats.AvgRating = a.r.avg()
		out = append(out, a.stats)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Rooms != out[j].Rooms {
			return out[i].Rooms > out[j].Rooms
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// FindCity resolves a URL city segment against merged city stats: exact slug
// first, then the fuzzy venue matcher.
func FindCity(slug string, cities []CityStats) (CityStats, bool) {
	want := Slugify(slug)
	for _, c := range cities {
		if c.Slug == want {
			return c, true
		}
	}
	candidates := make([]Candidate, len(cities))
	for i, c := range cities {
		candidates[i] = Candidate{ID: uint(i), Name: c.Name}
	}
	m, ok := BestMatch(slug, candidates)
	if !ok {
		return CityStats{}, false
	}
	return cities[m.Candidate.ID], true
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
