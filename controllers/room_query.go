package controllers

import (
	"strings"

	"github.com/escape-finder/api-go/catalog"
	"github.com/escape-finder/api-go/location"
	"github.com/escape-finder/api-go/models"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// SQL mirror of reviews.Combine so filtering and ordering happen in the
// database.
const (
	baseCountSQL      = "(CASE WHEN escape_rooms.rating > 0 THEN GREATEST(escape_rooms.reviews_count, 1) ELSE 0 END)"
	combinedCountSQL  = "(" + baseCountSQL + " + GREATEST(escape_rooms.user_reviews_count, 0))"
	combinedRatingSQL = "(CASE WHEN " + combinedCountSQL + " = 0 THEN 0 ELSE " +
		"((CASE WHEN escape_rooms.rating > 0 THEN escape_rooms.rating * " + baseCountSQL + " ELSE 0 END)" +
		" + escape_rooms.user_rating * GREATEST(escape_rooms.user_reviews_count, 0)) / " + combinedCountSQL + " END)"

	// aggregateSQL feeds location.AggregateRow. Unrated rooms count as rooms
	// but stay out of the average and the rated count.
	aggregateSQL = "COUNT(*) AS rooms, COUNT(NULLIF(" + combinedRatingSQL + ", 0)) AS rated, " +
		"COALESCE(AVG(NULLIF(" + combinedRatingSQL + ", 0)), 0) AS avg_rating"
)

// roomFilter is the shared set of room list filters.
type roomFilter struct {
	Q          string
	Theme      *catalog.Theme
	City       string
	State      string
	MinRating  float64
	MinReviews int
	OpenOnly   bool

	cityResolved  bool
	citySpellings []string
}

// resolveCity looks up the stored spellings of City so scope can filter on
// them. Slugs are compared in Go, where location.Slugify folds diacritics
// and typographic apostrophes.
func (f *roomFilter) resolveCity(db *gorm.DB) error {
	if location.Slugify(f.City) == "" {
		return nil
	}
	spellings, err := citySpellings(db, f.City, f.State)
	if err != nil {
		return err
	}
	f.citySpellings, f.cityResolved = spellings, true
	return nil
}

// citySpellings returns every trimmed city value, optionally within a state,
// whose slug equals the slug of city.
func citySpellings(db *gorm.DB, city, state string) ([]string, error) {
	want := location.Slugify(city)
	q := db.Model(&models.EscapeRoom{})
	if s := strings.TrimSpace(state); s != "" {
		q = stateScope(q, s)
	}
	var all []string
	if err := q.Distinct().Pluck("TRIM(escape_rooms.city)", &all).Error; err != nil {
		return nil, err
	}
	var out []string
	for _, c := range all {
		if location.Slugify(c) == want {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f roomFilter) scope(db *gorm.DB) *gorm.DB {
	if q := strings.TrimSpace(f.Q); q != "" {
		p := likePattern(q)
		db = db.Where("escape_rooms.name ILIKE ? OR escape_rooms.venue_name ILIKE ? OR escape_rooms.city ILIKE ? OR escape_rooms.category ILIKE ?", p, p, p, p)
	}
	if f.Theme != nil {
		tags := append(pq.StringArray{f.Theme.Slug}, f.Theme.Keywords...)
		db = db.Where("escape_rooms.themes && ?::text[] OR escape_rooms.category ILIKE ANY (?::text[])", tags, pq.StringArray(f.Theme.Patterns()))
	}
	if s := strings.TrimSpace(f.State); s != "" {
		db = stateScope(db, s)
	}
	if f.cityResolved {
		if len(f.citySpellings) == 0 {
			db = db.Where("1 = 0")
		} else {
			db = db.Where("TRIM(escape_rooms.city) IN ?", f.citySpellings)
		}
	}
	if f.MinRating > 0 {
		db = db.Where(combinedRatingSQL+" >= ?", f.MinRating)
	}
	if f.MinReviews > 0 {
		db = db.Where(combinedCountSQL+" >= ?", f.MinReviews)
	}
	if f.OpenOnly {
		db = db.Where("escape_rooms.status = ?", models.RoomStatusOpen)
	}
	return db
}

// stateScope matches rows stored under any spelling of the state.
func stateScope(db *gorm.DB, raw string) *gorm.DB {
	if st, ok := location.NormalizeState(raw); ok {
		return db.Where("escape_rooms.state IN ?", location.StateVariants(st))
	}
	return db.Where("escape_rooms.state ILIKE ?", strings.TrimSpace(raw))
}

func roomOrder(sort string) string {
	switch sort {
	case "newest":
		return "escape_rooms.created_at DESC"
	case "name":
		return "escape_rooms.name ASC"
	}
	return combinedRatingSQL + " DESC, " + combinedCountSQL + " DESC, escape_rooms.name ASC"
}

func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}
