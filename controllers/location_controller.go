package controllers

import (
	"net/http"
	"sort"
	"strings"

	"github.com/escape-finder/api-go/location"
	"github.com/escape-finder/api-go/metrics"
	"github.com/escape-finder/api-go/models"
	"github.com/escape-finder/api-go/reviews"
	"github.com/escape-finder/api-go/seo"
	"github.com/escape-finder/api-go/types"
	"github.com/escape-finder/api-go/utils"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	countryCode = "US"
	countryName = "United States"
	countrySlug = "us"

	maxCityRooms = 500
)

type LocationController struct {
	DB      *gorm.DB
	Site    seo.Site
	Log     *zap.Logger
	Metrics *metrics.Metrics
}

func NewLocationController(db *gorm.DB, site seo.Site, log *zap.Logger, m *metrics.Metrics) *LocationController {
	return &LocationController{DB: db, Site: site, Log: log, Metrics: m}
}

// venueGroup is every room operated under one venue name in a city.
type venueGroup struct {
	Name  string
	Slug  string
	Rooms []models.EscapeRoom
}

func (v venueGroup) summary() types.VenueSummary {
	s := types.VenueSummary{Name: v.Name, Slug: v.Slug, Rooms: int64(len(v.Rooms))}
	var weighted float64
	var n int
	for i := range v.Rooms {
		if s.Address == "" {
			s.Address = v.Rooms[i].Address
		}
		r, cnt := reviews.RoomRating(&v.Rooms[i])
		if cnt > 0 {
			weighted += r
			n++
		}
	}
	if n > 0 {
		s.AvgRating = float64(int(weighted/float64(n)*100+0.5)) / 100
	}
	return s
}

func venueName(r *models.EscapeRoom) string {
	if n := strings.TrimSpace(r.VenueName); n != "" {
		return location.CleanVenueName(n, r.City, r.State)
	}
	return location.CleanVenueName(r.Name, r.City, r.State)
}

// groupVenues groups rooms by venue slug, keeping first-seen order.
func groupVenues(rooms []models.EscapeRoom) []venueGroup {
	index := map[string]int{}
	var out []venueGroup
	for _, r := range rooms {
		name := venueName(&r)
		slug := location.Slugify(name)
		if slug == "" {
			continue
		}
		i, ok := index[slug]
		if !ok {
			i = len(out)
			index[slug] = i
			out = append(out, venueGroup{Name: name, Slug: slug})
		}
		out[i].Rooms = append(out[i].Rooms, r)
	}
	return out
}

// resolveVenue matches a URL segment against the venues of a city.
func resolveVenue(segment string, groups []venueGroup) (venueGroup, location.Match, bool) {
	want := location.Slugify(segment)
	for _, g := range groups {
		if g.Slug == want {
			return g, location.Match{Score: 1, Exact: true}, true
		}
	}
	candidates := make([]location.Candidate, len(groups))
	for i, g := range groups {
		candidates[i] = location.Candidate{ID: uint(i), Name: g.Name}
	}
	m, ok := location.BestMatch(segment, candidates)
	if !ok {
		return venueGroup{}, location.Match{}, false
	}
	return groups[m.Candidate.ID], m, true
}

func (lc *LocationController) resolved(level string, exact bool) {
	if exact {
		lc.Metrics.Resolution(level, "exact")
		return
	}
	lc.Metrics.Resolution(level, "fuzzy")
}

func isCountry(segment string) bool {
	switch location.Slugify(segment) {
	case "us", "usa", "united-states", "united-states-of-america":
		return true
	}
	return false
}

func (lc *LocationController) stateRows(db *gorm.DB) ([]location.AggregateRow, error) {
	var rows []location.AggregateRow
	err := db.Model(&models.EscapeRoom{}).
		Select("escape_rooms.state AS key, TRIM(escape_rooms.city) AS city, "+aggregateSQL).
		Where("escape_rooms.status = ?", models.RoomStatusOpen).
		Group("escape_rooms.state, TRIM(escape_rooms.city)").
		Scan(&rows).Error
	return rows, err
}

func (lc *LocationController) cityRows(db *gorm.DB, st location.State) ([]location.AggregateRow, error) {
	var rows []location.AggregateRow
	err := db.Model(&models.EscapeRoom{}).
		Select("TRIM(escape_rooms.city) AS key, "+aggregateSQL).
		Where("escape_rooms.status = ? AND escape_rooms.state IN ?", models.RoomStatusOpen, location.StateVariants(st)).
		Group("TRIM(escape_rooms.city)").
		Scan(&rows).Error
	return rows, err
}

// GetCountries lists the countries with listings. Only the US hierarchy is
// served.
func (lc *LocationController) GetCountries(c *gin.Context) {
	rows, err := lc.stateRows(lc.DB.WithContext(c.Request.Context()))
	if err != nil {
		internalError(c, lc.Log, "GetCountries", err)
		return
	}
	summary := types.CountrySummary{Code: countryCode, Name: countryName, Slug: countrySlug}
	for _, s := range location.MergeStateStats(rows) {
		if !s.Known {
			continue
		}
		summary.Rooms += s.Rooms
		summary.States++
	}
	c.JSON(http.StatusOK, StandardResponse{Success: true, Data: []types.CountrySummary{summary}})
}

func (lc *LocationController) GetStates(c *gin.Context) {
	if !isCountry(c.Param("country")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Country not found"})
		return
	}
	rows, err := lc.stateRows(lc.DB.WithContext(c.Request.Context()))
	if err != nil {
		internalError(c, lc.Log, "GetStates", err)
		return
	}

	country := types.CountrySummary{Code: countryCode, Name: countryName, Slug: countrySlug}
	states := []location.StateStats{}
	for _, s := range location.MergeStateStats(rows) {
		if !s.Known {
			lc.Log.Debug("rooms with unrecognised state", zap.String("state", s.State.Name), zap.Int64("rooms", s.Rooms))
			continue
		}
		country.Rooms += s.Rooms
		country.States++
		states = append(states, s)
	}

	c.JSON(http.StatusOK, StandardResponse{
		Success: true,
		Data: types.StatesResponse{
			Country: country,
			States:  states,
			Meta: seo.LocationMeta(lc.Site, countryName, country.Rooms, []seo.Crumb{
				{Name: countryName, Path: "/locations/" + countrySlug},
			}),
		},
	})
}

func (lc *LocationController) resolveState(c *gin.Context) (location.State, bool) {
	if !isCountry(c.Param("country")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Country not found"})
		return location.State{}, false
	}
	st, ok := location.NormalizeState(c.Param("state"))
	if !ok {
		lc.Metrics.Resolution("state", "miss")
		c.JSON(http.StatusNotFound, gin.H{"error": "State not found"})
		return location.State{}, false
	}
	lc.resolved("state", st.Slug() == c.Param("state"))
	return st, true
}

// regionDescription returns the editorial blurb seeded for a state, or "".
func (lc *LocationController) regionDescription(db *gorm.DB, st location.State) string {
	var region models.GeographicRegion
	err := db.Select("description").
		Where("level = ? AND country_code = ? AND state_code = ?", models.RegionState, countryCode, st.Code).
		First(&region).Error
	if err != nil {
		if !utils.IsNotFound(err) {
			lc.Log.Warn("region lookup failed", zap.String("state", st.Code), zap.Error(err))
		}
		return ""
	}
	return region.Description
}

func (lc *LocationController) GetCities(c *gin.Context) {
	st, ok := lc.resolveState(c)
	if !ok {
		return
	}
	rows, err := lc.cityRows(lc.DB.WithContext(c.Request.Context()), st)
	if err != nil {
		internalError(c, lc.Log, "GetCities", err)
		return
	}

	cities := location.MergeCityStats(rows)
	stats := location.StateStats{State: st, Slug: st.Slug(), Known: true, Cities: int64(len(cities)), AvgRating: location.StateRating(cities)}
	for _, ct := range cities {
		stats.Rooms += ct.Rooms
	}

	resp := types.CitiesResponse{
		State:       stats,
		Cities:      cities,
		Description: lc.regionDescription(lc.DB.WithContext(c.Request.Context()), st),
		Meta:        seo.LocationMeta(lc.Site, st.Name, stats.Rooms, stateTrail(st)),
	}
	if c.Param("state") != st.Slug() {
		resp.Redirect = seo.StatePath(st)
	}
	c.JSON(http.StatusOK, StandardResponse{Success: true, Data: resp})
}

// cityRooms resolves the city segment and loads its open rooms.
func (lc *LocationController) cityRooms(c *gin.Context, st location.State) (location.CityStats, []models.EscapeRoom, bool) {
	db := lc.DB.WithContext(c.Request.Context())
	rows, err := lc.cityRows(db, st)
	if err != nil {
		internalError(c, lc.Log, "cityRooms.cities", err)
		return location.CityStats{}, nil, false
	}
	city, ok := location.FindCity(c.Param("city"), location.MergeCityStats(rows))
	if !ok {
		lc.Metrics.Resolution("city", "miss")
		c.JSON(http.StatusNotFound, gin.H{"error": "City not found"})
		return location.CityStats{}, nil, false
	}
	lc.resolved("city", city.Slug == c.Param("city"))

	var rooms []models.EscapeRoom
	err = db.Where("escape_rooms.status = ? AND escape_rooms.state IN ? AND TRIM(escape_rooms.city) IN ?",
		models.RoomStatusOpen, location.StateVariants(st), city.Spellings).
		Order(roomOrder("rating")).
		Limit(maxCityRooms).
		Find(&rooms).Error
	if err != nil {
		internalError(c, lc.Log, "cityRooms.rooms", err)
		return location.CityStats{}, nil, false
	}
	return city, rooms, true
}

func (lc *LocationController) GetCity(c *gin.Context) {
	st, ok := lc.resolveState(c)
	if !ok {
		return
	}
	city, rooms, ok := lc.cityRooms(c, st)
	if !ok {
		return
	}

	groups := groupVenues(rooms)
	venues := make([]types.VenueSummary, len(groups))
	for i, g := range groups {
		venues[i] = g.summary()
	}
	sort.SliceStable(venues, func(i, j int) bool { return venues[i].Rooms > venues[j].Rooms })

	resp := types.CityResponse{
		State:  st,
		City:   city,
		Venues: venues,
		Rooms:  roomCards(rooms),
		Meta:   seo.LocationMeta(lc.Site, city.Name+", "+st.Code, city.Rooms, cityTrail(st, city)),
	}
	if c.Param("state") != st.Slug() || c.Param("city") != city.Slug {
		resp.Redirect = seo.CityPath(st, city.Slug)
	}
	c.JSON(http.StatusOK, StandardResponse{Success: true, Data: resp})
}

// GetVenue resolves a venue segment within a city. Venue names in the data
// often embed the city or state, so matching runs on cleaned names and falls
// back to fuzzy token overlap; a fuzzy hit carries the canonical path in
// redirect.
func (lc *LocationController) GetVenue(c *gin.Context) {
	st, ok := lc.resolveState(c)
	if !ok {
		return
	}
	city, rooms, ok := lc.cityRooms(c, st)
	if !ok {
		return
	}

	venue, match, ok := resolveVenue(c.Param("venue"), groupVenues(rooms))
	if !ok {
		lc.Metrics.Resolution("venue", "miss")
		lc.Log.Info("venue not resolved",
			zap.String("state", st.Code),
			zap.String("city", city.Name),
			zap.String("venue", c.Param("venue")),
		)
		c.JSON(http.StatusNotFound, gin.H{"error": "Venue not found"})
		return
	}
	lc.resolved("venue", match.Exact)

	trail := append(cityTrail(st, city), seo.Crumb{Name: venue.Name, Path: seo.VenuePath(st, city.Slug, venue.Slug)})
	resp := types.VenueResponse{
		State:      st,
		City:       city.Name,
		CitySlug:   city.Slug,
		Venue:      venue.summary(),
		Rooms:      roomCards(venue.Rooms),
		MatchScore: match.Score,
		Meta:       seo.LocationMeta(lc.Site, venue.Name+" in "+city.Name+", "+st.Code, int64(len(venue.Rooms)), trail),
	}
	if !match.Exact || c.Param("state") != st.Slug() || c.Param("city") != city.Slug || c.Param("venue") != venue.Slug {
		resp.Redirect = seo.VenuePath(st, city.Slug, venue.Slug)
	}
	c.JSON(http.StatusOK, StandardResponse{Success: true, Data: resp})
}

func stateTrail(st location.State) []seo.Crumb {
	return []seo.Crumb{
		{Name: countryName, Path: "/locations/" + countrySlug},
		{Name: st.Name, Path: seo.StatePath(st)},
	}
}

func cityTrail(st location.State, city location.CityStats) []seo.Crumb {
	return append(stateTrail(st), seo.Crumb{Name: city.Name, Path: seo.CityPath(st, city.Slug)})
}
