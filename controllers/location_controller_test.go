package controllers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/escape-finder/api-go/location"
	"github.com/escape-finder/api-go/models"
	"github.com/escape-finder/api-go/seo"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func austinRooms() []models.EscapeRoom {
	return []models.EscapeRoom{
		{Name: "The Vault", VenueName: "Puzzle Haus - Austin, TX", City: "Austin", State: "TX", Address: "1 Main St", Rating: 4.8, ReviewsCount: 100},
		{Name: "Lab 13", VenueName: "Puzzle Haus", City: "Austin", State: "TX", Rating: 4.6, ReviewsCount: 50},
		{Name: "Heist", VenueName: "Escape Game Austin", City: "Austin", State: "Texas"},
	}
}

func TestGroupVenues(t *testing.T) {
	groups := groupVenues(austinRooms())
	require.Len(t, groups, 2)

	assert.Equal(t, "Puzzle Haus", groups[0].Name)
	assert.Equal(t, "puzzle-haus", groups[0].Slug)
	assert.Len(t, groups[0].Rooms, 2)
	assert.Equal(t, "escape-game", groups[1].Slug)

	s := groups[0].summary()
	assert.Equal(t, int64(2), s.Rooms)
	assert.Equal(t, "1 Main St", s.Address)
	assert.InDelta(t, 4.7, s.AvgRating, 0.001)
	assert.Zero(t, groups[1].summary().AvgRating)
}

func TestResolveVenue(t *testing.T) {
	groups := groupVenues(austinRooms())

	g, m, ok := resolveVenue("puzzle-haus", groups)
	require.True(t, ok)
	assert.True(t, m.Exact)
	assert.Equal(t, "puzzle-haus", g.Slug)

	g, m, ok = resolveVenue("puzzle-haus-austin", groups)
	require.True(t, ok)
	assert.False(t, m.Exact)
	assert.Equal(t, "puzzle-haus", g.Slug)
	assert.Less(t, m.Score, 1.0)

	_, _, ok = resolveVenue("zzz-qqq", groups)
	assert.False(t, ok)
}

func TestIsCountry(t *testing.T) {
	for _, s := range []string{"us", "USA", "united-states", "United States of America"} {
		assert.True(t, isCountry(s), s)
	}
	assert.False(t, isCountry("canada"))
}

func TestLocationLookupMisses(t *testing.T) {
	lc := NewLocationController(nil, seo.Site{Name: "Escape Finder", BaseURL: "https://escape.example.com"}, zap.NewNop(), nil)
	r := gin.New()
	r.GET("/locations/:country", lc.GetStates)
	r.GET("/locations/:country/:state", lc.GetCities)

	rec := do(r, http.MethodGet, "/locations/canada", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Country not found", errorOf(t, rec))

	rec = do(r, http.MethodGet, "/locations/us/atlantis", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "State not found", errorOf(t, rec))
}

func TestRankRooms(t *testing.T) {
	ranked := rankRooms([]models.EscapeRoom{
		{Name: "A", Slug: "a", Rating: 4.8, ReviewsCount: 100},
		{Name: "B", Slug: "b", Rating: 4.8, ReviewsCount: 100},
		{Name: "C", Slug: "c", Rating: 4.5, ReviewsCount: 20},
	})
	require.Len(t, ranked, 3)
	assert.Equal(t, []int{1, 1, 3}, []int{ranked[0].Rank, ranked[1].Rank, ranked[2].Rank})
	assert.Equal(t, "c", ranked[2].Slug)
}

func TestRoomQueryHelpers(t *testing.T) {
	assert.Equal(t, `%50\% off\_now%`, likePattern("50% off_now"))
	assert.Equal(t, "escape_rooms.created_at DESC", roomOrder("newest"))
	assert.Equal(t, "escape_rooms.name ASC", roomOrder("name"))
	assert.Contains(t, roomOrder(""), "DESC")
}

func TestGetStatesMergesSpellings(t *testing.T) {
	db, mock := newMockDB(t)
	lc := NewLocationController(db, site, zap.NewNop(), nil)
	r := gin.New()
	r.GET("/locations/:country", lc.GetStates)

	mock.ExpectQuery(`SELECT escape_rooms\.state AS key, TRIM\(escape_rooms\.city\) AS city, COUNT\(\*\) AS rooms, COUNT\(NULLIF\(.+\) AS rated, .+ GROUP BY escape_rooms\.state, TRIM\(escape_rooms\.city\)`).
		WithArgs(models.RoomStatusOpen).
		WillReturnRows(sqlmock.NewRows([]string{"key", "city", "rooms", "rated", "avg_rating"}).
			AddRow("CA", "Los Angeles", 10, 1, 5.0).
			AddRow("California", "Los Angeles", 1, 1, 3.0).
			AddRow("TX", "Austin", 4, 4, 4.5).
			AddRow("Narnia", "Cair Paravel", 2, 0, 0))

	rec := do(r, http.MethodGet, "/locations/us", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Data struct {
			Country struct {
				Rooms  int64 `json:"rooms"`
				States int   `json:"states"`
			} `json:"country"`
			States []location.StateStats `json:"states"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, int64(15), body.Data.Country.Rooms)
	assert.Equal(t, 2, body.Data.Country.States)
	require.Len(t, body.Data.States, 2)

	ca := body.Data.States[0]
	assert.Equal(t, "CA", ca.State.Code)
	assert.Equal(t, int64(11), ca.Rooms)
	assert.Equal(t, int64(1), ca.Cities)
	assert.Equal(t, 4.0, ca.AvgRating)
	assert.Equal(t, "TX", body.Data.States[1].State.Code)
}
