package location

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeState(t *testing.T) {
	tests := []struct {
		in       string
		wantCode string
		wantOK   bool
	}{
		{"ca", "CA", true},
		{"CA", "CA", true},
		{"California", "CA", true},
		{"new-york", "NY", true},
		{"new_hampshire", "NH", true},
		{"N.Y.", "NY", true},
		{"Washington", "WA", true},
		{"washington dc", "DC", true},
		{"  texas ", "TX", true},
		{"xx", "", false},
		{"Ontario", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			st, ok := NormalizeState(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantCode, st.Code)
		})
	}
}

func TestStateSlugRoundTrip(t *testing.T) {
	for _, st := range States() {
		got, ok := NormalizeState(st.Slug())
		require.True(t, ok, st.Name)
		assert.Equal(t, st, got)
	}
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "cafe-escape-and-co", Slugify("Café Escape & Co."))
	assert.Equal(t, "nicks-puzzle-room", Slugify("Nick's Puzzle Room"))
	assert.Equal(t, "hello-world", Slugify("  --Hello__World-- "))
	assert.Equal(t, "", Slugify("!!!"))
	assert.Equal(t, "San Luis Obispo", Unslugify("san-luis-obispo"))
}

func TestCleanVenueName(t *testing.T) {
	tests := []struct {
		name, city, state string
		want              string
	}{
		{"Escape Room LA - Los Angeles, CA", "Los Angeles", "CA", "Escape Room LA"},
		{"Puzzle Haus (Austin)", "Austin", "TX", "Puzzle Haus"},
		{"Mystery Mansion of Austin, TX", "Austin", "Texas", "Mystery Mansion"},
		{"The Escape Game", "Nashville", "TN", "The Escape Game"},
		{"Austin", "Austin", "TX", "Austin"},
		{"Lock & Key | Denver", "Denver", "", "Lock & Key"},
		{"Catch Me", "Portland", "ME", "Catch Me"},
		{"Escape Room In", "Indianapolis", "IN", "Escape Room In"},
		{"Hide and Go Seek Or", "Portland", "OR", "Hide and Go Seek Or"},
		{"Catch Me - ME", "Portland", "ME", "Catch Me"},
		{"Puzzle Haus Austin TX", "Austin", "TX", "Puzzle Haus"},
		{"Brain Games [ON]", "Toronto", "on", "Brain Games"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanVenueName(tt.name, tt.city, tt.state))
		})
	}
}

func TestScore(t *testing.T) {
	assert.Equal(t, 1.0, Score("escape-room-la", "Escape Room LA"))
	assert.Equal(t, 0.99, Score("puzzle-haus", "Puzzle Haus Escape Rooms"))
	assert.Zero(t, Score("foo", "bar"))
	assert.Zero(t, Score("", "bar"))
}

func TestBestMatch(t *testing.T) {
	candidates := []Candidate{
		{ID: 1, Name: "Haus of Horrors", City: "Austin", State: "TX"},
		{ID: 2, Name: "Puzzle Haus Escape Rooms - Austin, TX", City: "Austin", State: "TX"},
		{ID: 3, Name: "Puzzle Palace", City: "Austin", State: "TX"},
	}

	t.Run("fuzzy", func(t *testing.T) {
		m, ok := BestMatch("puzzle-haus", candidates)
		require.True(t, ok)
		assert.Equal(t, uint(2), m.Candidate.ID)
		assert.False(t, m.Exact)
	})

	t.Run("exact after cleaning", func(t *testing.T) {
		m, ok := BestMatch("escape-room-la", []Candidate{
			{ID: 7, Name: "Escape Room LA - Los Angeles, CA", City: "Los Angeles", State: "CA"},
		})
		require.True(t, ok)
		assert.True(t, m.Exact)
		assert.Equal(t, uint(7), m.Candidate.ID)
	})

	t.Run("ties go to earlier candidate", func(t *testing.T) {
		m, ok := BestMatch("clue", []Candidate{
			{ID: 1, Name: "Clue Masters"},
			{ID: 2, Name: "Clue Hunters"},
		})
		require.True(t, ok)
		assert.Equal(t, uint(1), m.Candidate.ID)
	})

	t.Run("no match", func(t *testing.T) {
		_, ok := BestMatch("zzz", candidates)
		assert.False(t, ok)
		_, ok = BestMatch("", candidates)
		assert.False(t, ok)
	})
}

func TestMergeStateStats(t *testing.T) {
	got := MergeStateStats([]AggregateRow{
		{Key: "CA", City: "Los Angeles", Rooms: 6, Rated: 6, AvgRating: 4.0},
		{Key: "CA", City: "San Diego", Rooms: 4, Rated: 4, AvgRating: 4.0},
		{Key: "California", City: "Los Angeles ", Rooms: 20, Rated: 20, AvgRating: 4.4},
		{Key: "California", City: "Fresno", Rooms: 10, Rated: 10, AvgRating: 4.4},
		{Key: "tx", City: "Austin", Rooms: 5, Rated: 5, AvgRating: 3.0},
		{Key: "Ontario", City: "Toronto", Rooms: 2, Rated: 2, AvgRating: 5.0},
		{Key: " ", City: "Nowhere", Rooms: 1, Rated: 1, AvgRating: 1},
	})

	require.Len(t, got, 3)
	assert.Equal(t, "California", got[0].State.Name)
	assert.Equal(t, int64(40), got[0].Rooms)
	assert.Equal(t, 4.3, got[0].AvgRating)
	assert.Equal(t, int64(3), got[0].Cities, "Los Angeles is stored under both spellings")
	assert.Equal(t, "california", got[0].Slug)

	assert.Equal(t, "Ontario", got[1].State.Name)
	assert.False(t, got[1].Known)
	assert.Equal(t, int64(1), got[1].Cities)

	assert.Equal(t, "TX", got[2].State.Code)
	assert.Equal(t, int64(5), got[2].Rooms)
}

func TestMergeWeightsByRatedRooms(t *testing.T) {
	states := MergeStateStats([]AggregateRow{
		{Key: "CA", City: "Fresno", Rooms: 10, Rated: 1, AvgRating: 5.0},
		{Key: "California", City: "Fresno", Rooms: 1, Rated: 1, AvgRating: 3.0},
	})
	require.Len(t, states, 1)
	assert.Equal(t, int64(11), states[0].Rooms)
	assert.Equal(t, 4.0, states[0].AvgRating)
	assert.Equal(t, int64(1), states[0].Cities)

	cities := MergeCityStats([]AggregateRow{
		{Key: "Fresno", Rooms: 10, Rated: 1, AvgRating: 5.0},
		{Key: "fresno", Rooms: 1, Rated: 1, AvgRating: 3.0},
		{Key: "Clovis", Rooms: 3, Rated: 0, AvgRating: 0},
	})
	require.Len(t, cities, 2)
	assert.Equal(t, 4.0, cities[0].AvgRating)
	assert.Equal(t, int64(2), cities[0].Rated)
	assert.Zero(t, cities[1].AvgRating)
	assert.Equal(t, 4.0, StateRating(cities))
}

func TestMergeCityStatsAndFindCity(t *testing.T) {
	cities := MergeCityStats([]AggregateRow{
		{Key: "St. Louis", Rooms: 3, Rated: 3, AvgRating: 4.0},
		{Key: "St Louis", Rooms: 7, Rated: 7, AvgRating: 5.0},
		{Key: "Kansas City", Rooms: 4, Rated: 4, AvgRating: 4.5},
	})

	require.Len(t, cities, 2)
	assert.Equal(t, "St Louis", cities[0].Name)
	assert.Equal(t, int64(10), cities[0].Rooms)
	assert.Equal(t, 4.7, cities[0].AvgRating)
	assert.ElementsMatch(t, []string{"St. Louis", "St Louis"}, cities[0].Spellings)

	c, ok := FindCity("st-louis", cities)
	require.True(t, ok)
	assert.Equal(t, "st-louis", c.Slug)

	c, ok = FindCity("kansas", cities)
	require.True(t, ok)
	assert.Equal(t, "Kansas City", c.Name)

	_, ok = FindCity("portland", cities)
	assert.False(t, ok)
}
