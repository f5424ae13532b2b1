package hours

import (
	"testing"
	"time"

	"github.com/escape-finder/api-go/models"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseObject(t *testing.T) {
	days := Parse([]byte(`{"monday": "10:00 AM - 10:00 PM", "Tuesday": "Closed", "funday": "9-5", "sat-sun": "noon - midnight"}`))

	want := []DayHours{
		{Day: time.Monday, Name: "Monday", Open: "10:00", Close: "22:00", Text: "10:00 AM - 10:00 PM"},
		{Day: time.Tuesday, Name: "Tuesday", Closed: true, Text: "Closed"},
		{Day: time.Saturday, Name: "Saturday", Open: "12:00", Close: "24:00", Text: "12:00 PM - 12:00 AM"},
		{Day: time.Sunday, Name: "Sunday", Open: "12:00", Close: "24:00", Text: "12:00 PM - 12:00 AM"},
	}
	if diff := cmp.Diff(want, days); diff != "" {
		t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseArray(t *testing.T) {
	days := Parse([]byte(`[
		{"day": "Friday", "open": "12pm", "close": "11pm"},
		{"dayOfWeek": 0, "closed": true},
		{"day": "wed", "hours": "2-8pm"},
		"garbage"
	]`))

	require.Len(t, days, 3)
	assert.Equal(t, time.Wednesday, days[0].Day)
	assert.Equal(t, "14:00", days[0].Open)
	assert.Equal(t, "20:00", days[0].Close)
	assert.Equal(t, time.Friday, days[1].Day)
	assert.Equal(t, "12:00", days[1].Open)
	assert.Equal(t, "23:00", days[1].Close)
	assert.Equal(t, time.Sunday, days[2].Day)
	assert.True(t, days[2].Closed)
}

func TestParseText(t *testing.T) {
	days := Parse([]byte(`"Mon-Fri: 10am-10pm; Sat: 9:30am to 11pm; Sun: Closed"`))

	require.Len(t, days, 7)
	for _, d := range days[:5] {
		assert.Equal(t, "10:00", d.Open, d.Name)
		assert.Equal(t, "22:00", d.Close, d.Name)
	}
	assert.Equal(t, "09:30", days[5].Open)
	assert.True(t, days[6].Closed)

	plain := Parse([]byte("Daily: 24 hours"))
	require.Len(t, plain, 7)
	assert.Equal(t, "Open 24 hours", plain[0].Text)
}

func TestParseKeepsUnreadableHoursAsText(t *testing.T) {
	days := Parse([]byte(`{"thursday": "by appointment"}`))
	require.Len(t, days, 1)
	assert.Equal(t, "by appointment", days[0].Text)
	assert.Empty(t, days[0].Open)
}

func TestParseFailsSoft(t *testing.T) {
	for _, raw := range []string{"", "null", "42", "[1,2]", "no hours here", `{"x": 1}`} {
		assert.Empty(t, Parse([]byte(raw)), raw)
	}
}

func TestResolvePrefersRows(t *testing.T) {
	rows := []models.BusinessHours{
		{DayOfWeek: 1, OpenTime: "09:00", CloseTime: "17:00"},
		{DayOfWeek: 2, IsClosed: true},
		{DayOfWeek: 9, OpenTime: "09:00", CloseTime: "17:00"},
	}
	raw := []byte(`{"monday": "10am-10pm"}`)

	days := Resolve(rows, raw)
	require.Len(t, days, 2)
	assert.Equal(t, "09:00", days[0].Open)
	assert.True(t, days[1].Closed)

	assert.Equal(t, "10:00", Resolve(nil, raw)[0].Open)
}

func TestToRowsRoundTrip(t *testing.T) {
	days := Parse([]byte(`{"monday": "10am-10pm", "tuesday": "closed", "wednesday": "ask us"}`))
	rows := ToRows(7, days)

	require.Len(t, rows, 2)
	assert.Equal(t, uint(7), rows[0].RoomID)
	assert.Equal(t, 1, rows[0].DayOfWeek)
	assert.True(t, rows[1].IsClosed)
	assert.Equal(t, days[:2], FromRows(rows))
}

func TestIsOpen(t *testing.T) {
	days := Parse([]byte(`{"friday": "6pm - 2am", "saturday": "10am - 10pm"}`))
	at := func(day, hour, minute int) time.Time {
		// 2024-03-01 is a Friday.
		return time.Date(2024, 3, day, hour, minute, 0, 0, time.UTC)
	}

	assert.False(t, IsOpen(days, at(1, 17, 59)))
	assert.True(t, IsOpen(days, at(1, 18, 0)))
	assert.True(t, IsOpen(days, at(1, 23, 30)))
	assert.True(t, IsOpen(days, at(2, 1, 59)))
	assert.False(t, IsOpen(days, at(2, 2, 0)))
	assert.True(t, IsOpen(days, at(2, 10, 0)))
	assert.False(t, IsOpen(days, at(3, 12, 0)))
	assert.False(t, IsOpen(nil, at(1, 12, 0)))
}
