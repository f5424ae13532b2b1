// Package hours turns the loosely structured opening hours stored on escape
// rooms into a uniform Monday-first week.
package hours

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/escape-finder/api-go/models"
)

// DayHours is one day of the week. Open and Close use 24h "15:04" notation and
// are empty when the day is closed or its hours could not be read, in which
// case Text still carries whatever the source said.
type DayHours struct {
	Day    time.Weekday `json:"-"`
	Name   string       `json:"day"`
	Open   string       `json:"open,omitempty"`
	Close  string       `json:"close,omitempty"`
	Closed bool         `json:"closed"`
	Text   string       `json:"text"`
}

var weekOrder = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday, time.Sunday,
}

var dayPrefixes = map[string]time.Weekday{
	"mon": time.Monday, "tue": time.Tuesday, "wed": time.Wednesday, "thu": time.Thursday,
	"fri": time.Friday, "sat": time.Saturday, "sun": time.Sunday,
}

var (
	entrySplit = regexp.MustCompile(`[;\n|]+`)
	textEntry  = regexp.MustCompile(`^\s*([A-Za-z]+)\.?(?:\s*(?:-|–|to)\s*([A-Za-z]+)\.?)?\s*:?\s*(.*)$`)
	rangeSplit = regexp.MustCompile(`\s*(?:-|–|—|\bto\b)\s*`)
	clockRe    = regexp.MustCompile(`^(\d{1,2})(?::?(\d{2}))?([ap])?m?$`)
)

// Parse reads working hours in any of the shapes found in imported data: a
// JSON object keyed by day name, a JSON array of day rows, a JSON string, or
// plain text such as "Mon-Fri: 10am-10pm; Sun: Closed". Days that cannot be
// identified are dropped; unreadable input yields nil.
func Parse(raw []byte) []DayHours {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil
	}

	var v interface{}
	if err := json.Unmarshal([]byte(trimmed), &v); err != nil {
		return parseText(trimmed)
	}

	week := map[time.Weekday]DayHours{}
	switch t := v.(type) {
	case map[string]interface{}:
		for k, val := range t {
			parts := append(rangeSplit.Split(k, 2), "")
			for _, d := range dayRange(parts[0], parts[1]) {
				if h, ok := parseValue(val); ok {
					week[d] = h
				}
			}
		}
	case []interface{}:
		for _, item := range t {
			row, ok := item.(map[string]interface{})
			if !ok {
				continue
			}
			d, ok := rowDay(row)
			if !ok {
				continue
			}
			if h, ok := parseValue(row); ok {
				week[d] = h
			}
		}
	case string:
		return parseText(t)
	default:
		return nil
	}
	return ordered(week)
}

// FromRows converts structured business_hours rows.
func FromRows(rows []models.BusinessHours) []DayHours {
	week := map[time.Weekday]DayHours{}
	for _, r := range rows {
		if r.DayOfWeek < 0 || r.DayOfWeek > 6 {
			continue
		}
		if r.IsClosed {
			week[time.Weekday(r.DayOfWeek)] = closedDay()
			continue
		}
		h, ok := rangeOf(r.OpenTime, r.CloseTime)
		if !ok {
			continue
		}
		week[time.Weekday(r.DayOfWeek)] = h
	}
	return ordered(week)
}

// Resolve prefers structured rows over the free-form JSON column.
func Resolve(rows []models.BusinessHours, raw []byte) []DayHours {
	if len(rows) > 0 {
		if days := FromRows(rows); len(days) > 0 {
			return days
		}
	}
	return Parse(raw)
}

// ToRows is the inverse of FromRows, used when a listing is approved.
func ToRows(roomID uint, days []DayHours) []models.BusinessHours {
	out := make([]models.BusinessHours, 0, len(days))
	for _, d := range days {
		if !d.Closed && (d.Open == "" || d.Close == "") {
			continue
		}
		out = append(out, models.BusinessHours{
			RoomID:    roomID,
			DayOfWeek: int(d.Day),
			OpenTime:  d.Open,
			CloseTime: d.Close,
			IsClosed:  d.Closed,
		})
	}
	return out
}

// IsOpen reports whether t falls inside the listed hours. Ranges that close at
// or before they open run past midnight.
func IsOpen(days []DayHours, t time.Time) bool {
	now := t.Hour()*60 + t.Minute()
	byDay := make(map[time.Weekday]DayHours, len(days))
	for _, d := range days {
		byDay[d.Day] = d
	}

	if d, ok := byDay[t.Weekday()]; ok && !d.Closed {
		open, ok1 := minutes(d.Open)
		closing, ok2 := minutes(d.Close)
		if ok1 && ok2 {
			if closing > open && now >= open && now < closing {
				return true
			}
			if closing <= open && now >= open {
				return true
			}
		}
	}

	prev := (t.Weekday() + 6) % 7
	if d, ok := byDay[prev]; ok && !d.Closed {
		open, ok1 := minutes(d.Open)
		closing, ok2 := minutes(d.Close)
		if ok1 && ok2 && closing <= open && now < closing {
			return true
		}
	}
	return false
}

func ordered(week map[time.Weekday]DayHours) []DayHours {
	if len(week) == 0 {
		return nil
	}
	out := make([]DayHours, 0, len(week))
	for _, d := range weekOrder {
		h, ok := week[d]
		if !ok {
			continue
		}
		h.Day = d
		h.Name = d.String()
		out = append(out, h)
	}
	return out
}

func parseText(s string) []DayHours {
	week := map[time.Weekday]DayHours{}
	for _, entry := range entrySplit.Split(s, -1) {
		m := textEntry.FindStringSubmatch(entry)
		if m == nil {
			continue
		}
		days := dayRange(m[1], m[2])
		if len(days) == 0 {
			continue
		}
		h, ok := parseRange(m[3])
		if !ok {
			continue
		}
		for _, d := range days {
			week[d] = h
		}
	}
	return ordered(week)
}

func parseDay(s string) (time.Weekday, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) < 3 {
		return 0, false
	}
	d, ok := dayPrefixes[s[:3]]
	return d, ok
}

// dayRange expands "mon".."fri" (wrapping past Sunday) or a single day. "daily"
// and "everyday" cover the week.
func dayRange(from, to string) []time.Weekday {
	switch strings.ToLower(strings.TrimSpace(from)) {
	case "daily", "everyday", "all":
		return weekOrder
	}
	start, ok := parseDay(from)
	if !ok {
		return nil
	}
	if strings.TrimSpace(to) == "" {
		return []time.Weekday{start}
	}
	end, ok := parseDay(to)
	if !ok {
		return []time.Weekday{start}
	}
	var out []time.Weekday
	for d := start; ; d = (d + 1) % 7 {
		out = append(out, d)
		if d == end {
			break
		}
	}
	return out
}

func rowDay(row map[string]interface{}) (time.Weekday, bool) {
	for _, key := range []string{"day", "dayOfWeek", "day_of_week", "weekday"} {
		switch v := row[key].(type) {
		case string:
			if n, err := strconv.Atoi(v); err == nil && n >= 0 && n <= 6 {
				return time.Weekday(n), true
			}
			if d, ok := parseDay(v); ok {
				return d, true
			}
		case float64:
			if v >= 0 && v <= 6 {
				return time.Weekday(int(v)), true
			}
		}
	}
	return 0, false
}

// parseValue reads a day's hours from a string ("10:00 AM - 10:00 PM") or an
// object with open/close or closed keys.
func parseValue(v interface{}) (DayHours, bool) {
	switch t := v.(type) {
	case string:
		return parseRange(t)
	case bool:
		if !t {
			return closedDay(), true
		}
	case map[string]interface{}:
		for _, key := range []string{"closed", "isClosed", "is_closed"} {
			if c, ok := t[key].(bool); ok && c {
				return closedDay(), true
			}
		}
		if s, ok := t["hours"].(string); ok {
			return parseRange(s)
		}
		open := firstString(t, "open", "openTime", "open_time", "opens")
		closing := firstString(t, "close", "closeTime", "close_time", "closes")
		if open != "" && closing != "" {
			return rangeOf(open, closing)
		}
	}
	return DayHours{}, false
}

func firstString(m map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

func closedDay() DayHours {
	return DayHours{Closed: true, Text: "Closed"}
}

func parseRange(s string) (DayHours, bool) {
	s = strings.TrimSpace(s)
	lower := strings.ToLower(s)
	switch {
	case lower == "":
		return DayHours{}, false
	case strings.Contains(lower, "closed"):
		return closedDay(), true
	case strings.Contains(lower, "24 hours") || strings.Contains(lower, "24h"):
		return DayHours{Open: "00:00", Close: "24:00", Text: "Open 24 hours"}, true
	}
	parts := rangeSplit.Split(s, 2)
	if len(parts) != 2 {
		return DayHours{Text: s}, true
	}
	h, ok := rangeOf(parts[0], parts[1])
	if !ok {
		return DayHours{Text: s}, true
	}
	return h, true
}

func rangeOf(open, closing string) (DayHours, bool) {
	cm, closeMer, ok := parseClock(closing)
	if !ok {
		return DayHours{}, false
	}
	om, openMer, ok := parseClock(open)
	if !ok {
		return DayHours{}, false
	}
	// "10-10pm": borrow the closing meridiem, or the opposite one when that
	// would put the opening after the close.
	if openMer == 0 && closeMer != 0 && om < 13*60 {
		base := om % (12 * 60)
		if closeMer == 'p' {
			om = base + 12*60
		} else {
			om = base
		}
		if om >= cm && closeMer == 'p' {
			om = base
		}
	}
	h := DayHours{Open: clock(om), Close: clock(cm)}
	h.Text = fmt.Sprintf("%s - %s", display(om), display(cm))
	return h, true
}

// parseClock returns minutes after midnight and the meridiem letter given, if any.
func parseClock(s string) (int, byte, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer(" ", "", ".", "").Replace(s)
	switch s {
	case "noon":
		return 12 * 60, 'p', true
	case "midnight":
		return 24 * 60, 'a', true
	}
	m := clockRe.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, false
	}
	h, _ := strconv.Atoi(m[1])
	mins := 0
	if m[2] != "" {
		mins, _ = strconv.Atoi(m[2])
	}
	if mins > 59 || h > 24 {
		return 0, 0, false
	}
	var mer byte
	if m[3] != "" {
		mer = m[3][0]
		if h < 1 || h > 12 {
			return 0, 0, false
		}
		h %= 12
		if mer == 'p' {
			h += 12
		}
	}
	return h*60 + mins, mer, true
}

func minutes(s string) (int, bool) {
	if len(s) != 5 || s[2] != ':' {
		return 0, false
	}
	h, err1 := strconv.Atoi(s[:2])
	m, err2 := strconv.Atoi(s[3:])
	if err1 != nil || err2 != nil {
		return 0, false
	}
	return h*60 + m, true
}

func clock(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

func display(m int) string {
	if m == 24*60 || m == 0 {
		return "12:00 AM"
	}
	h, mins := m/60, m%60
	mer := "AM"
	if h >= 12 {
		mer = "PM"
	}
	h %= 12
	if h == 0 {
		h = 12
	}
	return fmt.Sprintf("%d:%02d %s", h, mins, mer)
}
