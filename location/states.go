package location

import (
	"strings"
	"unicode"
)

// State is a canonical US state (or DC / Puerto Rico).
type State struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Slug returns the URL segment used for the state, e.g. "new-york".
func (s State) Slug() string {
	return Slugify(s.Name)
}

var states = []State{
	{"AL", "Alabama"}, {"AK", "Alaska"}, {"AZ", "Arizona"}, {"AR", "Arkansas"},
	{"CA", "California"}, {"CO", "Colorado"}, {"CT", "Connecticut"}, {"DE", "Delaware"},
	{"DC", "District of Columbia"}, {"FL", "Florida"}, {"GA", "Georgia"}, {"HI", "Hawaii"},
	{"ID", "Idaho"}, {"IL", "Illinois"}, {"IN", "Indiana"}, {"IA", "Iowa"},
	{"KS", "Kansas"}, {"KY", "Kentucky"}, {"LA", "Louisiana"}, {"ME", "Maine"},
	{"MD", "Maryland"}, {"MA", "Massachusetts"}, {"MI", "Michigan"}, {"MN", "Minnesota"},
	{"MS", "Mississippi"}, {"MO", "Missouri"}, {"MT", "Montana"}, {"NE", "Nebraska"},
	{"NV", "Nevada"}, {"NH", "New Hampshire"}, {"NJ", "New Jersey"}, {"NM", "New Mexico"},
	{"NY", "New York"}, {"NC", "North Carolina"}, {"ND", "North Dakota"}, {"OH", "Ohio"},
	{"OK", "Oklahoma"}, {"OR", "Oregon"}, {"PA", "Pennsylvania"}, {"PR", "Puerto Rico"},
	{"RI", "Rhode Island"}, {"SC", "South Carolina"}, {"SD", "South Dakota"}, {"TN", "Tennessee"},
	{"TX", "Texas"}, {"UT", "Utah"}, {"VT", "Vermont"}, {"VA", "Virginia"},
	{"WA", "Washington"}, {"WV", "West Virginia"}, {"WI", "Wisconsin"}, {"WY", "Wyoming"},
}

var (
	statesByCode = make(map[string]State, len(states))
	statesByName = make(map[string]State, len(states)*2)
)

func init() {
	for _, s := range states {
		statesByCode[s.Code] = s
		statesByName[stateKey(s.Name)] = s
	}
	// Common alternate spellings seen in imported data.
	statesByName["washington dc"] = statesByCode["DC"]
	statesByName["washington d c"] = statesByCode["DC"]
	statesByName["d c"] = statesByCode["DC"]
}

// stateKey lowercases s and turns every run of non-letters into a single space.
func stateKey(s string) string {
	var b strings.Builder
	space := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) {
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
			continue
		}
		space = true
	}
	return b.String()
}

// NormalizeState resolves an abbreviation, a full name or a URL slug to a
// canonical State. Matching ignores case and punctuation, so "ca", "CA",
// "California", "new-york" and "N.Y." all resolve.
func NormalizeState(s string) (State, bool) {
	key := stateKey(s)
	if key == "" {
		return State{}, false
	}
	if st, ok := statesByName[key]; ok {
		return st, true
	}
	code := strings.ToUpper(strings.ReplaceAll(key, " ", ""))
	if len(code) == 2 {
		if st, ok := statesByCode[code]; ok {
			return st, true
		}
	}
	return State{}, false
}

// StateVariants returns the raw spellings a row may carry for the state, so
// queries can match rows stored either as "CA" or "California".
func StateVariants(st State) []string {
	return []string{st.Code, st.Name, strings.ToLower(st.Code), strings.ToLower(st.Name)}
}

// States returns every known state ordered by name.
func States() []State {
	out := make([]State, len(states))
	copy(out, states)
	return out
}
