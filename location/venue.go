package location

import (
	"regexp"
	"strings"
)

// MinMatchScore is the lowest score BestMatch accepts as a match.
const MinMatchScore = 0.34

var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "of": true, "at": true, "in": true,
	"escape": true, "escapes": true, "room": true, "rooms": true, "game": true, "games": true,
	"llc": true, "inc": true, "co": true, "company": true,
}

var (
	separatorRun = regexp.MustCompile(`\s*[-–—|:,/]+\s*[-–—|:,/\s]*`)
	emptyParens  = regexp.MustCompile(`\(\s*\)|\[\s*\]`)
	multiSpace   = regexp.MustCompile(`\s{2,}`)
)

// Candidate is a row the resolver can match a URL segment against.
type Candidate struct {
	ID    uint
	Name  string
	City  string
	State string
}

// Match is the outcome of BestMatch.
type Match struct {
	Candidate Candidate
	Score     float64
	Exact     bool
}

// CleanVenueName strips the city and state a business often embeds in its
// listing name: "Escape Room LA - Los Angeles, CA" becomes "Escape Room LA".
// City and state names match in any case. A state code only matches in upper
// case after a separator, a comma or a city, so "Catch Me" keeps its last word
// in Maine.
func CleanVenueName(name, city, state string) string {
	out := name
	var names []string
	if c := strings.TrimSpace(city); c != "" {
		names = append(names, regexp.QuoteMeta(c))
	}
	code := ""
	if st, ok := NormalizeState(state); ok {
		names = append(names, regexp.QuoteMeta(st.Name))
		code = st.Code
	} else if s := strings.TrimSpace(state); len(s) == 2 {
		code = regexp.QuoteMeta(strings.ToUpper(s))
	} else if s != "" {
		names = append(names, regexp.QuoteMeta(s))
	}

	if len(names) == 0 && code == "" {
		return tidyVenueName(out, name)
	}
	alts := []string{}
	if len(names) > 0 {
		alts = append(alts, `(?i:`+strings.Join(names, "|")+`)`)
	}
	if code != "" {
		alts = append(alts, code)
	}
	place := `(?:` + strings.Join(alts, "|") + `)`
	// "(Los Angeles)", "[CA]"
	out = regexp.MustCompile(`[(\[]\s*`+place+`(?:\s*,\s*`+place+`)?\s*[)\]]`).ReplaceAllString(out, " ")
	// "- Los Angeles, CA", ", CA", "in Austin TX", "of Austin"
	out = regexp.MustCompile(`(?:\s*[-–—|:,]\s*|\s+(?i:in|of|at)\s+)`+place+`(?:[\s,]+`+place+`)*\s*$`).ReplaceAllString(out, "")
	if len(names) > 0 {
		// trailing city or state name without a separator: "Puzzle Haus Austin TX"
		out = regexp.MustCompile(`\s+`+alts[0]+`(?:[\s,]+`+place+`)*\s*$`).ReplaceAllString(out, "")
	}
	return tidyVenueName(out, name)
}

// tidyVenueName collapses what stripping left behind and falls back to the
// original name when nothing is left.
func tidyVenueName(out, name string) string {
	out = emptyParens.ReplaceAllString(out, " ")
	out = separatorRun.ReplaceAllString(out, " - ")
	out = multiSpace.ReplaceAllString(out, " ")
	out = strings.Trim(out, " -–—|:,/")
	if out == "" {
		return strings.TrimSpace(name)
	}
	return out
}

// Tokens splits s into slug tokens without generic words. When every token is
// generic the full token list is returned so "The Escape Room" still matches
// itself.
func Tokens(s string) []string {
	all := strings.Split(Slugify(s), "-")
	var out []string
	for _, t := range all {
		if t == "" || stopWords[t] {
			continue
		}
		out = append(out, t)
	}
	if len(out) == 0 {
		for _, t := range all {
			if t != "" {
				out = append(out, t)
			}
		}
	}
	return out
}

// Score rates how well candidate matches query in [0, 1]. Identical slugs score
// 1; otherwise the Jaccard overlap of their tokens plus a bonus when one slug is
// a prefix of the other, capped below 1.
func Score(query, candidate string) float64 {
	qs, cs := Slugify(query), Slugify(candidate)
	if qs == "" || cs == "" {
		return 0
	}
	if qs == cs {
		return 1
	}
	qt, ct := Tokens(query), Tokens(candidate)
	set := make(map[string]bool, len(qt))
	for _, t := range qt {
		set[t] = true
	}
	union := make(map[string]bool, len(qt)+len(ct))
	for _, t := range qt {
		union[t] = true
	}
	inter := 0
	seen := make(map[string]bool, len(ct))
	for _, t := range ct {
		union[t] = true
		if set[t] && !seen[t] {
			inter++
		}
		seen[t] = true
	}
	if len(union) == 0 {
		return 0
	}
	score := float64(inter) / float64(len(union))
	if inter > 0 && (strings.HasPrefix(cs, qs) || strings.HasPrefix(qs, cs)) {
		score += 0.25
	}
	if score > 0.99 {
		score = 0.99
	}
	return score
}

// BestMatch picks the candidate whose cleaned name best matches query. Ties go
// to the candidate with the closer token count, then to the earlier one.
func BestMatch(query string, candidates []Candidate) (Match, bool) {
	if Slugify(query) == "" {
		return Match{}, false
	}
	qn := len(Tokens(query))

	var best Match
	bestDiff := -1
	found := false
	for _, c := range candidates {
		name := CleanVenueName(c.Name, c.City, c.State)
		s := Score(query, name)
		if raw := Score(query, c.Name); raw > s {
			s = raw
		}
		if s < MinMatchScore {
			continue
		}
		diff := abs(len(Tokens(name)) - qn)
		if !found || s > best.Score || (s == best.Score && diff < bestDiff) {
			best = Match{Candidate: c, Score: s, Exact: s == 1}
			bestDiff = diff
			found = true
		}
	}
	return best, found
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
