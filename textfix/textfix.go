// Package textfix repairs mojibake: UTF-8 text that was decoded as
// Windows-1252 one or more times before being stored.
package textfix

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// MaxPasses bounds how many layers of double encoding Fix peels off.
const MaxPasses = 3

// residual covers sequences the re-encoding pass cannot undo, usually because
// one byte of the original was lost or replaced along the way. Longer keys
// come first.
var residual = strings.NewReplacer(
	"â€™", "’",
	"â€˜", "‘",
	"â€œ", "“",
	"â€\u009d", "”",
	"â€“", "–",
	"â€”", "—",
	"â€¦", "…",
	"â€¢", "•",
	"â„¢", "™",
	"â€", "”",
	"Ã©", "é",
	"Ã¨", "è",
	"Ãª", "ê",
	"Ã«", "ë",
	"Ã¡", "á",
	"Ã¢", "â",
	"Ã¤", "ä",
	"Ã§", "ç",
	"Ã­", "í",
	"Ã®", "î",
	"Ã¯", "ï",
	"Ã±", "ñ",
	"Ã³", "ó",
	"Ã´", "ô",
	"Ã¶", "ö",
	"Ãº", "ú",
	"Ã¼", "ü",
	"Ã‰", "É",
	"Ã\u00a0", "à",
	"Ã ", "à",
	"Â\u00a0", "\u00a0",
	"Â ", " ",
	"Â®", "®",
	"Â©", "©",
	"Â°", "°",
	"Â·", "·",
	"Â½", "½",
)

// Fix returns s with double-encoded sequences repaired. Text that is already
// clean comes back unchanged.
func Fix(s string) string {
	if isASCII(s) {
		return s
	}
	out := s
	for i := 0; i < MaxPasses; i++ {
		next := reencodeRuns(out)
		if next == out {
			break
		}
		out = next
	}
	return residual.Replace(out)
}

// Changed reports whether Fix would alter s, returning the repaired text.
func Changed(s string) (string, bool) {
	fixed := Fix(s)
	return fixed, fixed != s
}

// reencodeRuns undoes one layer of mojibake on each maximal run of non-ASCII
// runes, so correct accented text elsewhere in the string does not block the
// repair.
func reencodeRuns(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	start := -1
	flush := func(end int) {
		if start < 0 {
			return
		}
		b.WriteString(reencode(s[start:end]))
		start = -1
	}
	for i, r := range s {
		if r < utf8.RuneSelf {
			flush(i)
			b.WriteRune(r)
			continue
		}
		if start < 0 {
			start = i
		}
	}
	flush(len(s))
	return b.String()
}

// reencode maps run back to the bytes it was decoded from. The result is kept
// only if those bytes are valid UTF-8 and shorter in runes, which is what
// undoing a wrong decode looks like.
func reencode(run string) string {
	raw, err := charmap.Windows1252.NewEncoder().String(run)
	if err != nil || !utf8.ValidString(raw) {
		return run
	}
	if strings.ContainsRune(raw, utf8.RuneError) || utf8.RuneCountInString(raw) >= utf8.RuneCountInString(run) {
		return run
	}
	return raw
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
