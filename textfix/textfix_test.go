package textfix

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFix(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"ascii", "Lock & Key", "Lock & Key"},
		{"clean accents", "Café Noël’s", "Café Noël’s"},
		{"apostrophe", "Itâ€™s a trap", "It’s a trap"},
		{"quotes", "â€œEnterâ€\u009d", "“Enter”"},
		{"accent", "CafÃ©", "Café"},
		{"triple encoded", "CafÃƒÂ©", "Café"},
		{"mixed clean and broken", "Café â€” open late", "Café — open late"},
		{"lost nbsp", "Ã  la carte", "à la carte"},
		{"dangling quote", "Donâ€t", "Don”t"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Fix(tt.in))
		})
	}
}

func TestFixIsIdempotent(t *testing.T) {
	for _, s := range []string{"Itâ€™s", "CafÃƒÂ©", "naÃ¯ve rÃ©sumÃ©", "São Paulo"} {
		once := Fix(s)
		assert.Equal(t, once, Fix(once), s)
	}
}

func TestChanged(t *testing.T) {
	fixed, ok := Changed("rÃ©sumÃ©")
	assert.True(t, ok)
	assert.Equal(t, "résumé", fixed)

	_, ok = Changed("résumé")
	assert.False(t, ok)
}

func TestFixRow(t *testing.T) {
	row := map[string]interface{}{
		"id":          int64(3),
		"name":        "Puzzle Haus",
		"description": []byte("Itâ€™s spooky"),
		"city":        nil,
	}
	got := fixRow(row, []string{"name", "description", "city"})
	assert.Equal(t, map[string]interface{}{"description": "It’s spooky"}, got)
}
