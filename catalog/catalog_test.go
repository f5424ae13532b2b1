package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEmbedded(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)
	require.NotEmpty(t, c.All())

	th, ok := c.Get("Sci-Fi")
	require.True(t, ok)
	assert.Equal(t, "sci-fi", th.Slug)

	_, ok = c.Get("nope")
	assert.False(t, ok)
}

func TestMatch(t *testing.T) {
	c := MustLoad()

	slugs := func(ts []Theme) []string {
		var out []string
		for _, t := range ts {
			out = append(out, t.Slug)
		}
		return out
	}

	assert.Equal(t, []string{"horror"}, slugs(c.Match("Haunted Asylum", nil)))
	assert.Equal(t, []string{"mystery", "heist"}, slugs(c.Match("Murder Mystery", []string{"Bank Vault"})))
	assert.Equal(t, []string{"sci-fi"}, slugs(c.Match("", []string{"Time Travel"})))
	// "spaceship" must not match "space" by substring alone and vice versa.
	assert.Empty(t, c.Match("Spacesuit Fitting", nil))
	assert.Empty(t, c.Match("", nil))
}

func TestParseRejectsBadCatalogs(t *testing.T) {
	_, err := Parse([]byte("themes:\n  - slug: a\n    name: A\n    keywords: [x]\n  - slug: a\n    name: B\n    keywords: [y]\n"))
	assert.ErrorContains(t, err, "duplicate")

	_, err = Parse([]byte("themes:\n  - slug: a\n    name: A\n"))
	assert.ErrorContains(t, err, "no keywords")

	_, err = Parse([]byte("themes: [[["))
	assert.Error(t, err)
}

func TestPatterns(t *testing.T) {
	th := Theme{Keywords: []string{"wild-west", "egypt"}}
	assert.Equal(t, []string{"%wild%west%", "%egypt%"}, th.Patterns())
}
