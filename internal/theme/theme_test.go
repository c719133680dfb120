package theme_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/chatwidget/internal/theme"
)

func TestAdjustColor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		hex   string
		delta int
		want  string
	}{
		{"default primary darkened", "#4A90E2", -20, "#367cce"},
		{"clamps at zero", "#0a0a0a", -20, "#000000"},
		{"clamps at 255", "#f0f0f0", 40, "#ffffff"},
		{"no hash", "4A90E2", 0, "#4a90e2"},
		{"short form", "#fff", -20, "#ebebeb"},
		{"alpha preserved", "#4A90E2CC", -20, "#367ccecc"},
		{"short alpha", "#fffa", -20, "#ebebebaa"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := theme.AdjustColor(tt.hex, tt.delta)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAdjustColorRejectsGarbage(t *testing.T) {
	t.Parallel()

	for _, hex := range []string{"", "#12", "#12345", "#zzzzzz", "blue"} {
		_, err := theme.AdjustColor(hex, 10)
		assert.Error(t, err, hex)
	}
}

func TestThemeCSS(t *testing.T) {
	t.Parallel()

	th, err := theme.New("#4A90E2")
	require.NoError(t, err)
	assert.Equal(t, "#367cce", th.Hover)

	css := th.CSS()
	assert.Contains(t, css, "background-color: #4A90E2;")
	assert.Contains(t, css, ".ai-chatbot-button:hover {\n  background-color: #367cce;")
}
