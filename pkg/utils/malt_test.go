package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMaltProfileURL(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		wantID string
		want   string
	}{
		{name: "query stripped", raw: "https://malt.fr/profile/jdoe?ref=abc", wantID: "jdoe", want: "https://malt.fr/profile/jdoe"},
		{name: "www host", raw: "https://www.malt.fr/profile/marie-curie", wantID: "marie-curie", want: "https://www.malt.fr/profile/marie-curie"},
		{name: "trailing slash", raw: "https://www.malt.fr/profile/jdoe/", wantID: "jdoe", want: "https://www.malt.fr/profile/jdoe"},
		{name: "fragment", raw: "https://www.malt.fr/profile/jdoe#skills", wantID: "jdoe", want: "https://www.malt.fr/profile/jdoe"},
		{name: "nested segment keeps last", raw: "https://www.malt.fr/profile/team/jdoe", wantID: "jdoe", want: "https://www.malt.fr/profile/team/jdoe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMaltProfileURL(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, got.ProfileID)
			assert.Equal(t, tt.want, got.URL)
		})
	}
}

func TestParseMaltProfileURL_Rejects(t *testing.T) {
	for _, raw := range []string{
		"",
		"http://www.malt.fr/profile/jdoe",
		"https://www.malt.com/profile/jdoe",
		"https://evil.example/https://www.malt.fr/profile/jdoe",
		"https://www.malt.fr/profile/",
		"https://www.malt.fr/profile",
		"https://www.malt.fr/search?q=go",
	} {
		t.Run(raw, func(t *testing.T) {
			_, err := ParseMaltProfileURL(raw)
			require.Error(t, err)
			assert.True(t, IsInvalidURL(err))
			assert.False(t, IsMaltProfileURL(raw))
		})
	}
}
