package browsertest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFakeSession_Selectors(t *testing.T) {
	ctx := context.Background()
	s := NewFakeSession("title").Set("h1", Visible("Jane"), Visible("Doe"))

	el, err := s.WaitForSelector(ctx, "h1", time.Second)
	require.NoError(t, err)
	text, err := el.Text(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Jane", text)

	all, err := s.WaitForAllSelectors(ctx, "h1", time.Second)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	missing, err := s.WaitForSelector(ctx, ".absent", time.Second)
	require.NoError(t, err)
	assert.Nil(t, missing)

	s.Clear("h1")
	el, err = s.WaitForSelector(ctx, "h1", time.Second)
	require.NoError(t, err)
	assert.Nil(t, el)

	assert.Equal(t, []string{"h1", "h1", ".absent", "h1"}, s.Waited())
}

func TestFakeSession_ScriptResultDecodes(t *testing.T) {
	s := NewFakeSession("")
	s.ScriptResult = map[string]interface{}{"h1": "Jane Doe", "skills": []string{"Go"}}

	var out struct {
		H1     string   `json:"h1"`
		Skills []string `json:"skills"`
	}
	require.NoError(t, s.ExecuteScript(context.Background(), "() => ({})", &out))
	assert.Equal(t, "Jane Doe", out.H1)
	assert.Equal(t, []string{"Go"}, out.Skills)
	assert.Equal(t, 1, s.Scripts())
}

func TestFakeSession_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewFakeSession("")
	assert.ErrorIs(t, s.Navigate(ctx, "https://www.malt.fr/profile/x"), context.Canceled)
	assert.Empty(t, s.Navigations())
}
