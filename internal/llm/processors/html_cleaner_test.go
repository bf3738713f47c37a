package processors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const page = `<html><head><title>Jane Doe, Développeuse Go | Malt</title>
<script>window.__STATE__ = {};</script><style>.a{}</style></head>
<body>
<nav>Accueil Missions</nav>
<!-- header -->
<main>
  <div class="profile-headline" onclick="track()" data-x="1">
    <h1 class="profile-headline-read-fullname">Jane   Doe</h1>
    <p class="profile-headline-read-headline">Développeuse Go</p>
    <span></span>
  </div>
</main>
<footer>Mentions légales</footer>
</body></html>`

func TestCleanHTML(t *testing.T) {
	got, err := NewHTMLCleaner().CleanHTML(page)
	require.NoError(t, err)

	assert.NotContains(t, got, "__STATE__")
	assert.NotContains(t, got, "Accueil")
	assert.NotContains(t, got, "Mentions")
	assert.NotContains(t, got, "<!--")
	assert.NotContains(t, got, "onclick")
	assert.NotContains(t, got, "data-x")
	assert.NotContains(t, got, "<span>")
	assert.Contains(t, got, `class="profile-headline-read-fullname"`)
	assert.Contains(t, got, "Jane Doe")
}

func TestExtractProfileContent(t *testing.T) {
	got, err := NewHTMLCleaner().ExtractProfileContent(page)
	require.NoError(t, err)

	assert.Contains(t, got, "Page title: Jane Doe, Développeuse Go | Malt")
	assert.Contains(t, got, "Jane Doe Développeuse Go")
	assert.NotContains(t, got, "Mentions")
}

func TestExtractProfileContent_FallsBackToBody(t *testing.T) {
	got, err := NewHTMLCleaner().ExtractProfileContent(`<html><body><div>Jane Doe - Go</div></body></html>`)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe - Go", got)
}
