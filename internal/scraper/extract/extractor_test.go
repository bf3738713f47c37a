package extract

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"malt-scraper/internal/logging"
	"malt-scraper/internal/scraper/browser/browsertest"
	"malt-scraper/pkg/utils"
)

func loadFixture(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile("testdata/profile.html")
	require.NoError(t, err)
	return string(data)
}

func TestDOMStrategy_Fixture(t *testing.T) {
	rec, err := NewDOMStrategy(NewHeuristics(nil)).Extract(loadFixture(t))
	require.NoError(t, err)

	assert.Equal(t, "Jane Doe", rec.FullName)
	assert.Equal(t, "Développeur Go senior", rec.Title)
	assert.Equal(t, "650 €", rec.DailyRate)
	assert.Equal(t, "100%", rec.ResponseRate)
	assert.Equal(t, "8-15 ans", rec.ExperienceLevel)
	assert.Equal(t, "https://dam.malt.com/jdoe.jpg", rec.ImageURL)
	assert.Equal(t, []string{"Développement backend", "DevOps"}, rec.Categories)
	assert.Equal(t, "Paris, France, Lyon, France", rec.Location)
	assert.Equal(t, []string{"Télétravail", "Sur site"}, rec.WorkLocations)
	assert.Equal(t, []string{"Go", "Microsoft SQL Server"}, rec.TopSkills)
	assert.Equal(t, []string{"Project", "Management", "Control-M", "Go"}, rec.Skills)
	assert.Equal(t, []string{"Finance"}, rec.ExpertiseDomains)
	assert.Equal(t, "Développeuse backend depuis 2012.", rec.Description)
	assert.Equal(t, 2, rec.MissionsCount)

	require.NotNil(t, rec.Availability)
	assert.True(t, *rec.Availability)

	require.Len(t, rec.Languages, 2)
	assert.Equal(t, "Français", rec.Languages[0].Name)
	assert.Nil(t, rec.Languages[0].Level)

	require.Len(t, rec.Certifications, 1)
	assert.Equal(t, "CKA", rec.Certifications[0].Name)
	assert.Nil(t, rec.Certifications[0].Date)
	assert.Nil(t, rec.Certifications[0].Description)
}

func TestDOMStrategy_MissingFieldsDegrade(t *testing.T) {
	rec, err := NewDOMStrategy(NewHeuristics(nil)).Extract("<html><body><h1>nothing here</h1></body></html>")
	require.NoError(t, err)

	assert.Empty(t, rec.FullName)
	assert.Empty(t, rec.Skills)
	assert.Nil(t, rec.Availability)
	assert.Zero(t, rec.MissionsCount)
}

func TestExtractor_NormalizesDOMSkillTags(t *testing.T) {
	session := browsertest.NewFakeSession("")
	session.PageHTML = `<html><body>
<h1 class="profile-headline-read-fullname">Jane Doe</h1>
<div data-testid="profile-main-skill-set-top-skills-list">
  <span class="profile-edition__skills_item__tag__link__content">REST API</span>
  <span class="profile-edition__skills_item__tag__link__content">NOUVEAU</span>
</div>
<div data-testid="profile-main-skill-set-selected-skills-list">
  <span class="profile-edition__skills_item__tag__link__content">Control M</span>
  <span class="profile-edition__skills_item__tag__link__content">MSSQL Admin</span>
  <span class="profile-edition__skills_item__tag__link__content">REST API</span>
  <span class="profile-edition__skills_item__tag__link__content">C</span>
</div>
</body></html>`
	session.ScriptResult = map[string]interface{}{"skill_tags": []string{"Kubernetes"}}

	rec, err := New(nil, nil, logging.NewNop()).Extract(context.Background(), session, "jdoe", "")
	require.NoError(t, err)

	assert.Equal(t, []string{"Control-M", "Microsoft SQL Server", "Admin", "REST"}, rec.Skills)
	assert.Equal(t, []string{"REST"}, rec.TopSkills)
}

func scriptDump() map[string]interface{} {
	return map[string]interface{}{
		"h1":        "Jane Doe",
		"h2":        "Backend",
		"title":     "Jane Doe, Développeur Go senior | Malt",
		"body_text": "Paris, France\nTélétravail\n600€/jour\nAnglais : Courant",
		"descriptions": []string{
			"Développeuse backend depuis 2012, spécialisée dans les systèmes distribués.",
		},
		"skill_tags": []string{"Control M", "MSSQL Admin", "REST API", "NOUVEAU"},
		"experiences": []map[string]string{
			{"text": "Orange\navril 2015 - mai 2016"},
			{"text": "BNP Paribas\nConsultant SAP\nmars 2021 - présent"},
		},
		"education": []map[string]string{
			{"degree": "Master", "school": "EPITA", "year": "2012"},
			{"degree": "Master", "school": "EPITA", "year": "2012"},
		},
		"availability": "Disponible dans 2 semaines",
	}
}

func TestExtractor_MergesStrategies(t *testing.T) {
	session := browsertest.NewFakeSession("")
	session.PageHTML = loadFixture(t)
	session.ScriptResult = scriptDump()

	rec, err := New(nil, nil, logging.NewNop()).Extract(context.Background(), session, "jdoe", "https://www.malt.fr/profile/jdoe")
	require.NoError(t, err)

	assert.Equal(t, "jdoe", rec.ProfileID)
	assert.Equal(t, "https://www.malt.fr/profile/jdoe", rec.ProfileURL)
	// DOM wins where it found something
	assert.Equal(t, "Jane Doe", rec.FullName)
	assert.Equal(t, "650 €", rec.DailyRate)
	assert.Equal(t, []string{"Project", "Management", "Control-M", "Go"}, rec.Skills)
	assert.True(t, *rec.Availability)
	// script alone supplies these
	require.Len(t, rec.Experience, 2)
	assert.Equal(t, "BNP Paribas", rec.Experience[0].Company)
	assert.Len(t, rec.Education, 1)
}

func TestExtractor_ScriptFallback(t *testing.T) {
	session := browsertest.NewFakeSession("")
	session.PageHTML = "<html><body></body></html>"
	session.ScriptResult = scriptDump()

	rec, err := New(nil, nil, logging.NewNop()).Extract(context.Background(), session, "jdoe", "")
	require.NoError(t, err)

	assert.Equal(t, "Jane Doe", rec.FullName)
	assert.Equal(t, "Développeur Go senior | Malt", rec.Title)
	assert.Equal(t, []string{"Control-M", "Microsoft SQL Server", "Admin", "REST"}, rec.Skills)
	assert.Equal(t, "Paris, France, Télétravail", rec.Location)
	assert.Equal(t, "600€/jour", rec.DailyRate)
	require.NotNil(t, rec.Availability)
	assert.False(t, *rec.Availability)
	assert.Equal(t, 2, rec.MissionsCount)
	assert.NotNil(t, rec.Categories)
	assert.NotNil(t, rec.Certifications)
}

func TestExtractor_NoLandmarks(t *testing.T) {
	session := browsertest.NewFakeSession("")
	session.PageHTML = "<html><body><p>blocked</p></body></html>"
	session.ScriptResult = map[string]interface{}{"title": "Malt"}

	_, err := New(nil, nil, logging.NewNop()).Extract(context.Background(), session, "jdoe", "")
	require.Error(t, err)
	assert.True(t, utils.IsDataExtraction(err))
}

type stubRecoverer struct {
	landmarks *Landmarks
	err       error
	calls     int
}

func (s *stubRecoverer) RecoverLandmarks(ctx context.Context, html, url string) (*Landmarks, error) {
	s.calls++
	return s.landmarks, s.err
}

func TestExtractor_LandmarkRecovery(t *testing.T) {
	newSession := func() *browsertest.FakeSession {
		s := browsertest.NewFakeSession("")
		s.PageHTML = "<html><body><div>Jane Doe - Go</div></body></html>"
		s.ScriptErr = errors.New("script blocked")
		return s
	}

	t.Run("recovered", func(t *testing.T) {
		rec := &stubRecoverer{landmarks: &Landmarks{FullName: "Jane Doe", Headline: "Go"}}
		got, err := New(nil, rec, logging.NewNop()).Extract(context.Background(), newSession(), "jdoe", "")
		require.NoError(t, err)
		assert.Equal(t, "Jane Doe", got.FullName)
		assert.Equal(t, "Go", got.Title)
		assert.Equal(t, 1, rec.calls)
	})

	t.Run("recovery fails", func(t *testing.T) {
		rec := &stubRecoverer{err: errors.New("rate limited")}
		_, err := New(nil, rec, logging.NewNop()).Extract(context.Background(), newSession(), "jdoe", "")
		assert.True(t, utils.IsDataExtraction(err))
	})

	t.Run("recovery finds nothing", func(t *testing.T) {
		rec := &stubRecoverer{landmarks: &Landmarks{}}
		_, err := New(nil, rec, logging.NewNop()).Extract(context.Background(), newSession(), "jdoe", "")
		assert.True(t, utils.IsDataExtraction(err))
	})
}
