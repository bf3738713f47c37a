package main

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"malt-scraper/internal/profiles"
	"malt-scraper/internal/scraper/workers"
	"malt-scraper/pkg/models"
	"malt-scraper/pkg/utils"
)

func sampleResults() []workers.Result {
	return []workers.Result{
		{
			URL: "https://www.malt.fr/profile/jdoe",
			Result: &profiles.Result{
				Record:  &models.ProfileRecord{ProfileID: "jdoe", FullName: "Jane Doe", Skills: []string{"Go", "SQL"}},
				Message: profiles.MessageScraped,
			},
			Duration: 42 * time.Second,
		},
		{
			URL:      "https://www.malt.fr/profile/blocked",
			Err:      utils.NewAcquisitionError("consent_handled", utils.NewChallengeUnresolvedError(3), ""),
			Duration: time.Minute,
		},
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeJSON(&buf, sampleResults()))

	var out []jsonResult
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	require.Len(t, out, 2)

	assert.True(t, out[0].Status)
	assert.Equal(t, profiles.MessageScraped, out[0].Message)
	assert.False(t, out[1].Status)
	assert.Equal(t, utils.KindChallengeUnresolved, out[1].Kind)
	assert.Nil(t, out[1].Data)
}

func TestRenderResults(t *testing.T) {
	var buf bytes.Buffer
	renderResults(&buf, sampleResults())
	renderStats(&buf, workers.PoolStats{Processed: 2, Successful: 1, Failed: 1}, workers.CircuitClosed)

	text := buf.String()
	assert.Contains(t, text, "Jane Doe")
	assert.Contains(t, text, "challenge_unresolved")
	assert.Contains(t, text, "Bot challenge not passed")
	assert.Contains(t, text, "closed")
	assert.Equal(t, 1, countFailed(sampleResults()))
}

func TestRenderProfiles(t *testing.T) {
	var buf bytes.Buffer
	renderProfiles(&buf, []*models.Profile{
		{ProfileID: "jdoe", Status: models.ProfileStatusScrapped, Record: &models.ProfileRecord{FullName: "Jane Doe"}},
		{ProfileID: "pending", Status: models.ProfileStatusTodo},
	})

	text := buf.String()
	assert.Contains(t, text, "Jane Doe")
	assert.Contains(t, text, "SCRAPPED")
	assert.Contains(t, text, "pending")
}
