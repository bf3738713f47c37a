package scraper

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"malt-scraper/internal/logging"
	"malt-scraper/internal/scraper/browser"
	"malt-scraper/internal/scraper/browser/browsertest"
	"malt-scraper/internal/scraper/challenge"
	"malt-scraper/internal/scraper/consent"
	"malt-scraper/internal/scraper/extract"
	"malt-scraper/internal/scraper/pacing"
	"malt-scraper/internal/scraper/render"
	"malt-scraper/internal/scraper/vocabulary"
	"malt-scraper/pkg/utils"
)

const (
	profileURL      = "https://www.malt.fr/profile/jdoe"
	challengeMarker = "#challenge-running"
)

func readyPage(t *testing.T) *browsertest.FakeSession {
	t.Helper()
	html, err := os.ReadFile("extract/testdata/profile.html")
	require.NoError(t, err)

	session := browsertest.NewFakeSession("Jane Doe, Développeur Go senior | Malt").
		Set("h1", browsertest.Visible("Jane Doe")).
		Set(`[class*="skill"]`, browsertest.Visible("Go"))
	session.PageHTML = string(html)
	return session
}

func newTestOrchestrator(opener *browsertest.Opener, registry *browser.Registry, rec *pacing.Recorder) *Orchestrator {
	vocab := vocabulary.Default()
	jitter := pacing.NewSeeded(rec, 11)
	windows := pacing.DefaultProfile()
	log := logging.NewNop()

	waiter := render.NewWaiter(vocab.Landmarks.Title, vocab.Landmarks.Skill, 5*time.Second, jitter, windows.Settle, log)

	return NewOrchestrator(Deps{
		Opener:   opener.Open,
		Registry: registry,
		Consent:  consent.NewResolver(vocab.ConsentSelectors, 5*time.Second, jitter, windows.PostClick, log),
		Challenge: challenge.NewResolver(challenge.Options{
			Selectors:       vocab.ChallengeSelectors,
			MaxAttempts:     3,
			SelectorTimeout: 5 * time.Second,
			Wait:            windows.Challenge,
			Refresh:         windows.Refresh,
			Content:         waiter,
		}, jitter, log),
		Render:            waiter,
		Extractor:         extract.New(vocab, nil, log),
		Jitter:            jitter,
		Pacing:            windows,
		ContentTimeout:    30 * time.Second,
		ChallengeAttempts: 3,
	}, log)
}

func TestAcquire_Success(t *testing.T) {
	session := readyPage(t)
	opener := &browsertest.Opener{Session: session}
	registry := browser.NewRegistry(1, logging.NewNop())

	rec, err := newTestOrchestrator(opener, registry, &pacing.Recorder{}).
		Acquire(context.Background(), profileURL+"?ref=abc")
	require.NoError(t, err)

	assert.Equal(t, "jdoe", rec.ProfileID)
	assert.Equal(t, profileURL, rec.ProfileURL)
	assert.Equal(t, "Jane Doe", rec.FullName)
	assert.Equal(t, []string{"jdoe"}, opener.Calls())
	assert.Equal(t, []string{profileURL}, session.Navigations())
	assert.Contains(t, session.Screenshots(), "initial_page")
	assert.Empty(t, session.Snapshots())
	assert.Equal(t, 1, session.CloseCalls())
	assert.Zero(t, registry.Live())
}

func TestAcquire_InvalidURLNeverNavigates(t *testing.T) {
	session := readyPage(t)
	opener := &browsertest.Opener{Session: session}

	for _, url := range []string{
		"https://www.linkedin.com/in/jdoe",
		"http://www.malt.fr/profile/jdoe",
		"https://www.malt.fr/profile/",
		"not a url",
	} {
		_, err := newTestOrchestrator(opener, nil, &pacing.Recorder{}).Acquire(context.Background(), url)
		assert.True(t, utils.IsInvalidURL(err), url)
	}
	assert.Empty(t, opener.Calls())
	assert.Empty(t, session.Navigations())
}

func TestAcquire_ChallengeStillBlocked(t *testing.T) {
	session := readyPage(t).Set(challengeMarker, browsertest.Visible(""))
	opener := &browsertest.Opener{Session: session}

	_, err := newTestOrchestrator(opener, nil, &pacing.Recorder{}).Acquire(context.Background(), profileURL)
	require.Error(t, err)

	assert.True(t, utils.IsChallengeUnresolved(err))
	assert.True(t, utils.IsAcquisition(err))
	assert.Equal(t, utils.KindChallengeUnresolved, utils.ErrorKind(err))

	var acqErr *utils.AcquisitionError
	require.ErrorAs(t, err, &acqErr)
	assert.Equal(t, string(StageConsentHandled), acqErr.Stage)
	assert.Equal(t, "error_consent_handled.html", acqErr.Snapshot)
	assert.Equal(t, 2, session.Reloads())
	assert.Equal(t, 1, session.CloseCalls())
}

func TestAcquire_ChallengeClearsAfterWait(t *testing.T) {
	session := readyPage(t).Set(challengeMarker, browsertest.Visible(""))
	opener := &browsertest.Opener{Session: session}

	// the first sleep is post-navigation, the second the challenge wait
	rec := &pacing.Recorder{OnSleep: func(call int, d time.Duration) {
		if call == 2 {
			session.Clear(challengeMarker)
		}
	}}

	got, err := newTestOrchestrator(opener, nil, rec).Acquire(context.Background(), profileURL)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", got.FullName)
	assert.Zero(t, session.Reloads())
}

func TestAcquire_NavigationFailure(t *testing.T) {
	session := readyPage(t)
	session.NavigateErr = errors.New("net::ERR_NAME_NOT_RESOLVED")
	opener := &browsertest.Opener{Session: session}

	_, err := newTestOrchestrator(opener, nil, &pacing.Recorder{}).Acquire(context.Background(), profileURL)

	var acqErr *utils.AcquisitionError
	require.ErrorAs(t, err, &acqErr)
	assert.Equal(t, string(StageInit), acqErr.Stage)
	assert.Equal(t, utils.KindAcquisition, utils.ErrorKind(err))
	assert.Equal(t, []string{"error_init"}, session.Snapshots())
	assert.Equal(t, 1, session.CloseCalls())
}

func TestAcquire_NoLandmarks(t *testing.T) {
	session := browsertest.NewFakeSession("Malt")
	session.PageHTML = "<html><body><p>Page indisponible</p></body></html>"
	opener := &browsertest.Opener{Session: session}

	_, err := newTestOrchestrator(opener, nil, &pacing.Recorder{}).Acquire(context.Background(), profileURL)

	assert.True(t, utils.IsDataExtraction(err))
	var acqErr *utils.AcquisitionError
	require.ErrorAs(t, err, &acqErr)
	assert.Equal(t, string(StageContentReady), acqErr.Stage)
	assert.Equal(t, 1, session.CloseCalls())
}

func TestAcquire_SessionInitFailure(t *testing.T) {
	opener := &browsertest.Opener{Err: utils.NewSessionInitError(errors.New("chrome not found"))}
	registry := browser.NewRegistry(1, logging.NewNop())

	_, err := newTestOrchestrator(opener, registry, &pacing.Recorder{}).Acquire(context.Background(), profileURL)

	assert.True(t, utils.IsSessionInit(err))
	assert.False(t, utils.IsAcquisition(err))
	assert.Equal(t, int64(1), registry.Stats().Failed)
}

func TestAcquire_CancelledDuringConsent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	session := readyPage(t)
	opener := &browsertest.Opener{Session: session}
	rec := &pacing.Recorder{OnSleep: func(call int, d time.Duration) { cancel() }}

	_, err := newTestOrchestrator(opener, nil, rec).Acquire(ctx, profileURL)

	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, utils.IsAcquisition(err))
	assert.Len(t, session.Snapshots(), 1)
	assert.Equal(t, 1, session.CloseCalls())
}

type stageRecorder struct {
	stages []string
}

func (r *stageRecorder) Write(entry *logging.LogEntry) error {
	if stage, ok := entry.Fields["stage"].(string); ok && entry.Message == "Acquisition stage reached" {
		r.stages = append(r.stages, stage)
	}
	return nil
}

func (r *stageRecorder) Close() error  { return nil }
func (r *stageRecorder) Health() error { return nil }
func (r *stageRecorder) Name() string  { return "stages" }

func TestAcquire_WalksEveryStage(t *testing.T) {
	stages := &stageRecorder{}
	logger := logging.NewMultiLogger()
	logger.SetLevel(logging.DebugLevel)
	require.NoError(t, logger.AddAdapter(stages))

	o := newTestOrchestrator(&browsertest.Opener{Session: readyPage(t)}, nil, &pacing.Recorder{})
	o.logger = logger

	_, err := o.Acquire(context.Background(), profileURL)
	require.NoError(t, err)

	assert.Equal(t, []string{
		string(StageNavigated),
		string(StageConsentHandled),
		string(StageChallengeChecked),
		string(StageContentReady),
		string(StageExtracted),
		string(StageDone),
	}, stages.stages)
}
