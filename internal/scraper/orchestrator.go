package scraper

import (
	"context"
	"time"

	"malt-scraper/internal/logging"
	"malt-scraper/internal/scraper/browser"
	"malt-scraper/internal/scraper/challenge"
	"malt-scraper/internal/scraper/pacing"
	"malt-scraper/pkg/models"
	"malt-scraper/pkg/utils"
)

// Stage is a state of one acquisition
type Stage string

const (
	StageInit             Stage = "init"
	StageNavigated        Stage = "navigated"
	StageConsentHandled   Stage = "consent_handled"
	StageChallengeChecked Stage = "challenge_checked"
	StageContentReady     Stage = "content_ready"
	StageExtracted        Stage = "extracted"
	StageDone             Stage = "done"
)

// Deps are the collaborators of an Orchestrator. Registry is optional; without
// it sessions are opened directly and closed when the acquisition ends.
type Deps struct {
	Opener    browser.Opener
	Registry  *browser.Registry
	Consent   ConsentHandler
	Challenge ChallengeHandler
	Render    ContentWaiter
	Extractor ProfileExtractor
	Jitter    *pacing.Jitter
	Pacing    pacing.Profile

	ContentTimeout    time.Duration
	ChallengeAttempts int
}

// Orchestrator sequences navigation, consent, challenge, render wait and
// extraction on one exclusively owned session.
type Orchestrator struct {
	deps   Deps
	logger logging.Logger
}

var _ Acquirer = (*Orchestrator)(nil)

func NewOrchestrator(deps Deps, logger logging.Logger) *Orchestrator {
	if deps.Jitter == nil {
		deps.Jitter = pacing.New(nil)
	}
	return &Orchestrator{deps: deps, logger: logging.OrGlobal(logger)}
}

// Acquire fails fast with an InvalidURLError before any browser work. Every
// later failure comes back as an AcquisitionError wrapping the typed cause,
// after the page markup has been saved for diagnosis. The session is always
// closed.
func (o *Orchestrator) Acquire(ctx context.Context, rawURL string) (*models.ProfileRecord, error) {
	target, err := utils.ParseMaltProfileURL(rawURL)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	log := o.logger.WithContext(ctx).WithFields(map[string]interface{}{
		"profile_id": target.ProfileID,
		"url":        target.URL,
	})
	log.Info("Starting profile acquisition")

	session, release, err := o.openSession(ctx, target.ProfileID)
	if err != nil {
		log.Error("Browser session unavailable", map[string]interface{}{"error": err.Error()})
		if utils.IsSessionInit(err) {
			return nil, err
		}
		return nil, utils.NewAcquisitionError(string(StageInit), err, "")
	}
	defer release()

	stage := StageInit
	rec, err := o.run(ctx, session, target, &stage)
	if err != nil {
		// snapshot even when ctx expired
		snapshot := session.SaveHTML(context.WithoutCancel(ctx), "error_"+string(stage))
		log.Error("Profile acquisition failed", map[string]interface{}{
			"stage":    string(stage),
			"kind":     utils.ErrorKind(err),
			"error":    err.Error(),
			"snapshot": snapshot,
		})
		return nil, utils.NewAcquisitionError(string(stage), err, snapshot)
	}

	log.Info("Profile acquisition completed", map[string]interface{}{
		"fullname": rec.FullName,
		"duration": utils.FormatDuration(time.Since(start)),
	})
	return rec, nil
}

func (o *Orchestrator) run(ctx context.Context, session browser.Session, target *utils.MaltProfileURL, stage *Stage) (*models.ProfileRecord, error) {
	log := o.logger.WithContext(ctx).WithField("profile_id", target.ProfileID)

	if err := session.Navigate(ctx, target.URL); err != nil {
		return nil, err
	}
	advance(log, stage, StageNavigated)
	if _, err := o.deps.Jitter.Pause(ctx, o.deps.Pacing.PostNavigation); err != nil {
		return nil, err
	}
	session.Screenshot(ctx, "initial_page", false)

	if !o.deps.Consent.Resolve(ctx, session) {
		return nil, ctx.Err()
	}
	advance(log, stage, StageConsentHandled)

	outcome, err := o.deps.Challenge.AwaitPassage(ctx, session)
	if err != nil {
		return nil, err
	}
	if outcome == challenge.StillBlocked {
		session.Screenshot(ctx, "challenge_blocked", true)
		return nil, utils.NewChallengeUnresolvedError(o.deps.ChallengeAttempts)
	}
	advance(log, stage, StageChallengeChecked)

	if !o.deps.Render.WaitForContentReady(ctx, session, o.deps.ContentTimeout) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		// extraction decides whether what rendered is enough
		log.Warn("Content not confirmed ready, extracting anyway")
	}
	advance(log, stage, StageContentReady)
	session.Screenshot(ctx, "content_ready", true)

	rec, err := o.deps.Extractor.Extract(ctx, session, target.ProfileID, target.URL)
	if err != nil {
		return nil, err
	}
	advance(log, stage, StageExtracted)
	advance(log, stage, StageDone)
	return rec, nil
}

// advance moves the acquisition to next and records the transition
func advance(log logging.Logger, stage *Stage, next Stage) {
	log.Debug("Acquisition stage reached", map[string]interface{}{"from": string(*stage), "stage": string(next)})
	*stage = next
}

func (o *Orchestrator) openSession(ctx context.Context, profileID string) (browser.Session, func(), error) {
	if o.deps.Registry != nil {
		lease, err := o.deps.Registry.Acquire(ctx, profileID, o.deps.Opener)
		if err != nil {
			return nil, nil, err
		}
		return lease, lease.Release, nil
	}

	session, err := o.deps.Opener(ctx, profileID)
	if err != nil {
		return nil, nil, err
	}
	return session, func() { _ = session.Close() }, nil
}
