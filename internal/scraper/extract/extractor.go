package extract

import (
	"context"
	"errors"

	"malt-scraper/internal/logging"
	"malt-scraper/internal/scraper/browser"
	"malt-scraper/internal/scraper/vocabulary"
	"malt-scraper/pkg/models"
	"malt-scraper/pkg/utils"
)

// Landmarks are the fields a record cannot be accepted without: at least one must be set
type Landmarks struct {
	FullName string `json:"fullname"`
	Headline string `json:"headline"`
}

// LandmarkRecoverer reads the landmarks out of page markup when the selectors found neither
type LandmarkRecoverer interface {
	RecoverLandmarks(ctx context.Context, html, url string) (*Landmarks, error)
}

// Extractor runs both strategies on a ready page and merges their output.
// The DOM strategy wins field by field; the script strategy fills the gaps
// and alone supplies experience and education.
type Extractor struct {
	dom       *DOMStrategy
	script    *ScriptStrategy
	recoverer LandmarkRecoverer
	logger    logging.Logger
}

// New builds an extractor. recoverer may be nil.
func New(v *vocabulary.Vocabulary, recoverer LandmarkRecoverer, logger logging.Logger) *Extractor {
	h := NewHeuristics(v)
	return &Extractor{
		dom:       NewDOMStrategy(h),
		script:    NewScriptStrategy(h),
		recoverer: recoverer,
		logger:    logging.OrGlobal(logger),
	}
}

// Extract reads the record from session. Per-field failures degrade to empty values;
// only a page with neither full name nor headline fails, with a DataExtractionError.
func (e *Extractor) Extract(ctx context.Context, session browser.Session, profileID, profileURL string) (*models.ProfileRecord, error) {
	log := e.logger.WithContext(ctx).WithField("profile_id", profileID)

	html, err := session.HTML(ctx)
	if err != nil {
		log.Warn("Page markup unavailable, DOM strategy skipped", map[string]interface{}{"error": err.Error()})
	}

	dom := &models.ProfileRecord{}
	if html != "" {
		if rec, err := e.dom.Extract(html); err != nil {
			log.Warn("DOM strategy failed", map[string]interface{}{"error": err.Error()})
		} else {
			dom = rec
		}
	}

	script, err := e.script.Extract(ctx, session)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Warn("Script strategy failed", map[string]interface{}{"error": err.Error()})
		script = &models.ProfileRecord{}
	}

	rec := merge(dom, script)
	rec.ProfileID = profileID
	rec.ProfileURL = profileURL

	if rec.FullName == "" && rec.Title == "" {
		if err := e.recoverLandmarks(ctx, rec, html, profileURL); err != nil {
			return nil, err
		}
	}

	log.Info("Profile extracted", map[string]interface{}{
		"fullname":    rec.FullName,
		"skills":      len(rec.Skills),
		"experiences": len(rec.Experience),
		"education":   len(rec.Education),
	})
	return rec, nil
}

func (e *Extractor) recoverLandmarks(ctx context.Context, rec *models.ProfileRecord, html, url string) error {
	if e.recoverer == nil || html == "" {
		return utils.NewDataExtractionError("neither full name nor headline found", nil)
	}

	landmarks, err := e.recoverer.RecoverLandmarks(ctx, html, url)
	if err != nil {
		return utils.NewDataExtractionError("landmark recovery failed", err)
	}
	if landmarks == nil || (landmarks.FullName == "" && landmarks.Headline == "") {
		return utils.NewDataExtractionError("neither full name nor headline found", errors.New("recovery returned no landmarks"))
	}

	e.logger.Info("Landmarks recovered from markup", map[string]interface{}{"profile_id": rec.ProfileID})
	rec.FullName = cleanText(landmarks.FullName)
	rec.Title = cleanText(landmarks.Headline)
	return nil
}

// merge prefers each non-empty DOM field over its script counterpart
func merge(dom, script *models.ProfileRecord) *models.ProfileRecord {
	rec := *dom

	rec.FullName = utils.FirstNonEmpty(dom.FullName, script.FullName)
	rec.Title = utils.FirstNonEmpty(dom.Title, script.Title)
	rec.DailyRate = utils.FirstNonEmpty(dom.DailyRate, script.DailyRate)
	rec.Location = utils.FirstNonEmpty(dom.Location, script.Location)
	rec.Description = utils.FirstNonEmpty(dom.Description, script.Description)

	if len(rec.Skills) == 0 {
		rec.Skills = script.Skills
	}
	if len(rec.Languages) == 0 {
		rec.Languages = script.Languages
	}
	if rec.Availability == nil {
		rec.Availability = script.Availability
	}

	rec.Experience = script.Experience
	rec.Education = script.Education
	if rec.MissionsCount == 0 {
		rec.MissionsCount = script.MissionsCount
	}

	return normalizeEmpty(&rec)
}

// normalizeEmpty replaces nil lists with empty ones so records serialize as []
func normalizeEmpty(rec *models.ProfileRecord) *models.ProfileRecord {
	if rec.Categories == nil {
		rec.Categories = []string{}
	}
	if rec.WorkLocations == nil {
		rec.WorkLocations = []string{}
	}
	if rec.TopSkills == nil {
		rec.TopSkills = []string{}
	}
	if rec.Skills == nil {
		rec.Skills = []string{}
	}
	if rec.ExpertiseDomains == nil {
		rec.ExpertiseDomains = []string{}
	}
	if rec.Languages == nil {
		rec.Languages = []models.Language{}
	}
	if rec.Education == nil {
		rec.Education = []models.Education{}
	}
	if rec.Experience == nil {
		rec.Experience = []models.Experience{}
	}
	if rec.Certifications == nil {
		rec.Certifications = []models.Certification{}
	}
	return rec
}
