package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"malt-scraper/pkg/models"
	"malt-scraper/pkg/utils"
)

// Profile page selectors read field by field
const (
	selFullName       = ".profile-headline-read-fullname"
	selHeadline       = ".profile-headline-read-headline"
	selDailyRate      = ".block-list__price"
	selResponseRate   = "[data-testid='answer-rate-indicator'] .profile-indicators-content"
	selExperienceLvl  = "[data-testid='profile-level-indicator'] .profile-indicators-content"
	selPhoto          = ".profile-photo_wrapper img"
	selTopSkills      = "[data-testid='profile-main-skill-set-top-skills-list'] .profile-edition__skills_item__tag__link__content"
	selSkills         = "[data-testid='profile-main-skill-set-selected-skills-list'] .profile-edition__skills_item__tag__link__content"
	selLocation       = "[data-testid='profile-location-preference-address']"
	selWorkLocations  = ".profile-workplace-preferences__item li"
	selExpertise      = ".profile-skills-read-only .profile-edition__skills_item__tag__link__content"
	selCertifications = ".profile-certifications__list-item__main-content-title"
	selAvailability   = ".joy-availability"
	selLanguages      = ".profile-languages__item__title"
	selCategories     = ".categories__list-item .joy-link__text"
	selMissions       = ".profile-experiences__list-item"
	selDescription    = "[data-testid='profile-description']"

	availabilityConfirmed = "Disponibilité confirmée"
)

// DOMStrategy reads the profile from page markup, one selector per field.
// A missing field degrades to its zero value and never fails the whole pass.
type DOMStrategy struct {
	heuristics *Heuristics
}

func NewDOMStrategy(h *Heuristics) *DOMStrategy {
	return &DOMStrategy{heuristics: h}
}

// Extract parses html. Only unparseable markup is an error.
func (d *DOMStrategy) Extract(html string) (*models.ProfileRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page markup: %w", err)
	}

	rec := &models.ProfileRecord{
		FullName:         firstText(doc, selFullName),
		Title:            firstText(doc, selHeadline),
		DailyRate:        firstText(doc, selDailyRate),
		ResponseRate:     firstText(doc, selResponseRate),
		ExperienceLevel:  firstText(doc, selExperienceLvl),
		Description:      firstText(doc, selDescription),
		Categories:       allText(doc, selCategories),
		TopSkills:        d.heuristics.NormalizeSkills(allText(doc, selTopSkills)),
		Skills:           d.heuristics.NormalizeSkills(allText(doc, selSkills)),
		WorkLocations:    allText(doc, selWorkLocations),
		ExpertiseDomains: allText(doc, selExpertise),
		Location:         strings.Join(allText(doc, selLocation), ", "),
		MissionsCount:    doc.Find(selMissions).Length(),
	}

	if src, ok := doc.Find(selPhoto).First().Attr("src"); ok {
		rec.ImageURL = strings.TrimSpace(src)
	}

	if avail := doc.Find(selAvailability).First(); avail.Length() > 0 {
		title, _ := avail.Attr("title")
		confirmed := strings.TrimSpace(title) == availabilityConfirmed
		rec.Availability = &confirmed
	}

	for _, name := range allText(doc, selLanguages) {
		rec.Languages = append(rec.Languages, models.Language{Name: name})
	}

	for _, name := range allText(doc, selCertifications) {
		rec.Certifications = append(rec.Certifications, models.Certification{Name: name})
	}

	return rec, nil
}

func firstText(doc *goquery.Document, selector string) string {
	return cleanText(doc.Find(selector).First().Text())
}

// allText returns the distinct non-empty texts of every match, in document order
func allText(doc *goquery.Document, selector string) []string {
	var out []string
	doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		out = append(out, cleanText(s.Text()))
	})
	return utils.DedupeStrings(out)
}
