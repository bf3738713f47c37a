package extract

import (
	"context"
	"fmt"
	"strings"

	"malt-scraper/internal/scraper/browser"
	"malt-scraper/pkg/models"
	"malt-scraper/pkg/utils"
)

// pageScript gathers the raw page text in one pass. Interpretation happens in Go.
const pageScript = `() => {
	const text = (el) => el ? (el.innerText || el.textContent || '').trim() : '';
	const first = (root, selectors) => {
		for (const sel of selectors) {
			const el = root.querySelector(sel);
			if (el) return (el.textContent || '').trim();
		}
		return '';
	};

	const dump = {
		h1: text(document.querySelector('h1')),
		h2: text(document.querySelector('h2')),
		title: document.title || '',
		body_text: document.body ? document.body.innerText : '',
		descriptions: [],
		skill_tags: [],
		experiences: [],
		education: [],
		availability: '',
	};

	document.querySelectorAll('p, [class*="description"], [class*="about"]').forEach((el) => {
		const t = text(el);
		if (t.length > 50 && !t.includes('€') && !t.includes('cookie')) dump.descriptions.push(t);
	});

	document.querySelectorAll('[class*="skill"], [class*="tag"], [class*="competence"]').forEach((el) => {
		const t = text(el);
		if (t) dump.skill_tags.push(t);
	});

	const companySel = ['[class*="company"]', '[class*="entreprise"]', '[class*="organization"]',
		'[class*="client"]', '[class*="employer"]', '[class*="workplace"]'];
	const titleSel = ['[class*="title"]', '[class*="poste"]', '[class*="role"]',
		'[class*="position"]', '[class*="job"]', '[class*="fonction"]'];
	document.querySelectorAll('.profile-experiences-item, .profile-experience, [class*="experience-item"], [class*="mission-item"], [class*="parcours"]').forEach((item) => {
		dump.experiences.push({
			company: first(item, companySel),
			title: first(item, titleSel),
			text: item.innerText || item.textContent || '',
		});
	});

	document.querySelectorAll('[class*="education"], [class*="formation"]').forEach((edu) => {
		dump.education.push({
			degree: first(edu, ['[class*="degree"]', '[class*="diplome"]']),
			school: first(edu, ['[class*="school"]', '[class*="etablissement"]']),
			year: first(edu, ['[class*="year"]', '[class*="annee"]']),
		});
	});

	const avail = document.querySelector('.joy-availability');
	if (avail) dump.availability = avail.getAttribute('title') || '';

	return dump;
}`

// pageDump is the decoded result of pageScript
type pageDump struct {
	H1           string             `json:"h1"`
	H2           string             `json:"h2"`
	Title        string             `json:"title"`
	BodyText     string             `json:"body_text"`
	Descriptions []string           `json:"descriptions"`
	SkillTags    []string           `json:"skill_tags"`
	Experiences  []RawExperience    `json:"experiences"`
	Education    []models.Education `json:"education"`
	Availability string             `json:"availability"`
}

// ScriptStrategy collects raw text in-page and applies the text heuristics to it
type ScriptStrategy struct {
	heuristics *Heuristics
}

func NewScriptStrategy(h *Heuristics) *ScriptStrategy {
	return &ScriptStrategy{heuristics: h}
}

// Extract runs the collection script on session
func (s *ScriptStrategy) Extract(ctx context.Context, session browser.Session) (*models.ProfileRecord, error) {
	var dump pageDump
	if err := session.ExecuteScript(ctx, pageScript, &dump); err != nil {
		return nil, fmt.Errorf("failed to run extraction script: %w", err)
	}
	return s.interpret(dump), nil
}

// interpret turns a dump into a record
func (s *ScriptStrategy) interpret(dump pageDump) *models.ProfileRecord {
	h := s.heuristics

	rec := &models.ProfileRecord{
		FullName:   cleanText(dump.H1),
		Title:      HeadlineFromTitle(dump.Title),
		Skills:     h.NormalizeSkills(dump.SkillTags),
		Experience: h.Experiences(dump.Experiences),
		Education:  DedupeEducation(dump.Education),
		Location:   strings.Join(h.Locations(dump.BodyText), ", "),
		DailyRate:  h.Rate(dump.BodyText),
		Languages:  h.Languages(dump.BodyText),
	}
	if rec.Title == "" {
		rec.Title = cleanText(dump.H2)
	}

	var paragraphs []string
	for _, d := range dump.Descriptions {
		paragraphs = append(paragraphs, cleanText(d))
	}
	rec.Description = strings.Join(utils.DedupeStrings(paragraphs), "\n\n")

	if dump.Availability != "" {
		confirmed := strings.TrimSpace(dump.Availability) == availabilityConfirmed
		rec.Availability = &confirmed
	}
	rec.MissionsCount = len(rec.Experience)

	return rec
}
