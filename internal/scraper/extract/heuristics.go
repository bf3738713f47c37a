// Package extract turns a rendered profile page into a models.ProfileRecord.
package extract

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"malt-scraper/internal/scraper/vocabulary"
	"malt-scraper/pkg/models"
	"malt-scraper/pkg/utils"
)

var (
	whitespace      = regexp.MustCompile(`\s+`)
	skillSeparator  = regexp.MustCompile(`[,\s]+`)
	separatorLine   = regexp.MustCompile(`^[\s\-–—]*$`)
	numberLine      = regexp.MustCompile(`^\s*\d+\s*$`)
	yearPattern     = regexp.MustCompile(`\d{4}`)
	headlineInTitle = regexp.MustCompile(`,\s*([^,]+)`)
)

// Heuristics are the text rules applied to raw page content
type Heuristics struct {
	vocab *vocabulary.Vocabulary
}

// NewHeuristics binds the rules to a vocabulary; nil means the embedded one
func NewHeuristics(v *vocabulary.Vocabulary) *Heuristics {
	if v == nil {
		v = vocabulary.Default()
	}
	return &Heuristics{vocab: v}
}

func cleanText(s string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}

// NormalizeSkills cleans free-text skill tags: noise tags are dropped, a tag
// found in the synonym table is replaced whole, any other tag is split on
// commas and whitespace and each fragment longer than one character is mapped
// on its own. The result is deduplicated in first-seen order.
func (h *Heuristics) NormalizeSkills(tags []string) []string {
	var out []string
	for _, raw := range tags {
		tag := cleanText(raw)
		if h.vocab.IsNoise(tag) {
			continue
		}
		if canonical, ok := h.vocab.Canonical(tag); ok {
			out = append(out, canonical)
			continue
		}
		for _, fragment := range skillSeparator.Split(tag, -1) {
			if utf8.RuneCountInString(fragment) <= 1 {
				continue
			}
			if canonical, ok := h.vocab.Canonical(fragment); ok {
				fragment = canonical
			}
			out = append(out, fragment)
		}
	}
	return utils.DedupeStrings(out)
}

// RawExperience is one work-history block as found on the page
type RawExperience struct {
	Company string `json:"company"`
	Title   string `json:"title"`
	Text    string `json:"text"`
}

// ParseExperience recovers company, title, period and description from a block.
// ok is false when the block has neither company nor title, or neither period nor description.
func (h *Heuristics) ParseExperience(raw RawExperience) (models.Experience, bool) {
	p := h.vocab.Patterns()
	company := strings.TrimSpace(raw.Company)
	title := strings.TrimSpace(raw.Title)

	period := ""
	if p.Period != nil {
		period = strings.TrimSpace(p.Period.FindString(raw.Text))
	}

	lines := experienceLines(raw.Text)

	if (company == "" || title == "") && len(lines) > 0 {
		first := lines[0]
		if title == "" && h.vocab.HasTitleKeyword(first) {
			title = first
		} else if company == "" {
			company = first
			if len(lines) > 1 && title == "" && h.vocab.HasTitleKeyword(lines[1]) {
				title = lines[1]
			}
		}
	}

	company, title = stripOverlap(company, title)

	start := max(indexOf(lines, company)+1, indexOf(lines, title)+1)
	if period != "" {
		start = max(start, indexContaining(lines, period)+1)
	}

	var description []string
	for _, line := range lines[min(start, len(lines)):] {
		if period != "" && strings.Contains(line, period) {
			continue
		}
		if line == company || line == title {
			continue
		}
		if p.MonthLine != nil && p.MonthLine.MatchString(line) {
			continue
		}
		description = append(description, line)
	}

	if company == "" && title == "" {
		return models.Experience{}, false
	}
	if period == "" && len(description) == 0 {
		return models.Experience{}, false
	}

	placeholder := h.vocab.Experience.Placeholder
	return models.Experience{
		Company:     utils.FirstNonEmpty(company, placeholder),
		Title:       utils.FirstNonEmpty(title, placeholder),
		Period:      period,
		Description: strings.Join(description, "\n"),
	}, true
}

// Experiences parses every block, drops repeats of (company, title, period)
// and orders the rest by most recent year.
func (h *Heuristics) Experiences(raws []RawExperience) []models.Experience {
	seen := make(map[[3]string]struct{})
	var out []models.Experience
	for _, raw := range raws {
		exp, ok := h.ParseExperience(raw)
		if !ok {
			continue
		}
		key := [3]string{exp.Company, exp.Title, exp.Period}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, exp)
	}
	SortExperiences(out)
	return out
}

// SortExperiences orders entries by the first 4-digit year of their period,
// descending. Entries without a year sort last; ties keep their order.
func SortExperiences(exps []models.Experience) {
	sort.SliceStable(exps, func(i, j int) bool {
		return PeriodYear(exps[i].Period) > PeriodYear(exps[j].Period)
	})
}

// PeriodYear returns the first 4-digit number in period, or 0
func PeriodYear(period string) int {
	m := yearPattern.FindString(period)
	if m == "" {
		return 0
	}
	y, _ := strconv.Atoi(m)
	return y
}

// DedupeEducation drops empty entries and keeps the first of each degree|school|year key
func DedupeEducation(entries []models.Education) []models.Education {
	seen := make(map[string]struct{}, len(entries))
	out := make([]models.Education, 0, len(entries))
	for _, e := range entries {
		e = models.Education{Degree: cleanText(e.Degree), School: cleanText(e.School), Year: cleanText(e.Year)}
		if e.Degree == "" && e.School == "" && e.Year == "" {
			continue
		}
		if _, ok := seen[e.Key()]; ok {
			continue
		}
		seen[e.Key()] = struct{}{}
		out = append(out, e)
	}
	return out
}

// Locations returns the distinct known places mentioned in text, in order of appearance
func (h *Heuristics) Locations(text string) []string {
	re := h.vocab.Patterns().Location
	if re == nil {
		return nil
	}
	return utils.DedupeStrings(re.FindAllString(text, -1))
}

// Rate returns the first "number currency / period" mention in text
func (h *Heuristics) Rate(text string) string {
	re := h.vocab.Patterns().Rate
	if re == nil {
		return ""
	}
	return strings.TrimSpace(re.FindString(text))
}

// Languages returns the distinct language mentions in text with their optional level
func (h *Heuristics) Languages(text string) []models.Language {
	re := h.vocab.Patterns().Language
	if re == nil {
		return nil
	}

	matches := utils.DedupeStrings(re.FindAllString(text, -1))
	out := make([]models.Language, 0, len(matches))
	for _, m := range matches {
		name, level, found := strings.Cut(m, ":")
		lang := models.Language{Name: strings.TrimSpace(name)}
		if found {
			l := strings.TrimSpace(level)
			lang.Level = &l
		}
		out = append(out, lang)
	}
	return out
}

// HeadlineFromTitle returns the part of a document title after its first comma
func HeadlineFromTitle(title string) string {
	m := headlineInTitle.FindStringSubmatch(title)
	if m == nil {
		return ""
	}
	return cleanText(m[1])
}

func experienceLines(text string) []string {
	var lines []string
	for _, l := range strings.Split(text, "\n") {
		l = strings.TrimSpace(l)
		if utf8.RuneCountInString(l) <= 2 || separatorLine.MatchString(l) || numberLine.MatchString(l) {
			continue
		}
		lines = append(lines, l)
	}
	return lines
}

// stripOverlap removes one from the other when one contains the other, ignoring case
func stripOverlap(company, title string) (string, string) {
	if company == "" || title == "" {
		return company, title
	}
	if strings.Contains(strings.ToLower(company), strings.ToLower(title)) {
		company = removeFold(company, title)
	}
	if company != "" && strings.Contains(strings.ToLower(title), strings.ToLower(company)) {
		title = removeFold(title, company)
	}
	return company, title
}

func removeFold(s, sub string) string {
	re := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(sub))
	loc := re.FindStringIndex(s)
	if loc == nil {
		return s
	}
	return strings.TrimSpace(s[:loc[0]] + s[loc[1]:])
}

func indexOf(lines []string, s string) int {
	if s == "" {
		return -1
	}
	for i, l := range lines {
		if l == s {
			return i
		}
	}
	return -1
}

func indexContaining(lines []string, s string) int {
	for i, l := range lines {
		if strings.Contains(l, s) {
			return i
		}
	}
	return -1
}
