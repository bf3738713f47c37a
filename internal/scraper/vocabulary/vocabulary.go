// Package vocabulary holds the selector lists and word tables the pipeline
// matches pages against. The defaults are embedded; a YAML file can replace them.
package vocabulary

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

//go:embed vocabulary.yaml
var embedded []byte

// Vocabulary is the externalized data of the pipeline
type Vocabulary struct {
	ConsentSelectors   []string `yaml:"consent_selectors"`
	ChallengeSelectors []string `yaml:"challenge_selectors"`

	Landmarks struct {
		Title []string `yaml:"title"`
		Skill []string `yaml:"skill"`
	} `yaml:"landmarks"`

	Skills struct {
		MaxLength int               `yaml:"max_length"`
		Noise     []string          `yaml:"noise"`
		Synonyms  map[string]string `yaml:"synonyms"`
	} `yaml:"skills"`

	Experience struct {
		Placeholder   string   `yaml:"placeholder"`
		TitleKeywords []string `yaml:"title_keywords"`
		Months        []string `yaml:"months"`
		Present       []string `yaml:"present"`
	} `yaml:"experience"`

	Locations struct {
		Places  []string `yaml:"places"`
		Country string   `yaml:"country"`
	} `yaml:"locations"`

	Rate struct {
		Currencies []string `yaml:"currencies"`
		Periods    []string `yaml:"periods"`
	} `yaml:"rate"`

	Languages struct {
		Names  []string `yaml:"names"`
		Levels []string `yaml:"levels"`
	} `yaml:"languages"`

	compiled *Patterns
}

// Patterns are the regular expressions derived from a vocabulary
type Patterns struct {
	// Period matches "mars 2021 - présent (3 ans)" style ranges
	Period *regexp.Regexp
	// MonthLine matches lines starting with a month name
	MonthLine *regexp.Regexp
	Location  *regexp.Regexp
	Rate      *regexp.Regexp
	Language  *regexp.Regexp
	// synonym lookup where canonical values also map to themselves
	canonical map[string]string
}

var (
	defaultOnce  sync.Once
	defaultVocab *Vocabulary
)

// Default returns the embedded vocabulary. It panics if the embedded file is invalid.
func Default() *Vocabulary {
	defaultOnce.Do(func() {
		v, err := Parse(embedded)
		if err != nil {
			panic(fmt.Sprintf("embedded vocabulary is invalid: %v", err))
		}
		defaultVocab = v
	})
	return defaultVocab
}

// Load reads a vocabulary file; an empty path returns Default
func Load(path string) (*Vocabulary, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read vocabulary %s: %w", path, err)
	}
	v, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("vocabulary %s: %w", path, err)
	}
	return v, nil
}

// Parse decodes, validates and compiles a vocabulary
func Parse(data []byte) (*Vocabulary, error) {
	v := &Vocabulary{}
	if err := yaml.Unmarshal(data, v); err != nil {
		return nil, fmt.Errorf("failed to parse vocabulary: %w", err)
	}
	if err := v.Compile(); err != nil {
		return nil, err
	}
	return v, nil
}

// Compile validates v and builds its patterns. Vocabularies built in code must call it before use.
func (v *Vocabulary) Compile() error {
	if err := v.validate(); err != nil {
		return err
	}

	p := &Patterns{canonical: make(map[string]string, 2*len(v.Skills.Synonyms))}
	for from, to := range v.Skills.Synonyms {
		p.canonical[from] = to
		p.canonical[to] = to
	}

	var err error
	if len(v.Experience.Months) > 0 {
		months := alternation(v.Experience.Months)
		ends := alternation(append(append([]string{}, v.Experience.Months...), v.Experience.Present...))
		p.Period, err = regexp.Compile(`(?i)(` + months + `)\s+(\d{4})\s*-\s*(` + ends + `)\s*(\d{4})?\s*(?:\((.*?)\))?`)
		if err != nil {
			return fmt.Errorf("failed to compile period pattern: %w", err)
		}
		p.MonthLine = regexp.MustCompile(`(?i)^(?:` + months + `)`)
	}

	if len(v.Locations.Places) > 0 {
		expr := `(?:` + alternation(v.Locations.Places) + `)`
		if v.Locations.Country != "" {
			expr += `(?:,\s*` + regexp.QuoteMeta(v.Locations.Country) + `)?`
		}
		p.Location = regexp.MustCompile(expr)
	}

	if len(v.Rate.Currencies) > 0 && len(v.Rate.Periods) > 0 {
		p.Rate = regexp.MustCompile(`(?i)\d+\s*(?:` + alternation(v.Rate.Currencies) + `)\s*/\s*(?:` + alternation(v.Rate.Periods) + `)`)
	}

	if len(v.Languages.Names) > 0 {
		expr := `(?i)(?:` + alternation(v.Languages.Names) + `)`
		if len(v.Languages.Levels) > 0 {
			expr += `(?:\s*:\s*(?:` + alternation(v.Languages.Levels) + `))?`
		}
		p.Language = regexp.MustCompile(expr)
	}

	v.compiled = p
	return nil
}

// Patterns returns the compiled patterns, compiling on first use
func (v *Vocabulary) Patterns() *Patterns {
	if v.compiled == nil {
		if err := v.Compile(); err != nil {
			panic(err)
		}
	}
	return v.compiled
}

// Canonical maps a whole skill tag through the synonym table
func (v *Vocabulary) Canonical(tag string) (string, bool) {
	c, ok := v.Patterns().canonical[tag]
	return c, ok
}

// IsNoise reports whether a raw skill tag is a section label or too long to be a skill
func (v *Vocabulary) IsNoise(tag string) bool {
	if tag == "" {
		return true
	}
	if v.Skills.MaxLength > 0 && utf8.RuneCountInString(tag) >= v.Skills.MaxLength {
		return true
	}
	for _, n := range v.Skills.Noise {
		if strings.Contains(tag, n) {
			return true
		}
	}
	return false
}

// HasTitleKeyword reports whether line looks like a job title
func (v *Vocabulary) HasTitleKeyword(line string) bool {
	lower := strings.ToLower(line)
	for _, k := range v.Experience.TitleKeywords {
		if strings.Contains(lower, strings.ToLower(k)) {
			return true
		}
	}
	return false
}

// validate rejects synonym tables that would make normalization unstable
func (v *Vocabulary) validate() error {
	for from, to := range v.Skills.Synonyms {
		if strings.TrimSpace(from) == "" || strings.TrimSpace(to) == "" {
			return fmt.Errorf("synonym %q -> %q has an empty side", from, to)
		}
		if next, ok := v.Skills.Synonyms[to]; ok && next != to {
			return fmt.Errorf("synonym target %q is itself mapped to %q", to, next)
		}
		if v.IsNoise(to) {
			return fmt.Errorf("synonym target %q would be discarded as noise", to)
		}
	}
	return nil
}

// alternation quotes words into a regexp alternation, longest first so that
// shorter prefixes never shadow longer words
func alternation(words []string) string {
	sorted := make([]string, 0, len(words))
	for _, w := range words {
		if w != "" {
			sorted = append(sorted, w)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return utf8.RuneCountInString(sorted[i]) > utf8.RuneCountInString(sorted[j])
	})

	quoted := make([]string, len(sorted))
	for i, w := range sorted {
		quoted[i] = regexp.QuoteMeta(w)
	}
	return strings.Join(quoted, "|")
}
