package processors

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	commentRegex    = regexp.MustCompile(`<!--[\s\S]*?-->`)
	whitespaceRegex = regexp.MustCompile(`\s+`)
	blankLinesRegex = regexp.MustCompile(`\n{3,}`)
)

// HTMLCleaner strips a profile page down to what a model needs to read
type HTMLCleaner struct {
	// Tags to remove completely
	removeTags []string
	// Attributes to keep (others will be removed)
	keepAttributes map[string]bool
	// Containers likely to hold the profile header
	profileSelectors []string
}

func NewHTMLCleaner() *HTMLCleaner {
	return &HTMLCleaner{
		removeTags: []string{
			"script", "style", "noscript", "iframe", "object", "embed",
			"form", "input", "button", "select", "textarea",
			"nav", "footer", "aside", "menu",
			"svg", "path", "meta", "link", "base",
		},
		keepAttributes: map[string]bool{
			"class": true, "id": true, "data-testid": true, "aria-label": true, "title": true,
		},
		profileSelectors: []string{
			"main", "[role='main']", "h1", "h2",
			"[class*='profile-headline']", "[class*='profile-header']",
			"[data-testid*='profile']", "[class*='headline']", "[class*='fullname']",
		},
	}
}

// CleanHTML removes scripts, chrome and noise attributes, keeping structure
func (hc *HTMLCleaner) CleanHTML(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", err
	}

	for _, tag := range hc.removeTags {
		doc.Find(tag).Remove()
	}
	hc.cleanAttributes(doc)
	hc.removeEmptyElements(doc)

	cleaned, err := doc.Html()
	if err != nil {
		return "", err
	}

	cleaned = commentRegex.ReplaceAllString(cleaned, "")
	cleaned = whitespaceRegex.ReplaceAllString(cleaned, " ")
	return strings.TrimSpace(cleaned), nil
}

// ExtractProfileContent returns the page title and the text of the
// header-like containers, falling back to the whole body.
func (hc *HTMLCleaner) ExtractProfileContent(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", err
	}
	for _, tag := range hc.removeTags {
		doc.Find(tag).Remove()
	}

	var parts []string
	seen := make(map[string]bool)
	add := func(text string) {
		text = strings.TrimSpace(whitespaceRegex.ReplaceAllString(text, " "))
		if text == "" || seen[text] {
			return
		}
		seen[text] = true
		parts = append(parts, text)
	}

	if title := doc.Find("title").First().Text(); title != "" {
		add("Page title: " + title)
	}
	for _, selector := range hc.profileSelectors {
		doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
			add(s.Text())
		})
	}

	if len(parts) <= 1 {
		add(doc.Find("body").Text())
	}

	content := strings.Join(parts, "\n\n")
	return strings.TrimSpace(blankLinesRegex.ReplaceAllString(content, "\n\n")), nil
}

func (hc *HTMLCleaner) cleanAttributes(doc *goquery.Document) {
	doc.Find("*").Each(func(_ int, s *goquery.Selection) {
		var drop []string
		for _, attr := range s.Nodes[0].Attr {
			if !hc.keepAttributes[attr.Key] {
				drop = append(drop, attr.Key)
			}
		}
		for _, key := range drop {
			s.RemoveAttr(key)
		}
	})
}

// removeEmptyElements removes leaf elements without text
func (hc *HTMLCleaner) removeEmptyElements(doc *goquery.Document) {
	doc.Find("body *").Each(func(_ int, s *goquery.Selection) {
		if s.Children().Length() == 0 && strings.TrimSpace(s.Text()) == "" && !s.Is("img") {
			s.Remove()
		}
	})
}

// EstimateTokens returns a rough token count for text
func (hc *HTMLCleaner) EstimateTokens(text string) int {
	// ~4 characters per token
	return len(text) / 4
}
