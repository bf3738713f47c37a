package utils

import (
	"strings"
)

// Accepted profile URL prefixes. Only these hosts and the https scheme are valid.
var maltProfilePrefixes = []string{
	"https://malt.fr/profile/",
	"https://www.malt.fr/profile/",
}

// MaltProfileURL is a canonical profile URL and the identifier derived from it
type MaltProfileURL struct {
	// URL is the input with query string and fragment removed
	URL string
	// ProfileID is the last path segment of URL
	ProfileID string
}

// IsMaltProfileURL reports whether raw would be accepted by ParseMaltProfileURL
func IsMaltProfileURL(raw string) bool {
	_, err := ParseMaltProfileURL(raw)
	return err == nil
}

// ParseMaltProfileURL strips the query string, checks the profile prefix and
// derives the profile identifier from the last path segment.
func ParseMaltProfileURL(raw string) (*MaltProfileURL, error) {
	canonical := strings.TrimSpace(raw)
	if i := strings.IndexAny(canonical, "?#"); i >= 0 {
		canonical = canonical[:i]
	}

	matched := ""
	for _, prefix := range maltProfilePrefixes {
		if strings.HasPrefix(canonical, prefix) {
			matched = prefix
			break
		}
	}
	if matched == "" {
		return nil, NewInvalidURLError(raw, "expected a https://www.malt.fr/profile/ URL")
	}

	canonical = strings.TrimRight(canonical, "/")
	if len(canonical) < len(matched) {
		return nil, NewInvalidURLError(raw, "missing profile identifier")
	}

	id := canonical[strings.LastIndex(canonical, "/")+1:]
	if id == "" {
		return nil, NewInvalidURLError(raw, "missing profile identifier")
	}

	return &MaltProfileURL{URL: canonical, ProfileID: id}, nil
}
