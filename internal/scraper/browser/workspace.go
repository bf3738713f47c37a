package browser

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"malt-scraper/internal/logging"
)

const artifactTimeFormat = "20060102_150405"

// each unsafe rune becomes one underscore
var unsafeLabel = regexp.MustCompile(`[^A-Za-z0-9_\-]`)

// Workspace is the per-profile artifact directory: {root}/{profile_id}/ with a screenshots/ subdirectory
type Workspace struct {
	dir    string
	logger logging.Logger
	now    func() time.Time
}

// NewWorkspace creates the workspace directories for profileID under root
func NewWorkspace(root, profileID string, logger logging.Logger) (*Workspace, error) {
	logger = logging.OrGlobal(logger)

	dir := filepath.Join(root, sanitizeLabel(profileID))
	if err := os.MkdirAll(filepath.Join(dir, "screenshots"), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create workspace %s: %w", dir, err)
	}

	return &Workspace{dir: dir, logger: logger, now: time.Now}, nil
}

// Dir returns the workspace root for this profile
func (w *Workspace) Dir() string {
	return w.dir
}

// SaveHTML writes {label}_{timestamp}.html and returns its path, or "" on failure
func (w *Workspace) SaveHTML(label, html string) string {
	name := fmt.Sprintf("%s_%s.html", sanitizeLabel(label), w.now().Format(artifactTimeFormat))
	return w.write(filepath.Join(w.dir, name), []byte(html))
}

// SaveScreenshot writes screenshots/{label}_{timestamp}.png and returns its path, or "" on failure
func (w *Workspace) SaveScreenshot(label string, png []byte) string {
	name := fmt.Sprintf("%s_%s.png", sanitizeLabel(label), w.now().Format(artifactTimeFormat))
	return w.write(filepath.Join(w.dir, "screenshots", name), png)
}

func (w *Workspace) write(path string, data []byte) string {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		w.logger.Warn("Failed to write workspace artifact", map[string]interface{}{
			"path":  path,
			"error": err.Error(),
		})
		return ""
	}
	w.logger.Debug("Workspace artifact saved", map[string]interface{}{"path": path, "bytes": len(data)})
	return path
}

func sanitizeLabel(label string) string {
	label = unsafeLabel.ReplaceAllString(label, "_")
	if label == "" {
		return "artifact"
	}
	return label
}
