// Package render turns a digest run's results into its output artifacts: the
// RSS feed, the daily Markdown document, the README blocks and the plain-text
// notification body.
package render

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"news_digest/internal/model"
)

// WriteFile writes content to path, creating parent directories as needed.
func WriteFile(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write output file: %w", err)
	}
	return nil
}

const digestMaxHighlights = 6

// DigestText builds the plain-text body sent to push channels. docURL points
// at the full daily document and may be empty.
func DigestText(analysis model.DigestAnalysis, docURL string) string {
	lines := []string{
		analysis.Title,
		"",
		analysis.Overview,
	}

	if len(analysis.Highlights) > 0 {
		lines = append(lines, "", "Highlights:")
		highlights := analysis.Highlights
		if len(highlights) > digestMaxHighlights {
			highlights = highlights[:digestMaxHighlights]
		}
		for i, h := range highlights {
			if idx := strings.IndexByte(h, '\n'); idx >= 0 {
				h = h[:idx]
			}
			lines = append(lines, fmt.Sprintf("%d. %s", i+1, h))
		}
	}

	if docURL != "" {
		lines = append(lines, "", "Full report: "+docURL)
	}
	return strings.Join(lines, "\n")
}
