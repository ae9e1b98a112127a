package browser

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"bidwatcher/logger"
)

// writeSnapshot persists a diagnostic artifact captured at failure time so a
// broken scrape can be inspected without re-running it. Capture is best
// effort: a snapshot failure is logged and never masks the original error.
func writeSnapshot(dir, stage string, html []byte, screenshot []byte) string {
	if dir == "" || (len(html) == 0 && len(screenshot) == 0) {
		return ""
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		logger.ForBrowser().Warn().Err(err).Msg("snapshot dir unavailable")
		return ""
	}

	stamp := time.Now().Format("20060102T150405.000")
	var path string
	if len(html) > 0 {
		path = filepath.Join(dir, fmt.Sprintf("%s_%s.html", stamp, stage))
		if err := os.WriteFile(path, html, 0o644); err != nil {
			logger.ForBrowser().Warn().Err(err).Msg("snapshot write failed")
			path = ""
		}
	}
	if len(screenshot) > 0 {
		pngPath := filepath.Join(dir, fmt.Sprintf("%s_%s.png", stamp, stage))
		if err := os.WriteFile(pngPath, screenshot, 0o644); err != nil {
			logger.ForBrowser().Warn().Err(err).Msg("screenshot write failed")
		} else if path == "" {
			path = pngPath
		}
	}
	return path
}
