package helpers

import (
	"context"
	"crypto/sha1"
	"fmt"
	"io"
	mathrand "math/rand"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/112.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/14.0.3 Safari/605.1.15",
}

// ImageFetcher downloads listing thumbnails for the report. Downloads are
// best effort; a missing image never affects a record's acceptance.
type ImageFetcher struct {
	client *http.Client
	dir    string
}

// NewImageFetcher creates a fetcher writing into dir.
func NewImageFetcher(dir string, timeout time.Duration) *ImageFetcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ImageFetcher{
		client: &http.Client{Timeout: timeout},
		dir:    dir,
	}
}

// Fetch downloads one image and returns the local path. Inline data: URLs
// are skipped.
func (f *ImageFetcher) Fetch(ctx context.Context, imageURL string) (string, error) {
	imageURL = strings.TrimSpace(imageURL)
	if imageURL == "" || strings.HasPrefix(imageURL, "data:") {
		return "", fmt.Errorf("no downloadable image URL")
	}
	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return "", fmt.Errorf("create images dir: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	// Set a random User-Agent header
	rnd := mathrand.New(mathrand.NewSource(time.Now().UnixNano()))
	req.Header.Set("User-Agent", userAgents[rnd.Intn(len(userAgents))])

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("image fetch unexpected status code: %d", resp.StatusCode)
	}

	name := fmt.Sprintf("%x%s", sha1.Sum([]byte(imageURL)), imageExt(imageURL))
	dest := filepath.Join(f.dir, name)

	out, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("create image file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		os.Remove(dest)
		return "", fmt.Errorf("write image file: %w", err)
	}
	return dest, nil
}

func imageExt(imageURL string) string {
	ext := strings.ToLower(path.Ext(strings.SplitN(imageURL, "?", 2)[0]))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
		return ext
	default:
		return ".jpg"
	}
}
