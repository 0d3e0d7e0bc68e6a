package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

const (
	// DefaultTimeout is the HTTP request timeout
	DefaultTimeout = 5 * time.Minute
	// DefaultRetries is the number of download retries
	DefaultRetries = 3
	// DefaultUserAgent is the User-Agent header sent with requests
	DefaultUserAgent = "dotstrap/1.0"
)

// Downloader fetches release assets into a local cache with retry
// logic.
type Downloader struct {
	client   *http.Client
	cacheDir string
	retries  int
}

// NewDownloader creates a downloader caching under cacheDir.
func NewDownloader(cacheDir string) *Downloader {
	return &Downloader{
		client: &http.Client{
			Timeout: DefaultTimeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		},
		cacheDir: cacheDir,
		retries:  DefaultRetries,
	}
}

// Fetch downloads url into the cache under tool/version and returns the
// cached path. An existing non-empty cache entry short-circuits the
// download.
func (d *Downloader) Fetch(ctx context.Context, info *DownloadInfo, url string) (string, error) {
	if url == "" {
		return "", fmt.Errorf("no URL available")
	}

	cachePath := filepath.Join(d.cacheDir, info.Tool.String(), info.Version, filepath.Base(url))
	if fileExists(cachePath) {
		return cachePath, nil
	}

	if err := d.downloadToFile(ctx, url, cachePath); err != nil {
		return "", err
	}
	return cachePath, nil
}

// downloadToFile downloads a URL with exponential backoff between
// attempts: 1s, 2s, 4s.
func (d *Downloader) downloadToFile(ctx context.Context, url, destPath string) error {
	var lastErr error

	for attempt := 0; attempt <= d.retries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt-1)) * time.Second
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if err := d.downloadOnce(ctx, url, destPath); err == nil {
			return nil
		} else {
			lastErr = err
		}
	}

	return fmt.Errorf("download %s failed after %d retries: %w", url, d.retries, lastErr)
}

func (d *Downloader) downloadOnce(ctx context.Context, url, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", DefaultUserAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return fmt.Errorf("create dest dir: %w", err)
	}

	// Download to a temp file and rename so a partial download never
	// poisons the cache.
	tmpPath := destPath + ".tmp"
	tmpFile, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmpFile, resp.Body); err != nil {
		tmpFile.Close()
		return fmt.Errorf("copy response body: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// fileExists checks if a file exists and is not empty.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir() && info.Size() > 0
}
