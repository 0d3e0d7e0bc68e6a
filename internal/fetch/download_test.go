package fetch

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func testInfo() *DownloadInfo {
	return &DownloadInfo{Tool: ToolStarship, Version: "1.23.0"}
}

func TestDownloaderFetch(t *testing.T) {
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte("archive payload"))
	}))
	defer server.Close()

	d := NewDownloader(t.TempDir())
	ctx := context.Background()

	path, err := d.Fetch(ctx, testInfo(), server.URL+"/tool.tar.gz")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(content) != "archive payload" {
		t.Errorf("content = %q", content)
	}

	// Cache layout: {tool}/{version}/{asset}
	wantSuffix := filepath.Join("starship", "1.23.0", "tool.tar.gz")
	if !strings.HasSuffix(path, wantSuffix) {
		t.Errorf("cache path = %q, want suffix %q", path, wantSuffix)
	}

	// A second fetch is served from cache.
	if _, err := d.Fetch(ctx, testInfo(), server.URL+"/tool.tar.gz"); err != nil {
		t.Fatalf("cached Fetch failed: %v", err)
	}
	if hits != 1 {
		t.Errorf("server hits = %d, want 1", hits)
	}
}

func TestDownloaderRetriesTransientFailure(t *testing.T) {
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if hits == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("payload"))
	}))
	defer server.Close()

	d := NewDownloader(t.TempDir())
	if _, err := d.Fetch(context.Background(), testInfo(), server.URL+"/tool.tar.gz"); err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if hits != 2 {
		t.Errorf("server hits = %d, want 2", hits)
	}
}

func TestDownloaderGivesUpAfterRetries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	d := NewDownloader(t.TempDir())
	d.retries = 1

	_, err := d.Fetch(context.Background(), testInfo(), server.URL+"/tool.tar.gz")
	if err == nil {
		t.Fatal("expected error after exhausted retries")
	}
}

func TestDownloaderContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := NewDownloader(t.TempDir())
	if _, err := d.Fetch(ctx, testInfo(), "http://127.0.0.1:0/unreachable"); err == nil {
		t.Error("Fetch should fail on a cancelled context")
	}
}

func TestDownloaderEmptyURL(t *testing.T) {
	d := NewDownloader(t.TempDir())
	if _, err := d.Fetch(context.Background(), testInfo(), ""); err == nil {
		t.Error("expected error for empty URL")
	}
}

// buildArchive creates a tar.gz containing the given files.
func buildArchive(t *testing.T, files map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)

	for name, content := range files {
		if err := tw.WriteHeader(&tar.Header{
			Name:     name,
			Mode:     0o755,
			Size:     int64(len(content)),
			Typeflag: tar.TypeReg,
		}); err != nil {
			t.Fatal(err)
		}
		if _, err := tw.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}

	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestExtractBinary(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "archive.tar.gz")
	archive := buildArchive(t, map[string]string{
		"mise/bin/mise": "#!/bin/sh\necho mise\n",
		"mise/README":   "docs",
	})
	if err := os.WriteFile(archivePath, archive, 0o644); err != nil {
		t.Fatal(err)
	}

	destPath := filepath.Join(dir, "bin", "mise")
	if err := extractBinary(archivePath, destPath, "mise"); err != nil {
		t.Fatalf("extractBinary failed: %v", err)
	}

	info, err := os.Stat(destPath)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm()&0o111 == 0 {
		t.Error("extracted binary should be executable")
	}
	content, err := os.ReadFile(destPath)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(content, []byte("echo mise")) {
		t.Errorf("extracted content = %q", content)
	}
}

func TestExtractBinaryNotFound(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "archive.tar.gz")
	if err := os.WriteFile(archivePath, buildArchive(t, map[string]string{"README": "docs"}), 0o644); err != nil {
		t.Fatal(err)
	}

	err := extractBinary(archivePath, filepath.Join(dir, "bin", "mise"), "mise")
	if err == nil {
		t.Error("expected error when binary is absent from archive")
	}
}
