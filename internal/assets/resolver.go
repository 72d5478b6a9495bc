// Package assets derives local paths for exported media files and
// fetches the ones that are not on disk yet.
package assets

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/pressgang/wpmigrate/internal/utils"
)

// Directory buckets under the assets base dir. WordPress uploads are
// date-bucketed (/uploads/<year>/<month>/), which is preserved when the
// source URL carries those segments; anything else lands in a flat
// fallback directory.
const (
	uploadsBucket  = "Uploads"
	importedBucket = "Imported"
)

// Result reports where an asset lives locally and whether this run had
// to (or, in simulate mode, would have to) transfer it.
type Result struct {
	LocalPath string
	Fetched   bool
}

// Resolver maps remote media URLs to local files.
type Resolver struct {
	baseDir string
	fetcher Fetcher
}

// NewResolver creates a Resolver writing under baseDir.
func NewResolver(baseDir string, fetcher Fetcher) *Resolver {
	return &Resolver{baseDir: baseDir, fetcher: fetcher}
}

// LocalPath derives the deterministic local path for a source URL.
// When at least two directory segments precede the filename, the last
// two are taken as year and month; otherwise the file falls into the
// flat Imported bucket.
func (r *Resolver) LocalPath(sourceURL string) (string, error) {
	u, err := url.Parse(sourceURL)
	if err != nil {
		return "", fmt.Errorf("parse asset url %q: %w", sourceURL, err)
	}

	segments := strings.Split(strings.Trim(path.Clean(u.Path), "/"), "/")
	filename := utils.SanitizeFilename(segments[len(segments)-1])
	if filename == "" {
		return "", fmt.Errorf("asset url %q has no filename", sourceURL)
	}

	if len(segments) >= 3 {
		year := segments[len(segments)-3]
		month := segments[len(segments)-2]
		return filepath.Join(r.baseDir, uploadsBucket, year, month, filename), nil
	}
	return filepath.Join(r.baseDir, importedBucket, filename), nil
}

// Resolve decides whether the asset at sourceURL needs fetching and,
// when transfer is true, performs the fetch. A file already present at
// the derived path means no network access in either mode. With
// transfer false the same decision is made but no I/O happens, so a
// simulate run reports the counts a commit run would produce.
func (r *Resolver) Resolve(sourceURL string, transfer bool) (Result, error) {
	localPath, err := r.LocalPath(sourceURL)
	if err != nil {
		return Result{}, err
	}

	if _, err := os.Stat(localPath); err == nil {
		return Result{LocalPath: localPath, Fetched: false}, nil
	}

	if !transfer {
		return Result{LocalPath: localPath, Fetched: true}, nil
	}

	if err := r.fetchTo(sourceURL, localPath); err != nil {
		return Result{}, err
	}
	return Result{LocalPath: localPath, Fetched: true}, nil
}

// fetchTo streams the remote file to localPath via a temp file so a
// failed transfer never leaves a partial asset behind.
func (r *Resolver) fetchTo(sourceURL, localPath string) error {
	dir := filepath.Dir(localPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create asset dir: %w", err)
	}

	body, err := r.fetcher.Fetch(sourceURL)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", sourceURL, err)
	}
	defer body.Close()

	tmpFile, err := os.CreateTemp(dir, "asset_tmp_")
	if err != nil {
		return err
	}
	tmpPath := tmpFile.Name()
	defer func() {
		tmpFile.Close()
		os.Remove(tmpPath) // Clean up if we didn't rename
	}()

	if _, err := io.Copy(tmpFile, body); err != nil {
		return fmt.Errorf("write %s: %w", localPath, err)
	}

	tmpFile.Close()

	return os.Rename(tmpPath, localPath)
}
