// Package source resolves document locators to raw PDF bytes.
//
// A locator is either a path below a served root directory (for example
// "/example.pdf") or, when enabled, an absolute http(s) URL.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
)

// Logger is injected by main
var Logger = slog.Default()

var (
	ErrNotFound       = errors.New("document not found")
	ErrRemoteDisabled = errors.New("remote documents are disabled")
	ErrTooLarge       = errors.New("document exceeds size limit")
	ErrInvalidPath    = errors.New("invalid document path")
)

// DefaultTimeout bounds a shared fetch when the client sets no timeout.
const DefaultTimeout = 2 * time.Minute

// Fetcher loads document bytes from disk or over HTTP.
// Concurrent fetches of the same locator share a single read.
type Fetcher struct {
	Root        string
	Client      *http.Client
	AllowRemote bool
	MaxBytes    int64 // zero means unlimited

	group singleflight.Group
}

// NewFetcher returns a fetcher rooted at dir with the default HTTP client.
func NewFetcher(dir string) *Fetcher {
	return &Fetcher{Root: dir, Client: http.DefaultClient}
}

// Fetch returns the bytes behind locator.
//
// The shared read outlives the caller that started it; each caller stops
// waiting when its own ctx is done.
func (f *Fetcher) Fetch(ctx context.Context, locator string) ([]byte, error) {
	if strings.TrimSpace(locator) == "" {
		return nil, ErrNotFound
	}
	ch := f.group.DoChan(locator, func() (any, error) {
		shared, cancel := context.WithTimeout(context.WithoutCancel(ctx), f.timeout())
		defer cancel()
		return f.fetch(shared, locator)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		Logger.Debug("Fetched document", "locator", locator, "shared", res.Shared)
		return res.Val.([]byte), nil
	}
}

func (f *Fetcher) timeout() time.Duration {
	if f.Client != nil && f.Client.Timeout > 0 {
		return f.Client.Timeout
	}
	return DefaultTimeout
}

func (f *Fetcher) fetch(ctx context.Context, locator string) ([]byte, error) {
	if IsRemote(locator) {
		if !f.AllowRemote {
			return nil, ErrRemoteDisabled
		}
		return f.fetchRemote(ctx, locator)
	}
	p, err := f.Resolve(locator)
	if err != nil {
		return nil, err
	}
	return f.readFile(p)
}

// IsRemote reports whether locator is an http or https URL.
func IsRemote(locator string) bool {
	u, err := url.Parse(locator)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Resolve maps a local locator to a file below Root.
func (f *Fetcher) Resolve(locator string) (string, error) {
	if u, err := url.Parse(locator); err == nil && u.Scheme == "" {
		locator = u.Path
	}
	if strings.Contains(locator, "\\") || strings.Contains(locator, "\x00") {
		return "", fmt.Errorf("%w: %s", ErrInvalidPath, locator)
	}
	for _, part := range strings.Split(locator, "/") {
		if part == ".." {
			return "", fmt.Errorf("%w: %s", ErrInvalidPath, locator)
		}
	}
	clean := path.Clean("/" + locator)
	if clean == "/" {
		return "", fmt.Errorf("%w: %s", ErrInvalidPath, locator)
	}
	return filepath.Join(f.Root, filepath.FromSlash(clean)), nil
}

func (f *Fetcher) readFile(p string) ([]byte, error) {
	file, err := os.Open(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, filepath.Base(p))
		}
		return nil, fmt.Errorf("failed to open document: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat document: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrNotFound, filepath.Base(p))
	}
	if f.MaxBytes > 0 && info.Size() > f.MaxBytes {
		return nil, ErrTooLarge
	}
	return f.readLimited(file)
}

func (f *Fetcher) fetchRemote(ctx context.Context, locator string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, locator, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch document: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, locator)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("fetch %s returned status %d", locator, resp.StatusCode)
	}
	if f.MaxBytes > 0 && resp.ContentLength > f.MaxBytes {
		return nil, ErrTooLarge
	}
	return f.readLimited(resp.Body)
}

func (f *Fetcher) readLimited(r io.Reader) ([]byte, error) {
	if f.MaxBytes <= 0 {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("failed to read document: %w", err)
		}
		return data, nil
	}
	data, err := io.ReadAll(io.LimitReader(r, f.MaxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	if int64(len(data)) > f.MaxBytes {
		return nil, ErrTooLarge
	}
	return data, nil
}
