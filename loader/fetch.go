package loader

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"model-viewer/core"
)

// ErrHTTPStatus matches every *StatusError.
var ErrHTTPStatus = errors.New("unexpected http status")

type StatusError struct {
	URL    string
	Status string
	Code   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch %s: %s", e.URL, e.Status)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrHTTPStatus
}

const defaultUserAgent = "model-viewer/1.0"

// Fetcher reads resources from local paths or http(s) URLs.
type Fetcher struct {
	Client    *http.Client
	UserAgent string
	// CacheDir stores remote responses keyed by URL hash; empty disables caching.
	CacheDir string
	// Retries is the number of extra attempts after a failed fetch.
	Retries    int
	RetryDelay time.Duration
	Logger     core.Logger
}

func NewFetcher(cacheDir string, logger core.Logger) *Fetcher {
	return &Fetcher{
		Client:     &http.Client{Timeout: 60 * time.Second},
		UserAgent:  defaultUserAgent,
		CacheDir:   cacheDir,
		Retries:    1,
		RetryDelay: 500 * time.Millisecond,
		Logger:     core.OrNop(logger),
	}
}

// IsRemote reports whether location is an http(s) URL.
func IsRemote(location string) bool {
	u, err := url.Parse(location)
	if err != nil {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

// LocalPath strips a file:// scheme; other locations are returned unchanged.
func LocalPath(location string) string {
	if strings.HasPrefix(location, "file://") {
		if u, err := url.Parse(location); err == nil {
			return filepath.FromSlash(u.Path)
		}
	}
	return location
}

// Fetch returns the bytes at location, retrying failed attempts.
func (f *Fetcher) Fetch(ctx context.Context, location string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= f.Retries; attempt++ {
		if attempt > 0 {
			f.Logger.Warnf("retrying %s after: %v", location, lastErr)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(f.RetryDelay):
			}
		}
		data, err := f.fetchOnce(ctx, location)
		if err == nil {
			return data, nil
		}
		if ctx.Err() != nil {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

func (f *Fetcher) fetchOnce(ctx context.Context, location string) ([]byte, error) {
	if !IsRemote(location) {
		data, err := os.ReadFile(LocalPath(location))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", location, err)
		}
		return data, nil
	}

	if data, ok := f.readCache(location); ok {
		f.Logger.Debugf("cache hit for %s", location)
		return data, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", location, err)
	}
	req.Header.Set("User-Agent", f.UserAgent)

	resp, err := f.client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", location, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{URL: location, Status: resp.Status, Code: resp.StatusCode}
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body of %s: %w", location, err)
	}
	f.writeCache(location, data)
	return data, nil
}

func (f *Fetcher) client() *http.Client {
	if f.Client != nil {
		return f.Client
	}
	return http.DefaultClient
}

func (f *Fetcher) cachePath(location string) string {
	sum := sha256.Sum256([]byte(location))
	return filepath.Join(f.CacheDir, hex.EncodeToString(sum[:])+filepath.Ext(urlPath(location)))
}

func urlPath(location string) string {
	if u, err := url.Parse(location); err == nil {
		return u.Path
	}
	return location
}

func (f *Fetcher) readCache(location string) ([]byte, bool) {
	if f.CacheDir == "" {
		return nil, false
	}
	data, err := os.ReadFile(f.cachePath(location))
	if err != nil {
		return nil, false
	}
	return data, true
}

// writeCache stores data via a temp file and rename so readers never see partial files.
func (f *Fetcher) writeCache(location string, data []byte) {
	if f.CacheDir == "" {
		return
	}
	if err := os.MkdirAll(f.CacheDir, 0o755); err != nil {
		f.Logger.Warnf("cache dir %s: %v", f.CacheDir, err)
		return
	}
	tmp, err := os.CreateTemp(f.CacheDir, "fetch-*")
	if err != nil {
		f.Logger.Warnf("cache %s: %v", location, err)
		return
	}
	_, werr := tmp.Write(data)
	cerr := tmp.Close()
	if werr != nil || cerr != nil {
		os.Remove(tmp.Name())
		f.Logger.Warnf("cache %s: %v", location, errors.Join(werr, cerr))
		return
	}
	if err := os.Rename(tmp.Name(), f.cachePath(location)); err != nil {
		os.Remove(tmp.Name())
		f.Logger.Warnf("cache %s: %v", location, err)
	}
}
