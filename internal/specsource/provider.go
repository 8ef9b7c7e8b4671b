// Package specsource obtains the Alpaca device API spec text, preferring a
// local cache file over the network.
package specsource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/tinyalpaca/alpacagen/internal/specerrors"
)

const (
	DefaultURL = "https://www.ascom-standards.org/api/AlpacaDeviceAPI_v1.yaml"

	cacheFileName = "AlpacaDeviceAPI_v1.yaml"
	userAgent     = "alpacagen"
)

// Origin says where the spec text came from.
type Origin string

const (
	OriginCache   Origin = "cache"
	OriginNetwork Origin = "network"
)

// DefaultCacheFile is AlpacaDeviceAPI_v1.yaml in the user's home directory.
func DefaultCacheFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return cacheFileName
	}
	return filepath.Join(home, cacheFileName)
}

type Provider struct {
	URL       string
	CacheFile string
	Client    *http.Client
	Logger    *slog.Logger
}

// Get returns the cached spec text if CacheFile exists, otherwise fetches it
// from URL and writes it to CacheFile.
func (p *Provider) Get(ctx context.Context) ([]byte, Origin, error) {
	data, err := os.ReadFile(p.CacheFile)
	if err == nil {
		p.log().Info("read spec from cache file", "path", p.CacheFile)
		return data, OriginCache, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, "", &specerrors.FetchError{Source: p.CacheFile, Op: "read cache", Err: err}
	}

	data, err = p.fetch(ctx)
	if err != nil {
		return nil, "", err
	}

	if err := writeFileAtomic(p.CacheFile, data); err != nil {
		return nil, "", &specerrors.FetchError{Source: p.CacheFile, Op: "write cache", Err: err}
	}
	p.log().Info("cached spec in file", "path", p.CacheFile, "bytes", len(data))

	return data, OriginNetwork, nil
}

func (p *Provider) fetch(ctx context.Context) ([]byte, error) {
	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.URL, nil)
	if err != nil {
		return nil, &specerrors.FetchError{Source: p.URL, Op: "fetch", Err: err}
	}
	req.Header.Set("User-Agent", userAgent)

	p.log().Debug("fetching spec", "url", p.URL)
	resp, err := client.Do(req)
	if err != nil {
		return nil, &specerrors.FetchError{Source: p.URL, Op: "fetch", Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, &specerrors.FetchError{Source: p.URL, Op: "fetch", Err: fmt.Errorf("HTTP %s", resp.Status)}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &specerrors.FetchError{Source: p.URL, Op: "fetch", Err: fmt.Errorf("reading response body: %w", err)}
	}
	return data, nil
}

// writeFileAtomic writes data to a temporary file next to path and renames it
// into place, so path never holds a partial spec.
func writeFileAtomic(path string, data []byte) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return err
	}
	if err = tmp.Chmod(0644); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func (p *Provider) log() *slog.Logger {
	if p.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return p.Logger
}
