// Package bungie implements the manifest fetcher: an authenticated client
// for the Bungie platform API that retrieves the current manifest pointer
// and downloads the world-content definition components it references.
//
// Downloads are cached per client so destination tables sharing a component
// (Items and Currencies both read the inventory item component) trigger a
// single transfer per run.
package bungie

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/Into-The-Grey/CodexKeep/internal/config"
	"github.com/Into-The-Grey/CodexKeep/internal/core"
)

// Manifest is the versioned pointer to the current content-definition set.
// Immutable once fetched; a run re-fetches it entirely (no delta semantics).
type Manifest struct {
	Version    string
	Components map[string]string // component name -> content path
}

// Client talks to the Bungie platform API.
type Client struct {
	baseURL    string
	apiKey     string
	locale     string
	httpClient *http.Client
	retry      RetryPolicy

	mu       sync.Mutex
	manifest *Manifest
	cache    map[string][]core.DefinitionRecord
}

// NewClient builds a client from API configuration.
func NewClient(cfg config.APIConfig, locale string) *Client {
	retry := DefaultRetryPolicy()
	retry.MaxAttempts = cfg.RetryAttempts
	retry.InitialDelay = cfg.RetryDelay
	retry.MaxDelay = cfg.RetryMaxDelay

	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.Key,
		locale:     locale,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		retry:      retry,
		cache:      make(map[string][]core.DefinitionRecord),
	}
}

// manifestEnvelope mirrors the platform response shape.
type manifestEnvelope struct {
	Response *struct {
		Version                        string                       `json:"version"`
		JSONWorldComponentContentPaths map[string]map[string]string `json:"jsonWorldComponentContentPaths"`
	} `json:"Response"`
}

// FetchManifest retrieves and parses the manifest pointer document.
// Transient failures are retried per the client's policy; an invalid key
// aborts immediately with *AuthError.
func (c *Client) FetchManifest(ctx context.Context) (*Manifest, error) {
	var manifest *Manifest

	err := c.retry.Do(ctx, "fetch manifest", func() error {
		body, err := c.get(ctx, c.baseURL+"/Platform/Destiny2/Manifest/")
		if err != nil {
			return err
		}

		var envelope manifestEnvelope
		if err := json.Unmarshal(body, &envelope); err != nil {
			return &ManifestFormatError{Detail: err.Error()}
		}
		if envelope.Response == nil {
			return &ManifestFormatError{Detail: "missing Response object"}
		}

		paths, ok := envelope.Response.JSONWorldComponentContentPaths[c.locale]
		if !ok {
			return &ManifestFormatError{Detail: fmt.Sprintf("no component paths for locale %q", c.locale)}
		}

		manifest = &Manifest{
			Version:    envelope.Response.Version,
			Components: paths,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.manifest = manifest
	c.mu.Unlock()

	slog.Info("manifest fetched", "version", manifest.Version, "components", len(manifest.Components))
	return manifest, nil
}

// Version returns the current manifest version, fetching the manifest if the
// client has not seen it yet.
func (c *Client) Version(ctx context.Context) (string, error) {
	c.mu.Lock()
	manifest := c.manifest
	c.mu.Unlock()

	if manifest == nil {
		var err error
		manifest, err = c.FetchManifest(ctx)
		if err != nil {
			return "", err
		}
	}
	return manifest.Version, nil
}

// Ping verifies API connectivity and key validity before a run starts.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.FetchManifest(ctx)
	return err
}

// DownloadComponent lazily retrieves one content component as definition
// records, ordered by identifier. Results are cached for the lifetime of the
// client. Failures are scoped to the component: the caller skips it and
// continues with the rest of the manifest.
func (c *Client) DownloadComponent(ctx context.Context, component string) ([]core.DefinitionRecord, error) {
	c.mu.Lock()
	if records, ok := c.cache[component]; ok {
		c.mu.Unlock()
		return records, nil
	}
	manifest := c.manifest
	c.mu.Unlock()

	if manifest == nil {
		var err error
		manifest, err = c.FetchManifest(ctx)
		if err != nil {
			return nil, err
		}
	}

	path, ok := manifest.Components[component]
	if !ok {
		return nil, &DownloadError{Component: component, Err: fmt.Errorf("component missing from manifest")}
	}

	start := time.Now()
	var records []core.DefinitionRecord

	err := c.retry.Do(ctx, "download "+component, func() error {
		body, err := c.get(ctx, c.baseURL+path)
		if err != nil {
			return err
		}

		var definitions map[string]map[string]any
		if err := json.Unmarshal(body, &definitions); err != nil {
			return fmt.Errorf("decode: %w", err)
		}

		records = make([]core.DefinitionRecord, 0, len(definitions))
		for hash, fields := range definitions {
			records = append(records, core.DefinitionRecord{Hash: hash, Fields: fields})
		}
		sortRecords(records)
		return nil
	})
	if err != nil {
		return nil, &DownloadError{Component: component, Err: err}
	}

	c.mu.Lock()
	c.cache[component] = records
	c.mu.Unlock()

	slog.Info("component downloaded",
		"component", component,
		"records", len(records),
		"elapsed", time.Since(start),
	)
	return records, nil
}

// get performs one authenticated GET and classifies the failure modes.
func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Op: "GET " + url, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, &AuthError{Status: resp.StatusCode}
	case resp.StatusCode >= 500 ||
		resp.StatusCode == http.StatusRequestTimeout ||
		resp.StatusCode == http.StatusTooManyRequests:
		return nil, &NetworkError{Op: "GET " + url, Err: fmt.Errorf("status %d", resp.StatusCode)}
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Op: "read body", Err: err}
	}
	return body, nil
}

// sortRecords orders records by identifier, numerically when the upstream
// hashes parse as integers, so downstream batching is deterministic.
func sortRecords(records []core.DefinitionRecord) {
	sort.Slice(records, func(i, j int) bool {
		a, aErr := strconv.ParseUint(records[i].Hash, 10, 64)
		b, bErr := strconv.ParseUint(records[j].Hash, 10, 64)
		if aErr == nil && bErr == nil {
			return a < b
		}
		return records[i].Hash < records[j].Hash
	})
}
