// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package mcassets

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Preference selects which source the Manifest Loader tries first, and
// how much time budget each branch gets.
type Preference int

const (
	// PreferMirror tries the mirror with a 30s budget, falling back to
	// origin with a 90s budget on any failure.
	PreferMirror Preference = 0
	// PreferOrigin tries origin with a 5s budget, falling back to
	// mirror with a 35s budget.
	PreferOrigin Preference = 1
	// PreferOriginFirst (any other value) tries origin with a 60s
	// budget, then mirror with a 120s budget.
	PreferOriginFirst Preference = 2
)

const minManifestVersions = 200

// ManifestLoader fetches and validates the Minecraft version manifest,
// trying one source and then the other in an order and with time
// budgets set by the preference, and caching results keyed by
// preference. The zero value is not usable;
// construct with NewManifestLoader.
type ManifestLoader struct {
	mu    sync.Mutex
	cache map[string]VersionManifestResult
}

// NewManifestLoader returns a ManifestLoader with an empty cache.
func NewManifestLoader() *ManifestLoader {
	return &ManifestLoader{
		cache: make(map[string]VersionManifestResult),
	}
}

// Execute fetches the version manifest per the preference's racing
// policy, validating and caching the result. Passing refresh=true
// bypasses the cache for this call (and repopulates it on success).
func (m *ManifestLoader) Execute(ctx context.Context, pref Preference, refresh bool) (VersionManifestResult, error) {
	cacheKey := fmt.Sprintf("source_%d", pref)

	if !refresh {
		m.mu.Lock()
		cached, ok := m.cache[cacheKey]
		m.mu.Unlock()
		if ok {
			cached.IsFromOrigin = false
			return cached, nil
		}
	}

	var (
		result VersionManifestResult
		err    error
	)
	switch pref {
	case PreferMirror:
		result, err = m.fetchThen(ctx, MirrorManifestURL, 30*time.Second, false, OriginManifestURL, 90*time.Second, true)
	case PreferOrigin:
		result, err = m.fetchThen(ctx, OriginManifestURL, 5*time.Second, true, MirrorManifestURL, 35*time.Second, false)
	default:
		result, err = m.fetchThen(ctx, OriginManifestURL, 60*time.Second, true, MirrorManifestURL, 120*time.Second, false)
	}
	if err != nil {
		return VersionManifestResult{}, err
	}

	m.mu.Lock()
	m.cache[cacheKey] = result
	m.mu.Unlock()
	return result, nil
}

// fetchThen tries primaryURL with primaryDeadline; on any failure
// (network, HTTP, or validation) it falls back to secondaryURL with
// secondaryDeadline. If the secondary fetch also fails, it returns a
// TimeoutError; if the secondary response fails validation, it returns
// that ParseError.
func (m *ManifestLoader) fetchThen(ctx context.Context, primaryURL string, primaryDeadline time.Duration, primaryIsOrigin bool, secondaryURL string, secondaryDeadline time.Duration, secondaryIsOrigin bool) (VersionManifestResult, error) {
	rc := buildRetryableClient(primaryDeadline)
	body, err := fetchJSON(ctx, rc, primaryURL, primaryDeadline)
	if err == nil {
		doc, verr := validateManifest(body)
		if verr == nil {
			return VersionManifestResult{IsFromOrigin: primaryIsOrigin, Document: doc}, nil
		}
	}

	rc2 := buildRetryableClient(secondaryDeadline)
	body2, err2 := fetchJSON(ctx, rc2, secondaryURL, secondaryDeadline)
	if err2 != nil {
		return VersionManifestResult{}, &TimeoutError{Context: "manifest load: both sources failed"}
	}
	doc2, verr2 := validateManifest(body2)
	if verr2 != nil {
		return VersionManifestResult{}, verr2
	}
	return VersionManifestResult{IsFromOrigin: secondaryIsOrigin, Document: doc2}, nil
}

// validateManifest parses body as JSON and checks the versions array
// meets the minimum-length heuristic guarding against truncated
// responses.
func validateManifest(body []byte) (map[string]any, error) {
	var doc map[string]any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, &ParseError{Context: "version manifest", Err: err}
	}
	versions, ok := doc["versions"].([]any)
	if !ok || len(versions) < minManifestVersions {
		return nil, &ParseError{Context: "version manifest", Err: fmt.Errorf("versions array has length %d, want >= %d", len(versions), minManifestVersions)}
	}
	return doc, nil
}

// ResolveVersionURL normalizes id and linearly scans the manifest's
// versions[] for a matching id, returning its url field. Returns ""
// with ok=false on miss.
func ResolveVersionURL(doc map[string]any, id string) (string, bool) {
	norm := normalizeVersionID(id)
	versions, _ := doc["versions"].([]any)
	for _, v := range versions {
		entry, ok := v.(map[string]any)
		if !ok {
			continue
		}
		entryID, _ := entry["id"].(string)
		if entryID == norm {
			url, _ := entry["url"].(string)
			return url, url != ""
		}
	}
	return "", false
}

// normalizeVersionID replaces "_" with "-" and strips a trailing ".0"
// suffix unless the id is exactly "1.0".
func normalizeVersionID(id string) string {
	norm := strings.ReplaceAll(id, "_", "-")
	if norm != "1.0" && strings.HasSuffix(norm, ".0") {
		norm = strings.TrimSuffix(norm, ".0")
	}
	return norm
}

// CheckForUpdates compares current against the manifest's
// latest.release/latest.snapshot ids. If current matches either one,
// there is no update; otherwise it reports latest.release (or
// latest.snapshot when no release is listed) as the newer id.
func (m *ManifestLoader) CheckForUpdates(current string, result VersionManifestResult) (newVersion string, ok bool) {
	latest, _ := result.Document["latest"].(map[string]any)
	if latest == nil {
		return "", false
	}
	release, _ := latest["release"].(string)
	snapshot, _ := latest["snapshot"].(string)
	if current == release || current == snapshot {
		return "", false
	}
	if release != "" {
		return release, true
	}
	if snapshot != "" {
		return snapshot, true
	}
	return "", false
}
