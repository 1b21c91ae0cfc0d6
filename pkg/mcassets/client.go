// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package mcassets

import (
	"context"
	"io"
	"net"
	"net/http"
	"time"

	retryablehttp "github.com/hashicorp/go-retryablehttp"
)

// Well-known endpoints consumed by the Manifest Loader and the Planner.
const (
	OriginManifestURL = "https://launchermeta.mojang.com/mc/game/version_manifest.json"
	MirrorManifestURL = "https://bmclapi2.bangbang93.com/mc/game/version_manifest.json"

	originAssetBase    = "https://resources.download.minecraft.net"
	mirrorAssetBase    = "https://bmclapi2.bangbang93.com/assets"
	originLibraryBase  = "https://libraries.minecraft.net"
	mirrorLibraryBase  = "https://bmclapi2.bangbang93.com/maven"
)

// buildHTTPClient returns the pooled client used by the Downloader's
// hand-rolled per-URL retry loop. downloader.go never retries through
// retryablehttp; it owns its own retry-count/sleep semantics per file.
func buildHTTPClient(cfg DownloadConfig) *http.Client {
	cfg = cfg.withDefaults()
	tr := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         (&net.Dialer{Timeout: time.Duration(cfg.ConnectTimeoutSeconds) * time.Second}).DialContext,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 100,
		IdleConnTimeout:     30 * time.Second,
		TLSHandshakeTimeout: time.Duration(cfg.ConnectTimeoutSeconds) * time.Second,
	}
	return &http.Client{
		Transport: tr,
		Timeout:   time.Duration(cfg.ReadTimeoutSeconds) * time.Second,
	}
}

// buildRetryableClient returns a retryablehttp client for single-shot
// manifest and per-version-JSON fetches, where a generic bounded retry
// policy is appropriate (unlike the Downloader's exact per-spec retry
// budgets).
func buildRetryableClient(timeout time.Duration) *retryablehttp.Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 3
	rc.RetryWaitMin = 250 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.HTTPClient.Timeout = timeout
	rc.Logger = nil
	return rc
}

// fetchJSON performs a single GET against urlStr with the given
// deadline and returns the response body, or an error describing the
// failure.
func fetchJSON(ctx context.Context, rc *retryablehttp.Client, urlStr string, deadline time.Duration) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, &NetworkError{URL: urlStr, Err: err}
	}
	req.Header.Set("User-Agent", "mcassets-core/1")

	resp, err := rc.Do(req)
	if err != nil {
		return nil, &NetworkError{URL: urlStr, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPError{URL: urlStr, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{URL: urlStr, Err: err}
	}
	return body, nil
}
