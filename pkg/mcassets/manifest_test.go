// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package mcassets

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func manifestDocWithVersions(n int) string {
	versions := make([]map[string]string, n)
	for i := range versions {
		versions[i] = map[string]string{
			"id":   fmt.Sprintf("1.%d", i),
			"url":  fmt.Sprintf("https://example.com/%d.json", i),
			"type": "release",
		}
	}
	doc := map[string]any{
		"latest":   map[string]string{"release": "1.21", "snapshot": "23w45a"},
		"versions": versions,
	}
	b, _ := json.Marshal(doc)
	return string(b)
}

func TestValidateManifest_BoundaryLength(t *testing.T) {
	t.Run("199 versions is ParseError", func(t *testing.T) {
		_, err := validateManifest([]byte(manifestDocWithVersions(199)))
		if err == nil {
			t.Fatal("expected ParseError for 199 versions")
		}
	})

	t.Run("200 versions is accepted", func(t *testing.T) {
		doc, err := validateManifest([]byte(manifestDocWithVersions(200)))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		versions, _ := doc["versions"].([]any)
		if len(versions) != 200 {
			t.Fatalf("got %d versions", len(versions))
		}
	})
}

func TestNormalizeVersionID(t *testing.T) {
	cases := map[string]string{
		"1_16_5":  "1-16-5",
		"1.0":     "1.0",
		"1.16.0":  "1.16",
		"1.21.1":  "1.21.1",
	}
	for in, want := range cases {
		if got := normalizeVersionID(in); got != want {
			t.Errorf("normalizeVersionID(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestResolveVersionURL(t *testing.T) {
	doc, err := validateManifest([]byte(manifestDocWithVersions(200)))
	if err != nil {
		t.Fatal(err)
	}
	url, ok := ResolveVersionURL(doc, "1.5.0")
	if !ok || url != "https://example.com/5.json" {
		t.Fatalf("ResolveVersionURL = %q, %v", url, ok)
	}

	if _, ok := ResolveVersionURL(doc, "nonexistent"); ok {
		t.Fatal("expected miss")
	}
}

func TestManifestLoader_FetchThen_PrimarySuccess(t *testing.T) {
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(manifestDocWithVersions(1500)))
	}))
	defer primary.Close()

	secondaryHit := false
	secondary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		secondaryHit = true
		w.Write([]byte(manifestDocWithVersions(1500)))
	}))
	defer secondary.Close()

	m := NewManifestLoader()
	result, err := m.fetchThen(context.Background(), primary.URL, 5*time.Second, false, secondary.URL, 5*time.Second, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsFromOrigin {
		t.Error("expected IsFromOrigin=false for the primary (mirror) branch")
	}
	if secondaryHit {
		t.Error("secondary should not have been contacted")
	}
}

func TestManifestLoader_FetchThen_FallsBackOnPrimaryFailure(t *testing.T) {
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer primary.Close()

	secondary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(manifestDocWithVersions(1500)))
	}))
	defer secondary.Close()

	m := NewManifestLoader()
	result, err := m.fetchThen(context.Background(), primary.URL, 2*time.Second, false, secondary.URL, 5*time.Second, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsFromOrigin {
		t.Error("expected the fallback branch's provenance")
	}
}

func TestManifestLoader_FetchThen_BothFail(t *testing.T) {
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer primary.Close()
	secondary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer secondary.Close()

	m := NewManifestLoader()
	_, err := m.fetchThen(context.Background(), primary.URL, time.Second, false, secondary.URL, time.Second, true)
	if err == nil {
		t.Fatal("expected an error when both sources fail")
	}
	var timeoutErr *TimeoutError
	if _, ok := err.(*TimeoutError); !ok {
		t.Fatalf("expected *TimeoutError, got %T (%v)", err, timeoutErr)
	}
}

func TestManifestLoader_CachesByPreference(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte(manifestDocWithVersions(1500)))
	}))
	defer srv.Close()

	m := NewManifestLoader()
	m.cache["source_0"] = VersionManifestResult{IsFromOrigin: false, Document: map[string]any{"versions": []any{}}}

	result, err := m.Execute(context.Background(), PreferMirror, false)
	if err != nil {
		t.Fatal(err)
	}
	if hits != 0 {
		t.Errorf("expected the cache hit to avoid network I/O, got %d hits", hits)
	}
	if result.IsFromOrigin {
		t.Error("cache hits must report IsFromOrigin=false")
	}
}

func TestCheckForUpdates(t *testing.T) {
	m := NewManifestLoader()
	doc, _ := validateManifest([]byte(manifestDocWithVersions(200)))
	result := VersionManifestResult{Document: doc}

	newer, ok := m.CheckForUpdates("1.20", result)
	if !ok || newer != "1.21" {
		t.Fatalf("CheckForUpdates = %q, %v, want 1.21, true", newer, ok)
	}

	_, ok = m.CheckForUpdates("1.21", result)
	if ok {
		t.Error("expected no update when current already matches latest.release")
	}
}
