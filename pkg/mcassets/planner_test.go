// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package mcassets

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func sha1Hexed(b []byte) string {
	h := sha1.Sum(b)
	return hex.EncodeToString(h[:])
}

// newFixtureServer serves a manifest, a per-version JSON, a client jar,
// an asset index, one asset object, and one library artifact, all from
// a single httptest server acting as "origin" (Route adds no mirror URL
// for the fixture's local host, so every task has origin URLs only).
func newFixtureServer(t *testing.T) (*httptest.Server, []byte, string) {
	t.Helper()

	clientJar := []byte("fake client jar bytes")
	clientSha := sha1Hexed(clientJar)

	assetPayload := []byte("fake asset object")
	assetHash := sha1Hexed(assetPayload)

	libPayload := []byte("fake library jar")
	libSha := sha1Hexed(libPayload)

	mux := http.NewServeMux()

	var versionJSON []byte
	var assetIndexJSON []byte

	mux.HandleFunc("/version.json", func(w http.ResponseWriter, r *http.Request) {
		w.Write(versionJSON)
	})
	mux.HandleFunc("/indexes/idx1.json", func(w http.ResponseWriter, r *http.Request) {
		w.Write(assetIndexJSON)
	})
	mux.HandleFunc("/client.jar", func(w http.ResponseWriter, r *http.Request) {
		w.Write(clientJar)
	})
	mux.HandleFunc("/assets/"+assetHash[:2]+"/"+assetHash, func(w http.ResponseWriter, r *http.Request) {
		w.Write(assetPayload)
	})
	mux.HandleFunc("/maven/com/example/lib.jar", func(w http.ResponseWriter, r *http.Request) {
		w.Write(libPayload)
	})

	srv := httptest.NewServer(mux)

	assetIndex := map[string]any{
		"objects": map[string]any{
			"some/logical/path": map[string]any{"hash": assetHash, "size": len(assetPayload)},
		},
	}
	assetIndexJSON, _ = json.Marshal(assetIndex)

	version := map[string]any{
		"assetIndex": map[string]any{"id": "idx1", "url": srv.URL + "/indexes/idx1.json"},
		"downloads": map[string]any{
			"client": map[string]any{"url": srv.URL + "/client.jar", "sha1": clientSha, "size": len(clientJar)},
		},
		"libraries": []any{
			map[string]any{
				"downloads": map[string]any{
					"artifact": map[string]any{
						"url":  srv.URL + "/maven/com/example/lib.jar",
						"path": "com/example/lib.jar",
						"sha1": libSha,
						"size": len(libPayload),
					},
				},
			},
		},
	}
	versionJSON, _ = json.Marshal(version)

	manifestDoc := manifestDocWithVersions(200)
	var doc map[string]any
	json.Unmarshal([]byte(manifestDoc), &doc)
	versions := doc["versions"].([]any)
	versions[0] = map[string]any{"id": "1.21-test", "url": srv.URL + "/version.json", "type": "release"}
	doc["versions"] = versions
	manifestBytes, _ := json.Marshal(doc)

	return srv, manifestBytes, assetHash
}

func TestPlanner_PlanAndRun_EndToEnd(t *testing.T) {
	fixture, manifestBytes, assetHash := newFixtureServer(t)
	defer fixture.Close()

	installRoot := t.TempDir()

	planner := NewPlanner(DefaultDownloadConfig())
	planner.AssetBase = urlBase{Origin: fixture.URL + "/assets"}
	planner.LibraryBase = urlBase{Origin: fixture.URL + "/maven"}

	var doc map[string]any
	json.Unmarshal(manifestBytes, &doc)
	planner.Loader.cache["source_0"] = VersionManifestResult{IsFromOrigin: false, Document: doc}

	var statuses []TaskStatus
	sink := func(total, completed int, status TaskStatus) {
		statuses = append(statuses, status)
	}

	result, err := planner.PlanAndRun(context.Background(), "1.21-test", installRoot, sink)
	if err != nil {
		t.Fatalf("PlanAndRun failed: %v", err)
	}

	for _, o := range result.Outcomes {
		if o.Err != nil {
			t.Errorf("task for %s failed: %v", o.Task.LocalPath, o.Err)
		}
	}

	jarPath := filepath.Join(installRoot, "versions/1.21-test/1.21-test.jar")
	if _, err := os.Stat(jarPath); err != nil {
		t.Errorf("client jar missing: %v", err)
	}

	objPath := filepath.Join(installRoot, "assets/objects", assetHash[:2], assetHash)
	if _, err := os.Stat(objPath); err != nil {
		t.Errorf("asset object missing: %v", err)
	}

	libPath := filepath.Join(installRoot, "libraries/com/example/lib.jar")
	if _, err := os.Stat(libPath); err != nil {
		t.Errorf("library artifact missing: %v", err)
	}

	jsonPath := filepath.Join(installRoot, "versions/1.21-test/1.21-test.json")
	if _, err := os.Stat(jsonPath); err != nil {
		t.Errorf("version JSON missing: %v", err)
	}

	if statuses[len(statuses)-1].Kind() != StatusCompleted {
		t.Errorf("final status = %v, want Completed", statuses[len(statuses)-1])
	}
}

func TestPlanner_AssetIndexLegacyFallback(t *testing.T) {
	p := &Planner{}
	versionJSON := map[string]any{"assets": "legacy"}

	nf, id, err := p.assetIndexNetFile(versionJSON)
	if err != nil {
		t.Fatal(err)
	}
	if id != "legacy" {
		t.Errorf("id = %q, want legacy", id)
	}
	if nf.LocalPath != "assets/indexes/legacy.json" {
		t.Errorf("LocalPath = %q", nf.LocalPath)
	}
}

func TestPlanner_AssetIndexMissing(t *testing.T) {
	p := &Planner{}
	_, _, err := p.assetIndexNetFile(map[string]any{})
	if err == nil {
		t.Fatal("expected an error when assetIndex and assets are both absent")
	}
	var notFound *NotFoundError
	if nf, ok := err.(*NotFoundError); ok {
		notFound = nf
	}
	if notFound == nil {
		t.Fatalf("expected *NotFoundError, got %T", err)
	}
}
