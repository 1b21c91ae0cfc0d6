// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package mcassets

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// PlanResult is what PlanAndRun returns once the batch completes: the
// resolved instance, the tasks submitted, and their outcomes.
type PlanResult struct {
	Instance McInstance
	Outcomes []DownloadOutcome
}

// ProgressSink receives the same coarse status transitions the Task
// Manager's progress channel consumes: a total count up front, a
// Running update on each batch progress tick, and a single terminal
// Completed or Failed update.
type ProgressSink func(total, completed int, status TaskStatus)

// Planner derives Download Tasks from a version manifest entry and
// submits them as a batch. SkipUsable controls whether files that
// already satisfy their FileChecker are omitted from the batch.
type Planner struct {
	Loader     *ManifestLoader
	Downloader *Downloader
	SkipUsable bool

	// AssetBase and LibraryBase hold the {origin, mirror} URL bases. Only
	// Origin is used to derive per-object and per-artifact URLs; mirror
	// candidates come from routing those URLs through Route. They default
	// to the real Mojang/bmclapi endpoints; tests substitute httptest
	// fixtures.
	AssetBase   urlBase
	LibraryBase urlBase
}

type urlBase struct {
	Origin string
	Mirror string
}

// NewPlanner returns a Planner wired to a fresh ManifestLoader and a
// Downloader built from cfg, pointed at the real Mojang/bmclapi asset
// and library endpoints.
func NewPlanner(cfg DownloadConfig) *Planner {
	return &Planner{
		Loader:      NewManifestLoader(),
		Downloader:  NewDownloader(cfg),
		SkipUsable:  true,
		AssetBase:   urlBase{Origin: originAssetBase, Mirror: mirrorAssetBase},
		LibraryBase: urlBase{Origin: originLibraryBase, Mirror: mirrorLibraryBase},
	}
}

// PlanAndRun fetches the manifest, resolves mcVersion's per-version
// JSON, derives NetFiles for the client jar, asset index, every asset
// object, and every library artifact, converts them to DownloadTasks via
// the Source Router, and submits the batch.
func (p *Planner) PlanAndRun(ctx context.Context, mcVersion, installRoot string, sink ProgressSink) (PlanResult, error) {
	manifest, err := p.Loader.Execute(ctx, PreferMirror, false)
	if err != nil {
		return PlanResult{}, err
	}

	versionURL, ok := ResolveVersionURL(manifest.Document, mcVersion)
	if !ok {
		return PlanResult{}, &NotFoundError{Field: "versions[].id == " + mcVersion}
	}

	versionJSON, err := p.fetchVersionJSON(ctx, versionURL)
	if err != nil {
		return PlanResult{}, err
	}

	versionDir := filepath.Join(installRoot, "versions", mcVersion)
	if err := os.MkdirAll(versionDir, 0o755); err != nil {
		return PlanResult{}, err
	}
	jsonPath := filepath.Join(versionDir, mcVersion+".json")
	pretty, err := json.MarshalIndent(versionJSON, "", "  ")
	if err != nil {
		return PlanResult{}, &ParseError{Context: "version JSON", Err: err}
	}
	if err := os.WriteFile(jsonPath, pretty, 0o644); err != nil {
		return PlanResult{}, err
	}

	instance := McInstance{
		Name:        mcVersion,
		JSONObject:  versionJSON,
		PathVersion: "versions/" + mcVersion + "/",
	}
	if inherit, ok := versionJSON["inheritsFrom"].(string); ok {
		instance.InheritName = inherit
	}

	assetIndexFile, assetIndexID, err := p.assetIndexNetFile(versionJSON)
	if err != nil {
		return PlanResult{}, err
	}
	assetIndexTask := p.toTask(assetIndexFile, installRoot)
	if err := p.Downloader.DownloadFile(ctx, assetIndexTask); err != nil {
		return PlanResult{}, err
	}

	var netFiles []NetFile

	if clientFile, ok := p.clientJarNetFile(versionJSON, mcVersion); ok {
		if !(p.SkipUsable && fileSatisfiesChecker(filepath.Join(installRoot, clientFile.LocalPath), clientFile.Checker)) {
			netFiles = append(netFiles, clientFile)
		}
	}

	assetObjectFiles, err := p.assetObjectNetFiles(installRoot, assetIndexID)
	if err != nil {
		return PlanResult{}, err
	}
	netFiles = append(netFiles, assetObjectFiles...)

	netFiles = append(netFiles, p.libraryNetFiles(versionJSON)...)

	tasks := make([]DownloadTask, 0, len(netFiles))
	for _, nf := range netFiles {
		tasks = append(tasks, p.toTask(nf, installRoot))
	}

	total := len(tasks)
	if sink != nil {
		sink(total, 0, Running())
	}

	outcomes := p.Downloader.DownloadBatch(ctx, tasks, func(completed, total int) {
		if sink != nil {
			sink(total, completed, Running())
		}
	})

	successCount := 0
	for _, o := range outcomes {
		if o.Err == nil {
			successCount++
		}
	}
	if sink != nil {
		if successCount == total {
			sink(total, total, Completed())
		} else {
			sink(total, successCount, Failed(fmt.Sprintf("%d/%d files failed to download", total-successCount, total)))
		}
	}

	return PlanResult{Instance: instance, Outcomes: outcomes}, nil
}

func (p *Planner) fetchVersionJSON(ctx context.Context, url string) (map[string]any, error) {
	rc := buildRetryableClient(60 * time.Second)
	body, err := fetchJSON(ctx, rc, url, 60*time.Second)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, &ParseError{Context: "version JSON", Err: err}
	}
	return doc, nil
}

// assetIndexNetFile derives the asset-index NetFile from the
// assetIndex block, falling back to the legacy assets string field.
func (p *Planner) assetIndexNetFile(versionJSON map[string]any) (NetFile, string, error) {
	if ai, ok := versionJSON["assetIndex"].(map[string]any); ok {
		id, _ := ai["id"].(string)
		url, _ := ai["url"].(string)
		return NetFile{
			URLs:      []string{url},
			LocalPath: "assets/indexes/" + id + ".json",
			Checker:   FileChecker{MayUseExisting: false, IsStructuredJSON: true},
		}, id, nil
	}
	if legacy, ok := versionJSON["assets"].(string); ok {
		return NetFile{
			URLs:      nil,
			LocalPath: "assets/indexes/" + legacy + ".json",
			Checker:   FileChecker{MayUseExisting: false, IsStructuredJSON: true},
		}, legacy, nil
	}
	return NetFile{}, "", &NotFoundError{Field: "assetIndex"}
}

func (p *Planner) clientJarNetFile(versionJSON map[string]any, mcVersion string) (NetFile, bool) {
	downloads, ok := versionJSON["downloads"].(map[string]any)
	if !ok {
		return NetFile{}, false
	}
	client, ok := downloads["client"].(map[string]any)
	if !ok {
		return NetFile{}, false
	}
	url, _ := client["url"].(string)
	sha1, _ := client["sha1"].(string)
	size, _ := client["size"].(float64)
	minSize := int64(1024)
	expSize := int64(size)
	return NetFile{
		URLs:      []string{url},
		LocalPath: "versions/" + mcVersion + "/" + mcVersion + ".jar",
		Checker: FileChecker{
			MinSize:        &minSize,
			ExpectedSize:   &expSize,
			ExpectedHash:   sha1,
			MayUseExisting: true,
		},
	}, true
}

func (p *Planner) assetObjectNetFiles(installRoot, assetIndexID string) ([]NetFile, error) {
	indexPath := filepath.Join(installRoot, "assets/indexes", assetIndexID+".json")
	body, err := os.ReadFile(indexPath)
	if err != nil {
		return nil, err
	}
	var index struct {
		Objects map[string]struct {
			Hash string `json:"hash"`
			Size int64  `json:"size"`
		} `json:"objects"`
	}
	if err := json.Unmarshal(body, &index); err != nil {
		return nil, &ParseError{Context: "asset index " + assetIndexID, Err: err}
	}

	files := make([]NetFile, 0, len(index.Objects))
	for _, obj := range index.Objects {
		if len(obj.Hash) < 2 {
			continue
		}
		prefix := obj.Hash[:2]
		origin := p.AssetBase.Origin + "/" + prefix + "/" + obj.Hash
		size := obj.Size
		files = append(files, NetFile{
			URLs:      []string{origin},
			LocalPath: "assets/objects/" + prefix + "/" + obj.Hash,
			Checker: FileChecker{
				ExpectedSize: &size,
				ExpectedHash: obj.Hash,
			},
		})
	}
	return files, nil
}

func (p *Planner) libraryNetFiles(versionJSON map[string]any) []NetFile {
	libs, ok := versionJSON["libraries"].([]any)
	if !ok {
		return nil
	}
	var files []NetFile
	for _, l := range libs {
		lib, ok := l.(map[string]any)
		if !ok {
			continue
		}
		downloads, ok := lib["downloads"].(map[string]any)
		if !ok {
			continue
		}
		artifact, ok := downloads["artifact"].(map[string]any)
		if !ok {
			continue
		}
		path, _ := artifact["path"].(string)
		sha1, _ := artifact["sha1"].(string)
		size, _ := artifact["size"].(float64)
		if path == "" {
			continue
		}
		origin := p.LibraryBase.Origin + "/" + path
		expSize := int64(size)
		files = append(files, NetFile{
			URLs:      []string{origin},
			LocalPath: "libraries/" + path,
			Checker: FileChecker{
				ExpectedSize: &expSize,
				ExpectedHash: sha1,
			},
		})
	}
	return files
}

// toTask converts a NetFile to a DownloadTask by routing its URLs
// through the Source Router and partitioning the result into origin
// and mirror buckets.
func (p *Planner) toTask(nf NetFile, installRoot string) DownloadTask {
	var routed []string
	for _, u := range nf.URLs {
		routed = append(routed, Route(u)...)
	}
	origin, mirror := partitionURLs(routed)

	task := NewDownloadTask(origin, mirror, filepath.Join(installRoot, nf.LocalPath))
	if nf.Checker.ExpectedSize != nil {
		task = task.WithExpectedSize(uint64(*nf.Checker.ExpectedSize))
	}
	if nf.Checker.ExpectedHash != "" {
		task = task.WithExpectedHash(nf.Checker.ExpectedHash)
	}
	return task
}
