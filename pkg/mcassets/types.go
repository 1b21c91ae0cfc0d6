// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package mcassets

import "time"

// DownloadStrategy selects which of a DownloadTask's URL lists are tried,
// and in what order.
type DownloadStrategy int

const (
	// Hybrid tries origin URLs first, then falls back to mirror URLs.
	// Origin URLs get a reduced retry budget (2 attempts) so a dead
	// origin fails over to the mirror quickly. This is the default.
	Hybrid DownloadStrategy = iota
	// OriginOnly never falls back to a mirror.
	OriginOnly
	// MirrorOnly never tries the origin.
	MirrorOnly
)

func (s DownloadStrategy) String() string {
	switch s {
	case OriginOnly:
		return "origin-only"
	case MirrorOnly:
		return "mirror-only"
	default:
		return "hybrid"
	}
}

// DownloadConfig configures the HighSpeedDownloader and the batch
// scheduler that drives it.
//
// Example with defaults:
//
//	cfg := mcassets.DefaultDownloadConfig()
//
// Example with full configuration:
//
//	cfg := mcassets.DownloadConfig{
//	    MaxConcurrency:          64,
//	    LargeFileThresholdBytes: 5 * 1024 * 1024,
//	    LargeFileChunks:         8,
//	    Strategy:                mcassets.Hybrid,
//	    MaxRetriesPerURL:        3,
//	    ConnectTimeoutSeconds:   30,
//	    ReadTimeoutSeconds:      60,
//	}
type DownloadConfig struct {
	// MaxConcurrency bounds how many whole-file downloads run at once
	// in a batch. If <= 0, defaults to 64.
	MaxConcurrency int

	// LargeFileThresholdBytes is the file-size cutoff above which the
	// ranged parallel path is used instead of single-stream. A file of
	// exactly this size still uses single-stream (strict >).
	// If 0, defaults to 5 MiB.
	LargeFileThresholdBytes uint64

	// LargeFileChunks is how many concurrent range requests a large
	// file is split into. If <= 0, defaults to 8.
	LargeFileChunks int

	// Strategy selects origin-first, origin-only, or mirror-only URL
	// ordering. Zero value is Hybrid.
	Strategy DownloadStrategy

	// MaxRetriesPerURL is the retry budget for non-Hybrid strategies,
	// and for mirror URLs under Hybrid. If <= 0, defaults to 3.
	MaxRetriesPerURL uint32

	// ConnectTimeoutSeconds bounds TCP+TLS connection setup.
	// If 0, defaults to 30.
	ConnectTimeoutSeconds uint64

	// ReadTimeoutSeconds bounds the overall request/response round
	// trip. If 0, defaults to 60.
	ReadTimeoutSeconds uint64
}

// DefaultDownloadConfig returns a DownloadConfig with the defaults
// described in each field's doc comment.
func DefaultDownloadConfig() DownloadConfig {
	return DownloadConfig{
		MaxConcurrency:          64,
		LargeFileThresholdBytes: 5 * 1024 * 1024,
		LargeFileChunks:         8,
		Strategy:                Hybrid,
		MaxRetriesPerURL:        3,
		ConnectTimeoutSeconds:   30,
		ReadTimeoutSeconds:      60,
	}
}

func (c DownloadConfig) withDefaults() DownloadConfig {
	if c.MaxConcurrency <= 0 {
		c.MaxConcurrency = 64
	}
	if c.LargeFileThresholdBytes == 0 {
		c.LargeFileThresholdBytes = 5 * 1024 * 1024
	}
	if c.LargeFileChunks <= 0 {
		c.LargeFileChunks = 8
	}
	if c.MaxRetriesPerURL == 0 {
		c.MaxRetriesPerURL = 3
	}
	if c.ConnectTimeoutSeconds == 0 {
		c.ConnectTimeoutSeconds = 30
	}
	if c.ReadTimeoutSeconds == 0 {
		c.ReadTimeoutSeconds = 60
	}
	return c
}

// DownloadTask is a value object describing a single file to fetch: an
// ordered list of origin URLs, an ordered list of mirror URLs, a local
// destination, and optional size/hash expectations used for
// verification and ranged-download dispatch.
type DownloadTask struct {
	OriginURLs        []string
	MirrorURLs        []string
	LocalPath         string
	ExpectedSizeBytes *uint64
	ExpectedHash      string // lowercase hex sha1; empty means unverified
}

// NewDownloadTask builds a DownloadTask from origin and mirror URL
// lists and a local path.
func NewDownloadTask(originURLs, mirrorURLs []string, localPath string) DownloadTask {
	return DownloadTask{
		OriginURLs: originURLs,
		MirrorURLs: mirrorURLs,
		LocalPath:  localPath,
	}
}

// WithExpectedSize sets the expected size in bytes, used to decide
// between the single-stream and ranged-parallel download paths.
func (t DownloadTask) WithExpectedSize(size uint64) DownloadTask {
	t.ExpectedSizeBytes = &size
	return t
}

// WithExpectedHash sets the expected sha1 hex digest used for
// short-circuit and post-download verification.
func (t DownloadTask) WithExpectedHash(hash string) DownloadTask {
	t.ExpectedHash = hash
	return t
}

// URLsFor returns the URL list to attempt under the given strategy:
// Hybrid concatenates origin then mirror, OriginOnly/MirrorOnly return
// just their respective list.
func (t DownloadTask) URLsFor(strategy DownloadStrategy) []string {
	switch strategy {
	case OriginOnly:
		return t.OriginURLs
	case MirrorOnly:
		return t.MirrorURLs
	default:
		urls := make([]string, 0, len(t.OriginURLs)+len(t.MirrorURLs))
		urls = append(urls, t.OriginURLs...)
		urls = append(urls, t.MirrorURLs...)
		return urls
	}
}

// FileChecker describes how to validate a file once it lands locally:
// minimum/expected size, an expected content hash, whether an existing
// local copy may short-circuit the download, and whether the payload is
// structured JSON that gets parsed after fetch.
type FileChecker struct {
	MinSize       *int64
	ExpectedSize  *int64
	ExpectedHash  string
	MayUseExisting bool
	IsStructuredJSON bool
}

// NewFileChecker returns a FileChecker with MayUseExisting true and
// everything else unset.
func NewFileChecker() FileChecker {
	return FileChecker{MayUseExisting: true}
}

// Satisfied reports whether the file at path already meets this
// checker's size expectations, so the Planner can decide to skip
// re-downloading it. It does not perform hash verification; that is the
// Downloader's job via the pre-fetch short-circuit.
func (c FileChecker) Satisfied(path string, actualSize int64) bool {
	if !c.MayUseExisting {
		return false
	}
	if c.MinSize != nil && actualSize < *c.MinSize {
		return false
	}
	if c.ExpectedSize != nil && actualSize != *c.ExpectedSize {
		return false
	}
	return true
}

// NetFile is a planner-side value object: a candidate URL list, a path
// relative to the install root, and a FileChecker. The Planner converts
// NetFiles to DownloadTasks (via the Source Router) before handing them
// to the Downloader.
type NetFile struct {
	URLs      []string
	LocalPath string // relative to the install root
	Checker   FileChecker
}

// VersionManifestResult is what the Manifest Loader returns: the parsed
// manifest document plus whether it came from the origin (cache hits
// always report false, since the cache does not preserve provenance).
type VersionManifestResult struct {
	IsFromOrigin bool
	Document     map[string]any
}

// McInstance is a resolved Minecraft install target: a name, optional
// inherited version name, the parsed per-version JSON, and the
// versions/<name>/ path fragment it lives under.
type McInstance struct {
	Name         string
	InheritName  string
	JSONObject   map[string]any
	PathVersion  string
}

// TaskStatus is the lifecycle state of a Task. The zero value is
// Pending. Transitions: Pending -> Running -> (Completed | Failed).
// Paused is reserved; nothing in this core transitions into it.
type TaskStatus struct {
	kind   taskStatusKind
	reason string
}

type taskStatusKind int

const (
	StatusPending taskStatusKind = iota
	StatusRunning
	StatusPaused
	StatusCompleted
	StatusFailed
)

// Pending returns the Pending status.
func Pending() TaskStatus { return TaskStatus{kind: StatusPending} }

// Running returns the Running status.
func Running() TaskStatus { return TaskStatus{kind: StatusRunning} }

// Completed returns the Completed status.
func Completed() TaskStatus { return TaskStatus{kind: StatusCompleted} }

// Failed returns a Failed status carrying a reason string.
func Failed(reason string) TaskStatus { return TaskStatus{kind: StatusFailed, reason: reason} }

// Kind reports which variant this status holds.
func (s TaskStatus) Kind() taskStatusKind { return s.kind }

// Reason returns the failure reason; empty for non-Failed statuses.
func (s TaskStatus) Reason() string { return s.reason }

// Terminal reports whether this status is Completed or Failed.
func (s TaskStatus) Terminal() bool {
	return s.kind == StatusCompleted || s.kind == StatusFailed
}

func (s TaskStatus) String() string {
	switch s.kind {
	case StatusRunning:
		return "running"
	case StatusPaused:
		return "paused"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed: " + s.reason
	default:
		return "pending"
	}
}

// TaskProgress tracks item and byte counters plus current throughput for
// a running Task.
type TaskProgress struct {
	TotalItems          uint64
	CompletedItems      uint64
	CurrentSpeedMiBPerS float64
	TotalBytes          uint64
	DownloadedBytes     uint64
}

// Percentage returns CompletedItems/TotalItems*100, or 0 if TotalItems
// is 0.
func (p TaskProgress) Percentage() float64 {
	if p.TotalItems == 0 {
		return 0
	}
	return float64(p.CompletedItems) / float64(p.TotalItems) * 100
}

// TaskType identifies the class of job a Task represents. The install
// variants beyond DownloadClient are recognized identifiers only; this
// core does not implement modloader install logic.
type TaskType struct {
	kind custom
	name string
}

type custom int

const (
	TaskDownloadClient custom = iota
	TaskDownloadAssets
	TaskDownloadLibraries
	TaskCheckAssets
	TaskInstallForge
	TaskInstallOptiFine
	TaskInstallFabric
	TaskInstallNeoForge
	TaskInstallLiteLoader
	taskCustom
)

var taskTypeNames = map[custom]string{
	TaskDownloadClient:    "download-client",
	TaskDownloadAssets:    "download-assets",
	TaskDownloadLibraries: "download-libraries",
	TaskCheckAssets:       "check-assets",
	TaskInstallForge:      "install-forge",
	TaskInstallOptiFine:   "install-optifine",
	TaskInstallFabric:     "install-fabric",
	TaskInstallNeoForge:   "install-neoforge",
	TaskInstallLiteLoader: "install-liteloader",
}

// NewTaskType returns a built-in TaskType constant's wrapper.
func NewTaskType(kind custom) TaskType { return TaskType{kind: kind} }

// CustomTaskType returns a Custom(name) variant.
func CustomTaskType(name string) TaskType { return TaskType{kind: taskCustom, name: name} }

// DisplayName returns the identifier used as the first segment of a
// task id, e.g. "download-client".
func (t TaskType) DisplayName() string {
	if t.kind == taskCustom {
		return t.name
	}
	if name, ok := taskTypeNames[t.kind]; ok {
		return name
	}
	return "custom"
}

// TaskInfo is a read-only snapshot of a registered Task: identity,
// lifecycle status, aggregate progress, and timestamps.
//
// Invariant: FinishedAt is set iff Status is Completed or Failed.
type TaskInfo struct {
	ID         string
	Name       string
	Type       TaskType
	Status     TaskStatus
	Progress   TaskProgress
	CreatedAt  time.Time
	StartedAt  *time.Time
	FinishedAt *time.Time
}
