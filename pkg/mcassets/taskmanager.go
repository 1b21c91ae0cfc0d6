// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package mcassets

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	progressChannelCapacity = 100
	speedChannelCapacity    = 1000
	aggregatorTick          = 500 * time.Millisecond
	aggregatorCommitEvery   = 1000 * time.Millisecond
)

type taskEntry struct {
	mu   sync.Mutex
	info TaskInfo
	task Task
}

// TaskManager registers Tasks, runs them on background goroutines, and
// aggregates per-task progress and throughput from two internal
// reducer loops.
type TaskManager struct {
	mu      sync.RWMutex
	entries map[string]*taskEntry

	progressCh chan TaskProgressUpdate
	speedCh    chan SpeedUpdate

	done chan struct{}
}

// NewTaskManager returns a TaskManager with its background progress
// reducer and throughput aggregator running.
func NewTaskManager() *TaskManager {
	tm := &TaskManager{
		entries:    make(map[string]*taskEntry),
		progressCh: make(chan TaskProgressUpdate, progressChannelCapacity),
		speedCh:    make(chan SpeedUpdate, speedChannelCapacity),
		done:       make(chan struct{}),
	}
	go tm.runProgressReducer()
	go tm.runThroughputAggregator()
	return tm
}

// Close stops the background reducer loops. Registered tasks already
// running are not canceled.
func (tm *TaskManager) Close() {
	close(tm.done)
}

// AppendTask registers task as Pending and returns its id, formatted
// "{task_type_display}-{8-char random}".
func (tm *TaskManager) AppendTask(task Task) string {
	id := fmt.Sprintf("%s-%s", task.Type().DisplayName(), shortID())

	entry := &taskEntry{
		task: task,
		info: TaskInfo{
			ID:        id,
			Name:      task.Name(),
			Type:      task.Type(),
			Status:    Pending(),
			CreatedAt: time.Now(),
		},
	}

	tm.mu.Lock()
	tm.entries[id] = entry
	tm.mu.Unlock()
	return id
}

// StartTask transitions id from Pending to Running and spawns the
// background worker that executes it.
func (tm *TaskManager) StartTask(ctx context.Context, id string) error {
	tm.mu.RLock()
	entry, ok := tm.entries[id]
	tm.mu.RUnlock()
	if !ok {
		return fmt.Errorf("unknown task %s", id)
	}

	entry.mu.Lock()
	if entry.info.Status.Kind() != StatusPending {
		entry.mu.Unlock()
		return fmt.Errorf("task %s is not pending", id)
	}
	now := time.Now()
	entry.info.Status = Running()
	entry.info.StartedAt = &now
	entry.mu.Unlock()

	go func() {
		err := entry.task.Execute(ctx, id, tm.progressCh)

		entry.mu.Lock()
		finished := time.Now()
		entry.info.FinishedAt = &finished
		if err != nil {
			entry.info.Status = Failed(err.Error())
		} else {
			entry.info.Status = Completed()
			entry.info.Progress.CompletedItems = entry.info.Progress.TotalItems
		}
		entry.mu.Unlock()
	}()
	return nil
}

// GetTaskInfo returns a read-only snapshot of a registered task.
func (tm *TaskManager) GetTaskInfo(id string) (TaskInfo, bool) {
	tm.mu.RLock()
	entry, ok := tm.entries[id]
	tm.mu.RUnlock()
	if !ok {
		return TaskInfo{}, false
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.info, true
}

// GetAllTasks returns a snapshot of every registered task.
func (tm *TaskManager) GetAllTasks() []TaskInfo {
	tm.mu.RLock()
	defer tm.mu.RUnlock()

	out := make([]TaskInfo, 0, len(tm.entries))
	for _, entry := range tm.entries {
		entry.mu.Lock()
		out = append(out, entry.info)
		entry.mu.Unlock()
	}
	return out
}

// UpdateProgress directly updates a task's progress and status,
// bypassing the channel, for tasks that report progress out-of-band.
func (tm *TaskManager) UpdateProgress(id string, progress TaskProgress, status TaskStatus) {
	tm.mu.RLock()
	entry, ok := tm.entries[id]
	tm.mu.RUnlock()
	if !ok {
		return
	}
	entry.mu.Lock()
	entry.info.Progress = progress
	entry.info.Status = status
	if status.Terminal() && entry.info.FinishedAt == nil {
		now := time.Now()
		entry.info.FinishedAt = &now
	}
	entry.mu.Unlock()
}

// SpeedSender returns the channel tasks send (task_id,
// bytes_downloaded_since_last_report) updates through. The channel is
// buffered (capacity 1000); a plain send on a full channel blocks, and
// an update is dropped only when the sender uses a select with a
// default case.
func (tm *TaskManager) SpeedSender() chan<- SpeedUpdate {
	return tm.speedCh
}

func (tm *TaskManager) runProgressReducer() {
	for {
		select {
		case <-tm.done:
			return
		case update := <-tm.progressCh:
			tm.mu.RLock()
			entry, ok := tm.entries[update.TaskID]
			tm.mu.RUnlock()
			if !ok {
				continue
			}
			entry.mu.Lock()
			entry.info.Progress = update.Progress
			entry.info.Status = update.Status
			if update.Status.Terminal() && entry.info.FinishedAt == nil {
				now := time.Now()
				entry.info.FinishedAt = &now
			}
			entry.mu.Unlock()
		}
	}
}

func (tm *TaskManager) runThroughputAggregator() {
	ticker := time.NewTicker(aggregatorTick)
	defer ticker.Stop()

	accum := make(map[string]uint64)
	lastCommit := time.Now()

	for {
		select {
		case <-tm.done:
			return
		case update := <-tm.speedCh:
			accum[update.TaskID] += update.Bytes
		case now := <-ticker.C:
			if now.Sub(lastCommit) < aggregatorCommitEvery {
				continue
			}
			elapsed := now.Sub(lastCommit).Seconds()
			for id, bytes := range accum {
				tm.mu.RLock()
				entry, ok := tm.entries[id]
				tm.mu.RUnlock()
				if !ok {
					continue
				}
				entry.mu.Lock()
				entry.info.Progress.CurrentSpeedMiBPerS = float64(bytes) / elapsed / (1024 * 1024)
				entry.info.Progress.DownloadedBytes += bytes
				entry.mu.Unlock()
			}
			accum = make(map[string]uint64)
			lastCommit = now
		}
	}
}

// shortID returns an 8-character hex fragment of a fresh uuid, used as
// the random suffix of a task id.
func shortID() string {
	return uuid.NewString()[:8]
}
