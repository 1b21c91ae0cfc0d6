// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package mcassets

import (
	"context"
	"errors"
)

// TaskProgressUpdate is what a running Task reports through its
// progress channel: the task's id, its current aggregate progress, and
// its lifecycle status.
type TaskProgressUpdate struct {
	TaskID   string
	Progress TaskProgress
	Status   TaskStatus
}

// SpeedUpdate is what a running Task reports through the throughput
// sink: bytes downloaded since the last report for a given task.
type SpeedUpdate struct {
	TaskID string
	Bytes  uint64
}

// Task is the polymorphic capability every registered job implements.
// DownloadClientTask is the only variant this core ships; other task
// types (install flows) are exposed only as TaskType identifiers.
type Task interface {
	Type() TaskType
	Name() string
	Execute(ctx context.Context, id string, progress chan<- TaskProgressUpdate) error
}

// DownloadClientTask plans and runs the full client install (version
// JSON, client jar, asset index, asset objects, library artifacts) for
// a single Minecraft version.
type DownloadClientTask struct {
	McVersion   string
	InstallRoot string
	Config      DownloadConfig
}

// NewDownloadClientTask returns a DownloadClientTask for mcVersion,
// installing into installRoot under cfg.
func NewDownloadClientTask(mcVersion, installRoot string, cfg DownloadConfig) *DownloadClientTask {
	return &DownloadClientTask{McVersion: mcVersion, InstallRoot: installRoot, Config: cfg}
}

// Type returns TaskDownloadClient.
func (t *DownloadClientTask) Type() TaskType { return NewTaskType(TaskDownloadClient) }

// Name returns the Minecraft version this task installs.
func (t *DownloadClientTask) Name() string { return t.McVersion }

// Execute plans and runs the download batch, forwarding progress
// updates onto the supplied channel. When any file of the batch fails,
// it returns an error carrying the planner's failure summary.
func (t *DownloadClientTask) Execute(ctx context.Context, id string, progress chan<- TaskProgressUpdate) error {
	planner := NewPlanner(t.Config)

	var totalItems uint64
	var failure string
	sink := func(total, completed int, status TaskStatus) {
		totalItems = uint64(total)
		if status.Kind() == StatusFailed {
			failure = status.Reason()
		}
		update := TaskProgressUpdate{
			TaskID: id,
			Progress: TaskProgress{
				TotalItems:     totalItems,
				CompletedItems: uint64(completed),
			},
			Status: status,
		}
		progress <- update
	}

	_, err := planner.PlanAndRun(ctx, t.McVersion, t.InstallRoot, sink)
	if err == nil && failure != "" {
		err = errors.New(failure)
	}
	return err
}
