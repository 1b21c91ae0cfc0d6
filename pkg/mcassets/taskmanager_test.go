// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package mcassets

import (
	"context"
	"errors"
	"testing"
	"time"
)

type stubTask struct {
	typ     TaskType
	name    string
	execute func(ctx context.Context, id string, progress chan<- TaskProgressUpdate) error
}

func (s *stubTask) Type() TaskType { return s.typ }
func (s *stubTask) Name() string   { return s.name }
func (s *stubTask) Execute(ctx context.Context, id string, progress chan<- TaskProgressUpdate) error {
	return s.execute(ctx, id, progress)
}

func TestTaskManager_AppendTask_IDFormat(t *testing.T) {
	tm := NewTaskManager()
	defer tm.Close()

	task := &stubTask{typ: NewTaskType(TaskDownloadClient), name: "1.21"}
	id := tm.AppendTask(task)

	if len(id) < len("download-client-")+8 {
		t.Fatalf("id %q too short", id)
	}
	info, ok := tm.GetTaskInfo(id)
	if !ok {
		t.Fatal("expected task to be registered")
	}
	if info.Status.Kind() != StatusPending {
		t.Errorf("new task status = %v, want Pending", info.Status)
	}
}

func TestTaskManager_StartTask_CompletesSuccessfully(t *testing.T) {
	tm := NewTaskManager()
	defer tm.Close()

	task := &stubTask{
		typ:  NewTaskType(TaskDownloadClient),
		name: "1.21",
		execute: func(ctx context.Context, id string, progress chan<- TaskProgressUpdate) error {
			progress <- TaskProgressUpdate{TaskID: id, Progress: TaskProgress{TotalItems: 10, CompletedItems: 10}, Status: Completed()}
			return nil
		},
	}
	id := tm.AppendTask(task)
	if err := tm.StartTask(context.Background(), id); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		info, _ := tm.GetTaskInfo(id)
		if info.Status.Terminal() {
			if info.Status.Kind() != StatusCompleted {
				t.Fatalf("status = %v, want Completed", info.Status)
			}
			if info.FinishedAt == nil {
				t.Fatal("expected FinishedAt to be set")
			}
			if info.Progress.CompletedItems != info.Progress.TotalItems {
				t.Fatalf("completed=%d total=%d", info.Progress.CompletedItems, info.Progress.TotalItems)
			}
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("task never reached a terminal state")
}

func TestTaskManager_StartTask_RecordsFailure(t *testing.T) {
	tm := NewTaskManager()
	defer tm.Close()

	task := &stubTask{
		typ:  NewTaskType(TaskDownloadClient),
		name: "1.21",
		execute: func(ctx context.Context, id string, progress chan<- TaskProgressUpdate) error {
			return errors.New("boom")
		},
	}
	id := tm.AppendTask(task)
	if err := tm.StartTask(context.Background(), id); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		info, _ := tm.GetTaskInfo(id)
		if info.Status.Terminal() {
			if info.Status.Kind() != StatusFailed {
				t.Fatalf("status = %v, want Failed", info.Status)
			}
			if info.Status.Reason() != "boom" {
				t.Fatalf("reason = %q", info.Status.Reason())
			}
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("task never reached a terminal state")
}

func TestTaskManager_StartTask_RejectsNonPending(t *testing.T) {
	tm := NewTaskManager()
	defer tm.Close()

	task := &stubTask{
		typ:  NewTaskType(TaskDownloadClient),
		name: "1.21",
		execute: func(ctx context.Context, id string, progress chan<- TaskProgressUpdate) error {
			time.Sleep(200 * time.Millisecond)
			return nil
		},
	}
	id := tm.AppendTask(task)
	if err := tm.StartTask(context.Background(), id); err != nil {
		t.Fatal(err)
	}
	if err := tm.StartTask(context.Background(), id); err == nil {
		t.Fatal("expected an error starting an already-running task")
	}
}

func TestTaskManager_GetAllTasks(t *testing.T) {
	tm := NewTaskManager()
	defer tm.Close()

	for i := 0; i < 3; i++ {
		tm.AppendTask(&stubTask{typ: NewTaskType(TaskDownloadClient), name: "v"})
	}
	if got := len(tm.GetAllTasks()); got != 3 {
		t.Fatalf("got %d tasks, want 3", got)
	}
}

func TestTaskManager_ThroughputAggregator(t *testing.T) {
	tm := NewTaskManager()
	defer tm.Close()

	task := &stubTask{typ: NewTaskType(TaskDownloadClient), name: "1.21"}
	id := tm.AppendTask(task)

	tm.SpeedSender() <- SpeedUpdate{TaskID: id, Bytes: 1024 * 1024}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		info, _ := tm.GetTaskInfo(id)
		if info.Progress.DownloadedBytes > 0 {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatal("throughput aggregator never committed the accumulated bytes")
}
