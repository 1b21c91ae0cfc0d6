// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"testing"
	"time"

	"rtlauncher/mcassets-core/pkg/mcassets"
)

func TestStartInstall_ReturnsDownloadClientTask(t *testing.T) {
	srv := newTestServer()
	defer srv.tasks.Close()

	info, err := srv.startInstall("1.21-does-not-exist")
	if err != nil {
		t.Fatalf("startInstall failed: %v", err)
	}
	if info.ID == "" {
		t.Error("expected a non-empty task id")
	}
	if info.Type.DisplayName() != "download-client" {
		t.Errorf("type = %q, want download-client", info.Type.DisplayName())
	}
}

func TestStartInstall_RegistersUnderTaskManager(t *testing.T) {
	srv := newTestServer()
	defer srv.tasks.Close()

	info, err := srv.startInstall("1.21")
	if err != nil {
		t.Fatalf("startInstall failed: %v", err)
	}

	got, ok := srv.tasks.GetTaskInfo(info.ID)
	if !ok {
		t.Fatal("expected task to be registered in the Task Manager")
	}
	if got.ID != info.ID {
		t.Error("returned info should match the registered task")
	}
}

func TestBroadcastTaskUntilTerminal_StopsOnTerminalStatus(t *testing.T) {
	srv := newTestServer()
	defer srv.tasks.Close()

	task := mcassets.NewDownloadClientTask("1.21", srv.config.InstallRoot, srv.config.Download)
	id := srv.tasks.AppendTask(task)
	srv.tasks.UpdateProgress(id, mcassets.TaskProgress{}, mcassets.Completed())

	done := make(chan struct{})
	go func() {
		srv.broadcastTaskUntilTerminal(id)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("broadcastTaskUntilTerminal never returned for a terminal task")
	}
}
