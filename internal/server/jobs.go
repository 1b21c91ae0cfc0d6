// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"time"

	"rtlauncher/mcassets-core/pkg/mcassets"
)

// taskBroadcastInterval is how often a running install's TaskInfo is
// polled and pushed to WebSocket clients. The Task Manager itself has no
// subscribe mechanism (callers poll GetTaskInfo), so the bridge polls on
// the server's behalf and pushes a snapshot to the WebSocket hub on
// every tick.
const taskBroadcastInterval = 300 * time.Millisecond

// startInstall registers and starts a DownloadClientTask for mcVersion,
// using the server's configured install root and download settings
// (neither is accepted from the request, to keep the install
// destination under operator control rather than client control).
func (s *Server) startInstall(mcVersion string) (mcassets.TaskInfo, error) {
	task := mcassets.NewDownloadClientTask(mcVersion, s.config.InstallRoot, s.config.Download)
	id := s.tasks.AppendTask(task)

	if err := s.tasks.StartTask(context.Background(), id); err != nil {
		return mcassets.TaskInfo{}, err
	}

	info, _ := s.tasks.GetTaskInfo(id)
	go s.broadcastTaskUntilTerminal(id)
	return info, nil
}

// broadcastTaskUntilTerminal pushes a task's snapshot to every connected
// WebSocket client on each tick until it reaches Completed or Failed.
func (s *Server) broadcastTaskUntilTerminal(id string) {
	ticker := time.NewTicker(taskBroadcastInterval)
	defer ticker.Stop()

	for range ticker.C {
		info, ok := s.tasks.GetTaskInfo(id)
		if !ok {
			return
		}
		s.wsHub.BroadcastTask(info)
		if info.Status.Terminal() {
			return
		}
	}
}
