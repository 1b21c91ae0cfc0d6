// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"rtlauncher/mcassets-core/pkg/mcassets"
)

const apiVersion = "1.0"

// InstallRequest is the request body for starting a client install.
// Note: the install root is NOT configurable via API, so that the
// install destination stays under operator (server config) control.
type InstallRequest struct {
	McVersion string `json:"mcVersion"`
}

// taskDTOType is the wire shape for a mcassets.TaskInfo snapshot. The
// core type carries no JSON tags (it is not an API concern), so the
// server re-shapes it here into its own tagged wire type.
type taskDTOType struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Type       string    `json:"type"`
	Status     string    `json:"status"`
	Percentage float64   `json:"percentage"`
	Progress   struct {
		TotalItems          uint64  `json:"totalItems"`
		CompletedItems      uint64  `json:"completedItems"`
		DownloadedBytes     uint64  `json:"downloadedBytes"`
		TotalBytes          uint64  `json:"totalBytes"`
		CurrentSpeedMiBPerS float64 `json:"currentSpeedMiBPerSecond"`
	} `json:"progress"`
	CreatedAt  time.Time  `json:"createdAt"`
	StartedAt  *time.Time `json:"startedAt,omitempty"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
	Error      string     `json:"error,omitempty"`
}

func taskInfoDTO(info mcassets.TaskInfo) taskDTOType {
	dto := taskDTOType{
		ID:         info.ID,
		Name:       info.Name,
		Type:       info.Type.DisplayName(),
		Status:     info.Status.String(),
		Percentage: info.Progress.Percentage(),
		CreatedAt:  info.CreatedAt,
		StartedAt:  info.StartedAt,
		FinishedAt: info.FinishedAt,
	}
	dto.Progress.TotalItems = info.Progress.TotalItems
	dto.Progress.CompletedItems = info.Progress.CompletedItems
	dto.Progress.DownloadedBytes = info.Progress.DownloadedBytes
	dto.Progress.TotalBytes = info.Progress.TotalBytes
	dto.Progress.CurrentSpeedMiBPerS = info.Progress.CurrentSpeedMiBPerS
	if info.Status.Kind() == mcassets.StatusFailed {
		dto.Error = info.Status.Reason()
	}
	return dto
}

// SettingsResponse represents current download settings.
type SettingsResponse struct {
	InstallRoot             string `json:"installRoot"`
	MaxConcurrency          int    `json:"maxConcurrency"`
	LargeFileThresholdBytes uint64 `json:"largeFileThresholdBytes"`
	LargeFileChunks         int    `json:"largeFileChunks"`
	Strategy                string `json:"strategy"`
	MaxRetriesPerURL        uint32 `json:"maxRetriesPerUrl"`
}

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// --- Handlers ---

// handleHealth returns server health status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": apiVersion,
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// handleStartInstall starts a new client install task.
func (s *Server) handleStartInstall(w http.ResponseWriter, r *http.Request) {
	var req InstallRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if req.McVersion == "" {
		writeError(w, http.StatusBadRequest, "missing required field: mcVersion", "")
		return
	}

	info, err := s.startInstall(req.McVersion)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to start install", err.Error())
		return
	}

	writeJSON(w, http.StatusAccepted, taskInfoDTO(info))
}

// handleListTasks returns all registered tasks.
func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	tasks := s.tasks.GetAllTasks()
	dtos := make([]taskDTOType, 0, len(tasks))
	for _, t := range tasks {
		dtos = append(dtos, taskInfoDTO(t))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"tasks": dtos,
		"count": len(dtos),
	})
}

// handleGetTask returns a single task by id.
func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing task id", "")
		return
	}

	info, ok := s.tasks.GetTaskInfo(id)
	if !ok {
		writeError(w, http.StatusNotFound, "task not found", "")
		return
	}

	writeJSON(w, http.StatusOK, taskInfoDTO(info))
}

// handleManifest fetches the version manifest and returns its parsed
// document re-encoded as JSON, letting callers browse available versions
// before starting an install.
func (s *Server) handleManifest(w http.ResponseWriter, r *http.Request) {
	pref := mcassets.PreferMirror
	if r.URL.Query().Get("prefer") == "origin" {
		pref = mcassets.PreferOrigin
	}
	refresh := r.URL.Query().Get("refresh") == "true"

	loader := mcassets.NewManifestLoader()
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	result, err := loader.Execute(ctx, pref, refresh)
	if err != nil {
		writeError(w, http.StatusBadGateway, "failed to fetch version manifest", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result.Document)
}

// handleGetSettings returns current download settings.
func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	cfg := s.config.Download
	writeJSON(w, http.StatusOK, SettingsResponse{
		InstallRoot:             s.config.InstallRoot,
		MaxConcurrency:          cfg.MaxConcurrency,
		LargeFileThresholdBytes: cfg.LargeFileThresholdBytes,
		LargeFileChunks:         cfg.LargeFileChunks,
		Strategy:                cfg.Strategy.String(),
		MaxRetriesPerURL:        cfg.MaxRetriesPerURL,
	})
}

// handleUpdateSettings updates download settings.
// Note: the install root cannot be changed via API, to keep the install
// destination under operator (server config) control.
func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MaxConcurrency   *int    `json:"maxConcurrency,omitempty"`
		MaxRetriesPerURL *uint32 `json:"maxRetriesPerUrl,omitempty"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if req.MaxConcurrency != nil && *req.MaxConcurrency > 0 {
		s.config.Download.MaxConcurrency = *req.MaxConcurrency
	}
	if req.MaxRetriesPerURL != nil && *req.MaxRetriesPerURL > 0 {
		s.config.Download.MaxRetriesPerURL = *req.MaxRetriesPerURL
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "settings updated",
	})
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message, details string) {
	writeJSON(w, status, ErrorResponse{
		Error:   message,
		Details: details,
	})
}
