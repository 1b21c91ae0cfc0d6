// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

// Package tui renders task progress to an interactive terminal.
package tui

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"golang.org/x/term"

	"rtlauncher/mcassets-core/pkg/mcassets"
)

// StatusLine renders a single task's progress as one continuously
// overwritten terminal line: status glyph, name, percentage bar,
// completed/total file counts, and current throughput. It is deliberately NOT a full-screen live
// table the way per-file Hugging Face downloads warranted one -- a
// single client install has one aggregate progress stream, so one line
// is all there is to show.
type StatusLine struct {
	mu       sync.Mutex
	name     string
	supports bool
	noColor  bool
	lastLen  int
}

// NewStatusLine returns a StatusLine for the task named name.
func NewStatusLine(name string) *StatusLine {
	return &StatusLine{
		name:     name,
		supports: term.IsTerminal(int(os.Stdout.Fd())),
		noColor:  os.Getenv("NO_COLOR") != "",
	}
}

// Update renders one frame from a TaskInfo snapshot.
func (l *StatusLine) Update(info mcassets.TaskInfo) {
	l.mu.Lock()
	defer l.mu.Unlock()

	g, col := statusGlyph(info.Status)
	pct := info.Progress.Percentage()
	width := l.barWidth()

	bar := renderBar(width, pct/100)
	speed := humanizeSpeed(info.Progress.CurrentSpeedMiBPerS)

	line := fmt.Sprintf("%s %s %s %3.0f%%  %d/%d files  %s",
		l.colorize(g, col), l.name, bar, pct,
		info.Progress.CompletedItems, info.Progress.TotalItems, speed)

	l.lastLen = len(line)
	fmt.Fprint(os.Stdout, "\r"+line+strings.Repeat(" ", 4))
}

// Finish writes the terminal line and a trailing newline, reflecting
// the task's final status.
func (l *StatusLine) Finish(info mcassets.TaskInfo) {
	l.Update(info)
	fmt.Fprintln(os.Stdout)
}

func (l *StatusLine) barWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		w = 80
	}
	bar := w - len(l.name) - 40
	if bar < 10 {
		bar = 10
	}
	if bar > 40 {
		bar = 40
	}
	return bar
}

func (l *StatusLine) colorize(s string, c *color.Color) string {
	if l.noColor || !l.supports {
		return s
	}
	return c.Sprint(s)
}

// statusGlyph returns the status indicator and color for a task's
// lifecycle state.
func statusGlyph(status mcassets.TaskStatus) (string, *color.Color) {
	switch status.Kind() {
	case mcassets.StatusCompleted:
		return "✓", color.New(color.FgGreen)
	case mcassets.StatusFailed:
		return "×", color.New(color.FgRed)
	case mcassets.StatusRunning:
		return "▶", color.New(color.FgYellow)
	default:
		return "…", color.New(color.FgMagenta)
	}
}

func renderBar(width int, frac float64) string {
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	filled := int(frac * float64(width))
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func humanizeSpeed(mibPerSecond float64) string {
	if mibPerSecond <= 0 {
		return ""
	}
	return fmt.Sprintf("%.1f MiB/s", mibPerSecond)
}

// Poll drives a StatusLine from a TaskManager by polling GetTaskInfo
// every interval until the task reaches a terminal state.
func Poll(get func() (mcassets.TaskInfo, bool), name string, interval time.Duration) {
	line := NewStatusLine(name)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		info, ok := get()
		if !ok {
			return
		}
		if info.Status.Terminal() {
			line.Finish(info)
			return
		}
		line.Update(info)
	}
}
