// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package logview

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// DefaultPollInterval is how often the viewer checks the log file for
// new content.
const DefaultPollInterval = 500 * time.Millisecond

// loadedMsg carries a fresh read of the log file.
type loadedMsg struct {
	content string
	size    int64
	modTime time.Time
	err     error
}

// unchangedMsg reports a poll that found nothing new.
type unchangedMsg struct{}

// tickMsg triggers a poll.
type tickMsg struct{}

// Viewer is a bubbletea model that pages through a log file. In follow
// mode (the default) it stays pinned to the end as the file grows;
// scrolling up leaves follow mode.
type Viewer struct {
	path     string
	interval time.Duration
	keys     KeyMap
	palette  palette

	viewport viewport.Model
	width    int
	height   int
	follow   bool

	size    int64
	modTime time.Time
	lines   int
	err     error
}

// NewViewer returns a Viewer for path. A non-positive interval uses
// DefaultPollInterval.
func NewViewer(path string, interval time.Duration) Viewer {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return Viewer{
		path:     path,
		interval: interval,
		keys:     DefaultKeyMap,
		palette:  newPalette(lipgloss.DefaultRenderer()),
		follow:   true,
	}
}

// Init loads the file and starts polling.
func (v Viewer) Init() tea.Cmd {
	return tea.Batch(v.load(), v.tick())
}

// Update handles one message.
func (v Viewer) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch message := message.(type) {
	case tea.WindowSizeMsg:
		v.width = message.Width
		v.height = message.Height
		v.viewport.Width = max(message.Width-1, 1)
		v.viewport.Height = max(message.Height-1, 1)
		if v.follow {
			v.viewport.GotoBottom()
		}
		return v, nil

	case tea.KeyMsg:
		return v.handleKey(message)

	case tickMsg:
		return v, tea.Batch(v.poll(), v.tick())

	case unchangedMsg:
		return v, nil

	case loadedMsg:
		if message.err != nil {
			v.err = message.err
			return v, nil
		}
		v.err = nil
		v.size = message.size
		v.modTime = message.modTime
		content := strings.TrimRight(message.content, "\n")
		v.lines = strings.Count(content, "\n") + 1
		if content == "" {
			v.lines = 0
		}
		v.viewport.SetContent(content)
		if v.follow {
			v.viewport.GotoBottom()
		}
		return v, nil
	}

	return v, nil
}

func (v Viewer) handleKey(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(message, v.keys.Quit):
		return v, tea.Quit
	case key.Matches(message, v.keys.Up):
		v.follow = false
		v.viewport.LineUp(1)
	case key.Matches(message, v.keys.Down):
		v.viewport.LineDown(1)
	case key.Matches(message, v.keys.PageUp):
		v.follow = false
		v.viewport.LineUp(max(v.viewport.Height-1, 1))
	case key.Matches(message, v.keys.PageDown):
		v.viewport.LineDown(max(v.viewport.Height-1, 1))
	case key.Matches(message, v.keys.Top):
		v.follow = false
		v.viewport.GotoTop()
	case key.Matches(message, v.keys.Bottom):
		v.viewport.GotoBottom()
	case key.Matches(message, v.keys.Follow):
		v.follow = !v.follow
		if v.follow {
			v.viewport.GotoBottom()
		}
	}
	return v, nil
}

// View renders the viewport with a scrollbar and a one-line status
// bar.
func (v Viewer) View() string {
	if v.width == 0 {
		return "loading " + v.path + "..."
	}

	status := v.palette.status.Render("conjure-log")
	var detail string
	switch {
	case v.err != nil:
		detail = v.palette.errorText.Render(v.err.Error())
	default:
		mode := "paused"
		if v.follow {
			mode = "following"
		}
		detail = v.palette.statusDim.Render(fmt.Sprintf("%s  %d lines  %s  %3.0f%%",
			v.path, v.lines, mode, v.viewport.ScrollPercent()*100))
	}

	scrollbar := renderScrollbar(v.palette, v.viewport.Height, v.lines, v.viewport.Height, v.viewport.YOffset, v.follow)
	body := lipgloss.JoinHorizontal(lipgloss.Top, v.viewport.View(), scrollbar)
	return body + "\n" + status + detail
}

// Following reports whether the viewer is pinned to the end.
func (v Viewer) Following() bool {
	return v.follow
}

func (v Viewer) tick() tea.Cmd {
	return tea.Tick(v.interval, func(time.Time) tea.Msg { return tickMsg{} })
}

func (v Viewer) load() tea.Cmd {
	path := v.path
	return func() tea.Msg { return readLog(path) }
}

// poll rereads the file only when its size or modification time
// changed since the last load.
func (v Viewer) poll() tea.Cmd {
	path, size, modTime := v.path, v.size, v.modTime
	return func() tea.Msg {
		info, err := os.Stat(path)
		if err != nil {
			return loadedMsg{err: err}
		}
		if info.Size() == size && info.ModTime().Equal(modTime) {
			return unchangedMsg{}
		}
		return readLog(path)
	}
}

func readLog(path string) loadedMsg {
	info, err := os.Stat(path)
	if err != nil {
		return loadedMsg{err: err}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return loadedMsg{err: err}
	}
	return loadedMsg{content: string(data), size: info.Size(), modTime: info.ModTime()}
}
