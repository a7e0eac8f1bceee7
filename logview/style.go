// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package logview

import (
	"github.com/charmbracelet/lipgloss"
)

// palette holds the styles for one renderer. Styles are bound to the
// renderer so color detection follows the View's output, not stdout.
type palette struct {
	tag       lipgloss.Style
	text      lipgloss.Style
	errorTag  lipgloss.Style
	errorText lipgloss.Style
	status    lipgloss.Style
	statusDim lipgloss.Style
	track     lipgloss.Style
	thumb     lipgloss.Style
	thumbDim  lipgloss.Style
}

func newPalette(renderer *lipgloss.Renderer) palette {
	return palette{
		tag: renderer.NewStyle().
			Foreground(lipgloss.Color("240")),
		text: renderer.NewStyle(),
		errorTag: renderer.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196")),
		errorText: renderer.NewStyle().
			Foreground(lipgloss.Color("196")),
		status: renderer.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("255")).
			Background(lipgloss.Color("24")).
			Padding(0, 1),
		statusDim: renderer.NewStyle().
			Foreground(lipgloss.Color("244")).
			Padding(0, 1),
		track: renderer.NewStyle().
			Foreground(lipgloss.Color("238")),
		thumb: renderer.NewStyle().
			Foreground(lipgloss.Color("39")),
		thumbDim: renderer.NewStyle().
			Foreground(lipgloss.Color("244")),
	}
}
