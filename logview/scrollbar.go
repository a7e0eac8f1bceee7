// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package logview

import (
	"strings"
)

// renderScrollbar produces a single-column scrollbar of the given
// height. The thumb marks the visible window within totalLines; it is
// bright while following and dim while paused.
func renderScrollbar(styles palette, height, totalLines, visibleLines, offset int, following bool) string {
	if height <= 0 {
		return ""
	}

	thumbStyle := styles.thumbDim
	if following {
		thumbStyle = styles.thumb
	}

	lines := make([]string, height)

	if totalLines <= visibleLines || totalLines <= 0 {
		for index := range lines {
			lines[index] = thumbStyle.Render("┃")
		}
		return strings.Join(lines, "\n")
	}

	thumbSize := max(height*visibleLines/totalLines, 1)

	scrollableRange := totalLines - visibleLines
	trackRange := height - thumbSize
	thumbOffset := 0
	if scrollableRange > 0 && trackRange > 0 {
		thumbOffset = offset * trackRange / scrollableRange
	}
	thumbOffset = min(thumbOffset, height-thumbSize)

	for index := range lines {
		if index >= thumbOffset && index < thumbOffset+thumbSize {
			lines[index] = thumbStyle.Render("┃")
		} else {
			lines[index] = styles.track.Render("│")
		}
	}

	return strings.Join(lines, "\n")
}
