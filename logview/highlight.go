// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package logview

import (
	"path/filepath"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// highlight returns code with terminal256 syntax highlighting, using
// the lexer registered for path's file name. Unknown file types and
// lexer failures return code unchanged.
func highlight(path, code string) string {
	lexer := lexers.Match(filepath.Base(path))
	if lexer == nil {
		return code
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}

	var buffer strings.Builder
	if err := formatters.TTY256.Format(&buffer, styles.Get("monokai"), iterator); err != nil {
		return code
	}
	return buffer.String()
}
