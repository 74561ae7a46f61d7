// Copyright 2026 The tcgref Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// Raw HTML in the source is dropped (goldmark's default), so user text
// echoed into a reply cannot inject markup.
var markdown = goldmark.New(
	goldmark.WithExtensions(extension.Strikethrough, extension.Table),
	goldmark.WithRendererOptions(html.WithHardWraps()),
)

// NewMarkdownMessage creates an m.notice whose body is source and whose
// formatted_body is source rendered to HTML. If rendering fails the
// message degrades to plain text.
func NewMarkdownMessage(source string) MessageContent {
	content := NewNotice(source)
	var rendered bytes.Buffer
	if err := markdown.Convert([]byte(source), &rendered); err != nil {
		return content
	}
	content.Format = HTMLFormat
	content.FormattedBody = strings.TrimSpace(rendered.String())
	return content
}
