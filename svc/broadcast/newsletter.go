package broadcast

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// Format selects how Newsletter.Content is interpreted.
type Format string

const (
	FormatHTML     Format = "html"
	FormatMarkdown Format = "markdown"
)

// ParseFormat accepts "", "html" and "markdown" (case-insensitive). The empty
// string means FormatHTML.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatHTML:
		return FormatHTML, nil
	case FormatMarkdown:
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

type Newsletter struct {
	Subject string
	Content string
	Format  Format
}

// Started is returned once delivery has been handed off.
type Started struct {
	Total int `json:"total"`
}

// Report is the outcome of a finished batch.
type Report struct {
	Total  int
	Sent   int
	Failed int
}

// Admin content may carry raw HTML next to markdown, so the renderer keeps it.
var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(html.WithUnsafe()),
)

// RenderContent returns the HTML body for n.
func RenderContent(n Newsletter) (string, error) {
	if n.Format != FormatMarkdown {
		return n.Content, nil
	}
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(n.Content), &buf); err != nil {
		return "", fmt.Errorf("%w: %w", ErrRenderFailed, err)
	}
	return buf.String(), nil
}
