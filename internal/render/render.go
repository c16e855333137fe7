// Package render turns markdown into styled terminal output. Renderers
// are pooled per option set because glamour's TermRenderer is not safe
// for concurrent Render calls.
package render

import (
	"os"

	"github.com/diogo/chatterm/internal/config"
)

// Options selects how markdown is rendered.
type Options struct {
	Style            string // theme name or path to a glamour JSON style
	Width            int    // wrap width in cells
	EnableEmoji      bool   // convert :emoji: codes to unicode
	PreserveNewLines bool   // keep the source line breaks
	TableWrap        bool   // word-wrap table cells
	InlineTableLinks bool   // render links inline inside tables
}

// DefaultOptions returns the options used when no config is available.
func DefaultOptions() Options {
	return Options{
		Style:            ThemeDark,
		Width:            80,
		EnableEmoji:      true,
		PreserveNewLines: true,
		TableWrap:        true,
	}
}

// OptionsFromConfig derives options from the markdown section of the
// user config. GLAMOUR_STYLE in the environment overrides the
// configured style.
func OptionsFromConfig(md config.MarkdownConfig, width int) Options {
	opts := DefaultOptions()
	opts.Width = width
	if md.Style != "" {
		opts.Style = md.Style
	}
	opts.EnableEmoji = md.EnableEmoji
	opts.PreserveNewLines = md.PreserveNewLines
	opts.TableWrap = md.TableWrap
	opts.InlineTableLinks = md.InlineTableLinks
	if style := os.Getenv("GLAMOUR_STYLE"); style != "" {
		opts.Style = style
	}
	return opts
}

// Markdown renders content with a pooled renderer for opts.
func Markdown(content string, opts Options) (string, error) {
	r, err := pool.get(opts)
	if err != nil {
		return "", err
	}
	defer pool.put(opts, r)

	return r.Render(content)
}
