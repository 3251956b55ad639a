/*
Package render turns command output into something pleasant on a terminal,
and leaves it alone everywhere else.

Markdown is rendered with glamour and JSON is highlighted with chroma,
but only when the writer is a terminal (or the mode says so).
Markdown can also be converted to an HTML fragment with goldmark.
*/
package render

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/alecthomas/chroma/formatters"
	"github.com/alecthomas/chroma/lexers"
	"github.com/alecthomas/chroma/styles"
	"github.com/charmbracelet/glamour"
	"github.com/yuin/goldmark"
	"golang.org/x/term"
)

type Mode uint8

const (
	Mode_Auto     Mode = iota // ANSI when the writer is a terminal, plain otherwise.
	Mode_Plain                // Emit the source unchanged.
	Mode_ANSI                 // Always emit terminal colors.
	Mode_HTML                 // Markdown becomes an HTML fragment.  JSON is left plain.
)

const minWidth = 60

// resolve decides what Mode_Auto means for wr, and how wide it is.
func resolve(wr io.Writer, m Mode) (Mode, int) {
	width := -1
	fd, ok := wr.(interface{ Fd() uintptr })
	if ok {
		width, _, _ = term.GetSize(int(fd.Fd()))
		if width > 0 && width < minWidth {
			width = minWidth
		}
	}
	if m == Mode_Auto {
		if ok && term.IsTerminal(int(fd.Fd())) {
			return Mode_ANSI, width
		}
		return Mode_Plain, width
	}
	return m, width
}

// Markdown writes markdown to wr.
// Terminal rendering failures fall back to the plain source; this is only presentation.
func Markdown(markdown []byte, wr io.Writer, m Mode) error {
	m, width := resolve(wr, m)
	switch m {
	case Mode_HTML:
		return goldmark.Convert(markdown, wr)
	case Mode_ANSI:
		// continue
	default:
		_, err := wr.Write(markdown)
		return err
	}
	opts := []glamour.TermRendererOption{glamour.WithStandardStyle("dark")}
	if width > 0 {
		opts = append(opts, glamour.WithWordWrap(width))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		_, err := wr.Write(markdown)
		return err
	}
	out, err := r.RenderBytes(markdown)
	if err != nil {
		_, err := wr.Write(markdown)
		return err
	}
	_, err = wr.Write(out)
	return err
}

// JSON writes serial to wr indented and ending in one newline, and highlighted when in ANSI mode.
func JSON(serial []byte, wr io.Writer, m Mode) error {
	serial = bytes.TrimSpace(serial)
	var indented bytes.Buffer
	if err := json.Indent(&indented, serial, "", "\t"); err != nil {
		indented.Reset()
		indented.Write(serial)
	}
	indented.WriteByte('\n')

	m, _ = resolve(wr, m)
	if m != Mode_ANSI {
		_, err := wr.Write(indented.Bytes())
		return err
	}
	lexer := lexers.Get("json")
	style := styles.Get("dracula")
	formatter := formatters.Get("terminal256")
	iterator, err := lexer.Tokenise(nil, indented.String())
	if err != nil {
		_, err := wr.Write(indented.Bytes())
		return err
	}
	return formatter.Format(wr, style, iterator)
}
