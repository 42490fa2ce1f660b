package ui

import (
	"fmt"
	"io"
)

// Writer renders CLI output with the configured styles. Write errors
// are ignored, console output is best effort.
type Writer struct {
	out    io.Writer
	styles Styles
}

// New creates a Writer. Color is auto-detected from the output unless
// noColor forces plain mode.
func New(out io.Writer, noColor bool) *Writer {
	styles := NoColorStyles()
	if !noColor && ShouldColor(out) {
		styles = DefaultStyles()
	}
	return &Writer{out: out, styles: styles}
}

// NewPlain creates a Writer that never colors, for tests and pipes.
func NewPlain(out io.Writer) *Writer {
	return &Writer{out: out, styles: NoColorStyles()}
}

// Header prints a bold section heading.
func (w *Writer) Header(msg string) {
	_, _ = fmt.Fprintln(w.out, w.styles.Header.Render(msg))
}

// Success prints a success line.
func (w *Writer) Success(msg string) {
	_, _ = fmt.Fprintf(w.out, "%s %s\n", w.styles.Success.Render("✓"), msg)
}

// Successf prints a formatted success line.
func (w *Writer) Successf(format string, args ...any) {
	w.Success(fmt.Sprintf(format, args...))
}

// Warning prints a warning line.
func (w *Writer) Warning(msg string) {
	_, _ = fmt.Fprintf(w.out, "%s %s\n", w.styles.Warning.Render("!"), msg)
}

// Warningf prints a formatted warning line.
func (w *Writer) Warningf(format string, args ...any) {
	w.Warning(fmt.Sprintf(format, args...))
}

// Error prints an error line.
func (w *Writer) Error(msg string) {
	_, _ = fmt.Fprintf(w.out, "%s %s\n", w.styles.Error.Render("✗"), msg)
}

// Errorf prints a formatted error line.
func (w *Writer) Errorf(format string, args ...any) {
	w.Error(fmt.Sprintf(format, args...))
}

// Item prints one numbered result line with a score.
func (w *Writer) Item(rank int, name string, score float64) {
	_, _ = fmt.Fprintf(w.out, "%2d. %s %s\n",
		rank, name, w.styles.Score.Render(fmt.Sprintf("(%.3f)", score)))
}

// Detail prints an indented secondary line under an item.
func (w *Writer) Detail(label, value string) {
	_, _ = fmt.Fprintf(w.out, "    %s %s\n",
		w.styles.Label.Render(label+":"), value)
}

// KeyValue prints an aligned label/value pair.
func (w *Writer) KeyValue(label, value string) {
	_, _ = fmt.Fprintf(w.out, "%-14s %s\n", w.styles.Label.Render(label), value)
}

// Newline prints an empty line.
func (w *Writer) Newline() {
	_, _ = fmt.Fprintln(w.out)
}
