// Package output provides the console lines printed outside the prophyle
// log format, such as the distinct "Error: ..." line of a failed command.
package output

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// ColorRed is the ANSI 256 color used for error lines.
const ColorRed = "196"

// ColorYellow is the ANSI 256 color used for warnings.
const ColorYellow = "220"

// Writer prints error and warning lines.
type Writer struct {
	out       io.Writer
	errStyle  lipgloss.Style
	warnStyle lipgloss.Style
}

// New creates a Writer. Colors are used only when out is a terminal and
// NO_COLOR is unset.
func New(out io.Writer) *Writer {
	w := &Writer{
		out:       out,
		errStyle:  lipgloss.NewStyle(),
		warnStyle: lipgloss.NewStyle(),
	}
	if IsTTY(out) && !DetectNoColor() {
		w.errStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorRed))
		w.warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorYellow))
	}
	return w
}

// Error prints "Error: msg" on its own line.
// Errors from writing are intentionally ignored for console output.
func (w *Writer) Error(msg string) {
	_, _ = fmt.Fprintln(w.out, w.errStyle.Render("Error: "+msg))
}

// Errorf prints a formatted error line.
func (w *Writer) Errorf(format string, args ...any) {
	w.Error(fmt.Sprintf(format, args...))
}

// Warning prints "Warning: msg" on its own line.
func (w *Writer) Warning(msg string) {
	_, _ = fmt.Fprintln(w.out, w.warnStyle.Render("Warning: "+msg))
}

// Warningf prints a formatted warning line.
func (w *Writer) Warningf(format string, args ...any) {
	w.Warning(fmt.Sprintf(format, args...))
}

// Raw prints s unchanged.
func (w *Writer) Raw(s string) {
	_, _ = io.WriteString(w.out, s)
}

// IsTTY checks if output is a terminal.
func IsTTY(w io.Writer) bool {
	if w == nil {
		return false
	}
	if f, ok := w.(*os.File); ok {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return false
}

// DetectNoColor checks if NO_COLOR environment variable is set.
func DetectNoColor() bool {
	_, exists := os.LookupEnv("NO_COLOR")
	return exists
}
