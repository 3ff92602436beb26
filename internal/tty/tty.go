package tty

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// DefaultWidth is used when the output is not a terminal
const DefaultWidth = 80

var (
	// fatih/color disables these automatically when stdout is not a TTY
	msgColor   = color.New(color.FgBlue, color.Bold)
	warnColor  = color.New(color.FgYellow, color.Bold)
	errorColor = color.New(color.FgRed, color.Bold)
	itemColor  = color.New(color.Bold)
)

// Printer writes user-facing messages
type Printer struct {
	out io.Writer
	err io.Writer
}

// New creates a printer writing messages to out and errors to errOut
func New(out, errOut io.Writer) *Printer {
	return &Printer{out: out, err: errOut}
}

// Stdout returns a printer bound to the process streams
func Stdout() *Printer {
	return New(os.Stdout, os.Stderr)
}

// Out returns the writer regular messages go to
func (p *Printer) Out() io.Writer {
	return p.out
}

// Msg prints an informational line prefixed with "==>"
func (p *Printer) Msg(format string, args ...any) {
	_, _ = msgColor.Fprint(p.out, "==> ")
	_, _ = fmt.Fprintf(p.out, format+"\n", args...)
}

// Warn prints a warning line
func (p *Printer) Warn(format string, args ...any) {
	_, _ = warnColor.Fprint(p.out, "==> Warning: ")
	_, _ = fmt.Fprintf(p.out, format+"\n", args...)
}

// Error prints an error line to the error stream
func (p *Printer) Error(err error) {
	_, _ = errorColor.Fprint(p.err, "==> Error: ")
	_, _ = fmt.Fprintln(p.err, err)
}

// Println prints a plain line
func (p *Printer) Println(args ...any) {
	_, _ = fmt.Fprintln(p.out, args...)
}

// Colify prints items in columns fitted to width
func (p *Printer) Colify(items []string, width int) {
	for _, line := range Columns(items, width) {
		_, _ = itemColor.Fprintln(p.out, line)
	}
}

// Width returns the width of the terminal attached to f, or DefaultWidth
func Width(f *os.File) int {
	if f == nil || !term.IsTerminal(int(f.Fd())) {
		return DefaultWidth
	}
	w, _, err := term.GetSize(int(f.Fd()))
	if err != nil || w <= 0 {
		return DefaultWidth
	}
	return w
}
