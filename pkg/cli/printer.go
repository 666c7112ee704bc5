// Package cli holds the terminal helpers shared by the pingoo commands.
package cli

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"golang.org/x/term"
)

var (
	bold   = color.New(color.Bold).SprintfFunc()
	green  = color.New(color.FgGreen).SprintfFunc()
	yellow = color.New(color.FgYellow).SprintfFunc()
	red    = color.New(color.FgRed).SprintfFunc()
)

type Printer struct {
	out    io.Writer
	pretty bool
}

// NewPrinter returns a printer writing to out. JSON bodies are indented when
// out is a terminal.
func NewPrinter(out io.Writer) *Printer {
	return &Printer{
		out:    out,
		pretty: IsTerminal(out),
	}
}

func (p *Printer) Println(a ...any) {
	fmt.Fprintln(p.out, a...)
}

func (p *Printer) Printf(format string, a ...any) {
	fmt.Fprintf(p.out, format, a...)
}

// PrintError prints an error message
func (p *Printer) PrintError(err error) {
	p.Println(red("❌ %s", err))
}

func (p *Printer) PrintSuccess(format string, a ...any) {
	p.Println(green("✓ "+format, a...))
}

func (p *Printer) PrintWarning(format string, a ...any) {
	p.Println(yellow(format, a...))
}

// PrintField prints an indented "key: value" line.
func (p *Printer) PrintField(key string, value any) {
	p.Printf("  %s: %v\n", bold(key), value)
}

// PrintBody prints a response body, indenting it when it is JSON and the
// printer writes to a terminal.
func (p *Printer) PrintBody(body []byte) {
	formatted := FormatBody(body, p.pretty)
	if formatted == "" {
		return
	}
	p.Println(formatted)
}

// FormatBody returns body as text. With indent, valid JSON is re-indented;
// anything else is returned as is.
func FormatBody(body []byte, indent bool) string {
	trimmed := bytes.TrimSpace(body)
	if !indent || !json.Valid(trimmed) {
		return strings.TrimRight(string(body), "\n")
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, trimmed, "", "  "); err != nil {
		return string(trimmed)
	}
	return buf.String()
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w any) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// ReadSecret prints prompt to out and reads one line from in. On a terminal
// the input is not echoed.
func ReadSecret(in io.Reader, out io.Writer, prompt string) (string, error) {
	fmt.Fprint(out, prompt)

	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		secret, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(out)
		if err != nil {
			return "", fmt.Errorf("failed to read input: %w", err)
		}
		return strings.TrimSpace(string(secret)), nil
	}

	if in == nil {
		return "", errors.New("no input available")
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}
