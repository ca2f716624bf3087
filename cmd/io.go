package cmd

import (
	"bufio"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/etnz/brokerhub/renderer"
	"golang.org/x/term"
)

var (
	stdin  io.Reader = os.Stdin
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr

	// color enables styled markdown on terminals.
	color = true

	lines *bufio.Reader
)

func input() *bufio.Reader {
	if lines == nil {
		lines = bufio.NewReader(stdin)
	}
	return lines
}

// readLine reads one line of stdin without its line ending.
// A last line without ending is returned as is; io.EOF only when nothing is left.
func readLine() (string, error) {
	s, err := input().ReadString('\n')
	if errors.Is(err, io.EOF) && s != "" {
		err = nil
	}
	return strings.TrimRight(s, "\r\n"), err
}

// prompt asks for a value on stderr and reads it from stdin.
func prompt(label string) (string, error) {
	fmt.Fprintf(stderr, "%s: ", label)
	s, err := readLine()
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", strings.ToLower(label), err)
	}
	return strings.TrimSpace(s), nil
}

// promptSecret is prompt without echo when stdin is a terminal.
func promptSecret(label string) (string, error) {
	f, ok := stdin.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		fmt.Fprintf(stderr, "%s: ", label)
		s, err := readLine()
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", strings.ToLower(label), err)
		}
		return s, nil
	}
	fmt.Fprintf(stderr, "%s: ", label)
	b, err := term.ReadPassword(int(f.Fd()))
	fmt.Fprintln(stderr)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", strings.ToLower(label), err)
	}
	return string(b), nil
}

// promptIfEmpty prompts for *v unless it was already given.
func promptIfEmpty(v *string, label string) error {
	if *v != "" {
		return nil
	}
	s, err := prompt(label)
	*v = s
	return err
}

// printMarkdown prints md styled for the terminal, or raw when stdout is not one.
func printMarkdown(md string) {
	if f, ok := stdout.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		style := "notty"
		if color {
			style = "auto"
		}
		if out, err := glamour.Render(md, style); err == nil {
			md = out
		}
	}
	fmt.Fprint(stdout, md)
}

// output is the -format flag shared by the page commands.
type output struct {
	format string
}

func (o *output) SetFlags(f *flag.FlagSet) {
	f.StringVar(&o.format, "format", "md", "Output format: md, html or json")
}

func (o *output) check() error {
	switch o.format {
	case "md", "html", "json":
		return nil
	}
	return fmt.Errorf("unknown format %q, want md, html or json", o.format)
}

// print writes the page either as markdown, as HTML, or v as JSON.
func (o *output) print(md string, v any) error {
	switch o.format {
	case "json":
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(stdout, "%s\n", data)
		return err
	case "html":
		html, err := renderer.ToHTML(md)
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(stdout, html)
		return err
	}
	printMarkdown(md)
	return nil
}
