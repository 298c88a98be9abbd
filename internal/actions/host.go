// Package actions talks to the GitHub Actions runner: it reads INPUT_*
// variables, writes step outputs and renders log records as workflow
// commands.
package actions

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/google/uuid"
)

// ErrInvalidBool is returned by BoolInput for values outside the accepted
// spellings.
var ErrInvalidBool = errors.New("input does not meet YAML 1.2 \"Core Schema\" specification")

// Host is the runner environment a step executes in.
type Host struct {
	Out    io.Writer
	Getenv func(string) string
	// FS is used to append to the $GITHUB_OUTPUT file.
	FS billy.Filesystem
	// Delimiter returns heredoc delimiters for multi-line outputs.
	Delimiter func() string
}

// NewHost returns a Host bound to the process environment.
func NewHost(out io.Writer, fsys billy.Filesystem) *Host {
	return &Host{
		Out:    out,
		Getenv: os.Getenv,
		FS:     fsys,
		Delimiter: func() string {
			return "ghadelimiter_" + uuid.NewString()
		},
	}
}

// Logger returns a logger that writes workflow commands to h.Out. Debug
// records are enabled when the runner has step debugging turned on.
func (h *Host) Logger() *slog.Logger {
	level := slog.LevelInfo
	if h.Getenv("RUNNER_DEBUG") == "1" {
		level = slog.LevelDebug
	}
	return slog.New(NewHandler(h.Out, level))
}

// Input returns the trimmed value of the named input.
func (h *Host) Input(name string) string {
	key := "INPUT_" + strings.ToUpper(strings.ReplaceAll(name, " ", "_"))
	return strings.TrimSpace(h.Getenv(key))
}

// BoolInput parses the named input. An unset input is false.
func (h *Host) BoolInput(name string) (bool, error) {
	v := h.Input(name)
	if v == "" {
		return false, nil
	}
	b, err := ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("input %s: %w", name, err)
	}
	return b, nil
}

// ParseBool accepts true, True, TRUE, false, False and FALSE.
func ParseBool(v string) (bool, error) {
	switch v {
	case "true", "True", "TRUE":
		return true, nil
	case "false", "False", "FALSE":
		return false, nil
	}
	return false, fmt.Errorf("%q: %w", v, ErrInvalidBool)
}

// Group wraps the output of fn in a collapsible log group.
func (h *Host) Group(name string, fn func() error) error {
	fmt.Fprintf(h.Out, "::group::%s\n", escapeData(name))
	defer fmt.Fprintln(h.Out, "::endgroup::")
	return fn()
}

// SetOutput records a step output. Outputs go to the file named by
// $GITHUB_OUTPUT when it is set, and are printed otherwise.
func (h *Host) SetOutput(name, value string) error {
	path := h.Getenv("GITHUB_OUTPUT")
	if path == "" || h.FS == nil {
		fmt.Fprintf(h.Out, "%s=%s\n", name, value)
		return nil
	}

	delim := h.Delimiter()
	if strings.Contains(name, delim) || strings.Contains(value, delim) {
		return fmt.Errorf("set output %s: value contains delimiter %s", name, delim)
	}

	f, err := h.FS.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, "%s<<%s\n%s\n%s\n", name, delim, value, delim); err != nil {
		return fmt.Errorf("write output %s: %w", name, err)
	}
	return nil
}

// SetFailed reports err as an error annotation.
func (h *Host) SetFailed(err error) {
	fmt.Fprintf(h.Out, "::error::%s\n", escapeData(err.Error()))
}

func escapeData(s string) string {
	s = strings.ReplaceAll(s, "%", "%25")
	s = strings.ReplaceAll(s, "\r", "%0D")
	return strings.ReplaceAll(s, "\n", "%0A")
}
