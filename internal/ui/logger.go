package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

// Logger provides color-coded, tagged logging on stderr
type Logger struct {
	Verbose bool
	Quiet   bool
	NoColor bool

	out     io.Writer
	info    *color.Color
	success *color.Color
	warning *color.Color
	failure *color.Color
	debug   *color.Color
}

// NewLogger creates a new logger writing to stderr. Colors are also
// disabled when NO_COLOR is set or stderr is not a terminal.
func NewLogger(verbose, quiet, noColor bool) *Logger {
	fd := os.Stderr.Fd()
	if os.Getenv("NO_COLOR") != "" || !(isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)) {
		noColor = true
	}
	return newLogger(colorable.NewColorableStderr(), verbose, quiet, noColor)
}

func newLogger(out io.Writer, verbose, quiet, noColor bool) *Logger {
	l := &Logger{
		Verbose: verbose,
		Quiet:   quiet,
		NoColor: noColor,
		out:     out,
		info:    color.New(color.FgBlue),
		success: color.New(color.FgGreen),
		warning: color.New(color.FgYellow),
		failure: color.New(color.FgRed),
		debug:   color.New(color.FgCyan),
	}
	for _, c := range []*color.Color{l.info, l.success, l.warning, l.failure, l.debug} {
		if noColor {
			c.DisableColor()
		} else {
			c.EnableColor()
		}
	}
	return l
}

func (l *Logger) print(c *color.Color, tag, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(l.out, c.Sprint(tag+" "+msg))
}

// Info logs an informational message
func (l *Logger) Info(format string, args ...interface{}) {
	if l.Quiet {
		return
	}
	l.print(l.info, "[INFO]", format, args...)
}

// Success logs a success message
func (l *Logger) Success(format string, args ...interface{}) {
	if l.Quiet {
		return
	}
	l.print(l.success, "[SUCCESS]", format, args...)
}

// Warning logs a warning message
func (l *Logger) Warning(format string, args ...interface{}) {
	l.print(l.warning, "[WARNING]", format, args...)
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	l.print(l.failure, "[ERROR]", format, args...)
}

// Debug logs a debug message (only if verbose is enabled)
func (l *Logger) Debug(format string, args ...interface{}) {
	if !l.Verbose {
		return
	}
	l.print(l.debug, "[DEBUG]", format, args...)
}
