package system

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// ErrCommandNotFound is returned when an external tool is not on PATH
var ErrCommandNotFound = errors.New("command not found")

// Executor handles execution of external commands
type Executor struct {
	debug bool
}

// NewExecutor creates a new executor
func NewExecutor(debug bool) *Executor {
	return &Executor{
		debug: debug,
	}
}

// Run executes a command and discards output
func (e *Executor) Run(name string, args ...string) error {
	_, err := e.RunOutput(name, args...)
	return err
}

// RunOutput executes a command and returns stdout
func (e *Executor) RunOutput(name string, args ...string) (string, error) {
	cmd := exec.Command(name, args...)
	return e.RunCmd(cmd)
}

// RunInput executes a command feeding stdin and returns stdout
func (e *Executor) RunInput(stdin io.Reader, name string, args ...string) (string, error) {
	cmd := exec.Command(name, args...)
	cmd.Stdin = stdin
	return e.RunCmd(cmd)
}

// RunCmd executes a prepared command
func (e *Executor) RunCmd(cmd *exec.Cmd) (string, error) {
	if e.debug {
		fmt.Fprintf(os.Stderr, "[DEBUG] Executing: %s\n", redact(cmd.Args))
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return "", fmt.Errorf("%w: %s", ErrCommandNotFound, cmd.Args[0])
		}
		return stdout.String(), &CommandError{
			Name:   cmd.Args[0],
			Err:    err,
			Stdout: stdout.String(),
			Stderr: stderr.String(),
		}
	}

	return stdout.String(), nil
}

// CommandError is returned when an external command exits unsuccessfully
type CommandError struct {
	Name   string
	Err    error
	Stdout string
	Stderr string
}

func (e *CommandError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" {
		return fmt.Sprintf("%s failed: %v", e.Name, e.Err)
	}
	return fmt.Sprintf("%s failed: %v\nStderr: %s", e.Name, e.Err, msg)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ExitCode returns the process exit status, or -1 if the command did not
// run to completion.
func (e *CommandError) ExitCode() int {
	var exitErr *exec.ExitError
	if errors.As(e.Err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

// CommandExists checks if a command is available in PATH
func (e *Executor) CommandExists(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

// CheckDependencies verifies required commands are available
func (e *Executor) CheckDependencies(deps []string) error {
	var missing []string
	for _, dep := range deps {
		if !e.CommandExists(dep) {
			missing = append(missing, dep)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrCommandNotFound, strings.Join(missing, ", "))
	}
	return nil
}

// redact hides inline passwords (7z style -pSECRET) from debug output
func redact(args []string) string {
	out := make([]string, len(args))
	for i, arg := range args {
		if i > 0 && strings.HasPrefix(arg, "-p") && len(arg) > 2 {
			arg = "-p****"
		}
		out[i] = arg
	}
	return strings.Join(out, " ")
}
