package system

import (
	"errors"
	"strings"
	"testing"
)

func TestRunOutput(t *testing.T) {
	e := NewExecutor(false)

	out, err := e.RunOutput("sh", "-c", "echo hello")
	if err != nil {
		t.Fatalf("RunOutput() error = %v", err)
	}
	if out != "hello\n" {
		t.Errorf("RunOutput() = %q, want %q", out, "hello\n")
	}
}

func TestRunInput(t *testing.T) {
	e := NewExecutor(false)

	out, err := e.RunInput(strings.NewReader("line one\nline two\n"), "sh", "-c", "wc -l")
	if err != nil {
		t.Fatalf("RunInput() error = %v", err)
	}
	if strings.TrimSpace(out) != "2" {
		t.Errorf("RunInput() = %q, want 2", out)
	}
}

func TestRunFailureCarriesStderr(t *testing.T) {
	e := NewExecutor(false)

	_, err := e.RunOutput("sh", "-c", "echo 'No key available' >&2; exit 2")
	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("RunOutput() error = %v, want *CommandError", err)
	}
	if cmdErr.ExitCode() != 2 {
		t.Errorf("ExitCode() = %d, want 2", cmdErr.ExitCode())
	}
	if !strings.Contains(cmdErr.Stderr, "No key available") {
		t.Errorf("Stderr = %q", cmdErr.Stderr)
	}
	if !strings.Contains(err.Error(), "No key available") {
		t.Errorf("Error() = %q, want stderr included", err.Error())
	}
}

func TestRunMissingCommand(t *testing.T) {
	e := NewExecutor(false)

	_, err := e.RunOutput("ephem-definitely-not-installed")
	if !errors.Is(err, ErrCommandNotFound) {
		t.Fatalf("RunOutput() error = %v, want ErrCommandNotFound", err)
	}
}

func TestCheckDependencies(t *testing.T) {
	e := NewExecutor(false)

	if err := e.CheckDependencies([]string{"sh"}); err != nil {
		t.Errorf("CheckDependencies(sh) error = %v", err)
	}
	err := e.CheckDependencies([]string{"sh", "ephem-missing-a", "ephem-missing-b"})
	if !errors.Is(err, ErrCommandNotFound) {
		t.Fatalf("CheckDependencies() error = %v, want ErrCommandNotFound", err)
	}
	if !strings.Contains(err.Error(), "ephem-missing-a, ephem-missing-b") {
		t.Errorf("CheckDependencies() error = %q, want both names", err.Error())
	}
}

func TestRedact(t *testing.T) {
	got := redact([]string{"7z", "x", "-psecret", "-y", "-p", "archive.zip"})
	want := "7z x -p**** -y -p archive.zip"
	if got != want {
		t.Errorf("redact() = %q, want %q", got, want)
	}
}
