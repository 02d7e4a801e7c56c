package ui

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/nace/ephem/internal/system"
	"golang.org/x/term"
)

// ErrNotTerminal is returned when a prompt needs a terminal on stdin
var ErrNotTerminal = errors.New("stdin is not a terminal (use --password-stdin)")

// StdinIsTerminal reports whether stdin is attached to a terminal
func StdinIsTerminal() bool {
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// PromptPassword prompts for a password without echoing
func PromptPassword(prompt string) (*system.SecureBytes, error) {
	if !StdinIsTerminal() {
		return nil, ErrNotTerminal
	}
	fmt.Fprintf(os.Stderr, "%s: ", prompt)
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr) // New line after password input
	if err != nil {
		return nil, err
	}
	return system.NewSecureBytes(password), nil
}

// PromptNewPassword prompts for a password twice and checks both match
func PromptNewPassword() (*system.SecureBytes, error) {
	password, err := PromptPassword("Enter passphrase")
	if err != nil {
		return nil, err
	}
	confirm, err := PromptPassword("Confirm passphrase")
	if err != nil {
		password.Zeroize()
		return nil, err
	}
	defer confirm.Zeroize()

	if !bytes.Equal(password.Bytes(), confirm.Bytes()) {
		password.Zeroize()
		return nil, fmt.Errorf("passphrases don't match")
	}
	return password, nil
}

// ReadPassword reads a single line password from r, stripping the line
// ending
func ReadPassword(r io.Reader) (*system.SecureBytes, error) {
	line, err := bufio.NewReader(r).ReadBytes('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read passphrase: %w", err)
	}
	line = bytes.TrimRight(line, "\r\n")
	if len(line) == 0 {
		return nil, fmt.Errorf("empty passphrase on stdin")
	}
	return system.NewSecureBytes(line), nil
}
