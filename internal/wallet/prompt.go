package wallet

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/pterm/pterm"
	"golang.org/x/term"
)

// ErrNotInteractive is returned when a prompt is needed but stdin is not a terminal.
var ErrNotInteractive = errors.New("stdin is not a terminal")

// TerminalPrompter asks on the controlling terminal. A preset password, e.g.
// from the environment, skips the password prompt.
type TerminalPrompter struct {
	password string
	out      io.Writer
}

// NewTerminalPrompter creates a prompter. password may be empty.
func NewTerminalPrompter(password string) *TerminalPrompter {
	return &TerminalPrompter{password: password, out: os.Stderr}
}

func (p *TerminalPrompter) Select(title string, options []string) (string, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", ErrNotInteractive
	}
	picked, err := pterm.DefaultInteractiveSelect.
		WithOptions(options).
		WithDefaultOption(options[0]).
		WithMaxHeight(10).
		Show(title)
	if err != nil {
		return "", err
	}
	return picked, nil
}

func (p *TerminalPrompter) Password(prompt string) (string, error) {
	if p.password != "" {
		return p.password, nil
	}
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", ErrNotInteractive
	}
	fmt.Fprint(p.out, prompt+": ")
	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(p.out)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(pw), nil
}
