// Package prompt reads secrets and answers from the terminal.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/term"

	"payfamily/internal/app/client"
	"payfamily/internal/app/client/crypto"
)

const (
	MaxAttempts     = 3
	minSecretLength = 8
)

var (
	ErrMismatch       = errors.New("secrets do not match")
	ErrTooShort       = fmt.Errorf("secret must be at least %d characters", minSecretLength)
	ErrTooManyRetries = errors.New("too many failed attempts")
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	warnColor    = color.New(color.FgYellow)
	failColor    = color.New(color.FgRed, color.Bold)
	headerColor  = color.New(color.FgCyan, color.Bold)
)

type Prompter struct {
	in         *bufio.Reader
	out        io.Writer
	readSecret func() ([]byte, error)
}

// New returns a prompter on the process terminal.
func New() *Prompter {
	return &Prompter{
		in:  bufio.NewReader(os.Stdin),
		out: os.Stdout,
		readSecret: func() ([]byte, error) {
			return term.ReadPassword(int(os.Stdin.Fd()))
		},
	}
}

func (p *Prompter) Out() io.Writer {
	return p.out
}

// Secret reads one secret without echo.
func (p *Prompter) Secret(label string) ([]byte, error) {
	fmt.Fprintf(p.out, "%s: ", label)
	secret, err := p.readSecret()
	fmt.Fprintln(p.out)
	if err != nil {
		return nil, fmt.Errorf("read secret: %w", err)
	}
	return secret, nil
}

// NewSecret asks for a secret twice and warns about weak ones.
func (p *Prompter) NewSecret(label string) ([]byte, error) {
	secret, err := p.Secret(label)
	if err != nil {
		return nil, err
	}
	if len(secret) < minSecretLength {
		crypto.ClearMemory(secret)
		return nil, ErrTooShort
	}

	confirm, err := p.Secret("Repeat " + strings.ToLower(label))
	if err != nil {
		crypto.ClearMemory(secret)
		return nil, err
	}
	defer crypto.ClearMemory(confirm)

	if string(secret) != string(confirm) {
		crypto.ClearMemory(secret)
		return nil, ErrMismatch
	}

	if s := crypto.CheckPasswordStrength(string(secret)); s == crypto.PasswordWeak {
		p.Warn("secret strength: %s", s)
	}

	return secret, nil
}

// Line reads one line of input.
func (p *Prompter) Line(label string) (string, error) {
	fmt.Fprintf(p.out, "%s: ", label)
	line, err := p.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// Confirm asks a yes/no question. Anything but y or yes is no.
func (p *Prompter) Confirm(question string) bool {
	answer, err := p.Line(question + " [y/N]")
	if err != nil {
		return false
	}
	answer = strings.ToLower(answer)
	return answer == "y" || answer == "yes"
}

// Retry asks for a secret and passes it to fn. A wrong secret is asked for
// again, up to MaxAttempts times. The accepted secret is returned; the
// caller wipes it.
func (p *Prompter) Retry(label string, fn func(secret []byte) error) ([]byte, error) {
	for attempt := 1; attempt <= MaxAttempts; attempt++ {
		secret, err := p.Secret(label)
		if err != nil {
			return nil, err
		}

		err = fn(secret)
		if err == nil {
			return secret, nil
		}
		crypto.ClearMemory(secret)

		if !errors.Is(err, crypto.ErrAuthFailure) && !errors.Is(err, crypto.ErrDecrypt) {
			return nil, err
		}
		if attempt < MaxAttempts {
			p.Fail("wrong secret or corrupted data, try again")
		}
	}
	return nil, ErrTooManyRetries
}

func (p *Prompter) Header(format string, args ...any) {
	headerColor.Fprintf(p.out, format+"\n", args...)
}

func (p *Prompter) Success(format string, args ...any) {
	successColor.Fprintf(p.out, "✓ "+format+"\n", args...)
}

func (p *Prompter) Warn(format string, args ...any) {
	warnColor.Fprintf(p.out, "! "+format+"\n", args...)
}

func (p *Prompter) Fail(format string, args ...any) {
	failColor.Fprintf(p.out, "✗ "+format+"\n", args...)
}

// Unlock asks for the secret until app accepts it and returns it.
func (p *Prompter) Unlock(app *client.App) ([]byte, error) {
	if !app.IsInitialized() {
		return nil, client.ErrNotInitialized
	}
	return p.Retry("Secret", app.Unlock)
}
