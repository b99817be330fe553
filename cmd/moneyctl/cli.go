package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/boddenberg/money-manager-bfa-go/internal/app"
	"github.com/boddenberg/money-manager-bfa-go/internal/guard"

	"github.com/spf13/pflag"
	"golang.org/x/term"
)

type cli struct {
	app    *app.App
	in     io.Reader
	out    io.Writer
	errOut io.Writer
}

// navigationError is a view the route guard refused to open.
type navigationError struct {
	target   string
	decision guard.Decision
}

func (e *navigationError) Error() string {
	if e.decision.Reason == guard.ReasonNotLoggedIn {
		return fmt.Sprintf("%s requires a session (run: moneyctl login)", e.target)
	}
	return fmt.Sprintf("%s is not available to this account", e.target)
}

// open runs the route guard for target.
func (c *cli) open(target string) error {
	d := c.app.Navigate(target)
	if d.Allowed() {
		return nil
	}
	return &navigationError{target: target, decision: d}
}

// fail wraps a service error with a terminal-friendly message.
func (c *cli) fail(err error) error {
	if err == nil {
		return nil
	}
	return errors.New(describe(err))
}

func (c *cli) printJSON(v any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// flagSet returns a per-command flag set writing errors to the CLI's
// error stream.
func (c *cli) flagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(c.errOut)
	return fs
}

// readPassword reads a password from the terminal without echo, or the
// first line of stdin when it is not a terminal.
func (c *cli) readPassword(prompt string) (string, error) {
	if f, ok := c.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(c.errOut, prompt)
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(c.errOut)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(b), nil
	}

	scanner := bufio.NewScanner(c.in)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return "", errors.New("read password: no input")
	}
	return strings.TrimRight(scanner.Text(), "\r"), nil
}

// positional checks the argument count and parses ids.
func positional(args []string, names ...string) ([]int64, error) {
	if len(args) != len(names) {
		return nil, fmt.Errorf("expected %s", strings.Join(names, " "))
	}
	ids := make([]int64, len(names))
	for i, name := range names {
		id, err := strconv.ParseInt(args[i], 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("%s must be a positive integer, got %q", name, args[i])
		}
		ids[i] = id
	}
	return ids, nil
}
