// Command moneyctl drives the money manager client from a terminal. Every
// command opens a view path and is subject to the same route guard as the
// local HTTP surface: ledger commands need a session, user administration
// needs the Admin role.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"

	"github.com/boddenberg/money-manager-bfa-go/internal/app"
	"github.com/boddenberg/money-manager-bfa-go/internal/config"
	"github.com/boddenberg/money-manager-bfa-go/internal/domain"
	"github.com/boddenberg/money-manager-bfa-go/internal/infra/observability"

	"github.com/spf13/pflag"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "moneyctl: %v\n", err)
		os.Exit(exitCode(err))
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	flags := pflag.NewFlagSet("moneyctl", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.SetInterspersed(false)

	var envFile, logLevel string
	flags.StringVar(&envFile, "env-file", ".env", "dotenv file seeding the environment")
	flags.StringVar(&logLevel, "log-level", "error", "log level (debug, info, warn, error)")
	flags.Usage = func() { usage(stderr, flags) }

	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() == 0 {
		usage(stderr, flags)
		return pflag.ErrHelp
	}

	name, rest := flags.Arg(0), flags.Args()[1:]
	cmd, ok := commands[name]
	if !ok {
		return fmt.Errorf("unknown command %q (see moneyctl --help)", name)
	}

	cfg, err := config.Load(envFile)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := observability.NewLogger(logLevel)
	defer logger.Sync()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	c := &cli{app: a, in: stdin, out: stdout, errOut: stderr}
	return cmd.run(ctx, c, name, rest)
}

func usage(w io.Writer, flags *pflag.FlagSet) {
	fmt.Fprintln(w, "usage: moneyctl [flags] <command> [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "commands:")

	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-16s %s\n", name, commands[name].summary)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "flags:")
	flags.PrintDefaults()
}

// exitCode is 2 for navigations the route guard refused and 1 otherwise.
func exitCode(err error) int {
	var nav *navigationError
	if errors.As(err, &nav) {
		return 2
	}
	return 1
}

// describe renders service errors for a terminal user.
func describe(err error) string {
	switch domain.Kind(err) {
	case domain.KindUnauthorized:
		return "not logged in or session expired (run: moneyctl login)"
	case domain.KindForbidden:
		return "this account is not allowed to do that"
	default:
		return strings.TrimSpace(err.Error())
	}
}
