// Command sims is the terminal client of the SIMS training dashboard
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/nkiryanov/sims/internal/logger"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Getenv, os.Getwd, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}

// Configure the client and execute one command
// Options priority: flags, environment, '.env' file, defaults
func run(
	ctx context.Context,
	getenv func(string) string,
	getwd func() (string, error),
	args []string,
	in io.Reader,
	out io.Writer,
	errOut io.Writer,
) int {
	c := NewConfig()

	if err := c.LoadDotEnv(getwd); err != nil {
		fmt.Fprintf(errOut, "can't read .env file: %v\n", err)
		return exitError
	}
	if err := c.LoadEnv(getenv); err != nil {
		fmt.Fprintln(errOut, err)
		return exitUsage
	}
	cmdArgs, err := c.ParseFlags(args)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return exitUsage
	}
	if err := c.Validate(); err != nil {
		fmt.Fprintf(errOut, "invalid config: %v\n", err)
		return exitUsage
	}

	l, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		fmt.Fprintf(errOut, "can't initialize logger: %v\n", err)
		return exitUsage
	}

	storage, closeStorage, err := openSessionStorage(ctx, c)
	if err != nil {
		fmt.Fprintf(errOut, "can't open session store: %v\n", err)
		return exitError
	}
	defer func() {
		if err := closeStorage(); err != nil {
			l.Warn("Session store close failed", "error", err)
		}
	}()

	app, err := NewApp(ctx, c, storage, l, in, out, errOut)
	if err != nil {
		fmt.Fprintf(errOut, "can't start: %v\n", err)
		return exitError
	}

	return app.Execute(ctx, cmdArgs)
}
