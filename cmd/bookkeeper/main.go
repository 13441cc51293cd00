package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/iho/bookkeeper/internal/domain"
)

// Exit codes.
const (
	exitOK         = 0
	exitFailure    = 1
	exitValidation = 2
	exitDomain     = 3
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	c := newCLI(stdout, stderr)
	root := c.rootCmd()
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	c.close()

	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
	}
	return exitCode(err)
}

// exitCode maps validation errors to 2, other business-rule errors to 3 and
// everything else to 1.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case domain.IsValidation(err):
		return exitValidation
	case domain.IsDomain(err):
		return exitDomain
	default:
		return exitFailure
	}
}
