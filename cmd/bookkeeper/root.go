package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/iho/bookkeeper/internal/domain"
)

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "bookkeeper",
		Short:         "Double-entry bookkeeping engine",
		Long:          `Multi-currency double-entry bookkeeping: currencies and exchange rates, accounts, a balanced journal, balances and trading reports.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.init()
		},
	}

	root.SetOut(c.stdout)
	root.SetErr(c.stderr)
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return domain.NewValidationError(domain.ErrInvalidInput, "flags", "%v", err)
	})

	root.AddCommand(
		c.currencyCmd(),
		c.accountCmd(),
		c.txCmd(),
		c.balanceCmd(),
		c.tradingCmd(),
		c.ledgerCmd(),
		c.fxAuditCmd(),
		c.schedulerCmd(),
		c.migrateCmd(),
	)

	return root
}

// exactArgs is cobra.ExactArgs reporting a validation error.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return domain.NewValidationError(domain.ErrInvalidInput, "args", "%s expects %d argument(s), got %d", cmd.CommandPath(), n, len(args))
		}
		return nil
	}
}

func maxArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) > n {
			return domain.NewValidationError(domain.ErrInvalidInput, "args", "%s accepts at most %d argument(s), got %d", cmd.CommandPath(), n, len(args))
		}
		return nil
	}
}

// timeFlag parses the named flag as a timestamp when it was given.
func timeFlag(cmd *cobra.Command, name string) (*time.Time, error) {
	if !cmd.Flags().Changed(name) {
		return nil, nil
	}
	raw, err := cmd.Flags().GetString(name)
	if err != nil {
		return nil, err
	}
	t, err := domain.ParseTimestamp(raw, name)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// parseMetadata turns key=value pairs into a metadata filter.
func parseMetadata(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, domain.NewValidationError(domain.ErrInvalidInput, "meta", "expected key=value, got %q", p)
		}
		out[strings.TrimSpace(k)] = v
	}
	return out, nil
}

func optionalString(cmd *cobra.Command, name string) *string {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, _ := cmd.Flags().GetString(name)
	return &v
}

func printLine(c *cli, format string, args ...any) {
	fmt.Fprintf(c.stdout, format+"\n", args...)
}
