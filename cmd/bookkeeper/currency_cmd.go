package main

import (
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/iho/bookkeeper/internal/domain"
	"github.com/iho/bookkeeper/internal/usecase"
)

func (c *cli) currencyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "currency",
		Short: "Manage currencies and exchange rates",
	}

	var isBase bool
	register := &cobra.Command{
		Use:   "register CODE",
		Short: "Register a currency",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.services(cmd.Context())
			if err != nil {
				return err
			}
			cur, err := svc.currencies.RegisterCurrency(cmd.Context(), usecase.RegisterCurrencyInput{Code: args[0], IsBase: isBase})
			if err != nil {
				return err
			}
			return printJSON(c.stdout, newCurrencyView(cur))
		},
	}
	register.Flags().BoolVar(&isBase, "base", false, "Make this the base currency")

	setBase := &cobra.Command{
		Use:   "set-base CODE",
		Short: "Make a currency the single base currency",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.services(cmd.Context())
			if err != nil {
				return err
			}
			if err := svc.currencies.SetBase(cmd.Context(), args[0]); err != nil {
				return err
			}
			printLine(c, "base currency: %s", args[0])
			return nil
		},
	}

	clearBase := &cobra.Command{
		Use:   "clear-base",
		Short: "Unset the base currency",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.services(cmd.Context())
			if err != nil {
				return err
			}
			return svc.currencies.ClearBase(cmd.Context())
		},
	}

	get := &cobra.Command{
		Use:   "get CODE",
		Short: "Show a currency",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.services(cmd.Context())
			if err != nil {
				return err
			}
			cur, err := svc.currencies.GetCurrency(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(c.stdout, newCurrencyView(cur))
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List currencies",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.services(cmd.Context())
			if err != nil {
				return err
			}
			currencies, err := svc.currencies.ListCurrencies(cmd.Context())
			if err != nil {
				return err
			}
			views := make([]currencyView, 0, len(currencies))
			for _, cur := range currencies {
				views = append(views, newCurrencyView(cur))
			}
			return printJSON(c.stdout, views)
		},
	}

	updateRate := &cobra.Command{
		Use:   "update-rate CODE RATE",
		Short: "Record an observed exchange rate to the base currency",
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rate, err := decimal.NewFromString(args[1])
			if err != nil {
				return domain.NewValidationError(domain.ErrInvalidRate, "rate", "cannot parse %q", args[1])
			}
			at, err := timeFlag(cmd, "at")
			if err != nil {
				return err
			}

			svc, err := c.services(cmd.Context())
			if err != nil {
				return err
			}
			cur, err := svc.currencies.UpdateRate(cmd.Context(), usecase.UpdateRateInput{
				Code:       args[0],
				Rate:       rate,
				OccurredAt: at,
				Source:     optionalString(cmd, "source"),
			})
			if err != nil {
				return err
			}
			return printJSON(c.stdout, newCurrencyView(cur))
		},
	}
	updateRate.Flags().String("at", "", "Observation time (RFC 3339; naive times are UTC)")
	updateRate.Flags().String("source", "", "Where the rate came from")

	var limit int
	events := &cobra.Command{
		Use:   "events [CODE]",
		Short: "List exchange-rate audit events, newest first",
		Args:  maxArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code := ""
			if len(args) == 1 {
				code = args[0]
			}
			svc, err := c.services(cmd.Context())
			if err != nil {
				return err
			}
			evs, err := svc.currencies.ListRateEvents(cmd.Context(), usecase.ListRateEventsInput{Code: code, Limit: limit})
			if err != nil {
				return err
			}
			views := make([]eventView, 0, len(evs))
			for _, e := range evs {
				views = append(views, newEventView(e))
			}
			return printJSON(c.stdout, views)
		},
	}
	events.Flags().IntVar(&limit, "limit", 20, "Maximum number of events")

	cmd.AddCommand(register, setBase, clearBase, get, list, updateRate, events)
	return cmd
}
