package main

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/iho/bookkeeper/internal/domain"
	"github.com/iho/bookkeeper/internal/usecase"
)

// postRequest is the JSON document accepted by "tx post".
type postRequest struct {
	OccurredAt  string         `json:"occurred_at"`
	Description string         `json:"description"`
	Metadata    map[string]any `json:"metadata"`
	Lines       []struct {
		Side     string           `json:"side"`
		Account  string           `json:"account"`
		Amount   decimal.Decimal  `json:"amount"`
		Currency string           `json:"currency"`
		Rate     *decimal.Decimal `json:"rate"`
	} `json:"lines"`
}

func decodePostRequest(r io.Reader) (usecase.PostTransactionInput, error) {
	var req postRequest
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return usecase.PostTransactionInput{}, domain.NewValidationError(domain.ErrInvalidInput, "transaction", "cannot decode: %v", err)
	}

	in := usecase.PostTransactionInput{
		Description: req.Description,
		Metadata:    req.Metadata,
	}
	if req.OccurredAt != "" {
		at, err := domain.ParseTimestamp(req.OccurredAt, "occurred_at")
		if err != nil {
			return usecase.PostTransactionInput{}, err
		}
		in.OccurredAt = &at
	}
	for _, l := range req.Lines {
		side, err := domain.ParseEntrySide(l.Side)
		if err != nil {
			return usecase.PostTransactionInput{}, err
		}
		in.Lines = append(in.Lines, domain.EntryLineInput{
			Side:     side,
			Account:  l.Account,
			Amount:   l.Amount,
			Currency: l.Currency,
			Rate:     l.Rate,
		})
	}
	return in, nil
}

func (c *cli) txCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tx",
		Short: "Post and list journal transactions",
	}

	var file string
	post := &cobra.Command{
		Use:   "post",
		Short: "Post a balanced transaction read as JSON from --file or stdin",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = cmd.InOrStdin()
			if file != "" && file != "-" {
				f, err := os.Open(file)
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}

			in, err := decodePostRequest(r)
			if err != nil {
				return err
			}

			svc, err := c.services(cmd.Context())
			if err != nil {
				return err
			}
			tx, err := svc.journal.PostTransaction(cmd.Context(), in)
			if err != nil {
				return err
			}
			return printJSON(c.stdout, newTransactionView(tx, svc.precision))
		},
	}
	post.Flags().StringVarP(&file, "file", "f", "-", "JSON file with the transaction, - for stdin")

	var (
		meta          []string
		limit, offset int
		order         string
	)
	list := &cobra.Command{
		Use:   "list ACCOUNT",
		Short: "List transactions touching an account",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := timeFlag(cmd, "start")
			if err != nil {
				return err
			}
			end, err := timeFlag(cmd, "end")
			if err != nil {
				return err
			}
			filter, err := parseMetadata(meta)
			if err != nil {
				return err
			}

			query := domain.LedgerQueryInput{
				Account: args[0],
				Start:   start,
				End:     end,
				Offset:  offset,
				Limit:   limit,
				Order:   order,
			}
			if filter != nil {
				query.Metadata = filter
			}

			svc, err := c.services(cmd.Context())
			if err != nil {
				return err
			}
			txs, err := svc.journal.ListTransactions(cmd.Context(), query)
			if err != nil {
				return err
			}
			views := make([]transactionView, 0, len(txs))
			for _, tx := range txs {
				views = append(views, newTransactionView(tx, svc.precision))
			}
			return printJSON(c.stdout, views)
		},
	}
	list.Flags().String("start", "", "Only transactions at or after this time")
	list.Flags().String("end", "", "Only transactions at or before this time")
	list.Flags().StringArrayVar(&meta, "meta", nil, "Metadata filter key=value (repeatable)")
	list.Flags().IntVar(&limit, "limit", 50, "Page size")
	list.Flags().IntVar(&offset, "offset", 0, "Page offset")
	list.Flags().StringVar(&order, "order", "ASC", "ASC or DESC by occurrence time")

	cmd.AddCommand(post, list)
	return cmd
}

type balanceView struct {
	Account string    `json:"account"`
	Balance string    `json:"balance"`
	AsOf    time.Time `json:"as_of"`
}

func (c *cli) balanceCmd() *cobra.Command {
	var recompute bool
	cmd := &cobra.Command{
		Use:   "balance ACCOUNT",
		Short: "Show an account balance (debits minus credits)",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			asOf, err := timeFlag(cmd, "as-of")
			if err != nil {
				return err
			}
			if asOf == nil {
				now := time.Now().UTC()
				asOf = &now
			}

			svc, err := c.services(cmd.Context())
			if err != nil {
				return err
			}
			name, balance, err := svc.journal.GetBalance(cmd.Context(), usecase.GetBalanceInput{
				Account:   args[0],
				AsOf:      asOf,
				Recompute: recompute,
			})
			if err != nil {
				return err
			}
			return printJSON(c.stdout, balanceView{Account: name.String(), Balance: balance, AsOf: *asOf})
		},
	}
	cmd.Flags().String("as-of", "", "Balance at this time (default now)")
	cmd.Flags().BoolVar(&recompute, "recompute", false, "Ignore cached state and recompute from the journal")
	return cmd
}

func (c *cli) tradingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trading",
		Short: "Per-currency trading balance reports",
	}

	raw := &cobra.Command{
		Use:   "raw",
		Short: "Debit, credit and net per currency",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			asOf, err := timeFlag(cmd, "as-of")
			if err != nil {
				return err
			}
			svc, err := c.services(cmd.Context())
			if err != nil {
				return err
			}
			rows, err := svc.trading.RawBalance(cmd.Context(), usecase.TradingBalanceInput{AsOf: asOf})
			if err != nil {
				return err
			}
			views := make([]tradingRowView, 0, len(rows))
			for _, r := range rows {
				views = append(views, newTradingRowView(r, svc.precision))
			}
			return printJSON(c.stdout, views)
		},
	}
	raw.Flags().String("as-of", "", "Only lines at or before this time")

	var base, convention, mode string
	detailed := &cobra.Command{
		Use:   "detailed",
		Short: "Trading balance with base-currency equivalents",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			asOf, err := timeFlag(cmd, "as-of")
			if err != nil {
				return err
			}
			svc, err := c.services(cmd.Context())
			if err != nil {
				return err
			}
			rows, err := svc.trading.DetailedBalance(cmd.Context(), usecase.TradingBalanceInput{
				AsOf:       asOf,
				Base:       base,
				Convention: domain.RateConvention(convention),
				Mode:       domain.ConversionMode(mode),
			})
			if err != nil {
				return err
			}
			views := make([]tradingRowView, 0, len(rows))
			for _, r := range rows {
				views = append(views, newDetailedRowView(r, svc.precision))
			}
			return printJSON(c.stdout, views)
		},
	}
	detailed.Flags().String("as-of", "", "Only lines at or before this time")
	detailed.Flags().StringVar(&base, "base", "", "Base currency (default: the registered base)")
	detailed.Flags().StringVar(&convention, "convention", string(domain.BasePerUnit), "Rate quote: base_per_unit or units_per_base")
	detailed.Flags().StringVar(&mode, "mode", string(domain.ConvertTotals), "Rounding: totals or per_line")

	cmd.AddCommand(raw, detailed)
	return cmd
}

func (c *cli) ledgerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger operations",
	}

	check := &cobra.Command{
		Use:   "check",
		Short: "Check that debits equal credits in every currency",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.services(cmd.Context())
			if err != nil {
				return err
			}
			rows, err := svc.ledger.CheckConsistency(cmd.Context())
			if err != nil {
				if len(rows) > 0 {
					views := make([]tradingRowView, 0, len(rows))
					for _, r := range rows {
						views = append(views, newTradingRowView(r, svc.precision))
					}
					_ = printJSON(c.stdout, views)
				}
				return err
			}
			printLine(c, "ledger is consistent")
			return nil
		},
	}

	cmd.AddCommand(check)
	return cmd
}
