package main

import (
	"github.com/spf13/cobra"

	"github.com/iho/bookkeeper/internal/domain"
	"github.com/iho/bookkeeper/internal/usecase"
)

func (c *cli) accountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage accounts",
	}

	var (
		currency string
		parents  bool
	)
	create := &cobra.Command{
		Use:   "create NAME",
		Short: "Create an account such as Assets:Bank:Checking",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if currency == "" {
				return domain.NewValidationError(domain.ErrInvalidInput, "currency", "--currency is required")
			}
			svc, err := c.services(cmd.Context())
			if err != nil {
				return err
			}
			account, err := svc.accounts.CreateAccount(cmd.Context(), usecase.CreateAccountInput{
				Name:          args[0],
				Currency:      currency,
				CreateParents: parents,
			})
			if err != nil {
				return err
			}
			return printJSON(c.stdout, newAccountView(account))
		},
	}
	create.Flags().StringVar(&currency, "currency", "", "Account currency (required)")
	create.Flags().BoolVar(&parents, "parents", false, "Create missing parent accounts")

	get := &cobra.Command{
		Use:   "get NAME",
		Short: "Show an account",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.services(cmd.Context())
			if err != nil {
				return err
			}
			account, err := svc.accounts.GetAccount(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(c.stdout, newAccountView(account))
		},
	}

	var limit, offset int
	list := &cobra.Command{
		Use:   "list",
		Short: "List accounts by name",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.services(cmd.Context())
			if err != nil {
				return err
			}
			accounts, err := svc.accounts.ListAccounts(cmd.Context(), usecase.ListAccountsInput{Limit: limit, Offset: offset})
			if err != nil {
				return err
			}
			views := make([]accountView, 0, len(accounts))
			for _, a := range accounts {
				views = append(views, newAccountView(a))
			}
			return printJSON(c.stdout, views)
		},
	}
	list.Flags().IntVar(&limit, "limit", 20, "Page size (max 100)")
	list.Flags().IntVar(&offset, "offset", 0, "Page offset")

	cmd.AddCommand(create, get, list)
	return cmd
}
