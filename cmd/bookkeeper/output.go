package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/bookkeeper/internal/domain"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}

type currencyView struct {
	Code   string  `json:"code"`
	IsBase bool    `json:"is_base"`
	Rate   *string `json:"rate_to_base,omitempty"`
}

func newCurrencyView(c *domain.Currency) currencyView {
	v := currencyView{Code: c.Code.String(), IsBase: c.IsBase}
	if c.RateToBase != nil {
		s := c.RateToBase.String()
		v.Rate = &s
	}
	return v
}

type accountView struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Currency  string    `json:"currency"`
	ParentID  *string   `json:"parent_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func newAccountView(a *domain.Account) accountView {
	return accountView{
		ID:        a.ID,
		Name:      a.FullName.String(),
		Currency:  a.Currency.String(),
		ParentID:  a.ParentID,
		CreatedAt: a.CreatedAt,
	}
}

type lineView struct {
	Side     string  `json:"side"`
	Account  string  `json:"account"`
	Amount   string  `json:"amount"`
	Currency string  `json:"currency"`
	Rate     *string `json:"rate,omitempty"`
}

type transactionView struct {
	ID          string         `json:"id"`
	Sequence    int64          `json:"sequence"`
	OccurredAt  time.Time      `json:"occurred_at"`
	Description string         `json:"description,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	Lines       []lineView     `json:"lines"`
}

func newTransactionView(tx *domain.Transaction, p domain.Precision) transactionView {
	v := transactionView{
		ID:          tx.ID,
		Sequence:    tx.Sequence,
		OccurredAt:  tx.OccurredAt,
		Description: tx.Description,
		Metadata:    tx.Metadata,
	}
	for _, l := range tx.Lines() {
		lv := lineView{
			Side:     string(l.Side()),
			Account:  l.Account().String(),
			Amount:   l.Amount().StringFixed(p.MoneyScale),
			Currency: l.Currency().String(),
		}
		if r, ok := l.Rate(); ok {
			s := r.String()
			lv.Rate = &s
		}
		v.Lines = append(v.Lines, lv)
	}
	return v
}

type eventView struct {
	ID         int64     `json:"id"`
	Currency   string    `json:"currency"`
	Rate       string    `json:"rate"`
	OccurredAt time.Time `json:"occurred_at"`
	Policy     string    `json:"policy"`
	Source     *string   `json:"source,omitempty"`
}

func newEventView(e *domain.ExchangeRateEvent) eventView {
	return eventView{
		ID:         e.ID,
		Currency:   e.Code.String(),
		Rate:       e.Rate.String(),
		OccurredAt: e.OccurredAt,
		Policy:     string(e.Policy),
		Source:     e.Source,
	}
}

type tradingRowView struct {
	Currency   string  `json:"currency"`
	Debit      string  `json:"debit"`
	Credit     string  `json:"credit"`
	Net        string  `json:"net"`
	UsedRate   *string `json:"used_rate,omitempty"`
	DebitBase  *string `json:"debit_base,omitempty"`
	CreditBase *string `json:"credit_base,omitempty"`
	NetBase    *string `json:"net_base,omitempty"`
}

func newTradingRowView(r domain.TradingRow, p domain.Precision) tradingRowView {
	return tradingRowView{
		Currency: r.Currency.String(),
		Debit:    r.Debit.StringFixed(p.MoneyScale),
		Credit:   r.Credit.StringFixed(p.MoneyScale),
		Net:      r.Net.StringFixed(p.MoneyScale),
	}
}

func newDetailedRowView(r domain.DetailedTradingRow, p domain.Precision) tradingRowView {
	v := newTradingRowView(r.TradingRow, p)
	fixed := func(d decimal.Decimal, scale int32) *string {
		s := d.StringFixed(scale)
		return &s
	}
	v.UsedRate = fixed(r.UsedRate, p.RateScale)
	v.DebitBase = fixed(r.DebitBase, p.MoneyScale)
	v.CreditBase = fixed(r.CreditBase, p.MoneyScale)
	v.NetBase = fixed(r.NetBase, p.MoneyScale)
	return v
}
