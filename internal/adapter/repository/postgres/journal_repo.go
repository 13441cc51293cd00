package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/iho/bookkeeper/internal/domain"
	"github.com/iho/bookkeeper/internal/usecase"
)

var entryLineColumns = []string{"transaction_seq", "line_no", "side", "account_name", "amount", "currency_code", "exchange_rate"}

// JournalRepository implements usecase.JournalRepository on the
// transactions and entry_lines tables.
type JournalRepository struct {
	pool      dbtx
	precision domain.Precision
}

// NewJournalRepository creates a new JournalRepository.
func NewJournalRepository(pool *pgxpool.Pool, precision domain.Precision) *JournalRepository {
	return newJournalRepository(pool, precision)
}

func newJournalRepository(pool dbtx, precision domain.Precision) *JournalRepository {
	return &JournalRepository{pool: pool, precision: precision}
}

// Append stores a transaction and its lines inside tx and assigns its
// sequence number.
func (r *JournalRepository) Append(ctx context.Context, tx usecase.Transaction, transaction *domain.Transaction) error {
	pgxTx := txOf(tx)

	var metadata []byte
	if transaction.Metadata != nil {
		var err error
		metadata, err = json.Marshal(transaction.Metadata)
		if err != nil {
			return err
		}
	}

	var seq int64
	err := pgxTx.QueryRow(ctx, `
		INSERT INTO transactions (id, occurred_at, description, metadata)
		VALUES ($1, $2, $3, $4)
		RETURNING seq
	`,
		transaction.ID,
		timeToPgTimestamptz(transaction.OccurredAt),
		transaction.Description,
		metadata,
	).Scan(&seq)
	if err != nil {
		return err
	}

	lines := transaction.Lines()
	rows := make([][]any, 0, len(lines))
	for i, l := range lines {
		var rate pgtype.Numeric
		if er, ok := l.Rate(); ok {
			rate = decimalToNumeric(er.Decimal())
		}
		rows = append(rows, []any{
			seq,
			i + 1,
			string(l.Side()),
			l.Account().String(),
			decimalToNumeric(l.Amount()),
			string(l.Currency()),
			rate,
		})
	}

	n, err := pgxTx.CopyFrom(ctx, pgx.Identifier{"entry_lines"}, entryLineColumns, pgx.CopyFromRows(rows))
	if err != nil {
		if pgCode(err) == pgErrForeignKeyViolation {
			return domain.NewDomainError(domain.ErrAccountNotFound, transaction.ID, "a line references a missing account or currency")
		}
		return err
	}
	if int(n) != len(rows) {
		return fmt.Errorf("stored %d of %d entry lines", n, len(rows))
	}

	transaction.Sequence = seq
	return nil
}

// List returns the transactions touching query.Account, filtered and
// paginated in SQL. Metadata filters use jsonb containment.
func (r *JournalRepository) List(ctx context.Context, query domain.LedgerQuery) ([]*domain.Transaction, error) {
	if query.Limit == 0 {
		return []*domain.Transaction{}, nil
	}

	var (
		where = []string{`EXISTS (SELECT 1 FROM entry_lines l WHERE l.transaction_seq = t.seq AND l.account_name = $1)`}
		args  = []any{query.Account.String()}
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if query.Start != nil {
		where = append(where, "t.occurred_at >= "+arg(timeToPgTimestamptz(*query.Start)))
	}
	if query.End != nil {
		where = append(where, "t.occurred_at <= "+arg(timeToPgTimestamptz(*query.End)))
	}
	if len(query.Metadata) > 0 {
		filter, err := json.Marshal(query.Metadata)
		if err != nil {
			return nil, err
		}
		where = append(where, "t.metadata @> "+arg(filter)+"::jsonb")
	}

	order := "ASC"
	if query.Order == domain.OrderDesc {
		order = "DESC"
	}

	sql := `SELECT t.seq, t.id, t.occurred_at, t.description, t.metadata FROM transactions t WHERE ` +
		strings.Join(where, " AND ") +
		fmt.Sprintf(" ORDER BY t.occurred_at %s, t.seq %s", order, order) +
		" LIMIT " + arg(query.Limit) + " OFFSET " + arg(query.Offset)

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}

	type header struct {
		seq         int64
		id          string
		occurredAt  time.Time
		description string
		metadata    map[string]any
	}

	var headers []header
	for rows.Next() {
		var (
			h    header
			meta []byte
		)
		if err := rows.Scan(&h.seq, &h.id, &h.occurredAt, &h.description, &meta); err != nil {
			rows.Close()
			return nil, err
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &h.metadata); err != nil {
				rows.Close()
				return nil, err
			}
		}
		headers = append(headers, h)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(headers) == 0 {
		return []*domain.Transaction{}, nil
	}

	seqs := make([]int64, 0, len(headers))
	for _, h := range headers {
		seqs = append(seqs, h.seq)
	}

	linesBySeq, err := r.linesOf(ctx, seqs)
	if err != nil {
		return nil, err
	}

	out := make([]*domain.Transaction, 0, len(headers))
	for _, h := range headers {
		tx, err := domain.NewTransaction(h.occurredAt, h.description, h.metadata, linesBySeq[h.seq])
		if err != nil {
			return nil, fmt.Errorf("transaction %s: %w", h.id, err)
		}
		tx.ID = h.id
		tx.Sequence = h.seq
		out = append(out, tx)
	}

	return out, nil
}

func (r *JournalRepository) linesOf(ctx context.Context, seqs []int64) (map[int64][]domain.EntryLine, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT transaction_seq, side, account_name, amount, currency_code, exchange_rate
		FROM entry_lines
		WHERE transaction_seq = ANY($1)
		ORDER BY transaction_seq, line_no
	`, seqs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int64][]domain.EntryLine, len(seqs))
	for rows.Next() {
		var seq int64
		line, err := r.scanLine(rows, &seq)
		if err != nil {
			return nil, err
		}
		out[seq] = append(out[seq], line)
	}

	return out, rows.Err()
}

// LinesForAccount returns every posted line of account, oldest first.
func (r *JournalRepository) LinesForAccount(ctx context.Context, account domain.AccountName) ([]domain.PostedLine, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT t.id, t.seq, t.occurred_at, l.side, l.account_name, l.amount, l.currency_code, l.exchange_rate
		FROM entry_lines l
		JOIN transactions t ON t.seq = l.transaction_seq
		WHERE l.account_name = $1
		ORDER BY t.occurred_at, t.seq, l.line_no
	`, account.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.PostedLine
	for rows.Next() {
		var (
			pl         domain.PostedLine
			occurredAt time.Time
		)
		line, err := r.scanLine(rows, &pl.TransactionID, &pl.Sequence, &occurredAt)
		if err != nil {
			return nil, err
		}
		pl.OccurredAt = occurredAt.UTC()
		pl.Line = line
		out = append(out, pl)
	}

	return out, rows.Err()
}

// Lines returns every posted line with occurred_at <= asOf.
func (r *JournalRepository) Lines(ctx context.Context, asOf time.Time) ([]domain.EntryLine, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT l.side, l.account_name, l.amount, l.currency_code, l.exchange_rate
		FROM entry_lines l
		JOIN transactions t ON t.seq = l.transaction_seq
		WHERE t.occurred_at <= $1
		ORDER BY t.seq, l.line_no
	`, timeToPgTimestamptz(asOf))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.EntryLine
	for rows.Next() {
		line, err := r.scanLine(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, line)
	}

	return out, rows.Err()
}

// Totals returns ledger-wide debit and credit sums per currency.
func (r *JournalRepository) Totals(ctx context.Context) (map[domain.CurrencyCode]decimal.Decimal, map[domain.CurrencyCode]decimal.Decimal, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT currency_code, side, SUM(amount)
		FROM entry_lines
		GROUP BY currency_code, side
	`)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	debits := make(map[domain.CurrencyCode]decimal.Decimal)
	credits := make(map[domain.CurrencyCode]decimal.Decimal)
	for rows.Next() {
		var (
			code string
			side string
			sum  string
		)
		if err := rows.Scan(&code, &side, &sum); err != nil {
			return nil, nil, err
		}
		total, err := parseNumeric(sum)
		if err != nil {
			return nil, nil, err
		}
		if domain.EntrySide(side) == domain.Debit {
			debits[domain.CurrencyCode(code)] = total
		} else {
			credits[domain.CurrencyCode(code)] = total
		}
	}

	return debits, credits, rows.Err()
}

// scanLine scans the trailing line columns of row after prefix destinations.
func (r *JournalRepository) scanLine(row pgx.Row, prefix ...any) (domain.EntryLine, error) {
	var (
		side     string
		account  string
		amount   string
		currency string
		rate     *string
	)
	dest := append(prefix, &side, &account, &amount, &currency, &rate)
	if err := row.Scan(dest...); err != nil {
		return domain.EntryLine{}, err
	}

	amt, err := parseNumeric(amount)
	if err != nil {
		return domain.EntryLine{}, err
	}
	lineRate, err := parseNullableNumeric(rate)
	if err != nil {
		return domain.EntryLine{}, err
	}

	in := domain.EntryLineInput{
		Side:     domain.EntrySide(side),
		Account:  account,
		Amount:   amt,
		Currency: currency,
		Rate:     lineRate,
	}

	return domain.NewEntryLine(in, r.precision)
}
