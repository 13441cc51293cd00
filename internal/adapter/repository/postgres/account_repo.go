package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/bookkeeper/internal/domain"
)

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	pool dbtx
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return newAccountRepository(pool)
}

func newAccountRepository(pool dbtx) *AccountRepository {
	return &AccountRepository{pool: pool}
}

const accountColumns = `id, full_name, currency_code, parent_id, created_at`

// Create creates a new account.
func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO accounts (id, full_name, currency_code, parent_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`,
		account.ID,
		account.FullName.String(),
		string(account.Currency),
		account.ParentID,
		timeToPgTimestamptz(account.CreatedAt),
	)

	switch pgCode(err) {
	case pgErrUniqueViolation:
		return domain.NewDomainError(domain.ErrDuplicateAccount, account.FullName.String(), "account already exists")
	case pgErrForeignKeyViolation:
		return domain.NewDomainError(domain.ErrCurrencyNotFound, string(account.Currency), "account references a missing currency or parent")
	}

	return err
}

// GetByName retrieves an account by full name.
func (r *AccountRepository) GetByName(ctx context.Context, name domain.AccountName) (*domain.Account, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE full_name = $1`, name.String())

	account, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewDomainError(domain.ErrAccountNotFound, name.String(), "unknown account")
		}
		return nil, err
	}

	return account, nil
}

// List lists accounts ordered by full name with pagination.
func (r *AccountRepository) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+accountColumns+` FROM accounts ORDER BY full_name LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	accounts := make([]*domain.Account, 0, limit)
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}

	return accounts, rows.Err()
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var (
		id        string
		fullName  string
		currency  string
		parentID  *string
		createdAt time.Time
	)
	if err := row.Scan(&id, &fullName, &currency, &parentID, &createdAt); err != nil {
		return nil, err
	}

	name, err := domain.NewAccountName(fullName)
	if err != nil {
		return nil, err
	}

	return &domain.Account{
		ID:        id,
		FullName:  name,
		Currency:  domain.CurrencyCode(currency),
		ParentID:  parentID,
		CreatedAt: createdAt.UTC(),
	}, nil
}
