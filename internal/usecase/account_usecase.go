package usecase

import (
	"context"
	"errors"

	"github.com/iho/bookkeeper/internal/domain"
)

// AccountUseCase handles account business logic.
type AccountUseCase struct {
	accountRepo  AccountRepository
	currencyRepo CurrencyRepository
	idGen        IDGenerator
	clock        Clock
}

// NewAccountUseCase creates a new AccountUseCase.
func NewAccountUseCase(accountRepo AccountRepository, currencyRepo CurrencyRepository, idGen IDGenerator, clock Clock) *AccountUseCase {
	return &AccountUseCase{
		accountRepo:  accountRepo,
		currencyRepo: currencyRepo,
		idGen:        idGen,
		clock:        clock,
	}
}

// CreateAccountInput represents input for creating an account.
type CreateAccountInput struct {
	Name     string
	Currency string
	// CreateParents creates missing ancestors with the same currency.
	CreateParents bool
}

// CreateAccount creates a new account. The parent path must exist unless
// CreateParents is set.
func (uc *AccountUseCase) CreateAccount(ctx context.Context, input CreateAccountInput) (*domain.Account, error) {
	account, err := domain.NewAccount(input.Name, input.Currency)
	if err != nil {
		return nil, err
	}

	if _, err := uc.currencyRepo.GetByCode(ctx, account.Currency); err != nil {
		return nil, err
	}

	existing, err := uc.accountRepo.GetByName(ctx, account.FullName)
	if err == nil && existing != nil {
		return nil, domain.NewDomainError(domain.ErrDuplicateAccount, account.FullName.String(), "account already exists")
	}
	if err != nil && !errors.Is(err, domain.ErrAccountNotFound) {
		return nil, err
	}

	if parentName, ok := account.FullName.Parent(); ok {
		parent, err := uc.ensureParent(ctx, parentName, account.Currency, input.CreateParents)
		if err != nil {
			return nil, err
		}
		account.ParentID = &parent.ID
	}

	account.ID = uc.idGen.Generate()
	account.CreatedAt = uc.clock.Now()

	if err := uc.accountRepo.Create(ctx, account); err != nil {
		return nil, err
	}

	return account, nil
}

func (uc *AccountUseCase) ensureParent(ctx context.Context, name domain.AccountName, currency domain.CurrencyCode, create bool) (*domain.Account, error) {
	parent, err := uc.accountRepo.GetByName(ctx, name)
	if err == nil {
		return parent, nil
	}
	if !errors.Is(err, domain.ErrAccountNotFound) {
		return nil, err
	}
	if !create {
		return nil, domain.NewDomainError(domain.ErrAccountNotFound, name.String(), "parent account does not exist")
	}

	parent = &domain.Account{
		ID:        uc.idGen.Generate(),
		FullName:  name,
		Currency:  currency,
		CreatedAt: uc.clock.Now(),
	}

	if grand, ok := name.Parent(); ok {
		gp, err := uc.ensureParent(ctx, grand, currency, create)
		if err != nil {
			return nil, err
		}
		parent.ParentID = &gp.ID
	}

	if err := uc.accountRepo.Create(ctx, parent); err != nil {
		return nil, err
	}

	return parent, nil
}

// GetAccount retrieves an account by full name.
func (uc *AccountUseCase) GetAccount(ctx context.Context, name string) (*domain.Account, error) {
	n, err := domain.NewAccountName(name)
	if err != nil {
		return nil, err
	}
	return uc.accountRepo.GetByName(ctx, n)
}

// ListAccountsInput represents input for listing accounts.
type ListAccountsInput struct {
	Limit  int
	Offset int
}

// ListAccounts lists accounts with pagination.
func (uc *AccountUseCase) ListAccounts(ctx context.Context, input ListAccountsInput) ([]*domain.Account, error) {
	if input.Limit <= 0 {
		input.Limit = 20
	}
	if input.Limit > 100 {
		input.Limit = 100
	}
	if input.Offset < 0 {
		input.Offset = 0
	}
	return uc.accountRepo.List(ctx, input.Limit, input.Offset)
}
