package memory

import (
	"context"
	"sync"

	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/internal/repository"
)

type accountRepository struct {
	mu       sync.RWMutex
	accounts map[string]model.Account
}

func NewAccountRepository() repository.AccountRepository {
	return &accountRepository{accounts: make(map[string]model.Account)}
}

func (r *accountRepository) Create(ctx context.Context, account *model.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[account.Subject]; ok {
		return repository.ErrDuplicate
	}
	r.accounts[account.Subject] = *account
	return nil
}

func (r *accountRepository) Get(ctx context.Context, subject string) (*model.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.accounts[subject]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &a, nil
}

// SetPassword replaces the hash, creating the account when it does not exist.
func (r *accountRepository) SetPassword(ctx context.Context, subject string, mode model.ContactMode, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a := r.accounts[subject]
	a.Subject = subject
	if a.Mode == "" {
		a.Mode = mode
	}
	a.PasswordHash = hash
	r.accounts[subject] = a
	return nil
}
