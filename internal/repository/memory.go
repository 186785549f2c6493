package repository

import (
	"context"
	"sync"
	"time"

	"github.com/gatekeep/gatekeep-go/internal/model"
)

// MemoryAccountRepository keeps accounts in process memory. It is meant for
// local development and tests; data is lost on restart.
type MemoryAccountRepository struct {
	mu      sync.RWMutex
	nextID  int64
	byID    map[int64]model.Account
	byEmail map[string]int64
}

// NewMemoryAccountRepository creates an empty MemoryAccountRepository.
func NewMemoryAccountRepository() *MemoryAccountRepository {
	return &MemoryAccountRepository{
		byID:    make(map[int64]model.Account),
		byEmail: make(map[string]int64),
	}
}

// Create stores account, failing with ErrDuplicateEmail if the email is taken.
func (r *MemoryAccountRepository) Create(ctx context.Context, account *model.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byEmail[account.Email]; taken {
		return ErrDuplicateEmail
	}

	r.nextID++
	account.ID = r.nextID
	account.CreatedAt = time.Now().UTC().Truncate(time.Second)

	r.byID[account.ID] = *account
	r.byEmail[account.Email] = account.ID
	return nil
}

// GetByEmail retrieves an account by its normalized email.
func (r *MemoryAccountRepository) GetByEmail(ctx context.Context, email string) (model.Account, error) {
	if err := ctx.Err(); err != nil {
		return model.Account{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return model.Account{}, ErrAccountNotFound
	}
	return r.byID[id], nil
}

// GetByID retrieves an account by its ID.
func (r *MemoryAccountRepository) GetByID(ctx context.Context, id int64) (model.Account, error) {
	if err := ctx.Err(); err != nil {
		return model.Account{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.byID[id]
	if !ok {
		return model.Account{}, ErrAccountNotFound
	}
	return a, nil
}
