// Package memory provides an in-process AccountRepository for local runs
// and tests. State is lost when the process exits.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/msvcdojo/accounts-service/internal/core/domain"
	"github.com/msvcdojo/accounts-service/internal/metrics"
)

const backend = "memory"

// AccountRepository keeps accounts in a map guarded by a single RWMutex.
// Ids are generated from a monotonically increasing counter and never reused.
type AccountRepository struct {
	mu     sync.RWMutex
	nextID int64
	rows   map[int64]*domain.Account
}

func NewAccountRepository() *AccountRepository {
	return &AccountRepository{rows: make(map[int64]*domain.Account)}
}

func (r *AccountRepository) Save(_ context.Context, acct *domain.Account) (*domain.Account, error) {
	defer metrics.ObserveQuery(backend, "save", time.Now())
	if acct == nil {
		return nil, fmt.Errorf("%w: account is nil", domain.ErrInvalidArgument)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if acct.IsPersistent() {
		if _, ok := r.rows[acct.ID()]; !ok {
			return nil, fmt.Errorf("save account %d: %w", acct.ID(), domain.ErrNotFound)
		}
		r.rows[acct.ID()] = acct.Clone()
		return acct.Clone(), nil
	}

	stored, err := domain.RestoreAccount(r.nextID+1, acct.Username(), acct.Role())
	if err != nil {
		return nil, err
	}
	r.nextID++
	r.rows[stored.ID()] = stored
	return stored.Clone(), nil
}

func (r *AccountRepository) FindByID(_ context.Context, id int64) (*domain.Account, bool, error) {
	defer metrics.ObserveQuery(backend, "find_by_id", time.Now())

	r.mu.RLock()
	defer r.mu.RUnlock()

	acct, ok := r.rows[id]
	if !ok {
		return nil, false, nil
	}
	return acct.Clone(), true, nil
}

func (r *AccountRepository) FindAll(_ context.Context) ([]*domain.Account, error) {
	defer metrics.ObserveQuery(backend, "find_all", time.Now())
	return r.collect(func(*domain.Account) bool { return true }), nil
}

func (r *AccountRepository) FindByUsername(_ context.Context, username string) ([]*domain.Account, error) {
	defer metrics.ObserveQuery(backend, "find_by_username", time.Now())
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", domain.ErrInvalidArgument)
	}
	return r.collect(func(a *domain.Account) bool { return a.Username() == username }), nil
}

func (r *AccountRepository) FindByRole(_ context.Context, role string) ([]*domain.Account, error) {
	defer metrics.ObserveQuery(backend, "find_by_role", time.Now())
	if role == "" {
		return nil, fmt.Errorf("%w: role is required", domain.ErrInvalidArgument)
	}
	return r.collect(func(a *domain.Account) bool {
		got := a.Role()
		return got != nil && *got == role
	}), nil
}

func (r *AccountRepository) DeleteByID(_ context.Context, id int64) error {
	defer metrics.ObserveQuery(backend, "delete_by_id", time.Now())

	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rows, id)
	return nil
}

// Ping always succeeds; it lets the memory store stand in for a backend in
// readiness checks.
func (r *AccountRepository) Ping(context.Context) error { return nil }

func (r *AccountRepository) collect(keep func(*domain.Account) bool) []*domain.Account {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Account, 0, len(r.rows))
	for _, acct := range r.rows {
		if keep(acct) {
			out = append(out, acct.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}
