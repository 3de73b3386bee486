// Package postgres implements the AccountRepository over the relational
// table account(id, username, role) using a pgx connection pool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/msvcdojo/accounts-service/internal/core/domain"
	"github.com/msvcdojo/accounts-service/internal/metrics"
)

const backend = "postgres"

const (
	insertAccount = `INSERT INTO account (username, role) VALUES ($1, $2) RETURNING id`
	updateAccount = `UPDATE account SET username = $2, role = $3 WHERE id = $1`
	selectByID    = `SELECT id, username, role FROM account WHERE id = $1`
	selectAll     = `SELECT id, username, role FROM account ORDER BY id`
	selectByUser  = `SELECT id, username, role FROM account WHERE username = $1 ORDER BY id`
	selectByRole  = `SELECT id, username, role FROM account WHERE role = $1 ORDER BY id`
	deleteByID    = `DELETE FROM account WHERE id = $1`
)

type AccountRepository struct {
	pool *pgxpool.Pool
}

func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

// Save inserts transient accounts and lets the BIGSERIAL sequence assign the
// id; persistent accounts are updated in place.
func (r *AccountRepository) Save(ctx context.Context, acct *domain.Account) (*domain.Account, error) {
	defer metrics.ObserveQuery(backend, "save", time.Now())
	if acct == nil {
		return nil, fmt.Errorf("%w: account is nil", domain.ErrInvalidArgument)
	}

	if acct.IsPersistent() {
		tag, err := r.pool.Exec(ctx, updateAccount, acct.ID(), acct.Username(), acct.Role())
		if err != nil {
			return nil, fmt.Errorf("update account %d: %w: %w", acct.ID(), domain.ErrStorage, err)
		}
		if tag.RowsAffected() == 0 {
			return nil, fmt.Errorf("update account %d: %w", acct.ID(), domain.ErrNotFound)
		}
		return acct.Clone(), nil
	}

	var id int64
	if err := r.pool.QueryRow(ctx, insertAccount, acct.Username(), acct.Role()).Scan(&id); err != nil {
		return nil, fmt.Errorf("insert account: %w: %w", domain.ErrStorage, err)
	}
	return domain.RestoreAccount(id, acct.Username(), acct.Role())
}

func (r *AccountRepository) FindByID(ctx context.Context, id int64) (*domain.Account, bool, error) {
	defer metrics.ObserveQuery(backend, "find_by_id", time.Now())

	var (
		username string
		role     *string
	)
	err := r.pool.QueryRow(ctx, selectByID, id).Scan(&id, &username, &role)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("find account %d: %w: %w", id, domain.ErrStorage, err)
	}

	acct, err := domain.RestoreAccount(id, username, role)
	if err != nil {
		return nil, false, fmt.Errorf("find account %d: %w: %w", id, domain.ErrStorage, err)
	}
	return acct, true, nil
}

func (r *AccountRepository) FindAll(ctx context.Context) ([]*domain.Account, error) {
	defer metrics.ObserveQuery(backend, "find_all", time.Now())
	return r.list(ctx, "find all accounts", selectAll)
}

func (r *AccountRepository) FindByUsername(ctx context.Context, username string) ([]*domain.Account, error) {
	defer metrics.ObserveQuery(backend, "find_by_username", time.Now())
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", domain.ErrInvalidArgument)
	}
	return r.list(ctx, "find accounts by username", selectByUser, username)
}

func (r *AccountRepository) FindByRole(ctx context.Context, role string) ([]*domain.Account, error) {
	defer metrics.ObserveQuery(backend, "find_by_role", time.Now())
	if role == "" {
		return nil, fmt.Errorf("%w: role is required", domain.ErrInvalidArgument)
	}
	return r.list(ctx, "find accounts by role", selectByRole, role)
}

func (r *AccountRepository) DeleteByID(ctx context.Context, id int64) error {
	defer metrics.ObserveQuery(backend, "delete_by_id", time.Now())

	if _, err := r.pool.Exec(ctx, deleteByID, id); err != nil {
		return fmt.Errorf("delete account %d: %w: %w", id, domain.ErrStorage, err)
	}
	return nil
}

// Ping reports whether the pool can reach the database.
func (r *AccountRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *AccountRepository) list(ctx context.Context, op, query string, args ...any) ([]*domain.Account, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, domain.ErrStorage, err)
	}

	accts, err := pgx.CollectRows(rows, scanAccount)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, domain.ErrStorage, err)
	}
	if accts == nil {
		accts = []*domain.Account{}
	}
	return accts, nil
}

func scanAccount(row pgx.CollectableRow) (*domain.Account, error) {
	var (
		id       int64
		username string
		role     *string
	)
	if err := row.Scan(&id, &username, &role); err != nil {
		return nil, err
	}
	return domain.RestoreAccount(id, username, role)
}
