package ports

import (
	"context"

	"github.com/msvcdojo/accounts-service/internal/core/domain"
)

// AccountRepository defines persistence operations for accounts.
//
// Implementations wrap backend failures with domain.ErrStorage and reject
// empty filter arguments with domain.ErrInvalidArgument. Every returned
// account is a snapshot; mutating it does not touch stored state.
type AccountRepository interface {
	// Save inserts a transient account, letting the backend assign the next
	// id, or updates a persistent one matched by id. Updating an id that no
	// longer exists returns domain.ErrNotFound.
	Save(ctx context.Context, acct *domain.Account) (*domain.Account, error)
	// FindByID reports found=false, without an error, when id is absent.
	FindByID(ctx context.Context, id int64) (acct *domain.Account, found bool, err error)
	// FindAll returns every account ordered by ascending id.
	FindAll(ctx context.Context) ([]*domain.Account, error)
	FindByUsername(ctx context.Context, username string) ([]*domain.Account, error)
	FindByRole(ctx context.Context, role string) ([]*domain.Account, error)
	// DeleteByID is a no-op when id is absent.
	DeleteByID(ctx context.Context, id int64) error
}
