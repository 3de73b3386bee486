package ports

import (
	"context"

	"github.com/msvcdojo/accounts-service/internal/core/domain"
)

// AccountPatch carries a partial update. Nil fields are left untouched;
// ClearRole sets the role to null and wins over Role.
type AccountPatch struct {
	Username  *string
	Role      *string
	ClearRole bool
}

// AccountService defines the use-case operations exposed to transports.
type AccountService interface {
	List(ctx context.Context) ([]*domain.Account, error)
	Get(ctx context.Context, id int64) (*domain.Account, bool, error)
	Create(ctx context.Context, username string, role *string) (*domain.Account, error)
	Update(ctx context.Context, id int64, username string, role *string) (*domain.Account, error)
	Patch(ctx context.Context, id int64, patch AccountPatch) (*domain.Account, error)
	Delete(ctx context.Context, id int64) error
	ListByUsername(ctx context.Context, username string) ([]*domain.Account, error)
	ListByRole(ctx context.Context, role string) ([]*domain.Account, error)
}
