package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/msvcdojo/accounts-service/internal/core/domain"
	"github.com/msvcdojo/accounts-service/internal/core/ports"
	"github.com/msvcdojo/accounts-service/internal/metrics"
)

// AccountService is a thin façade over the repository. Successful
// mutations are reported to an optional event sink.
type AccountService struct {
	repo   ports.AccountRepository
	events ports.AccountEventSink
	logger zerolog.Logger
	now    func() time.Time
}

// NewAccountService wires the façade. events may be nil.
func NewAccountService(repo ports.AccountRepository, events ports.AccountEventSink, logger zerolog.Logger) *AccountService {
	return &AccountService{repo: repo, events: events, logger: logger, now: time.Now}
}

func (s *AccountService) List(ctx context.Context) ([]*domain.Account, error) {
	accts, err := s.repo.FindAll(ctx)
	record("list", err)
	return accts, err
}

func (s *AccountService) Get(ctx context.Context, id int64) (*domain.Account, bool, error) {
	acct, found, err := s.repo.FindByID(ctx, id)
	switch {
	case err != nil:
		record("get", err)
	case !found:
		record("get", domain.ErrNotFound)
	default:
		record("get", nil)
	}
	return acct, found, err
}

// Create builds a transient account and stores it.
func (s *AccountService) Create(ctx context.Context, username string, role *string) (*domain.Account, error) {
	acct, err := domain.NewAccount(username)
	if err != nil {
		record("create", err)
		return nil, err
	}
	acct.SetRole(role)

	saved, err := s.repo.Save(ctx, acct)
	record("create", err)
	if err != nil {
		s.logger.Error().Err(err).Str("username", username).Msg("failed to create account")
		return nil, err
	}

	s.logger.Info().Int64("account_id", saved.ID()).Str("username", saved.Username()).Msg("account created")
	s.emit(domain.AccountCreated, saved)
	return saved, nil
}

// Update replaces username and role of an existing account.
func (s *AccountService) Update(ctx context.Context, id int64, username string, role *string) (*domain.Account, error) {
	saved, err := s.modify(ctx, id, func(acct *domain.Account) error {
		if err := acct.SetUsername(username); err != nil {
			return err
		}
		acct.SetRole(role)
		return nil
	})
	record("update", err)
	return saved, err
}

// Patch applies only the supplied fields of an existing account.
func (s *AccountService) Patch(ctx context.Context, id int64, patch ports.AccountPatch) (*domain.Account, error) {
	saved, err := s.modify(ctx, id, func(acct *domain.Account) error {
		if patch.Username != nil {
			if err := acct.SetUsername(*patch.Username); err != nil {
				return err
			}
		}
		switch {
		case patch.ClearRole:
			acct.SetRole(nil)
		case patch.Role != nil:
			acct.SetRole(patch.Role)
		}
		return nil
	})
	record("patch", err)
	return saved, err
}

func (s *AccountService) modify(ctx context.Context, id int64, apply func(*domain.Account) error) (*domain.Account, error) {
	acct, found, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("update account %d: %w", id, domain.ErrNotFound)
	}
	if err := apply(acct); err != nil {
		return nil, err
	}

	saved, err := s.repo.Save(ctx, acct)
	if err != nil {
		s.logger.Error().Err(err).Int64("account_id", id).Msg("failed to update account")
		return nil, err
	}

	s.logger.Info().Int64("account_id", id).Msg("account updated")
	s.emit(domain.AccountUpdated, saved)
	return saved, nil
}

func (s *AccountService) Delete(ctx context.Context, id int64) error {
	err := s.repo.DeleteByID(ctx, id)
	record("delete", err)
	if err != nil {
		s.logger.Error().Err(err).Int64("account_id", id).Msg("failed to delete account")
		return err
	}

	s.logger.Info().Int64("account_id", id).Msg("account deleted")
	if s.events != nil {
		s.events.Enqueue(domain.AccountEvent{
			Type:       domain.AccountDeleted,
			AccountID:  id,
			OccurredAt: s.now().UTC(),
		})
	}
	return nil
}

func (s *AccountService) ListByUsername(ctx context.Context, username string) ([]*domain.Account, error) {
	accts, err := s.repo.FindByUsername(ctx, username)
	record("list_by_username", err)
	return accts, err
}

func (s *AccountService) ListByRole(ctx context.Context, role string) ([]*domain.Account, error) {
	accts, err := s.repo.FindByRole(ctx, role)
	record("list_by_role", err)
	return accts, err
}

func (s *AccountService) emit(t domain.AccountEventType, acct *domain.Account) {
	if s.events == nil {
		return
	}
	s.events.Enqueue(domain.NewAccountEvent(t, acct, s.now()))
}

func record(operation string, err error) {
	metrics.OperationsTotal.WithLabelValues(operation, outcome(err)).Inc()
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrInvalidArgument):
		return "invalid_argument"
	case errors.Is(err, domain.ErrStorage):
		return "storage_error"
	default:
		return "error"
	}
}
