package redis

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/msvcdojo/accounts-service/internal/core/domain"
	"github.com/msvcdojo/accounts-service/internal/core/ports"
	"github.com/msvcdojo/accounts-service/internal/metrics"
)

const accountKeyPrefix = "account:"

// accountCacheEntry is the Redis representation of a single account.
type accountCacheEntry struct {
	ID       int64   `json:"id"`
	Username string  `json:"username"`
	Role     *string `json:"role"`
}

// entryCache is satisfied by *ViewCache[accountCacheEntry].
type entryCache interface {
	Get(ctx context.Context, key string) (*accountCacheEntry, bool)
	Set(ctx context.Context, key string, value *accountCacheEntry)
	Delete(ctx context.Context, key string)
}

// CachedAccountRepository wraps another repository with a read-through
// cache for FindByID. Writes go to the backend first and then refresh or
// invalidate the entry; list queries always hit the backend.
type CachedAccountRepository struct {
	next  ports.AccountRepository
	cache entryCache
}

func NewCachedAccountRepository(next ports.AccountRepository, cache *ViewCache[accountCacheEntry]) *CachedAccountRepository {
	return &CachedAccountRepository{next: next, cache: cache}
}

// NewAccountCache builds the ViewCache the decorator expects.
func NewAccountCache(client *redis.Client, ttl time.Duration, log zerolog.Logger) *ViewCache[accountCacheEntry] {
	return NewViewCache[accountCacheEntry](client, ttl, log)
}

func (r *CachedAccountRepository) Save(ctx context.Context, acct *domain.Account) (*domain.Account, error) {
	saved, err := r.next.Save(ctx, acct)
	if err != nil {
		return nil, err
	}
	r.cache.Set(ctx, accountKey(saved.ID()), toEntry(saved))
	return saved, nil
}

func (r *CachedAccountRepository) FindByID(ctx context.Context, id int64) (*domain.Account, bool, error) {
	key := accountKey(id)
	if entry, ok := r.cache.Get(ctx, key); ok {
		if acct, err := domain.RestoreAccount(entry.ID, entry.Username, entry.Role); err == nil {
			metrics.CacheLookupsTotal.WithLabelValues("hit").Inc()
			return acct, true, nil
		}
		r.cache.Delete(ctx, key)
	}
	metrics.CacheLookupsTotal.WithLabelValues("miss").Inc()

	acct, found, err := r.next.FindByID(ctx, id)
	if err != nil || !found {
		return acct, found, err
	}
	r.cache.Set(ctx, key, toEntry(acct))
	return acct, true, nil
}

func (r *CachedAccountRepository) FindAll(ctx context.Context) ([]*domain.Account, error) {
	return r.next.FindAll(ctx)
}

func (r *CachedAccountRepository) FindByUsername(ctx context.Context, username string) ([]*domain.Account, error) {
	return r.next.FindByUsername(ctx, username)
}

func (r *CachedAccountRepository) FindByRole(ctx context.Context, role string) ([]*domain.Account, error) {
	return r.next.FindByRole(ctx, role)
}

func (r *CachedAccountRepository) DeleteByID(ctx context.Context, id int64) error {
	if err := r.next.DeleteByID(ctx, id); err != nil {
		return err
	}
	r.cache.Delete(ctx, accountKey(id))
	return nil
}

func accountKey(id int64) string {
	return accountKeyPrefix + strconv.FormatInt(id, 10)
}

func toEntry(a *domain.Account) *accountCacheEntry {
	return &accountCacheEntry{ID: a.ID(), Username: a.Username(), Role: a.Role()}
}
