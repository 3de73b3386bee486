package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/msvcdojo/accounts-service/internal/core/domain"
	"github.com/msvcdojo/accounts-service/internal/metrics"
)

const (
	backend            = "mongo"
	collectionAccounts = "account"
	collectionCounters = "counters"
	accountSequence    = "account"
)

// AccountRepository stores accounts as documents keyed by an integer _id.
// Ids come from a per-collection sequence in the counters collection so
// they stay numeric and ascending like the relational backend.
type AccountRepository struct {
	accounts *mongo.Collection
	counters *mongo.Collection
}

func NewAccountRepository(db *mongo.Database) *AccountRepository {
	return &AccountRepository{
		accounts: db.Collection(collectionAccounts),
		counters: db.Collection(collectionCounters),
	}
}

type mongoAccount struct {
	ID       int64   `bson:"_id"`
	Username string  `bson:"username"`
	Role     *string `bson:"role"`
}

type sequence struct {
	ID  string `bson:"_id"`
	Seq int64  `bson:"seq"`
}

func (r *AccountRepository) Save(ctx context.Context, acct *domain.Account) (*domain.Account, error) {
	defer metrics.ObserveQuery(backend, "save", time.Now())
	if acct == nil {
		return nil, fmt.Errorf("%w: account is nil", domain.ErrInvalidArgument)
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if acct.IsPersistent() {
		res, err := r.accounts.UpdateOne(ctx,
			bson.M{"_id": acct.ID()},
			bson.M{"$set": bson.M{"username": acct.Username(), "role": acct.Role()}},
		)
		if err != nil {
			return nil, fmt.Errorf("update account %d: %w: %w", acct.ID(), domain.ErrStorage, err)
		}
		if res.MatchedCount == 0 {
			return nil, fmt.Errorf("update account %d: %w", acct.ID(), domain.ErrNotFound)
		}
		return acct.Clone(), nil
	}

	id, err := r.nextID(ctx)
	if err != nil {
		return nil, err
	}
	doc := mongoAccount{ID: id, Username: acct.Username(), Role: acct.Role()}
	if _, err := r.accounts.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert account: %w: %w", domain.ErrStorage, err)
	}
	return domain.RestoreAccount(id, doc.Username, doc.Role)
}

func (r *AccountRepository) FindByID(ctx context.Context, id int64) (*domain.Account, bool, error) {
	defer metrics.ObserveQuery(backend, "find_by_id", time.Now())

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc mongoAccount
	err := r.accounts.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("find account %d: %w: %w", id, domain.ErrStorage, err)
	}

	acct, err := toDomain(doc)
	if err != nil {
		return nil, false, err
	}
	return acct, true, nil
}

func (r *AccountRepository) FindAll(ctx context.Context) ([]*domain.Account, error) {
	defer metrics.ObserveQuery(backend, "find_all", time.Now())
	return r.find(ctx, "find all accounts", bson.M{})
}

func (r *AccountRepository) FindByUsername(ctx context.Context, username string) ([]*domain.Account, error) {
	defer metrics.ObserveQuery(backend, "find_by_username", time.Now())
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", domain.ErrInvalidArgument)
	}
	return r.find(ctx, "find accounts by username", bson.M{"username": username})
}

func (r *AccountRepository) FindByRole(ctx context.Context, role string) ([]*domain.Account, error) {
	defer metrics.ObserveQuery(backend, "find_by_role", time.Now())
	if role == "" {
		return nil, fmt.Errorf("%w: role is required", domain.ErrInvalidArgument)
	}
	return r.find(ctx, "find accounts by role", bson.M{"role": role})
}

func (r *AccountRepository) DeleteByID(ctx context.Context, id int64) error {
	defer metrics.ObserveQuery(backend, "delete_by_id", time.Now())

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.accounts.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("delete account %d: %w: %w", id, domain.ErrStorage, err)
	}
	return nil
}

// Ping checks that the server answers a ping command.
func (r *AccountRepository) Ping(ctx context.Context) error {
	return r.accounts.Database().RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Err()
}

// EnsureIndexes creates the lookup indexes used by the derived queries.
func (r *AccountRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}},
		{Keys: bson.D{{Key: "role", Value: 1}}},
	}

	_, err := r.accounts.Indexes().CreateMany(ctx, indexes)
	return err
}

// nextID atomically increments and returns the account sequence, creating
// it on first use.
func (r *AccountRepository) nextID(ctx context.Context) (int64, error) {
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var seq sequence
	err := r.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": accountSequence},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		opts,
	).Decode(&seq)
	if err != nil {
		return 0, fmt.Errorf("allocate account id: %w: %w", domain.ErrStorage, err)
	}
	return seq.Seq, nil
}

func (r *AccountRepository) find(ctx context.Context, op string, filter bson.M) ([]*domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.accounts.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, domain.ErrStorage, err)
	}

	var docs []mongoAccount
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, domain.ErrStorage, err)
	}

	accts := make([]*domain.Account, 0, len(docs))
	for _, doc := range docs {
		acct, err := toDomain(doc)
		if err != nil {
			return nil, err
		}
		accts = append(accts, acct)
	}
	return accts, nil
}

func toDomain(doc mongoAccount) (*domain.Account, error) {
	acct, err := domain.RestoreAccount(doc.ID, doc.Username, doc.Role)
	if err != nil {
		return nil, fmt.Errorf("decode account %d: %w: %w", doc.ID, domain.ErrStorage, err)
	}
	return acct, nil
}
