package mongo

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/msvcdojo/accounts-service/internal/core/ports"
	"github.com/msvcdojo/accounts-service/internal/infrastructure/db/repotest"
)

// Set ACCOUNTS_TEST_MONGO_URI (e.g. mongodb://localhost:27017) to run these
// tests. Each run uses a throwaway database that is dropped afterwards.
const testURIEnv = "ACCOUNTS_TEST_MONGO_URI"

func TestAccountRepository_Suite(t *testing.T) {
	uri := os.Getenv(testURIEnv)
	if uri == "" {
		t.Skipf("%s not set", testURIEnv)
	}

	ctx := context.Background()
	db, err := Connect(ctx, Config{
		URI:      uri,
		Database: fmt.Sprintf("accounts_test_%d", time.Now().UnixNano()),
	})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Drop(ctx)
		_ = db.Client().Disconnect(ctx)
	})

	repotest.Run(t, func(t *testing.T) ports.AccountRepository {
		if err := db.Drop(ctx); err != nil {
			t.Fatalf("drop: %v", err)
		}
		repo := NewAccountRepository(db)
		if err := repo.EnsureIndexes(ctx); err != nil {
			t.Fatalf("indexes: %v", err)
		}
		return repo
	})
}
