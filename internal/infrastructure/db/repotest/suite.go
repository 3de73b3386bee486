// Package repotest holds a behavioural test suite every AccountRepository
// implementation must pass. Backends call Run from their own _test files.
package repotest

import (
	"context"
	"errors"
	"testing"

	"github.com/msvcdojo/accounts-service/internal/core/domain"
	"github.com/msvcdojo/accounts-service/internal/core/ports"
)

// Factory returns an empty repository. It is called once per subtest.
type Factory func(t *testing.T) ports.AccountRepository

// Run executes the suite against repositories produced by newRepo.
func Run(t *testing.T, newRepo Factory) {
	t.Helper()

	tests := []struct {
		name string
		fn   func(t *testing.T, repo ports.AccountRepository)
	}{
		{"SaveThenFindByID", testSaveThenFindByID},
		{"SaveUpdatesExisting", testSaveUpdatesExisting},
		{"SaveMissingPersistent", testSaveMissingPersistent},
		{"FindByIDAbsent", testFindByIDAbsent},
		{"DeleteByID", testDeleteByID},
		{"FindAllOrdered", testFindAllOrdered},
		{"FindByUsername", testFindByUsername},
		{"FindByRole", testFindByRole},
		{"EmptyFilterArgument", testEmptyFilterArgument},
		{"EmptyRoleIsNotNull", testEmptyRoleIsNotNull},
		{"SnapshotIsolation", testSnapshotIsolation},
		{"Scenario", testScenario},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, newRepo(t))
		})
	}
}

func strPtr(s string) *string { return &s }

func mustSave(t *testing.T, repo ports.AccountRepository, username string, role *string) *domain.Account {
	t.Helper()
	acct, err := domain.NewAccount(username)
	if err != nil {
		t.Fatalf("new account: %v", err)
	}
	acct.SetRole(role)
	saved, err := repo.Save(context.Background(), acct)
	if err != nil {
		t.Fatalf("save %q: %v", username, err)
	}
	if !saved.IsPersistent() {
		t.Fatalf("saved account %q has no id", username)
	}
	return saved
}

func ids(accts []*domain.Account) []int64 {
	out := make([]int64, len(accts))
	for i, a := range accts {
		out[i] = a.ID()
	}
	return out
}

func testSaveThenFindByID(t *testing.T, repo ports.AccountRepository) {
	for _, role := range []*string{nil, strPtr("admin")} {
		saved := mustSave(t, repo, "alice", role)

		got, found, err := repo.FindByID(context.Background(), saved.ID())
		if err != nil || !found {
			t.Fatalf("FindByID(%d): found=%v err=%v", saved.ID(), found, err)
		}
		if !got.Equal(saved) {
			t.Errorf("FindByID returned %s, want %s", got, saved)
		}
	}
}

func testSaveUpdatesExisting(t *testing.T, repo ports.AccountRepository) {
	ctx := context.Background()
	saved := mustSave(t, repo, "alice", nil)

	if err := saved.SetUsername("alice2"); err != nil {
		t.Fatal(err)
	}
	saved.SetRole(strPtr("ops"))
	updated, err := repo.Save(ctx, saved)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.ID() != saved.ID() {
		t.Errorf("update changed id %d -> %d", saved.ID(), updated.ID())
	}

	all, err := repo.FindAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 || !all[0].Equal(updated) {
		t.Errorf("expected single updated row, got %v", all)
	}
}

func testSaveMissingPersistent(t *testing.T, repo ports.AccountRepository) {
	ghost, err := domain.RestoreAccount(987654, "ghost", nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := repo.Save(context.Background(), ghost); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func testFindByIDAbsent(t *testing.T, repo ports.AccountRepository) {
	got, found, err := repo.FindByID(context.Background(), 424242)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found || got != nil {
		t.Errorf("expected absent, got %v", got)
	}
}

func testDeleteByID(t *testing.T, repo ports.AccountRepository) {
	ctx := context.Background()
	saved := mustSave(t, repo, "alice", nil)

	if err := repo.DeleteByID(ctx, saved.ID()); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, found, _ := repo.FindByID(ctx, saved.ID()); found {
		t.Error("account still present after delete")
	}
	if err := repo.DeleteByID(ctx, saved.ID()); err != nil {
		t.Errorf("deleting an absent id must be a no-op, got %v", err)
	}
}

func testFindAllOrdered(t *testing.T, repo ports.AccountRepository) {
	var want []int64
	for _, name := range []string{"c", "a", "b", "a"} {
		want = append(want, mustSave(t, repo, name, nil).ID())
	}

	all, err := repo.FindAll(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	got := ids(all)
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
		if i > 0 && got[i] <= got[i-1] {
			t.Fatalf("ids not strictly ascending: %v", got)
		}
	}
}

func testFindByUsername(t *testing.T, repo ports.AccountRepository) {
	a1 := mustSave(t, repo, "alice", nil)
	mustSave(t, repo, "bob", nil)
	a2 := mustSave(t, repo, "alice", strPtr("admin"))
	mustSave(t, repo, "Alice", nil)

	got, err := repo.FindByUsername(context.Background(), "alice")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].ID() != a1.ID() || got[1].ID() != a2.ID() {
		t.Fatalf("expected [%d %d], got %v", a1.ID(), a2.ID(), ids(got))
	}
	for _, a := range got {
		if a.Username() != "alice" {
			t.Errorf("unexpected username %q", a.Username())
		}
	}

	none, err := repo.FindByUsername(context.Background(), "nobody")
	if err != nil {
		t.Fatal(err)
	}
	if none == nil || len(none) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", none)
	}
}

func testFindByRole(t *testing.T, repo ports.AccountRepository) {
	mustSave(t, repo, "alice", nil)
	b := mustSave(t, repo, "bob", strPtr("admin"))
	mustSave(t, repo, "carol", strPtr("user"))
	d := mustSave(t, repo, "dave", strPtr("admin"))

	got, err := repo.FindByRole(context.Background(), "admin")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].ID() != b.ID() || got[1].ID() != d.ID() {
		t.Fatalf("expected [%d %d], got %v", b.ID(), d.ID(), ids(got))
	}
	for _, a := range got {
		if a.Role() == nil || *a.Role() != "admin" {
			t.Errorf("unexpected role on %s", a)
		}
	}
}

func testEmptyFilterArgument(t *testing.T, repo ports.AccountRepository) {
	ctx := context.Background()
	if _, err := repo.FindByUsername(ctx, ""); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("FindByUsername(\"\"): expected ErrInvalidArgument, got %v", err)
	}
	if _, err := repo.FindByRole(ctx, ""); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("FindByRole(\"\"): expected ErrInvalidArgument, got %v", err)
	}
}

// An empty role is stored and read back as a value distinct from null,
// but it cannot be used as a FindByRole filter.
func testEmptyRoleIsNotNull(t *testing.T, repo ports.AccountRepository) {
	ctx := context.Background()
	saved := mustSave(t, repo, "alice", strPtr(""))
	mustSave(t, repo, "bob", nil)

	got, found, err := repo.FindByID(ctx, saved.ID())
	if err != nil || !found {
		t.Fatalf("FindByID = %v, %v, %v", got, found, err)
	}
	if got.Role() == nil || *got.Role() != "" {
		t.Fatalf("role = %v, want empty non-null", got.Role())
	}
	if _, err := repo.FindByRole(ctx, ""); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("FindByRole(\"\"): expected ErrInvalidArgument, got %v", err)
	}
}

func testSnapshotIsolation(t *testing.T, repo ports.AccountRepository) {
	ctx := context.Background()
	saved := mustSave(t, repo, "alice", nil)

	if err := saved.SetUsername("mutated"); err != nil {
		t.Fatal(err)
	}
	got, _, err := repo.FindByID(ctx, saved.ID())
	if err != nil {
		t.Fatal(err)
	}
	if got.Username() != "alice" {
		t.Errorf("mutating a returned snapshot changed stored state: %s", got)
	}
}

func testScenario(t *testing.T, repo ports.AccountRepository) {
	ctx := context.Background()
	alice := mustSave(t, repo, "alice", nil)
	bob := mustSave(t, repo, "bob", strPtr("admin"))
	if bob.ID() <= alice.ID() {
		t.Fatalf("ids must increase: alice=%d bob=%d", alice.ID(), bob.ID())
	}

	admins, err := repo.FindByRole(ctx, "admin")
	if err != nil || len(admins) != 1 || !admins[0].Equal(bob) {
		t.Fatalf("FindByRole(admin) = %v, %v", admins, err)
	}
	alices, err := repo.FindByUsername(ctx, "alice")
	if err != nil || len(alices) != 1 || !alices[0].Equal(alice) {
		t.Fatalf("FindByUsername(alice) = %v, %v", alices, err)
	}

	if err := repo.DeleteByID(ctx, alice.ID()); err != nil {
		t.Fatal(err)
	}
	all, err := repo.FindAll(ctx)
	if err != nil || len(all) != 1 || !all[0].Equal(bob) {
		t.Fatalf("FindAll after delete = %v, %v", all, err)
	}
}
