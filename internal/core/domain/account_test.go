package domain

import (
	"errors"
	"testing"
	"time"
)

func strPtr(s string) *string { return &s }

func TestNewAccount_RequiresUsername(t *testing.T) {
	if _, err := NewAccount(""); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestNewAccount_IsTransient(t *testing.T) {
	a, err := NewAccount("alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.IsPersistent() {
		t.Error("new account must be transient")
	}
	if a.ID() != 0 {
		t.Errorf("expected zero id, got %d", a.ID())
	}
	if a.Role() != nil {
		t.Errorf("expected nil role, got %q", *a.Role())
	}
}

func TestRestoreAccount_Validates(t *testing.T) {
	if _, err := RestoreAccount(0, "alice", nil); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("id 0: expected ErrInvalidArgument, got %v", err)
	}
	if _, err := RestoreAccount(1, "", nil); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("empty username: expected ErrInvalidArgument, got %v", err)
	}
	a, err := RestoreAccount(7, "bob", strPtr("admin"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !a.IsPersistent() || a.ID() != 7 || a.Username() != "bob" || *a.Role() != "admin" {
		t.Errorf("unexpected account: %s", a)
	}
}

func TestAccount_RoleIsCopied(t *testing.T) {
	role := "admin"
	a, _ := NewAccount("alice")
	a.SetRole(&role)
	role = "guest"
	if *a.Role() != "admin" {
		t.Errorf("SetRole must copy its argument, got %q", *a.Role())
	}

	r := a.Role()
	*r = "mutated"
	if *a.Role() != "admin" {
		t.Errorf("Role must return a copy, got %q", *a.Role())
	}
}

func TestAccount_SetUsername(t *testing.T) {
	a, _ := NewAccount("alice")
	if err := a.SetUsername(""); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
	if a.Username() != "alice" {
		t.Errorf("failed SetUsername must not change state, got %q", a.Username())
	}
	if err := a.SetUsername("carol"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Username() != "carol" {
		t.Errorf("expected carol, got %q", a.Username())
	}
}

func TestAccount_String(t *testing.T) {
	tests := []struct {
		name string
		acct func() *Account
		want string
	}{
		{
			name: "transient without role",
			acct: func() *Account { a, _ := NewAccount("alice"); return a },
			want: "Account{id=null, username='alice', role=null}",
		},
		{
			name: "persistent with role",
			acct: func() *Account { a, _ := RestoreAccount(2, "bob", strPtr("admin")); return a },
			want: "Account{id=2, username='bob', role='admin'}",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.acct().String(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAccount_Equal(t *testing.T) {
	a, _ := RestoreAccount(1, "alice", nil)
	b, _ := RestoreAccount(1, "alice", nil)
	c, _ := RestoreAccount(1, "alice", strPtr("admin"))

	if !a.Equal(b) {
		t.Error("identical accounts must be equal")
	}
	if a.Equal(c) {
		t.Error("nil role and set role must differ")
	}
	if !c.Equal(c.Clone()) {
		t.Error("clone must be equal to original")
	}
}

func TestNewAccountEvent(t *testing.T) {
	a, _ := RestoreAccount(3, "dave", strPtr("ops"))
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.FixedZone("x", 3600))

	ev := NewAccountEvent(AccountUpdated, a, at)
	if ev.Type != AccountUpdated || ev.AccountID != 3 || ev.Username != "dave" || *ev.Role != "ops" {
		t.Errorf("unexpected event: %+v", ev)
	}
	if ev.OccurredAt.Location() != time.UTC {
		t.Error("event time must be UTC")
	}
}
