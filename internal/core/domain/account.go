package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotFound        = errors.New("account not found")
	ErrStorage         = errors.New("storage error")
)

// Account is the single aggregate managed by the service.
//
// An Account is transient until a repository stores it and hands back a copy
// carrying the backend-assigned id. The id field is unexported so that no
// caller can reassign it after persistence.
type Account struct {
	id       int64
	username string
	role     *string
}

// NewAccount returns a transient account. The empty string stands in for a
// null username and is rejected.
func NewAccount(username string) (*Account, error) {
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrInvalidArgument)
	}
	return &Account{username: username}, nil
}

// RestoreAccount rebuilds a persistent account from stored state.
// Only repositories should call it.
func RestoreAccount(id int64, username string, role *string) (*Account, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: id must be positive, got %d", ErrInvalidArgument, id)
	}
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrInvalidArgument)
	}
	return &Account{id: id, username: username, role: cloneRole(role)}, nil
}

func (a *Account) ID() int64 { return a.id }

func (a *Account) Username() string { return a.username }

// Role returns a copy of the role, nil when unset.
func (a *Account) Role() *string { return cloneRole(a.role) }

// IsPersistent reports whether the account has been assigned an id.
func (a *Account) IsPersistent() bool { return a.id > 0 }

func (a *Account) SetUsername(username string) error {
	if username == "" {
		return fmt.Errorf("%w: username is required", ErrInvalidArgument)
	}
	a.username = username
	return nil
}

// SetRole replaces the role; nil clears it.
func (a *Account) SetRole(role *string) {
	a.role = cloneRole(role)
}

// Clone returns an independent snapshot.
func (a *Account) Clone() *Account {
	return &Account{id: a.id, username: a.username, role: cloneRole(a.role)}
}

// Equal compares all three fields.
func (a *Account) Equal(other *Account) bool {
	if a == nil || other == nil {
		return a == other
	}
	if a.id != other.id || a.username != other.username {
		return false
	}
	if a.role == nil || other.role == nil {
		return a.role == nil && other.role == nil
	}
	return *a.role == *other.role
}

func (a *Account) String() string {
	var b strings.Builder
	b.WriteString("Account{id=")
	if a.IsPersistent() {
		b.WriteString(strconv.FormatInt(a.id, 10))
	} else {
		b.WriteString("null")
	}
	b.WriteString(", username='")
	b.WriteString(a.username)
	b.WriteString("', role=")
	if a.role != nil {
		b.WriteString("'" + *a.role + "'")
	} else {
		b.WriteString("null")
	}
	b.WriteString("}")
	return b.String()
}

func cloneRole(role *string) *string {
	if role == nil {
		return nil
	}
	r := *role
	return &r
}
