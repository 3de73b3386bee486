package domain

import "time"

// AccountEventType names a change applied to an account.
type AccountEventType string

const (
	AccountCreated AccountEventType = "account.created"
	AccountUpdated AccountEventType = "account.updated"
	AccountDeleted AccountEventType = "account.deleted"
)

// AccountEvent records a successful mutation. Username and Role are empty
// for deletions.
type AccountEvent struct {
	Type       AccountEventType
	AccountID  int64
	Username   string
	Role       *string
	OccurredAt time.Time
}

// NewAccountEvent snapshots acct for the given change type.
func NewAccountEvent(t AccountEventType, acct *Account, at time.Time) AccountEvent {
	return AccountEvent{
		Type:       t,
		AccountID:  acct.ID(),
		Username:   acct.Username(),
		Role:       acct.Role(),
		OccurredAt: at.UTC(),
	}
}
