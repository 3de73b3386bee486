package ports

import (
	"context"

	"github.com/msvcdojo/accounts-service/internal/core/domain"
)

// AccountEventPublisher delivers a change event to an external broker.
type AccountEventPublisher interface {
	Publish(ctx context.Context, event domain.AccountEvent) error
}

// AccountEventSink accepts change events from the service layer without
// blocking the caller.
type AccountEventSink interface {
	Enqueue(event domain.AccountEvent)
}
