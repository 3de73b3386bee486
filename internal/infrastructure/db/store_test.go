package db

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/msvcdojo/accounts-service/internal/core/domain"
	"github.com/msvcdojo/accounts-service/internal/infrastructure/config"
)

func TestOpen_Memory(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{Storage: config.StorageConfig{Driver: config.DriverMemory}}

	store, err := Open(ctx, cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close(ctx)

	if store.Driver != config.DriverMemory {
		t.Errorf("driver = %q", store.Driver)
	}
	if err := store.Ping(ctx); err != nil {
		t.Errorf("ping: %v", err)
	}

	acct, _ := domain.NewAccount("alice")
	saved, err := store.Repository.Save(ctx, acct)
	if err != nil || saved.ID() != 1 {
		t.Fatalf("save: id=%v err=%v", saved, err)
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	cfg := &config.Config{Storage: config.StorageConfig{Driver: "sqlite"}}
	if _, err := Open(context.Background(), cfg, zerolog.Nop()); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}
