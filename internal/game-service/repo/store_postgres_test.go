package repo

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/omgmanu/lemme-predict-program/internal/shared/db"
	"github.com/omgmanu/lemme-predict-program/pkg/addr"
)

// Smoke test do backend de produção; roda só com um Postgres disponível
func TestPostgresBackendSmoke(t *testing.T) {
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}

	sqlDB, err := db.ConnectPostgres(dsn)
	if err != nil {
		t.Fatalf("connect postgres: %v", err)
	}
	defer sqlDB.Close()

	s := NewStore(sqlDB, testVault)
	ctx := context.Background()
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := s.EnsureAccount(ctx, testVault); err != nil {
		t.Fatalf("ensure vault: %v", err)
	}

	// id único por execução: o banco de smoke é persistente
	id := uint64(time.Now().UnixNano())
	player := "pg-smoke-player"
	fund(t, s, player, 1000)

	g := newGame(player, id, 400)
	if err := s.StartGame(ctx, g); err != nil {
		t.Fatalf("StartGame: %v", err)
	}
	if _, err := s.SettleGame(ctx, player, id, true, 100, addr.GameResult(id)); err != nil {
		t.Fatalf("SettleGame: %v", err)
	}
}
