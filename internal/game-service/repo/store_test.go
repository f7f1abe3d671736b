package repo

import (
	"context"
	"errors"
	"testing"

	"github.com/omgmanu/lemme-predict-program/internal/shared/db"
	"github.com/omgmanu/lemme-predict-program/pkg/addr"
)

const testVault = "76a8f34c0c4eebec2ecb30544037d2dd0a717a99b4f64a9a3c2dbe5b33f7a3e1"

func newTestStore(t *testing.T) *Store {
	t.Helper()
	sqlDB, err := db.ConnectSQLite(":memory:")
	if err != nil {
		t.Fatalf("connect sqlite: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	s := NewStore(sqlDB, testVault)
	ctx := context.Background()
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := s.EnsureAccount(ctx, testVault); err != nil {
		t.Fatalf("ensure vault: %v", err)
	}
	return s
}

func fund(t *testing.T, s *Store, address string, amount int64) {
	t.Helper()
	if _, err := s.Deposit(context.Background(), address, amount, "test"); err != nil {
		t.Fatalf("deposit: %v", err)
	}
}

func balance(t *testing.T, s *Store, address string) int64 {
	t.Helper()
	bal, err := s.Balance(context.Background(), address)
	if err != nil {
		t.Fatalf("balance %s: %v", address, err)
	}
	return bal
}

func newGame(player string, id uint64, bet int64) *Game {
	return &Game{
		Address:       addr.Game(player, id),
		Player:        player,
		GameID:        id,
		TimeframeSecs: 60,
		StartTime:     1_700_000_000,
		EndTime:       1_700_000_060,
		BetAmount:     bet,
		Prediction:    true,
	}
}

func TestDeposit(t *testing.T) {
	s := newTestStore(t)

	bal, err := s.Deposit(context.Background(), "player-a", 1000, "ref-1")
	if err != nil {
		t.Fatalf("Deposit: %v", err)
	}
	if bal != 1000 {
		t.Fatalf("expected balance 1000, got %d", bal)
	}

	bal, err = s.Deposit(context.Background(), "player-a", 500, "ref-2")
	if err != nil {
		t.Fatalf("Deposit: %v", err)
	}
	if bal != 1500 {
		t.Fatalf("expected balance 1500, got %d", bal)
	}

	if _, err := s.Deposit(context.Background(), "player-a", 0, "ref-3"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestBalanceUnknownAccount(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Balance(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStartGameMovesStakeToVault(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	fund(t, s, "player-a", 1_000_000_000)

	g := newGame("player-a", 42, 420_000_000)
	if err := s.StartGame(ctx, g); err != nil {
		t.Fatalf("StartGame: %v", err)
	}

	if got := balance(t, s, testVault); got != 420_000_000 {
		t.Fatalf("vault balance = %d, want 420000000", got)
	}
	if got := balance(t, s, "player-a"); got != 580_000_000 {
		t.Fatalf("player balance = %d, want 580000000", got)
	}

	stored, err := s.GetGame(ctx, g.Address)
	if err != nil {
		t.Fatalf("GetGame: %v", err)
	}
	if stored.Player != "player-a" || stored.GameID != 42 || stored.BetAmount != 420_000_000 || !stored.Prediction {
		t.Fatalf("stored game mismatch: %+v", stored)
	}
	if stored.Status != StatusCreated {
		t.Fatalf("status = %q, want %q", stored.Status, StatusCreated)
	}
	if stored.EndTime != stored.StartTime+stored.TimeframeSecs {
		t.Fatalf("end_time %d != start_time %d + timeframe %d", stored.EndTime, stored.StartTime, stored.TimeframeSecs)
	}
}

func TestStartGameDuplicateLocation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	fund(t, s, "player-a", 1_000_000)

	if err := s.StartGame(ctx, newGame("player-a", 7, 100)); err != nil {
		t.Fatalf("first StartGame: %v", err)
	}
	err := s.StartGame(ctx, newGame("player-a", 7, 100))
	if !errors.Is(err, ErrLocationCollision) {
		t.Fatalf("expected ErrLocationCollision, got %v", err)
	}

	// saldos ficam no pós-estado da primeira chamada
	if got := balance(t, s, testVault); got != 100 {
		t.Fatalf("vault balance = %d, want 100", got)
	}
	if got := balance(t, s, "player-a"); got != 999_900 {
		t.Fatalf("player balance = %d, want 999900", got)
	}
}

func TestStartGameSameIDDifferentPlayers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	fund(t, s, "player-a", 1000)
	fund(t, s, "player-b", 1000)

	if err := s.StartGame(ctx, newGame("player-a", 7, 100)); err != nil {
		t.Fatalf("player-a StartGame: %v", err)
	}
	// mesmo id não colide entre jogadores: o endereço inclui a identidade
	if err := s.StartGame(ctx, newGame("player-b", 7, 100)); err != nil {
		t.Fatalf("player-b StartGame: %v", err)
	}
}

func TestStartGameInsufficientFundsIsAtomic(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	fund(t, s, "player-a", 50)

	g := newGame("player-a", 9, 100)
	if err := s.StartGame(ctx, g); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}

	// rollback total: nenhum registro de jogo ficou para trás
	if _, err := s.GetGame(ctx, g.Address); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected no game record after rollback, got %v", err)
	}
	if got := balance(t, s, testVault); got != 0 {
		t.Fatalf("vault balance = %d, want 0", got)
	}
	if got := balance(t, s, "player-a"); got != 50 {
		t.Fatalf("player balance = %d, want 50", got)
	}
}

func TestStartGameUnknownPlayerAccount(t *testing.T) {
	s := newTestStore(t)
	err := s.StartGame(context.Background(), newGame("ghost", 1, 100))
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
}

func TestStartGameInvalidInput(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	g := newGame("player-a", 1, 0)
	if err := s.StartGame(ctx, g); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for zero bet, got %v", err)
	}

	g = newGame("player-a", 1, 100)
	g.TimeframeSecs = 0
	if err := s.StartGame(ctx, g); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for zero timeframe, got %v", err)
	}
}

func TestSettleGameWonPaysPlayer(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	fund(t, s, "player-q", 1_000_000_000)

	g := newGame("player-q", 11, 1_000_000_000)
	if err := s.StartGame(ctx, g); err != nil {
		t.Fatalf("StartGame: %v", err)
	}

	res, err := s.SettleGame(ctx, "player-q", 11, true, 10_000_000, addr.GameResult(11))
	if err != nil {
		t.Fatalf("SettleGame: %v", err)
	}
	if !res.Result || res.AmountWon != 10_000_000 || res.Player != "player-q" {
		t.Fatalf("result mismatch: %+v", res)
	}

	if got := balance(t, s, "player-q"); got != 10_000_000 {
		t.Fatalf("player balance = %d, want 10000000", got)
	}
	if got := balance(t, s, testVault); got != 990_000_000 {
		t.Fatalf("vault balance = %d, want 990000000", got)
	}

	stored, err := s.GetResult(ctx, 11)
	if err != nil {
		t.Fatalf("GetResult: %v", err)
	}
	if !stored.Result || stored.AmountWon != 10_000_000 {
		t.Fatalf("stored result mismatch: %+v", stored)
	}

	game, err := s.GetGame(ctx, g.Address)
	if err != nil {
		t.Fatalf("GetGame: %v", err)
	}
	if game.Status != StatusSettled {
		t.Fatalf("game status = %q, want %q", game.Status, StatusSettled)
	}
}

func TestSettleGameLostIgnoresAmountWon(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	fund(t, s, "player-a", 1000)

	if err := s.StartGame(ctx, newGame("player-a", 3, 500)); err != nil {
		t.Fatalf("StartGame: %v", err)
	}

	// amountWon do caller é descartado em jogo perdido
	res, err := s.SettleGame(ctx, "player-a", 3, false, 999_999, addr.GameResult(3))
	if err != nil {
		t.Fatalf("SettleGame: %v", err)
	}
	if res.Result || res.AmountWon != 0 {
		t.Fatalf("lost game must store amount_won=0, got %+v", res)
	}

	if got := balance(t, s, "player-a"); got != 500 {
		t.Fatalf("player balance = %d, want 500", got)
	}
	if got := balance(t, s, testVault); got != 500 {
		t.Fatalf("vault balance = %d, want 500", got)
	}
}

func TestSettleGameTwiceFails(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	fund(t, s, "player-a", 1000)

	if err := s.StartGame(ctx, newGame("player-a", 5, 500)); err != nil {
		t.Fatalf("StartGame: %v", err)
	}
	if _, err := s.SettleGame(ctx, "player-a", 5, true, 100, addr.GameResult(5)); err != nil {
		t.Fatalf("first SettleGame: %v", err)
	}

	_, err := s.SettleGame(ctx, "player-a", 5, true, 100, addr.GameResult(5))
	if !errors.Is(err, ErrLocationCollision) {
		t.Fatalf("expected ErrLocationCollision on re-settlement, got %v", err)
	}

	// sem pagamento duplo
	if got := balance(t, s, "player-a"); got != 600 {
		t.Fatalf("player balance = %d, want 600", got)
	}
	if got := balance(t, s, testVault); got != 400 {
		t.Fatalf("vault balance = %d, want 400", got)
	}
}

func TestSettleGameNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.SettleGame(context.Background(), "player-a", 404, true, 1, addr.GameResult(404))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSettleGameVaultUnderfundedIsAtomic(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	fund(t, s, "player-a", 1000)

	g := newGame("player-a", 8, 100)
	if err := s.StartGame(ctx, g); err != nil {
		t.Fatalf("StartGame: %v", err)
	}

	// prêmio maior que o saldo do vault: liquidação inteira falha
	_, err := s.SettleGame(ctx, "player-a", 8, true, 1_000_000, addr.GameResult(8))
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}

	if _, err := s.GetResult(ctx, 8); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected no result after rollback, got %v", err)
	}
	game, err := s.GetGame(ctx, g.Address)
	if err != nil {
		t.Fatalf("GetGame: %v", err)
	}
	if game.Status != StatusCreated {
		t.Fatalf("game status = %q, want %q after rollback", game.Status, StatusCreated)
	}
	if got := balance(t, s, "player-a"); got != 900 {
		t.Fatalf("player balance = %d, want 900", got)
	}
	if got := balance(t, s, testVault); got != 100 {
		t.Fatalf("vault balance = %d, want 100", got)
	}
}

func TestGetGameByKey(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	fund(t, s, "player-a", 1000)

	g := newGame("player-a", 77, 100)
	if err := s.StartGame(ctx, g); err != nil {
		t.Fatalf("StartGame: %v", err)
	}

	got, err := s.GetGameByKey(ctx, "player-a", 77)
	if err != nil {
		t.Fatalf("GetGameByKey: %v", err)
	}
	if got.Address != g.Address {
		t.Fatalf("address = %s, want %s", got.Address, g.Address)
	}
}
