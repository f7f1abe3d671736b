package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Erros de domínio do escrow. Toda falha deixa o estado exatamente como antes
// da operação (rollback da transação inteira).
var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrLocationCollision = errors.New("location already in use")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrNotFound          = errors.New("not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// Store implementa a persistência de jogos, resultados e saldos custodiados.
// SQL portável: roda sobre Postgres (produção) ou sqlite embarcado (dev/testes).
type Store struct {
	db    *sql.DB
	vault string // endereço da conta do vault (identidade da autoridade)
}

func NewStore(db *sql.DB, vault string) *Store { return &Store{db: db, vault: vault} }

// Vault retorna o endereço da conta custodial
func (s *Store) Vault() string { return s.vault }

// Migrate cria as tabelas do escrow
func (s *Store) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS accounts (
			address TEXT PRIMARY KEY,
			balance BIGINT NOT NULL DEFAULT 0 CHECK (balance >= 0)
		)`,
		`CREATE TABLE IF NOT EXISTS games (
			address        TEXT PRIMARY KEY,
			player         TEXT NOT NULL,
			game_id        BIGINT NOT NULL,
			timeframe_secs BIGINT NOT NULL,
			start_time     BIGINT NOT NULL,
			end_time       BIGINT NOT NULL,
			bet_amount     BIGINT NOT NULL,
			prediction     BOOLEAN NOT NULL,
			status         TEXT NOT NULL,
			UNIQUE (player, game_id)
		)`,
		`CREATE TABLE IF NOT EXISTS game_results (
			address    TEXT PRIMARY KEY,
			game_id    BIGINT NOT NULL UNIQUE,
			player     TEXT NOT NULL,
			result     BOOLEAN NOT NULL,
			amount_won BIGINT NOT NULL,
			settled_at BIGINT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS game_ledger (
			id             TEXT PRIMARY KEY,
			account        TEXT NOT NULL,
			operation_type TEXT NOT NULL,
			amount         BIGINT NOT NULL,
			description    TEXT,
			created_at     BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_game_ledger_account ON game_ledger(account)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// EnsureAccount garante a existência da conta (saldo zero se nova).
// Chamado no boot para a conta do vault.
func (s *Store) EnsureAccount(ctx context.Context, address string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO accounts(address, balance) VALUES($1, 0) ON CONFLICT(address) DO NOTHING`,
		address)
	return err
}

// Ping verifica a conexão com o banco (health check)
func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// Balance retorna o saldo de uma conta
func (s *Store) Balance(ctx context.Context, address string) (int64, error) {
	var bal int64
	err := s.db.QueryRowContext(ctx,
		`SELECT balance FROM accounts WHERE address=$1`, address).Scan(&bal)
	if err == sql.ErrNoRows {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	return bal, nil
}

// Deposit credita saldo numa conta, criando-a se necessário, e registra no ledger.
// Ponto de entrada do colaborador externo que financia jogadores e o vault.
func (s *Store) Deposit(ctx context.Context, address string, amount int64, externalRef string) (newBalance int64, err error) {
	if amount <= 0 {
		return 0, ErrInvalidInput
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if err = credit(ctx, tx, address, amount); err != nil {
		return 0, err
	}
	if err = ledger(ctx, tx, address, "CREDIT", amount, "deposit:"+externalRef); err != nil {
		return 0, err
	}
	if err = tx.QueryRowContext(ctx, `SELECT balance FROM accounts WHERE address=$1`, address).Scan(&newBalance); err != nil {
		return 0, err
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return newBalance, nil
}

// StartGame cria o registro do jogo e move a aposta do jogador para o vault,
// tudo na mesma transação: ou os dois efeitos acontecem, ou nenhum.
// Endereço já ocupado -> ErrLocationCollision; saldo insuficiente -> ErrInsufficientFunds.
func (s *Store) StartGame(ctx context.Context, g *Game) error {
	if g.BetAmount <= 0 || g.TimeframeSecs <= 0 {
		return ErrInvalidInput
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Inserção exclusiva: primeiro a gravar o endereço vence
	res, err := tx.ExecContext(ctx, `
		INSERT INTO games (address, player, game_id, timeframe_secs, start_time, end_time, bet_amount, prediction, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT DO NOTHING`,
		g.Address, g.Player, int64(g.GameID), g.TimeframeSecs, g.StartTime, g.EndTime, g.BetAmount, g.Prediction, StatusCreated)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrLocationCollision
	}

	// Aposta sai do jogador e entra no vault
	if err = debit(ctx, tx, g.Player, g.BetAmount); err != nil {
		return err
	}
	if err = credit(ctx, tx, s.vault, g.BetAmount); err != nil {
		return err
	}

	ref := fmt.Sprintf("stake:%d", g.GameID)
	if err = ledger(ctx, tx, g.Player, "DEBIT", g.BetAmount, ref); err != nil {
		return err
	}
	if err = ledger(ctx, tx, s.vault, "CREDIT", g.BetAmount, ref); err != nil {
		return err
	}

	g.Status = StatusCreated
	return tx.Commit()
}

// SettleGame grava o resultado terminal do jogo e, se ganho, paga o prêmio do
// vault para o jogador registrado no jogo. Primeiro resultado gravado vence:
// re-liquidação -> ErrLocationCollision. Jogo perdido ignora amountWon.
func (s *Store) SettleGame(ctx context.Context, player string, gameID uint64, won bool, amountWon int64, resultAddr string) (*GameResult, error) {
	if amountWon < 0 {
		return nil, ErrInvalidInput
	}
	if !won {
		amountWon = 0
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	// O destinatário do pagamento vem do registro persistido, nunca do caller
	var g Game
	var id int64
	err = tx.QueryRowContext(ctx, `
		SELECT address, player, game_id, bet_amount FROM games WHERE player=$1 AND game_id=$2`,
		player, int64(gameID)).Scan(&g.Address, &g.Player, &id, &g.BetAmount)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	r := &GameResult{
		Address:   resultAddr,
		GameID:    gameID,
		Player:    g.Player,
		Result:    won,
		AmountWon: amountWon,
		SettledAt: time.Now().Unix(),
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO game_results (address, game_id, player, result, amount_won, settled_at)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT DO NOTHING`,
		r.Address, int64(r.GameID), r.Player, r.Result, r.AmountWon, r.SettledAt)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrLocationCollision
	}

	if _, err = tx.ExecContext(ctx, `UPDATE games SET status=$1 WHERE address=$2`, StatusSettled, g.Address); err != nil {
		return nil, err
	}

	// Prêmio zero não gera transferência
	if amountWon > 0 {
		if err = debit(ctx, tx, s.vault, amountWon); err != nil {
			return nil, err
		}
		if err = credit(ctx, tx, g.Player, amountWon); err != nil {
			return nil, err
		}

		ref := fmt.Sprintf("payout:%d", gameID)
		if err = ledger(ctx, tx, s.vault, "DEBIT", amountWon, ref); err != nil {
			return nil, err
		}
		if err = ledger(ctx, tx, g.Player, "CREDIT", amountWon, ref); err != nil {
			return nil, err
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}
	return r, nil
}

// GetGame retorna o registro no endereço dado
func (s *Store) GetGame(ctx context.Context, address string) (*Game, error) {
	return scanGame(s.db.QueryRowContext(ctx, `
		SELECT address, player, game_id, timeframe_secs, start_time, end_time, bet_amount, prediction, status
		FROM games WHERE address=$1`, address))
}

// GetGameByKey retorna o registro pela chave lógica (player, gameID)
func (s *Store) GetGameByKey(ctx context.Context, player string, gameID uint64) (*Game, error) {
	return scanGame(s.db.QueryRowContext(ctx, `
		SELECT address, player, game_id, timeframe_secs, start_time, end_time, bet_amount, prediction, status
		FROM games WHERE player=$1 AND game_id=$2`, player, int64(gameID)))
}

// GetResult retorna o resultado de um jogo, se já liquidado
func (s *Store) GetResult(ctx context.Context, gameID uint64) (*GameResult, error) {
	var r GameResult
	var id int64
	err := s.db.QueryRowContext(ctx, `
		SELECT address, game_id, player, result, amount_won, settled_at
		FROM game_results WHERE game_id=$1`, int64(gameID)).
		Scan(&r.Address, &id, &r.Player, &r.Result, &r.AmountWon, &r.SettledAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	r.GameID = uint64(id)
	return &r, nil
}

func scanGame(row *sql.Row) (*Game, error) {
	var g Game
	var id int64
	err := row.Scan(&g.Address, &g.Player, &id, &g.TimeframeSecs, &g.StartTime, &g.EndTime, &g.BetAmount, &g.Prediction, &g.Status)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	g.GameID = uint64(id)
	return &g, nil
}

// debit subtrai saldo com guarda de não-negatividade; conta inexistente ou
// saldo menor que o valor -> ErrInsufficientFunds
func debit(ctx context.Context, tx *sql.Tx, account string, amount int64) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE accounts SET balance = balance - $1 WHERE address=$2 AND balance >= $1`,
		amount, account)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrInsufficientFunds
	}
	return nil
}

// credit soma saldo, criando a conta se não existir
func credit(ctx context.Context, tx *sql.Tx, account string, amount int64) error {
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO accounts(address, balance) VALUES($1, 0) ON CONFLICT(address) DO NOTHING`,
		account); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx,
		`UPDATE accounts SET balance = balance + $1 WHERE address=$2`, amount, account)
	return err
}

// ledger registra o movimento no histórico append-only
func ledger(ctx context.Context, tx *sql.Tx, account, op string, amount int64, description string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO game_ledger (id, account, operation_type, amount, description, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		uuid.NewString(), account, op, amount, description, time.Now().Unix())
	return err
}
