package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/omgmanu/lemme-predict-program/internal/game-service/auth"
	"github.com/omgmanu/lemme-predict-program/internal/game-service/cache"
	"github.com/omgmanu/lemme-predict-program/internal/game-service/dto"
	"github.com/omgmanu/lemme-predict-program/internal/game-service/repo"
	"github.com/omgmanu/lemme-predict-program/pkg/addr"
	"github.com/omgmanu/lemme-predict-program/pkg/contracts/events"
)

// Repo define as operações de persistência usadas pelos handlers
type Repo interface {
	StartGame(ctx context.Context, g *repo.Game) error
	SettleGame(ctx context.Context, player string, gameID uint64, won bool, amountWon int64, resultAddr string) (*repo.GameResult, error)
	Deposit(ctx context.Context, address string, amount int64, externalRef string) (int64, error)
	Balance(ctx context.Context, address string) (int64, error)
	GetGame(ctx context.Context, address string) (*repo.Game, error)
	GetResult(ctx context.Context, gameID uint64) (*repo.GameResult, error)
}

// Publisher emite os eventos do ciclo de vida (best effort)
type Publisher interface {
	PublishGameCreated(context.Context, events.GameCreated) error
	PublishGameSettled(context.Context, events.GameSettled) error
}

// Server expõe a API do escrow de apostas
type Server struct {
	log       *zap.Logger
	repo      Repo
	publ      Publisher    // opcional
	cache     *cache.Cache // opcional
	authority string       // identidade fixa autorizada a liquidar

	OnGameStarted func() // métricas (counter++)
	OnGameSettled func() // métricas
}

func NewServer(log *zap.Logger, r Repo, p Publisher, c *cache.Cache, authority string) *Server {
	return &Server{log: log, repo: r, publ: p, cache: c, authority: authority}
}

// Router retorna o mux HTTP com as rotas da API
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/games", s.startGame)          // POST
	mux.HandleFunc("/games/settle", s.settleGame)  // POST
	mux.HandleFunc("/games/", s.getGame)           // GET /games/{address}
	mux.HandleFunc("/results/", s.getResult)       // GET /results/{gameId}
	mux.HandleFunc("/accounts", s.getAccount)      // GET ?address=...
	mux.HandleFunc("/accounts/deposit", s.deposit) // POST
	return mux
}

// startGame valida a assinatura do jogador, confere o endereço derivado e
// executa a criação: aposta custodiada no vault + registro do jogo, atômico
func (s *Server) startGame(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req dto.StartGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.Player == "" || req.Signature == "" || req.Address == "" {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	// Autorização antes de qualquer estado: quem cria é o próprio jogador
	msg := auth.StartGameMessage(req.Player, req.GameID, req.TimeframeSecs, req.BetAmount, req.Prediction)
	if err := auth.Verify(req.Player, msg, req.Signature); err != nil {
		s.writeErr(w, err)
		return
	}

	if req.BetAmount <= 0 || req.TimeframeSecs <= 0 {
		s.writeErr(w, repo.ErrInvalidInput)
		return
	}

	// Endereço alegado pelo cliente precisa bater com o canônico
	if req.Address != addr.Game(req.Player, req.GameID) {
		writeError(w, http.StatusBadRequest, "address mismatch")
		return
	}

	now := time.Now().Unix()
	g := &repo.Game{
		Address:       req.Address,
		Player:        req.Player,
		GameID:        req.GameID,
		TimeframeSecs: req.TimeframeSecs,
		StartTime:     now,
		EndTime:       now + req.TimeframeSecs,
		BetAmount:     req.BetAmount,
		Prediction:    req.Prediction,
	}
	if err := s.repo.StartGame(r.Context(), g); err != nil {
		s.writeErr(w, err)
		return
	}

	if s.publ != nil {
		if err := s.publ.PublishGameCreated(r.Context(), events.GameCreated{
			GameID:     g.GameID,
			Player:     g.Player,
			BetAmount:  g.BetAmount,
			Prediction: g.Prediction,
			Timeframe:  g.TimeframeSecs,
		}); err != nil {
			s.log.Warn("publish game_created failed", zap.Error(err), zap.Uint64("game_id", g.GameID))
		}
	}
	if s.OnGameStarted != nil {
		s.OnGameStarted()
	}

	writeJSON(w, http.StatusCreated, gameResponse(g))
}

// settleGame exige assinatura da autoridade do vault; qualquer outro signatário
// falha antes de qualquer leitura ou escrita de estado
func (s *Server) settleGame(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req dto.SettleGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.Player == "" || req.Signature == "" || req.ResultAddress == "" || req.AmountWon < 0 {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	msg := auth.SettleGameMessage(req.Player, req.GameID, req.Won, req.AmountWon)
	if err := auth.Verify(s.authority, msg, req.Signature); err != nil {
		s.writeErr(w, err)
		return
	}

	if req.ResultAddress != addr.GameResult(req.GameID) {
		writeError(w, http.StatusBadRequest, "address mismatch")
		return
	}

	res, err := s.repo.SettleGame(r.Context(), req.Player, req.GameID, req.Won, req.AmountWon, req.ResultAddress)
	if err != nil {
		s.writeErr(w, err)
		return
	}

	resp := resultResponse(res)
	if s.cache != nil {
		if err := s.cache.SetResult(r.Context(), res.GameID, resp); err != nil {
			s.log.Warn("result cache set failed", zap.Error(err))
		}
	}
	if s.publ != nil {
		if err := s.publ.PublishGameSettled(r.Context(), events.GameSettled{
			GameID:    res.GameID,
			Player:    res.Player,
			Result:    res.Result,
			AmountWon: res.AmountWon,
		}); err != nil {
			s.log.Warn("publish game_settled failed", zap.Error(err), zap.Uint64("game_id", res.GameID))
		}
	}
	if s.OnGameSettled != nil {
		s.OnGameSettled()
	}

	writeJSON(w, http.StatusCreated, resp)
}

// getGame busca o registro pelo endereço: /games/{address}
func (s *Server) getGame(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	address := r.URL.Path[len("/games/"):]
	if address == "" {
		writeError(w, http.StatusBadRequest, "address required")
		return
	}
	g, err := s.repo.GetGame(r.Context(), address)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, gameResponse(g))
}

// getResult busca o resultado via cache (read-through): /results/{gameId}
func (s *Server) getResult(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	gameID, err := strconv.ParseUint(r.URL.Path[len("/results/"):], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid gameId")
		return
	}

	if s.cache != nil {
		var cached dto.GameResultResponse
		if ok, err := s.cache.GetResult(r.Context(), gameID, &cached); err == nil && ok {
			writeJSON(w, http.StatusOK, cached)
			return
		}
	}

	res, err := s.repo.GetResult(r.Context(), gameID)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	resp := resultResponse(res)
	if s.cache != nil {
		_ = s.cache.SetResult(r.Context(), gameID, resp)
	}
	writeJSON(w, http.StatusOK, resp)
}

// getAccount retorna o saldo de uma conta
func (s *Server) getAccount(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	address := r.URL.Query().Get("address")
	if address == "" {
		writeError(w, http.StatusBadRequest, "address required")
		return
	}
	bal, err := s.repo.Balance(r.Context(), address)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.AccountResponse{Address: address, Balance: bal})
}

// deposit financia uma conta (hook do colaborador externo de funding)
func (s *Server) deposit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req dto.DepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.Address == "" || req.Amount <= 0 {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	bal, err := s.repo.Deposit(r.Context(), req.Address, req.Amount, req.ExternalRef)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.AccountResponse{Address: req.Address, Balance: bal})
}

// writeErr mapeia os erros de domínio para status HTTP estáveis
func (s *Server) writeErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrBadSignature) || errors.Is(err, auth.ErrBadIdentity) || errors.Is(err, repo.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, repo.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, repo.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, repo.ErrLocationCollision) || errors.Is(err, repo.ErrInsufficientFunds):
		writeError(w, http.StatusConflict, err.Error())
	default:
		s.log.Error("internal error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func gameResponse(g *repo.Game) dto.GameResponse {
	return dto.GameResponse{
		Address:       g.Address,
		Player:        g.Player,
		GameID:        g.GameID,
		TimeframeSecs: g.TimeframeSecs,
		StartTime:     g.StartTime,
		EndTime:       g.EndTime,
		BetAmount:     g.BetAmount,
		Prediction:    g.Prediction,
		Status:        g.Status,
	}
}

func resultResponse(r *repo.GameResult) dto.GameResultResponse {
	return dto.GameResultResponse{
		Address:   r.Address,
		GameID:    r.GameID,
		Player:    r.Player,
		Result:    r.Result,
		AmountWon: r.AmountWon,
		SettledAt: r.SettledAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, dto.ErrorResponse{Error: msg})
}
