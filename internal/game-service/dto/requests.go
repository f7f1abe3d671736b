package dto

// StartGameRequest cria um jogo e custodia a aposta no vault.
// Address é o endereço derivado pelo cliente; o serviço recalcula e rejeita
// divergências. Signature é a assinatura hex do jogador sobre a mensagem canônica.
type StartGameRequest struct {
	Player        string `json:"player"`
	GameID        uint64 `json:"gameId"`
	TimeframeSecs int64  `json:"timeframe_secs"`
	BetAmount     int64  `json:"bet_amount"`
	Prediction    bool   `json:"prediction"` // true = alta
	Address       string `json:"address"`
	Signature     string `json:"signature"`
}

// SettleGameRequest liquida um jogo. Assinada pela autoridade do vault;
// Player identifica qual jogo de GameID liquidar (ids colidem entre jogadores).
type SettleGameRequest struct {
	Player        string `json:"player"`
	GameID        uint64 `json:"gameId"`
	Won           bool   `json:"won"`
	AmountWon     int64  `json:"amount_won"`
	ResultAddress string `json:"result_address"`
	Signature     string `json:"signature"`
}

// DepositRequest financia uma conta (jogador ou vault)
type DepositRequest struct {
	Address     string `json:"address"`
	Amount      int64  `json:"amount"`
	ExternalRef string `json:"external_ref"`
}
