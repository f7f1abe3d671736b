package events

// GameSettled é emitido após o resultado ser gravado e o prêmio (se houver) pago
type GameSettled struct {
	GameID    uint64 `json:"game_id"`
	Player    string `json:"player"`
	Result    bool   `json:"result"`
	AmountWon int64  `json:"amount_won"`
	TsUnixMs  int64  `json:"ts_unix_ms"`
}
