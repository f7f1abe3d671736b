package events

// GameCreated é emitido após um jogo ser criado e a aposta custodiada no vault
type GameCreated struct {
	GameID     uint64 `json:"game_id"`
	Player     string `json:"player"`
	BetAmount  int64  `json:"bet_amount"`
	Prediction bool   `json:"prediction"`
	Timeframe  int64  `json:"timeframe_secs"`
	TsUnixMs   int64  `json:"ts_unix_ms"`
}
