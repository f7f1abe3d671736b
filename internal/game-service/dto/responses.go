package dto

type GameResponse struct {
	Address       string `json:"address"`
	Player        string `json:"player"`
	GameID        uint64 `json:"gameId"`
	TimeframeSecs int64  `json:"timeframe_secs"`
	StartTime     int64  `json:"start_time"`
	EndTime       int64  `json:"end_time"`
	BetAmount     int64  `json:"bet_amount"`
	Prediction    bool   `json:"prediction"`
	Status        string `json:"status"`
}

type GameResultResponse struct {
	Address   string `json:"address"`
	GameID    uint64 `json:"gameId"`
	Player    string `json:"player"`
	Result    bool   `json:"result"`
	AmountWon int64  `json:"amount_won"`
	SettledAt int64  `json:"settled_at"`
}

type AccountResponse struct {
	Address string `json:"address"`
	Balance int64  `json:"balance"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
