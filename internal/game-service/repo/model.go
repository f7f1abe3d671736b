package repo

// Status do ciclo de vida de um jogo
const (
	StatusCreated = "CREATED"
	StatusSettled = "SETTLED"
)

// Game é o registro persistido de uma aposta custodiada.
// Imutável após a criação, exceto a transição de status CREATED -> SETTLED.
type Game struct {
	Address       string // endereço canônico derivado de (player, game_id)
	Player        string
	GameID        uint64
	TimeframeSecs int64
	StartTime     int64 // unix segundos
	EndTime       int64 // start_time + timeframe
	BetAmount     int64
	Prediction    bool
	Status        string
}

// GameResult é o desfecho terminal de um jogo, um por game_id.
type GameResult struct {
	Address   string
	GameID    uint64
	Player    string
	Result    bool
	AmountWon int64
	SettledAt int64
}

// Account é um saldo custodiado: jogadores e o próprio vault.
type Account struct {
	Address string
	Balance int64
}
