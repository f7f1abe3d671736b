package topics

const (
	GameCreated = "game_created"
	GameSettled = "game_settled"
)
