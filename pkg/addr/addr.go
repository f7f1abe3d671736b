package addr

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
)

// Tags usadas na derivação de endereços (mesmos seeds do programa on-chain)
const (
	TagGame       = "game"
	TagGameResult = "game_result"
)

// Derive calcula o endereço determinístico de um registro a partir do tag e
// das partes da chave lógica. Função pura: cliente e serviço chegam ao mesmo
// endereço sem material secreto.
func Derive(tag string, parts ...[]byte) string {
	h := sha256.New()
	h.Write([]byte(tag))
	for _, p := range parts {
		h.Write(p)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// GameIDBytes serializa o id do jogo em 8 bytes little-endian
func GameIDBytes(id uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, id)
	return b
}

// Game retorna o endereço canônico do registro de um jogo de (player, id)
func Game(player string, id uint64) string {
	return Derive(TagGame, []byte(player), GameIDBytes(id))
}

// GameResult retorna o endereço canônico do resultado de um jogo
func GameResult(id uint64) string {
	return Derive(TagGameResult, GameIDBytes(id))
}
