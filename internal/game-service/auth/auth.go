package auth

import (
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"fmt"
)

// Identidades são chaves públicas ed25519 em hex; a identidade é o próprio
// endereço da conta. Toda operação mutante carrega uma assinatura sobre a
// mensagem canônica da requisição, verificada antes de tocar qualquer estado.

var (
	// ErrBadSignature é estável para o caller casar o padrão; não revela
	// nada sobre a existência dos registros alvo
	ErrBadSignature = errors.New("signature verification failed")
	ErrBadIdentity  = errors.New("malformed identity")
)

// StartGameMessage é a mensagem canônica assinada pelo jogador ao criar um jogo
func StartGameMessage(player string, gameID uint64, timeframe int64, betAmount int64, prediction bool) []byte {
	return []byte(fmt.Sprintf("start_game|%s|%d|%d|%d|%t", player, gameID, timeframe, betAmount, prediction))
}

// SettleGameMessage é a mensagem canônica assinada pela autoridade do vault
func SettleGameMessage(player string, gameID uint64, won bool, amountWon int64) []byte {
	return []byte(fmt.Sprintf("settle_game|%s|%d|%t|%d", player, gameID, won, amountWon))
}

// Verify confere a assinatura hex de msg contra a identidade esperada
func Verify(identity string, msg []byte, sigHex string) error {
	pub, err := hex.DecodeString(identity)
	if err != nil || len(pub) != ed25519.PublicKeySize {
		return ErrBadIdentity
	}
	sig, err := hex.DecodeString(sigHex)
	if err != nil || len(sig) != ed25519.SignatureSize {
		return ErrBadSignature
	}
	if !ed25519.Verify(ed25519.PublicKey(pub), msg, sig) {
		return ErrBadSignature
	}
	return nil
}

// Sign assina a mensagem e retorna a assinatura em hex (lado cliente e testes)
func Sign(priv ed25519.PrivateKey, msg []byte) string {
	return hex.EncodeToString(ed25519.Sign(priv, msg))
}

// Identity retorna a identidade hex de uma chave pública
func Identity(pub ed25519.PublicKey) string {
	return hex.EncodeToString(pub)
}
