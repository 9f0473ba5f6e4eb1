package chain

import (
	"fmt"
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

// signPersonal signs a message the way a wallet's personal_sign does
func signPersonal(t *testing.T, message string) (sigHex, address string) {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	hash := crypto.Keccak256([]byte(fmt.Sprintf("\x19Ethereum Signed Message:\n%d%s", len(message), message)))
	sig, err := crypto.Sign(hash, key)
	require.NoError(t, err)
	sig[64] += 27 // Wallets report V as 27/28
	return hexutil.Encode(sig), crypto.PubkeyToAddress(key.PublicKey).Hex()
}

func TestVerifyPersonalSign(t *testing.T) {
	msg := "Sign in to Kabbalah Code\nNonce: abc123"
	sigHex, address := signPersonal(t, msg)

	require.NoError(t, VerifyPersonalSign(msg, sigHex, address))

	// Address matching is case-insensitive
	require.NoError(t, VerifyPersonalSign(msg, sigHex, "0x"+address[2:]))

	// A different message fails recovery against the same wallet
	require.Error(t, VerifyPersonalSign("another message", sigHex, address))

	// A different wallet fails
	_, other := signPersonal(t, msg)
	require.Error(t, VerifyPersonalSign(msg, sigHex, other))
}

func TestVerifyPersonalSignRejectsMalformed(t *testing.T) {
	msg := "hello"
	require.Error(t, VerifyPersonalSign(msg, "not-hex", "0x0000000000000000000000000000000000000001"))
	require.Error(t, VerifyPersonalSign(msg, "0x1234", "0x0000000000000000000000000000000000000001"))
}
