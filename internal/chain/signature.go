package chain

import (
	"errors"  // Error values
	"fmt"     // Prefix formatting
	"strings" // Address comparison

	"github.com/ethereum/go-ethereum/common/hexutil" // Hex signature decoding
	"github.com/ethereum/go-ethereum/crypto"         // Signature recovery
)

// VerifyPersonalSign checks an EIP-191 personal_sign signature over message
// against the claimed wallet address.
func VerifyPersonalSign(message, sigHex, walletAddress string) error {
	sig, err := hexutil.Decode(sigHex) // Decode the 0x-prefixed signature
	if err != nil {
		return fmt.Errorf("invalid signature encoding: %w", err)
	}
	if len(sig) != 65 {
		return errors.New("signature must be 65 bytes")
	}
	// Wallets return V as 27/28; recovery wants 0/1
	if sig[64] >= 27 {
		sig[64] -= 27
	}
	// EIP-191 personal message prefix
	hash := crypto.Keccak256([]byte(fmt.Sprintf("\x19Ethereum Signed Message:\n%d%s", len(message), message)))
	pub, err := crypto.SigToPub(hash, sig) // Recover the signing key
	if err != nil {
		return fmt.Errorf("signature recovery failed: %w", err)
	}
	recovered := crypto.PubkeyToAddress(*pub).Hex() // Address of the signer
	if !strings.EqualFold(recovered, walletAddress) {
		return errors.New("signature does not match wallet")
	}
	return nil
}
