package utils

import (
	"strings" // Address normalization

	"github.com/ethereum/go-ethereum/crypto" // Keccak hashing
)

// Alphabet excludes 0/O and 1/I so codes survive being read aloud
const codeAlphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"

// GenerateReferralCode derives a stable 8-character code from a wallet
// address. Same wallet always yields the same code.
func GenerateReferralCode(walletAddress string) string {
	hash := crypto.Keccak256([]byte(strings.ToLower(walletAddress))) // Hash the normalized address
	code := make([]byte, 8)
	for i := range code {
		code[i] = codeAlphabet[int(hash[i])%len(codeAlphabet)] // Map each byte into the alphabet
	}
	return string(code)
}
