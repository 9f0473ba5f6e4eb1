package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateReferralCode(t *testing.T) {
	wallet := "0x1234567890abcdef1234567890abcdef12345678"
	code := GenerateReferralCode(wallet)

	require.Len(t, code, 8)
	for _, r := range code {
		require.Contains(t, codeAlphabet, string(r))
	}

	// Deterministic, and insensitive to address casing
	require.Equal(t, code, GenerateReferralCode(wallet))
	require.Equal(t, code, GenerateReferralCode(strings.ToUpper(wallet)))

	// A different wallet yields a different code
	require.NotEqual(t, code, GenerateReferralCode("0x8765432109abcdef1234567890abcdef12345678"))
}
