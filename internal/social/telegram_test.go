package social

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const testBotToken = "123456:test-bot-token"

// widgetSign reproduces the hash the Telegram login widget attaches: an
// HMAC-SHA256 over the sorted key=value lines, keyed by SHA256(bot token).
func widgetSign(fields map[string]string) string {
	keys := []string{"auth_date", "first_name", "id", "username"} // Sorted field order
	var lines []string
	for _, k := range keys {
		if v, ok := fields[k]; ok {
			lines = append(lines, k+"="+v)
		}
	}
	check := strings.Join(lines, "\n")
	secret := sha256.Sum256([]byte(testBotToken))
	mac := hmac.New(sha256.New, secret[:])
	mac.Write([]byte(check))
	return hex.EncodeToString(mac.Sum(nil))
}

func freshFields() map[string]string {
	fields := map[string]string{
		"id":         "42",
		"first_name": "Seeker",
		"username":   "seeker",
		"auth_date":  strconv.FormatInt(time.Now().Unix(), 10),
	}
	fields["hash"] = widgetSign(fields)
	return fields
}

func TestVerifyTelegramLogin(t *testing.T) {
	require.NoError(t, VerifyTelegramLogin(freshFields(), testBotToken))
}

func TestVerifyTelegramLoginRejectsTampering(t *testing.T) {
	fields := freshFields()
	fields["id"] = "43" // Changed after signing
	require.Error(t, VerifyTelegramLogin(fields, testBotToken))
}

func TestVerifyTelegramLoginRejectsWrongToken(t *testing.T) {
	require.Error(t, VerifyTelegramLogin(freshFields(), "999999:other-token"))
}

func TestVerifyTelegramLoginRejectsStalePayload(t *testing.T) {
	fields := map[string]string{
		"id":         "42",
		"first_name": "Seeker",
		"username":   "seeker",
		"auth_date":  fmt.Sprintf("%d", time.Now().Add(-48*time.Hour).Unix()),
	}
	fields["hash"] = widgetSign(fields)
	require.Error(t, VerifyTelegramLogin(fields, testBotToken))
}

func TestVerifyTelegramLoginRejectsMissingHash(t *testing.T) {
	fields := freshFields()
	delete(fields, "hash")
	require.Error(t, VerifyTelegramLogin(fields, testBotToken))
}

func TestTweetIDFromURL(t *testing.T) {
	id, err := TweetIDFromURL("https://x.com/seeker/status/1790000000000000001")
	require.NoError(t, err)
	require.Equal(t, "1790000000000000001", id)

	id, err = TweetIDFromURL("https://twitter.com/seeker/status/123?s=20")
	require.NoError(t, err)
	require.Equal(t, "123", id)

	_, err = TweetIDFromURL("https://x.com/seeker")
	require.Error(t, err)
}
