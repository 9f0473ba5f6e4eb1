package social

import (
	"context"     // Request contexts
	"crypto/hmac" // Login widget hash verification
	"crypto/sha256"
	"encoding/hex" // Hash comparison
	"errors"      // Error values
	"fmt"         // Data-check-string building
	"sort"        // Deterministic field ordering
	"strconv"     // auth_date parsing
	"strings"     // Data-check-string joining
	"time"        // auth_date freshness window

	"github.com/mymmrac/telego" // Telegram Bot API client
)

// Login widget payloads older than this are rejected
const telegramAuthMaxAge = 24 * time.Hour

// TelegramVerifier validates login-widget payloads and channel membership
type TelegramVerifier struct {
	botToken string      // Bot token, also the widget HMAC secret source
	channel  string      // Channel the user must join, e.g. @kabbalahcode
	bot      *telego.Bot // Bot API client for membership checks
}

// NewTelegramVerifier builds the verifier and its bot client
func NewTelegramVerifier(botToken, channel string) (*TelegramVerifier, error) {
	bot, err := telego.NewBot(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}
	return &TelegramVerifier{botToken: botToken, channel: channel, bot: bot}, nil
}

// VerifyLoginPayload checks the HMAC the Telegram login widget attaches to
// its field set. Fields must include "hash" and "auth_date".
func (v *TelegramVerifier) VerifyLoginPayload(fields map[string]string) error {
	return VerifyTelegramLogin(fields, v.botToken)
}

// VerifyTelegramLogin validates a login-widget payload against a bot token
func VerifyTelegramLogin(fields map[string]string, botToken string) error {
	expected, ok := fields["hash"]
	if !ok || expected == "" {
		return errors.New("missing hash field")
	}
	// Reject stale payloads
	authDate, err := strconv.ParseInt(fields["auth_date"], 10, 64)
	if err != nil {
		return errors.New("invalid auth_date field")
	}
	if time.Since(time.Unix(authDate, 0)) > telegramAuthMaxAge {
		return errors.New("login payload expired")
	}
	// Build the data-check-string: sorted key=value lines, hash excluded
	keys := make([]string, 0, len(fields))
	for k := range fields {
		if k != "hash" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, k+"="+fields[k])
	}
	check := strings.Join(lines, "\n")
	// Secret is SHA256 of the bot token, per the widget protocol
	secret := sha256.Sum256([]byte(botToken))
	mac := hmac.New(sha256.New, secret[:])
	mac.Write([]byte(check))
	if !hmac.Equal([]byte(hex.EncodeToString(mac.Sum(nil))), []byte(expected)) {
		return errors.New("login payload hash mismatch")
	}
	return nil
}

// IsChannelMember reports whether the Telegram user joined the configured channel
func (v *TelegramVerifier) IsChannelMember(ctx context.Context, telegramUserID int64) (bool, error) {
	member, err := v.bot.GetChatMember(ctx, &telego.GetChatMemberParams{
		ChatID: telego.ChatID{Username: v.channel}, // Channel username, @-prefixed
		UserID: telegramUserID,                     // The user to check
	})
	if err != nil {
		return false, fmt.Errorf("getChatMember failed: %w", err)
	}
	switch member.MemberStatus() {
	case telego.MemberStatusCreator, telego.MemberStatusAdministrator, telego.MemberStatusMember:
		return true, nil // Counts as joined
	default:
		return false, nil // left / kicked / restricted
	}
}
