package social

import (
	"context"       // Request contexts
	"encoding/json" // Response decoding
	"fmt"           // Error wrapping
	"io"            // Response body reads
	"net/http"      // Discord REST API
	"net/url"       // Form-encoded token exchange
	"strings"       // Request body building
	"time"          // Client timeout
)

const discordAPIBase = "https://discord.com/api/v10"

// DiscordClient drives the OAuth code exchange and guild membership check
type DiscordClient struct {
	ClientID     string       // OAuth client id
	ClientSecret string       // OAuth client secret
	RedirectURI  string       // Registered redirect URI
	GuildID      string       // Guild the user must belong to
	HTTPClient   *http.Client // Shared HTTP client
}

// DiscordUser is the subset of /users/@me we care about
type DiscordUser struct {
	ID       string `json:"id"`       // Discord account id
	Username string `json:"username"` // Display name
}

// NewDiscordClient builds a client with a bounded timeout
func NewDiscordClient(clientID, clientSecret, redirectURI, guildID string) *DiscordClient {
	return &DiscordClient{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURI:  redirectURI,
		GuildID:      guildID,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// ExchangeCode swaps an OAuth authorization code for an access token
func (c *DiscordClient) ExchangeCode(ctx context.Context, code string) (string, error) {
	form := url.Values{}
	form.Set("client_id", c.ClientID)
	form.Set("client_secret", c.ClientSecret)
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", c.RedirectURI)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, discordAPIBase+"/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	body, err := c.do(req)
	if err != nil {
		return "", err
	}
	var tok struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(body, &tok); err != nil {
		return "", fmt.Errorf("failed to unmarshal token response: %w", err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("discord returned no access token")
	}
	return tok.AccessToken, nil
}

// FetchUser reads the authenticated user's identity
func (c *DiscordClient) FetchUser(ctx context.Context, accessToken string) (*DiscordUser, error) {
	body, err := c.get(ctx, "/users/@me", accessToken)
	if err != nil {
		return nil, err
	}
	var user DiscordUser
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user response: %w", err)
	}
	return &user, nil
}

// IsGuildMember reports whether the user belongs to the configured guild
func (c *DiscordClient) IsGuildMember(ctx context.Context, accessToken string) (bool, error) {
	body, err := c.get(ctx, "/users/@me/guilds", accessToken)
	if err != nil {
		return false, err
	}
	var guilds []struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &guilds); err != nil {
		return false, fmt.Errorf("failed to unmarshal guilds response: %w", err)
	}
	for _, g := range guilds {
		if g.ID == c.GuildID {
			return true, nil // Found the required guild
		}
	}
	return false, nil
}

// get performs an authenticated GET against the Discord API
func (c *DiscordClient) get(ctx context.Context, endpoint, accessToken string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, discordAPIBase+endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	return c.do(req)
}

// do executes a request and returns the body, treating >=400 as an error
func (c *DiscordClient) do(req *http.Request) ([]byte, error) {
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("discord api error: %s (status: %d)", string(body), resp.StatusCode)
	}
	return body, nil
}
