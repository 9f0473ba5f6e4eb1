package social

import (
	"context"       // Request contexts
	"encoding/json" // Response decoding
	"fmt"           // Error wrapping
	"io"            // Response body reads
	"net/http"      // Syndication endpoint
	"net/url"       // Tweet URL parsing
	"strings"       // Text matching
	"time"          // Client timeout
)

// Public syndication CDN; serves tweet content without API credentials
const twitterSyndicationBase = "https://cdn.syndication.twimg.com/tweet-result"

// TwitterClient reads public post content via the syndication endpoint
type TwitterClient struct {
	Handle     string       // Official account a verification post must mention
	HTTPClient *http.Client // Shared HTTP client
}

// Tweet is the subset of the syndication payload we care about
type Tweet struct {
	Text string `json:"text"` // Post text
	User struct {
		ScreenName string `json:"screen_name"` // Author handle
	} `json:"user"`
}

// NewTwitterClient builds a client with a bounded timeout
func NewTwitterClient(handle string) *TwitterClient {
	return &TwitterClient{
		Handle: handle,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// TweetIDFromURL extracts the numeric status id from a post URL
func TweetIDFromURL(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid tweet url: %w", err)
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	// Expected shape: /<handle>/status/<id>
	for i, p := range parts {
		if p == "status" && i+1 < len(parts) {
			id := parts[i+1]
			if id != "" {
				return id, nil
			}
		}
	}
	return "", fmt.Errorf("no status id in url")
}

// FetchTweet loads a public post by id
func (c *TwitterClient) FetchTweet(ctx context.Context, tweetID string) (*Tweet, error) {
	endpoint := fmt.Sprintf("%s?id=%s&token=a", twitterSyndicationBase, url.QueryEscape(tweetID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
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
		return nil, fmt.Errorf("syndication error: %s (status: %d)", string(body), resp.StatusCode)
	}
	var tweet Tweet
	if err := json.Unmarshal(body, &tweet); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tweet: %w", err)
	}
	return &tweet, nil
}

// VerifyPost checks that a post mentions the official handle and carries the
// user's verification code, and returns the author handle.
func (c *TwitterClient) VerifyPost(ctx context.Context, tweetID, verificationCode string) (string, error) {
	tweet, err := c.FetchTweet(ctx, tweetID)
	if err != nil {
		return "", err
	}
	text := strings.ToLower(tweet.Text)
	if !strings.Contains(text, strings.ToLower("@"+c.Handle)) {
		return "", fmt.Errorf("post does not mention @%s", c.Handle)
	}
	if !strings.Contains(text, strings.ToLower(verificationCode)) {
		return "", fmt.Errorf("post does not contain the verification code")
	}
	return tweet.User.ScreenName, nil
}
