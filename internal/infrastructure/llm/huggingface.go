package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"NewsCommenter/internal/config"
	"NewsCommenter/internal/ports"
)

const (
	maxPostLength   = 280
	minPostLength   = 10
	retryDelay      = time.Second
	defaultAttempts = 3
)

const defaultPrompt = `Generate a humorous tweet-style comment (under 280 characters) for the given news headline. The tone should be witty, relatable, and use casual online language.

HEADLINE: Scientists Discover New Super-Earth 12 Light Years Away
Comment: New Super-Earth discovered, and the first thing humans think is 'can we move there and ruin that one too?'

HEADLINE: Global Economy Faces Unprecedented Challenges
Comment: Unprecedented challenges = 'we broke it but can't fix it.' Classic human vibes.

Now, based on the above style and tone, comment on the following headline:

HEADLINE: %s
Comment:`

// HuggingFaceClient implements ports.CommentGenerator backed by the hosted
// inference API.
type HuggingFaceClient struct {
	endpoint    string
	model       string
	apiToken    string
	prompt      string
	maxAttempts int
	httpClient  *http.Client
}

var _ ports.CommentGenerator = (*HuggingFaceClient)(nil)

// NewHuggingFaceClient builds a client from configuration.
func NewHuggingFaceClient(cfg config.HuggingFaceConfig) *HuggingFaceClient {
	attempts := cfg.MaxAttempts
	if attempts <= 0 {
		attempts = defaultAttempts
	}
	return &HuggingFaceClient{
		endpoint:    cfg.Endpoint,
		model:       cfg.TextModel,
		apiToken:    cfg.TextToken,
		prompt:      safePrompt(cfg.Prompt),
		maxAttempts: attempts,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Generate asks the model for a short comment on the headline, retrying on
// transient failures and trimming the result to the post length limit.
func (c *HuggingFaceClient) Generate(ctx context.Context, headline string) (string, error) {
	if c.apiToken == "" || c.endpoint == "" || c.model == "" {
		return "", fmt.Errorf("huggingface text client misconfigured")
	}
	if headline == "" {
		return "", fmt.Errorf("headline is empty")
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		post, err := c.generateOnce(ctx, headline)
		if err == nil {
			return post, nil
		}
		lastErr = err

		if attempt < c.maxAttempts {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(retryDelay):
			}
		}
	}

	return "", fmt.Errorf("generate comment after %d attempts: %w", c.maxAttempts, lastErr)
}

func (c *HuggingFaceClient) generateOnce(ctx context.Context, headline string) (string, error) {
	body, err := json.Marshal(map[string]any{
		"inputs": fmt.Sprintf(c.prompt, headline),
		"parameters": map[string]any{
			"max_new_tokens":   120,
			"return_full_text": false,
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s", strings.TrimSuffix(c.endpoint, "/"), c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("send prompt: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("huggingface error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var generated []struct {
		GeneratedText string `json:"generated_text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&generated); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(generated) == 0 {
		return "", fmt.Errorf("empty generation response")
	}

	post := shorten(strings.Trim(generated[0].GeneratedText, "'\" \t\n\r"), maxPostLength)
	if len(post) < minPostLength {
		return "", fmt.Errorf("generated post too short: %q", post)
	}

	return post, nil
}

// shorten truncates text to limit runes, cutting at the last word boundary
// and appending an ellipsis, similar to a word-wrap shortener.
func shorten(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}

	cut := string(runes[:limit-3])
	if idx := strings.LastIndexByte(cut, ' '); idx > 0 {
		cut = cut[:idx]
	}
	return cut + "..."
}

func safePrompt(prompt string) string {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" || !strings.Contains(prompt, "%s") {
		return defaultPrompt
	}
	return prompt
}
