package image

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

const basePrompt = `Generate a humorous and engaging meme-style image that captures the essence of this social media post. Modern meme aesthetic, vibrant colors, clear focal point, simple composition. Based on this post: `

// Telegram caps photos at 10 MB; anything larger is a provider bug.
const maxImageBytes = 10 << 20

// HuggingFaceClient implements ports.ImageGenerator backed by a hosted
// text-to-image model. The API returns raw PNG bytes on success.
type HuggingFaceClient struct {
	endpoint   string
	model      string
	apiToken   string
	httpClient *http.Client
}

var _ ports.ImageGenerator = (*HuggingFaceClient)(nil)

// NewHuggingFaceClient builds a client from configuration.
func NewHuggingFaceClient(cfg config.HuggingFaceConfig) *HuggingFaceClient {
	return &HuggingFaceClient{
		endpoint: cfg.Endpoint,
		model:    cfg.ImageModel,
		apiToken: cfg.ImageToken,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

// Generate renders an illustration for the post and returns the encoded bytes.
func (c *HuggingFaceClient) Generate(ctx context.Context, post string) ([]byte, error) {
	if c.apiToken == "" || c.endpoint == "" || c.model == "" {
		return nil, fmt.Errorf("huggingface image client misconfigured")
	}
	if post == "" {
		return nil, fmt.Errorf("post text is empty")
	}

	body, err := json.Marshal(map[string]any{
		"inputs": basePrompt + `"` + post + `"`,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s", strings.TrimSuffix(c.endpoint, "/"), c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "image/png")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("huggingface error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty image response")
	}
	if len(data) > maxImageBytes {
		return nil, fmt.Errorf("image exceeds %d bytes", maxImageBytes)
	}

	return data, nil
}
