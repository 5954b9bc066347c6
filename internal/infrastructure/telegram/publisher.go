package telegram

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"NewsCommenter/internal/ports"
)

const (
	defaultAPIBase = "https://api.telegram.org"
	// Telegram caption hard limit for photo messages.
	maxCaptionLength = 1024
)

// Publisher sends posts to a Telegram chat via bot API.
type Publisher struct {
	apiBase  string
	botToken string
	chatID   string
	client   *http.Client
}

var _ ports.Publisher = (*Publisher)(nil)

// NewPublisher registers bot token and chat identifier.
func NewPublisher(botToken, chatID string) *Publisher {
	return &Publisher{
		apiBase:  defaultAPIBase,
		botToken: botToken,
		chatID:   chatID,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Publish delivers text to the chat, as a photo caption when image bytes are
// present and as a plain message otherwise.
func (p *Publisher) Publish(ctx context.Context, text string, image []byte) error {
	if p.botToken == "" || p.chatID == "" || p.client == nil {
		return fmt.Errorf("telegram publisher misconfigured")
	}
	if text == "" {
		return fmt.Errorf("text is empty")
	}

	if len(image) > 0 {
		return p.sendPhoto(ctx, text, image)
	}
	return p.sendMessage(ctx, text)
}

func (p *Publisher) sendMessage(ctx context.Context, text string) error {
	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", p.apiBase, p.botToken)
	form := url.Values{}
	form.Set("chat_id", p.chatID)
	form.Set("text", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return p.do(req)
}

func (p *Publisher) sendPhoto(ctx context.Context, caption string, image []byte) error {
	if utf8.RuneCountInString(caption) > maxCaptionLength {
		runes := []rune(caption)
		caption = string(runes[:maxCaptionLength])
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	if err := writer.WriteField("chat_id", p.chatID); err != nil {
		return fmt.Errorf("write chat_id: %w", err)
	}
	if err := writer.WriteField("caption", caption); err != nil {
		return fmt.Errorf("write caption: %w", err)
	}

	part, err := writer.CreateFormFile("photo", "post.png")
	if err != nil {
		return fmt.Errorf("create photo part: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return fmt.Errorf("write photo: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close multipart writer: %w", err)
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendPhoto", p.apiBase, p.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	return p.do(req)
}

func (p *Publisher) do(req *http.Request) error {
	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("telegram error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	return nil
}
