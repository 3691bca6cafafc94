package groq

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/ent0n29/prawnking/internal/memory"
	"github.com/ent0n29/prawnking/internal/observability"
	"github.com/ent0n29/prawnking/internal/reliability"
)

// FallbackReply is returned when every model in the hierarchy fails or is
// rate limited. The relay never surfaces a hard completion failure to users.
const FallbackReply = "Sorry, I'm having trouble thinking right now. Please try again later."

// Message is the chat-completions wire shape.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

// Config holds the completion endpoint settings.
type Config struct {
	APIKey       string
	APIURL       string
	Models       []string
	SystemPrompt string
	Temperature  float64
	MaxTokens    int
	Timeout      time.Duration
}

// Client calls an OpenAI-compatible chat-completions endpoint across an
// ordered model hierarchy, advancing to the next model on rate limit or any
// other per-model failure.
type Client struct {
	cfg     Config
	client  *http.Client
	metrics *observability.Metrics
}

func NewClient(cfg Config, metrics *observability.Metrics) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		metrics: metrics,
	}
}

// Complete runs the fallback loop over the model hierarchy and returns the
// reply text plus the model that produced it. On exhaustion it returns
// FallbackReply with an empty model name; it never returns an error to the
// caller. Memory mutation is the caller's concern.
func (c *Client) Complete(ctx context.Context, history []memory.Turn, userText string) (string, string) {
	messages := make([]Message, 0, len(history)+2)
	messages = append(messages, Message{Role: "system", Content: c.cfg.SystemPrompt})
	for _, turn := range history {
		messages = append(messages, Message{Role: string(turn.Role), Content: turn.Content})
	}
	messages = append(messages, Message{Role: "user", Content: userText})

	started := time.Now()
	defer func() {
		c.metrics.ObserveCompletionLatency(time.Since(started))
	}()

	for _, model := range c.cfg.Models {
		text, err := c.attempt(ctx, model, messages)
		if err != nil {
			result := "error"
			if isRateLimit(err) {
				result = "rate_limited"
				log.Printf("groq: rate limited on %s, trying next model", model)
			} else {
				log.Printf("groq: %s failed: %v, trying next model", model, err)
			}
			c.metrics.ObserveProviderAttempt(model, result)
			continue
		}
		c.metrics.ObserveProviderAttempt(model, "ok")
		return text, model
	}

	log.Printf("groq: all %d models exhausted, returning fallback reply", len(c.cfg.Models))
	c.metrics.ObserveFallbackExhausted()
	return FallbackReply, ""
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("groq http status %d: %s", e.code, e.body)
}

func isRateLimit(err error) bool {
	se, ok := err.(*statusError)
	return ok && reliability.IsRateLimited(se.code)
}

// attempt issues a single completion request against one model.
func (c *Client) attempt(ctx context.Context, model string, messages []Message) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model:       model,
		Messages:    messages,
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	res, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer res.Body.Close()

	if reliability.ShouldTryNextModel(res.StatusCode) {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		return "", &statusError{code: res.StatusCode, body: strings.TrimSpace(string(body))}
	}

	var parsed chatResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("response has no choices")
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}
