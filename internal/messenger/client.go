// Package messenger is the outbound sink: it posts text messages and sender
// actions to the platform's Graph send API on behalf of the page.
package messenger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// maxChunkLen is the platform limit for a single outbound text message.
// Longer replies are split and sent as independent messages.
const maxChunkLen = 2000

type recipient struct {
	ID string `json:"id"`
}

type textMessage struct {
	Text string `json:"text"`
}

type sendRequest struct {
	Recipient recipient    `json:"recipient"`
	Message   *textMessage `json:"message,omitempty"`
	Action    string       `json:"sender_action,omitempty"`
}

type sendResponse struct {
	RecipientID string `json:"recipient_id"`
	MessageID   string `json:"message_id"`
}

// SentChunk is one delivered message segment and the provider-assigned id
// for it, when the API returned one.
type SentChunk struct {
	MessageID string
	Text      string
}

// Client talks to the Graph send API.
type Client struct {
	baseURL     string
	accessToken string
	client      *http.Client
}

func NewClient(baseURL, accessToken string) *Client {
	return &Client{
		baseURL:     strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		accessToken: accessToken,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// SendText delivers text to the recipient, split into segments of at most
// 2000 characters, each sent as an independent call. A failed segment is
// skipped and the remaining segments are still attempted; the chunks that
// did send are returned alongside the joined errors.
func (c *Client) SendText(ctx context.Context, recipientID, text string) ([]SentChunk, error) {
	var (
		sent    []SentChunk
		sendErr error
	)
	for _, chunk := range chunkText(text, maxChunkLen) {
		res, err := c.post(ctx, sendRequest{
			Recipient: recipient{ID: recipientID},
			Message:   &textMessage{Text: chunk},
		})
		if err != nil {
			sendErr = errors.Join(sendErr, err)
			continue
		}
		sent = append(sent, SentChunk{MessageID: res.MessageID, Text: chunk})
	}
	return sent, sendErr
}

// SendAction sends a transient sender action (typing_on, typing_off,
// mark_seen). Best effort.
func (c *Client) SendAction(ctx context.Context, recipientID, action string) error {
	_, err := c.post(ctx, sendRequest{
		Recipient: recipient{ID: recipientID},
		Action:    action,
	})
	return err
}

func (c *Client) post(ctx context.Context, body sendRequest) (sendResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return sendResponse{}, fmt.Errorf("marshal send request: %w", err)
	}

	url := c.baseURL + "/me/messages?access_token=" + c.accessToken
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return sendResponse{}, fmt.Errorf("create send request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.client.Do(req)
	if err != nil {
		return sendResponse{}, fmt.Errorf("send message: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		return sendResponse{}, fmt.Errorf("graph api status %d: %s", res.StatusCode, strings.TrimSpace(string(raw)))
	}

	var parsed sendResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		// Some action calls return an empty body; not an error.
		return sendResponse{}, nil
	}
	return parsed, nil
}

// chunkText splits text into segments of at most limit characters, in order.
// Cuts land on rune boundaries so multi-byte characters are never torn.
func chunkText(text string, limit int) []string {
	if limit <= 0 {
		return []string{text}
	}
	var chunks []string
	for {
		cut := runeOffset(text, limit)
		if cut == len(text) {
			return append(chunks, text)
		}
		chunks = append(chunks, text[:cut])
		text = text[cut:]
	}
}

// runeOffset returns the byte offset of the n-th rune of s, or len(s) when s
// holds fewer than n runes.
func runeOffset(s string, n int) int {
	count := 0
	for i := range s {
		if count == n {
			return i
		}
		count++
	}
	return len(s)
}
