package messenger

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"
)

func TestChunkText(t *testing.T) {
	cases := []struct {
		name  string
		text  string
		limit int
		want  []int // rune counts per chunk
	}{
		{"short", "hello", 2000, []int{5}},
		{"exact", strings.Repeat("a", 2000), 2000, []int{2000}},
		{"long", strings.Repeat("a", 4500), 2000, []int{2000, 2000, 500}},
		{"empty", "", 2000, []int{0}},
		{"multibyte", strings.Repeat("é", 2500), 2000, []int{2000, 500}},
	}
	for _, tc := range cases {
		got := chunkText(tc.text, tc.limit)
		if len(got) != len(tc.want) {
			t.Fatalf("%s: chunk count = %d, want %d", tc.name, len(got), len(tc.want))
		}
		var rejoined strings.Builder
		for i, chunk := range got {
			if n := utf8.RuneCountInString(chunk); n != tc.want[i] {
				t.Fatalf("%s: chunk %d rune count = %d, want %d", tc.name, i, n, tc.want[i])
			}
			if !utf8.ValidString(chunk) {
				t.Fatalf("%s: chunk %d is not valid UTF-8", tc.name, i)
			}
			rejoined.WriteString(chunk)
		}
		if rejoined.String() != tc.text {
			t.Fatalf("%s: chunks do not rejoin to the input", tc.name)
		}
	}
}

func TestSendTextChunksInOrder(t *testing.T) {
	var (
		mu    sync.Mutex
		texts []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req sendRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Message == nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		mu.Lock()
		texts = append(texts, req.Message.Text)
		n := len(texts)
		mu.Unlock()
		_ = json.NewEncoder(w).Encode(sendResponse{MessageID: fmt.Sprintf("mid-%d", n)})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "token")
	sent, err := c.SendText(context.Background(), "user-1", strings.Repeat("x", 4500))
	if err != nil {
		t.Fatalf("SendText() error = %v", err)
	}

	if len(sent) != 3 {
		t.Fatalf("sent chunks = %d, want 3", len(sent))
	}
	wantLens := []int{2000, 2000, 500}
	for i, chunk := range sent {
		if len(chunk.Text) != wantLens[i] {
			t.Fatalf("chunk %d length = %d, want %d", i, len(chunk.Text), wantLens[i])
		}
		if chunk.MessageID != fmt.Sprintf("mid-%d", i+1) {
			t.Fatalf("chunk %d message id = %q", i, chunk.MessageID)
		}
	}
	if len(texts) != 3 {
		t.Fatalf("outbound calls = %d, want 3", len(texts))
	}
}

func TestSendTextContinuesPastFailedChunk(t *testing.T) {
	var (
		mu    sync.Mutex
		calls int
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n == 2 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_ = json.NewEncoder(w).Encode(sendResponse{MessageID: fmt.Sprintf("mid-%d", n)})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "token")
	sent, err := c.SendText(context.Background(), "user-1", strings.Repeat("x", 4500))

	if err == nil {
		t.Fatalf("SendText() should report the failed chunk")
	}
	if len(sent) != 2 {
		t.Fatalf("sent chunks = %d, want 2 (middle chunk failed)", len(sent))
	}
	if calls != 3 {
		t.Fatalf("outbound calls = %d, want all 3 attempted", calls)
	}
}

func TestSendActionPostsSenderAction(t *testing.T) {
	var got sendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "token")
	if err := c.SendAction(context.Background(), "user-1", "typing_on"); err != nil {
		t.Fatalf("SendAction() error = %v", err)
	}
	if got.Action != "typing_on" {
		t.Fatalf("sender_action = %q, want typing_on", got.Action)
	}
	if got.Recipient.ID != "user-1" {
		t.Fatalf("recipient = %q, want user-1", got.Recipient.ID)
	}
	if got.Message != nil {
		t.Fatalf("action request should carry no message body")
	}
}
