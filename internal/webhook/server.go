// Package webhook is the inbound HTTP surface: the platform's verification
// challenge, the event intake endpoint, and the health/metrics routes.
package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ent0n29/prawnking/internal/config"
	"github.com/ent0n29/prawnking/internal/observability"
	"github.com/ent0n29/prawnking/internal/relay"
)

// maxBodyBytes bounds the webhook payload size read into memory.
const maxBodyBytes = 1 << 20

// EventHandler consumes normalized inbound events.
type EventHandler interface {
	HandleEvent(ctx context.Context, ev relay.Event)
}

type Server struct {
	cfg     config.Config
	handler EventHandler
	metrics *observability.Metrics
}

func New(cfg config.Config, handler EventHandler, metrics *observability.Metrics) *Server {
	return &Server{
		cfg:     cfg,
		handler: handler,
		metrics: metrics,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Get("/webhook", s.handleVerify)
	r.Post("/webhook", s.handleEvents)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}

// handleVerify answers the platform's subscription challenge.
func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	mode := r.URL.Query().Get("hub.mode")
	token := r.URL.Query().Get("hub.verify_token")
	challenge := r.URL.Query().Get("hub.challenge")

	if mode != "" && token == s.cfg.VerifyToken {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(challenge))
		return
	}
	http.Error(w, "Verification failed", http.StatusForbidden)
}

// handleEvents dispatches every qualifying messaging event synchronously and
// acknowledges the delivery. Receipts and non-text events are skipped here so
// the orchestrator only ever sees text messages.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]any{"status": "unreadable body"})
		return
	}

	if s.cfg.AppSecret != "" && !validSignature(body, r.Header.Get("X-Hub-Signature-256"), s.cfg.AppSecret) {
		log.Printf("webhook: rejected payload with bad signature")
		respondJSON(w, http.StatusForbidden, map[string]any{"status": "invalid signature"})
		return
	}

	var payload eventPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]any{"status": "malformed payload"})
		return
	}

	if payload.Object != "page" && payload.Object != "instagram" {
		respondJSON(w, http.StatusNotFound, map[string]any{"status": "unknown event object"})
		return
	}

	for _, entry := range payload.Entry {
		for _, ev := range entry.Messaging {
			if ev.Delivery != nil || ev.Read != nil {
				continue
			}
			if ev.Message == nil || ev.Message.Text == "" {
				continue
			}
			event := relay.Event{
				SenderID: ev.Sender.ID,
				MID:      ev.Message.MID,
				Text:     ev.Message.Text,
			}
			if ev.Message.ReplyTo != nil {
				event.ReplyToMID = ev.Message.ReplyTo.MID
			}
			s.handler.HandleEvent(r.Context(), event)
		}
	}

	respondJSON(w, http.StatusOK, map[string]any{"status": "success"})
}

func validSignature(body []byte, header, secret string) bool {
	header = strings.TrimSpace(header)
	if !strings.HasPrefix(header, "sha256=") {
		return false
	}
	want, err := hex.DecodeString(strings.TrimPrefix(header, "sha256="))
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(mac.Sum(nil), want)
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
