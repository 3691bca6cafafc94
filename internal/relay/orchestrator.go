// Package relay composes the per-turn pipeline: dedup, reply-context
// resolution, conversation memory, model completion, and outbound delivery.
package relay

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/ent0n29/prawnking/internal/memory"
	"github.com/ent0n29/prawnking/internal/messenger"
	"github.com/ent0n29/prawnking/internal/msgcache"
	"github.com/ent0n29/prawnking/internal/observability"
)

// replyExcerptLen caps the quoted excerpt in a reply-context line.
const replyExcerptLen = 100

// Event is a normalized inbound text message.
type Event struct {
	SenderID   string
	MID        string
	Text       string
	ReplyToMID string
}

// Completer produces a reply for the user's message given prior history.
// It reports the model that answered; a degraded reply has an empty model.
type Completer interface {
	Complete(ctx context.Context, history []memory.Turn, userText string) (text, model string)
}

// Sink delivers messages and sender actions to the user.
type Sink interface {
	SendText(ctx context.Context, recipientID, text string) ([]messenger.SentChunk, error)
	SendAction(ctx context.Context, recipientID, action string) error
}

// Orchestrator drives one inbound event end to end. All stores are injected
// and shared across concurrent turns; dedup-mark and memory appends are
// deliberately not rolled back when a downstream send fails partway.
type Orchestrator struct {
	memory    *memory.Store
	seen      *msgcache.SeenSet
	replies   *msgcache.ReplyCache
	completer Completer
	sink      Sink
	metrics   *observability.Metrics
}

func NewOrchestrator(
	mem *memory.Store,
	seen *msgcache.SeenSet,
	replies *msgcache.ReplyCache,
	completer Completer,
	sink Sink,
	metrics *observability.Metrics,
) *Orchestrator {
	return &Orchestrator{
		memory:    mem,
		seen:      seen,
		replies:   replies,
		completer: completer,
		sink:      sink,
		metrics:   metrics,
	}
}

// HandleEvent processes one inbound message synchronously. Malformed and
// duplicate events are skipped silently; completion and send failures
// degrade rather than propagate.
func (o *Orchestrator) HandleEvent(ctx context.Context, ev Event) {
	if ev.MID == "" || ev.SenderID == "" || strings.TrimSpace(ev.Text) == "" {
		o.metrics.ObserveTurn("skipped")
		return
	}
	if o.seen.Seen(ev.MID) {
		o.metrics.ObserveTurn("duplicate")
		return
	}
	o.seen.Mark(ev.MID)
	o.replies.Put(ev.MID, memory.RoleUser, ev.Text)

	fullText := o.withReplyContext(ev)
	log.Printf("relay: processing message from %s (mid=%s)", ev.SenderID, ev.MID)

	_ = o.sink.SendAction(ctx, ev.SenderID, "typing_on")

	// History is read before the new message lands so the completion prompt
	// carries it exactly once; the append must still happen before the model
	// call so the turn survives for future context even on downstream failure.
	history := o.memory.History(ev.SenderID)
	o.memory.Append(ev.SenderID, memory.RoleUser, fullText)

	reply, model := o.completer.Complete(ctx, history, fullText)
	o.memory.Append(ev.SenderID, memory.RoleAssistant, reply)
	o.metrics.SetActiveConversations(o.memory.ConversationCount())

	sent, err := o.sink.SendText(ctx, ev.SenderID, reply)
	if err != nil {
		log.Printf("relay: send to %s failed: %v", ev.SenderID, err)
		o.metrics.ObserveSendFailure()
	}
	for _, chunk := range sent {
		mid := chunk.MessageID
		if mid == "" {
			mid = uuid.NewString()
		}
		o.replies.Put(mid, memory.RoleAssistant, chunk.Text)
	}

	_ = o.sink.SendAction(ctx, ev.SenderID, "typing_off")

	if model != "" {
		log.Printf("relay: replied to %s using %s", ev.SenderID, model)
	}
	o.metrics.ObserveTurn("completed")
}

// withReplyContext prefixes the text with a bracketed line describing the
// message being replied to, when that message is still cached.
func (o *Orchestrator) withReplyContext(ev Event) string {
	if ev.ReplyToMID == "" {
		return ev.Text
	}
	target, ok := o.replies.Resolve(ev.ReplyToMID)
	if !ok {
		return ev.Text
	}
	o.metrics.ObserveReplyContextHit()

	speaker := "User"
	if target.Role == memory.RoleAssistant {
		speaker = "Bot"
	}
	excerpt := truncateRunes(target.Content, replyExcerptLen)
	return fmt.Sprintf("[Replying to %s: \"%s\"]\n%s", speaker, excerpt, ev.Text)
}

// truncateRunes cuts s to at most limit characters on a rune boundary.
func truncateRunes(s string, limit int) string {
	count := 0
	for i := range s {
		if count == limit {
			return s[:i]
		}
		count++
	}
	return s
}
