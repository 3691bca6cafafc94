package webhook

// Wire shapes for the platform's webhook payload. Only the fields the relay
// consumes are declared.

type eventPayload struct {
	Object string       `json:"object"`
	Entry  []eventEntry `json:"entry"`
}

type eventEntry struct {
	ID        string           `json:"id"`
	Time      int64            `json:"time"`
	Messaging []messagingEvent `json:"messaging"`
}

type messagingEvent struct {
	Sender    participant     `json:"sender"`
	Recipient participant     `json:"recipient"`
	Timestamp int64           `json:"timestamp"`
	Message   *inboundMessage `json:"message,omitempty"`
	Delivery  *receipt        `json:"delivery,omitempty"`
	Read      *receipt        `json:"read,omitempty"`
}

type participant struct {
	ID string `json:"id"`
}

type inboundMessage struct {
	MID     string    `json:"mid"`
	Text    string    `json:"text"`
	ReplyTo *replyRef `json:"reply_to,omitempty"`
}

type replyRef struct {
	MID string `json:"mid"`
}

type receipt struct {
	Watermark int64 `json:"watermark"`
}
