package brain

import (
	"time"

	"github.com/naseer2426/wa-brain/internal/imagegen"
)

// Message is one chat message forwarded by the WhatsApp client.
type Message struct {
	Text      string
	User      string
	ChatID    string
	MessageID string
	IsGroup   bool
}

type Kind string

const (
	KindText  Kind = "text"
	KindImage Kind = "image"
)

// Result is either a text reply or an image, depending on Kind.
type Result struct {
	Kind   Kind
	Text   string
	Image  *imagegen.Image
	Source string
}

type Outcome string

const (
	OutcomeOK       Outcome = "ok"
	OutcomeFallback Outcome = "fallback"
	OutcomeFailed   Outcome = "failed"
)

// Event describes how one message was handled.
type Event struct {
	RequestID string
	Kind      Kind
	Source    string
	Outcome   Outcome
	Latency   time.Duration
	Err       string
}
