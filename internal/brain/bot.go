package brain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/naseer2426/wa-brain/internal/fallback"
	"github.com/naseer2426/wa-brain/internal/imagegen"
	"github.com/naseer2426/wa-brain/internal/intent"
	"github.com/sirupsen/logrus"
)

var brainLog = logrus.WithField("component", "brain")

// ErrImageUnavailable is returned when no image tier produced an image.
var ErrImageUnavailable = errors.New("image generation unavailable")

const TestImagePrompt = "a cute cat sitting in a sunny garden, digital art"

type TextClient interface {
	Reply(ctx context.Context, requestID, message string) (string, error)
}

type ImageGenerator interface {
	Generate(ctx context.Context, requestID, prompt string) (*imagegen.Image, error)
}

// Recorder receives one Event per handled message.
type Recorder interface {
	Record(ctx context.Context, ev Event)
}

// Bot decides between text and image handling. Text and Images are optional;
// a nil Text goes straight to the canned responder, a nil Images fails image
// requests with ErrImageUnavailable.
type Bot struct {
	Text             TextClient
	Images           ImageGenerator
	Fallback         *fallback.Responder
	Recorder         Recorder
	MaxMessageLength int
}

func NewBot() *Bot {
	return &Bot{
		Fallback:         fallback.NewResponder(),
		MaxMessageLength: 4000,
	}
}

func (b *Bot) TextAvailable() bool  { return b.Text != nil }
func (b *Bot) ImageAvailable() bool { return b.Images != nil }

func (b *Bot) HandleMessage(ctx context.Context, requestID string, message *Message) (*Result, error) {
	text := b.truncate(strings.TrimSpace(message.Text))
	brainLog.WithFields(logrus.Fields{
		"request_id": requestID,
		"user":       message.User,
		"chat_id":    message.ChatID,
	}).Infof("received message: %q", text)

	if intent.IsImageRequest(text) {
		return b.handleImage(ctx, requestID, text)
	}
	return b.handleText(ctx, requestID, text), nil
}

// TestImage runs the image ladder with a fixed prompt.
func (b *Bot) TestImage(ctx context.Context, requestID string) (*imagegen.Image, error) {
	res, err := b.generate(ctx, requestID, intent.EnhancePrompt(TestImagePrompt))
	if err != nil {
		return nil, err
	}
	return res.Image, nil
}

func (b *Bot) handleImage(ctx context.Context, requestID, text string) (*Result, error) {
	prompt := intent.EnhancePrompt(intent.CleanPrompt(text))
	brainLog.WithField("request_id", requestID).Infof("image prompt: %q", prompt)
	return b.generate(ctx, requestID, prompt)
}

func (b *Bot) generate(ctx context.Context, requestID, prompt string) (*Result, error) {
	started := time.Now()
	ev := Event{RequestID: requestID, Kind: KindImage}
	defer func() {
		ev.Latency = time.Since(started)
		b.record(ctx, ev)
	}()

	if b.Images == nil {
		ev.Outcome = OutcomeFailed
		ev.Err = imagegen.ErrNotConfigured.Error()
		return nil, fmt.Errorf("%w: %w", ErrImageUnavailable, imagegen.ErrNotConfigured)
	}

	img, err := b.Images.Generate(ctx, requestID, prompt)
	if err != nil {
		ev.Outcome = OutcomeFailed
		ev.Err = err.Error()
		return nil, fmt.Errorf("%w: %w", ErrImageUnavailable, err)
	}
	ev.Outcome = OutcomeOK
	ev.Source = img.Provider
	return &Result{Kind: KindImage, Image: img, Source: img.Provider}, nil
}

func (b *Bot) handleText(ctx context.Context, requestID, text string) *Result {
	started := time.Now()
	ev := Event{RequestID: requestID, Kind: KindText, Outcome: OutcomeOK, Source: "gemini"}

	reply := ""
	if b.Text != nil {
		r, err := b.Text.Reply(ctx, requestID, text)
		if err != nil {
			brainLog.WithField("request_id", requestID).Warnf("text provider gave no reply: %v", err)
			ev.Err = err.Error()
		} else {
			reply = r
		}
	}
	if reply == "" {
		reply = b.Fallback.Reply(text)
		ev.Source = "fallback"
		ev.Outcome = OutcomeFallback
	}
	reply = b.Fallback.Decorate(reply, text)

	ev.Latency = time.Since(started)
	b.record(ctx, ev)
	return &Result{Kind: KindText, Text: reply, Source: ev.Source}
}

func (b *Bot) record(ctx context.Context, ev Event) {
	if b.Recorder != nil {
		b.Recorder.Record(ctx, ev)
	}
}

func (b *Bot) truncate(s string) string {
	if b.MaxMessageLength <= 0 || utf8.RuneCountInString(s) <= b.MaxMessageLength {
		return s
	}
	return string([]rune(s)[:b.MaxMessageLength])
}
