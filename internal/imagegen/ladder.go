package imagegen

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var imagegenLog = logrus.WithField("component", "imagegen")

type Image struct {
	Data        []byte
	ContentType string
	Provider    string
}

// Caller performs one request against one provider.
type Caller interface {
	Call(ctx context.Context, requestID string, p Provider, prompt string) (*Image, error)
}

// ExhaustedError is returned when no provider in a ladder produced an image.
type ExhaustedError struct {
	Failures []error
}

func (e *ExhaustedError) Error() string {
	msgs := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		msgs = append(msgs, f.Error())
	}
	return "all image providers failed: " + strings.Join(msgs, "; ")
}

// Unwrap exposes every provider failure to errors.Is / errors.As.
func (e *ExhaustedError) Unwrap() []error { return e.Failures }

type SleepFunc func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Generator walks the tiers of a Plan. Within a tier, providers are tried in
// order; a loading provider is retried up to its MaxAttempts before the next
// one is tried. The first image wins.
type Generator struct {
	caller Caller
	plan   Plan
	sleep  SleepFunc
}

func NewGenerator(caller Caller, plan Plan) *Generator {
	return &Generator{caller: caller, plan: plan, sleep: sleepContext}
}

// WithSleep replaces the wait used between retries of a loading model.
func (g *Generator) WithSleep(fn SleepFunc) *Generator {
	g.sleep = fn
	return g
}

func (g *Generator) Plan() Plan { return g.plan }

func (g *Generator) Generate(ctx context.Context, requestID, prompt string) (*Image, error) {
	var failures []error
	for _, tier := range g.plan.Tiers {
		img, err := g.runTier(ctx, requestID, tier, prompt)
		if err == nil {
			return img, nil
		}
		if errors.Is(err, ErrNotConfigured) || ctx.Err() != nil {
			return nil, err
		}
		imagegenLog.WithFields(logrus.Fields{
			"request_id": requestID,
			"tier":       tier.Name,
		}).Warnf("image tier failed: %v", err)
		failures = append(failures, errors.Wrapf(err, "tier %s", tier.Name))
	}
	return nil, &ExhaustedError{Failures: failures}
}

func (g *Generator) runTier(ctx context.Context, requestID string, tier Tier, prompt string) (*Image, error) {
	var failures []error
	for _, p := range tier.Providers {
		img, err := g.tryProvider(ctx, requestID, p, prompt)
		if err == nil {
			return img, nil
		}
		if errors.Is(err, ErrNotConfigured) || ctx.Err() != nil {
			return nil, err
		}
		failures = append(failures, err)
	}
	return nil, &ExhaustedError{Failures: failures}
}

func (g *Generator) tryProvider(ctx context.Context, requestID string, p Provider, prompt string) (*Image, error) {
	entry := imagegenLog.WithFields(logrus.Fields{
		"request_id": requestID,
		"provider":   p.Name,
	})
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	for attempt := 1; ; attempt++ {
		started := time.Now()
		img, err := g.caller.Call(ctx, requestID, p, prompt)
		if err == nil {
			entry.WithFields(logrus.Fields{
				"attempt": attempt,
				"bytes":   len(img.Data),
				"took":    time.Since(started).String(),
			}).Info("image generated")
			return img, nil
		}

		var loading *LoadingError
		if !errors.As(err, &loading) || attempt >= attempts {
			entry.WithField("attempt", attempt).Warnf("provider failed: %v", err)
			return nil, err
		}

		wait := p.waitFor(loading.Wait)
		entry.WithFields(logrus.Fields{
			"attempt": attempt,
			"wait":    wait.String(),
		}).Info("model loading, retrying")
		if err := g.sleep(ctx, wait); err != nil {
			return nil, err
		}
	}
}
