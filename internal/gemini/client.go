package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tmc/langchaingo/prompts"
	"google.golang.org/genai"
)

var geminiLog = logrus.WithField("component", "gemini")

var (
	// ErrBlocked means the provider refused to finish (safety or recitation).
	ErrBlocked = errors.New("gemini: response blocked")
	// ErrNoText means the call finished without usable text.
	ErrNoText = errors.New("gemini: no text in response")
)

const comebackTemplate = `{{.message}}
Respond with a short and genuinely funny comeback, like a sarcastic or witty human friend would. Be playful and clever in only 10 to 20 words.`

// generator is the part of genai.Models the client needs.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type Client struct {
	models  generator
	model   string
	timeout time.Duration
	prompt  prompts.PromptTemplate
}

func NewClient(ctx context.Context, apiKey, model string, timeout time.Duration) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("gemini api key is not set")
	}
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return newClient(gc.Models, model, timeout), nil
}

func newClient(models generator, model string, timeout time.Duration) *Client {
	return &Client{
		models:  models,
		model:   model,
		timeout: timeout,
		prompt:  prompts.NewPromptTemplate(comebackTemplate, []string{"message"}),
	}
}

func (c *Client) Model() string { return c.model }

func generationConfig() *genai.GenerateContentConfig {
	off := func(cat genai.HarmCategory) *genai.SafetySetting {
		return &genai.SafetySetting{Category: cat, Threshold: genai.HarmBlockThresholdBlockNone}
	}
	return &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](0.9),
		MaxOutputTokens: 150,
		SafetySettings: []*genai.SafetySetting{
			off(genai.HarmCategoryHarassment),
			off(genai.HarmCategoryHateSpeech),
			off(genai.HarmCategorySexuallyExplicit),
			off(genai.HarmCategoryDangerousContent),
		},
	}
}

// Reply asks the model for a short witty reply to message. Blocked or empty
// completions come back as ErrBlocked / ErrNoText.
func (c *Client) Reply(ctx context.Context, requestID, message string) (string, error) {
	prompt, err := c.prompt.Format(map[string]any{"message": message})
	if err != nil {
		return "", fmt.Errorf("format prompt: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	started := time.Now()
	resp, err := c.models.GenerateContent(ctx, c.model, genai.Text(prompt), generationConfig())
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}
	if len(resp.Candidates) == 0 {
		return "", ErrNoText
	}

	cand := resp.Candidates[0]
	geminiLog.WithFields(logrus.Fields{
		"request_id":    requestID,
		"model":         c.model,
		"finish_reason": cand.FinishReason,
		"took":          time.Since(started).String(),
	}).Debug("gemini completion")

	switch cand.FinishReason {
	case genai.FinishReasonStop:
	case genai.FinishReasonSafety, genai.FinishReasonRecitation:
		return "", fmt.Errorf("%w: %s", ErrBlocked, cand.FinishReason)
	default:
		return "", fmt.Errorf("%w: finish reason %q", ErrNoText, cand.FinishReason)
	}

	var out strings.Builder
	if cand.Content != nil {
		for _, p := range cand.Content.Parts {
			if p != nil && p.Text != "" {
				out.WriteString(p.Text)
			}
		}
	}
	text := strings.TrimSpace(out.String())
	if text == "" {
		return "", ErrNoText
	}
	return text, nil
}
