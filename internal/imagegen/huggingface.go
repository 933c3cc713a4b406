package imagegen

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
)

var _ Caller = &HuggingFace{}

var (
	ErrNotConfigured = errors.New("image provider token is not set")
	ErrNotImage      = errors.New("provider answered without an image")
)

const negativePrompt = "low quality, blurry, distorted, watermark, signature, ugly, deformed"

// InferenceRequest is the JSON body of a Hugging Face text-to-image call.
type InferenceRequest struct {
	Inputs     string               `json:"inputs"`
	Parameters *InferenceParameters `json:"parameters,omitempty"`
	Options    *InferenceOptions    `json:"options,omitempty"`
}

type InferenceParameters struct {
	NegativePrompt    string  `json:"negative_prompt,omitempty"`
	GuidanceScale     float64 `json:"guidance_scale,omitempty"`
	NumInferenceSteps int     `json:"num_inference_steps,omitempty"`
	Width             int     `json:"width,omitempty"`
	Height            int     `json:"height,omitempty"`
}

type InferenceOptions struct {
	WaitForModel bool `json:"wait_for_model"`
	UseCache     bool `json:"use_cache"`
}

// InferenceError is the JSON body returned with non-200 answers. A cold
// model reports EstimatedTime in seconds alongside a 503.
type InferenceError struct {
	Error         string  `json:"error"`
	EstimatedTime float64 `json:"estimated_time"`
}

// LoadingError is returned for a 503: the model is warming up and the call
// is worth repeating after Wait.
type LoadingError struct {
	Provider string
	Wait     time.Duration
	Message  string
}

func (e *LoadingError) Error() string {
	return fmt.Sprintf("%s is loading (estimated %s): %s", e.Provider, e.Wait, e.Message)
}

// StatusError is any other non-success answer.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned status %d: %s", e.Provider, e.StatusCode, e.Body)
}

type HuggingFace struct {
	token  string
	client *resty.Client
}

func NewHuggingFace(token string) *HuggingFace {
	return &HuggingFace{
		token:  token,
		client: resty.New(),
	}
}

func (h *HuggingFace) Configured() bool {
	return strings.TrimSpace(h.token) != ""
}

func buildRequest(p Provider, prompt string) InferenceRequest {
	if p.Payload == PayloadMinimal {
		return InferenceRequest{Inputs: prompt}
	}
	return InferenceRequest{
		Inputs: prompt,
		Parameters: &InferenceParameters{
			NegativePrompt:    negativePrompt,
			GuidanceScale:     7,
			NumInferenceSteps: 30,
			Width:             512,
			Height:            512,
		},
		Options: &InferenceOptions{WaitForModel: false, UseCache: false},
	}
}

// Call performs a single text-to-image request against p.
func (h *HuggingFace) Call(ctx context.Context, requestID string, p Provider, prompt string) (*Image, error) {
	if !h.Configured() {
		return nil, ErrNotConfigured
	}

	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	resp, err := h.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "image/png").
		SetHeader("Authorization", "Bearer "+h.token).
		SetHeader("X-Request-ID", requestID).
		SetBody(buildRequest(p, prompt)).
		Post(p.Endpoint)
	if err != nil {
		return nil, errors.Wrapf(err, "call %s", p.Name)
	}

	contentType := resp.Header().Get("Content-Type")
	switch resp.StatusCode() {
	case http.StatusOK:
		if !strings.HasPrefix(contentType, "image/") || len(resp.Body()) == 0 {
			return nil, errors.Wrapf(ErrNotImage, "%s sent %q", p.Name, contentType)
		}
		return &Image{Data: resp.Body(), ContentType: contentType, Provider: p.Name}, nil

	case http.StatusServiceUnavailable:
		var ie InferenceError
		_ = json.Unmarshal(resp.Body(), &ie)
		return nil, &LoadingError{
			Provider: p.Name,
			Wait:     time.Duration(ie.EstimatedTime * float64(time.Second)),
			Message:  ie.Error,
		}

	default:
		body := string(resp.Body())
		var ie InferenceError
		if json.Unmarshal(resp.Body(), &ie) == nil && ie.Error != "" {
			body = ie.Error
		}
		if len(body) > 300 {
			body = body[:300]
		}
		return nil, &StatusError{Provider: p.Name, StatusCode: resp.StatusCode(), Body: body}
	}
}
