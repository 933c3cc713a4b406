package imagegen

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Payload string

const (
	PayloadFull    Payload = "full"
	PayloadMinimal Payload = "minimal"
)

// Provider describes one hosted model and how hard to try it.
type Provider struct {
	Name        string        `yaml:"name"`
	Model       string        `yaml:"model"`
	Endpoint    string        `yaml:"endpoint"`
	MaxAttempts int           `yaml:"max_attempts"`
	DefaultWait time.Duration `yaml:"default_wait"`
	MaxWait     time.Duration `yaml:"max_wait"`
	Timeout     time.Duration `yaml:"timeout"`
	Payload     Payload       `yaml:"payload"`
}

// Tier is an ordered group of providers. Tiers are tried one after another
// until one produces an image.
type Tier struct {
	Name      string     `yaml:"name"`
	Providers []Provider `yaml:"providers"`
}

type Plan struct {
	Tiers []Tier `yaml:"tiers"`
}

// A loading model gets one retry before the ladder moves on.
const (
	defaultMaxAttempts = 2
	defaultWait        = 10 * time.Second
	defaultMaxWait     = 30 * time.Second
	defaultTimeout     = 60 * time.Second
)

var primaryModels = []string{
	"black-forest-labs/FLUX.1-schnell",
	"stabilityai/stable-diffusion-xl-base-1.0",
	"runwayml/stable-diffusion-v1-5",
	"CompVis/stable-diffusion-v1-4",
}

const secondaryModel = "stabilityai/stable-diffusion-2-1"

// DefaultPlan is the built-in three-tier ladder: the primary model list, a
// single secondary model, then a minimal-payload request to the first model.
func DefaultPlan() Plan {
	primary := Tier{Name: "primary"}
	for _, m := range primaryModels {
		primary.Providers = append(primary.Providers, Provider{Model: m})
	}
	return Plan{Tiers: []Tier{
		primary,
		{Name: "secondary", Providers: []Provider{{Model: secondaryModel}}},
		{Name: "minimal", Providers: []Provider{{
			Name:        "minimal:" + primaryModels[0],
			Model:       primaryModels[0],
			MaxAttempts: 1,
			Payload:     PayloadMinimal,
		}}},
	}}
}

// LoadPlan reads a YAML ladder description from path.
func LoadPlan(path string) (Plan, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Plan{}, fmt.Errorf("read provider plan: %w", err)
	}
	var plan Plan
	if err := yaml.Unmarshal(raw, &plan); err != nil {
		return Plan{}, fmt.Errorf("parse provider plan %s: %w", path, err)
	}
	if len(plan.Tiers) == 0 {
		return Plan{}, fmt.Errorf("provider plan %s has no tiers", path)
	}
	return plan, nil
}

// Normalize fills unset provider fields. baseURL is used to derive endpoints
// for providers that only name a model.
func (p Plan) Normalize(baseURL string) (Plan, error) {
	baseURL = strings.TrimRight(baseURL, "/")
	out := Plan{Tiers: make([]Tier, 0, len(p.Tiers))}
	for i, t := range p.Tiers {
		if t.Name == "" {
			t.Name = fmt.Sprintf("tier-%d", i+1)
		}
		providers := make([]Provider, 0, len(t.Providers))
		for _, pr := range t.Providers {
			if pr.Model == "" && pr.Endpoint == "" {
				return Plan{}, fmt.Errorf("tier %s: provider needs a model or an endpoint", t.Name)
			}
			if pr.Endpoint == "" {
				pr.Endpoint = baseURL + "/" + pr.Model
			}
			if pr.Name == "" {
				pr.Name = pr.Model
			}
			if pr.MaxAttempts <= 0 {
				pr.MaxAttempts = defaultMaxAttempts
			}
			if pr.DefaultWait <= 0 {
				pr.DefaultWait = defaultWait
			}
			if pr.MaxWait <= 0 {
				pr.MaxWait = defaultMaxWait
			}
			if pr.Timeout <= 0 {
				pr.Timeout = defaultTimeout
			}
			if pr.Payload == "" {
				pr.Payload = PayloadFull
			}
			providers = append(providers, pr)
		}
		if len(providers) == 0 {
			return Plan{}, fmt.Errorf("tier %s has no providers", t.Name)
		}
		t.Providers = providers
		out.Tiers = append(out.Tiers, t)
	}
	return out, nil
}

// Models lists the model names of the first tier.
func (p Plan) Models() []string {
	if len(p.Tiers) == 0 {
		return nil
	}
	names := make([]string, 0, len(p.Tiers[0].Providers))
	for _, pr := range p.Tiers[0].Providers {
		names = append(names, pr.Model)
	}
	return names
}

// waitFor returns how long to sleep before retrying a cold-loading model.
func (pr Provider) waitFor(estimated time.Duration) time.Duration {
	if estimated <= 0 {
		estimated = pr.DefaultWait
	}
	if estimated > pr.MaxWait {
		return pr.MaxWait
	}
	return estimated
}
