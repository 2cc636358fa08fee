// Package translator defines the LLM adapter contract the diff pipeline
// consumes, plus concrete HTTP adapters. The pipeline only requires that
// the returned text parse as the {"markers":[...]} JSON shape; adapters
// do not interpret it.
package translator

import (
	"context"
	"fmt"
)

// Request is one analysis call to an LLM service.
type Request struct {
	Text         string  `json:"text"`
	SystemPrompt string  `json:"system_prompt"`
	Model        string  `json:"model"`
	Temperature  float64 `json:"temperature"`
}

// Response carries the raw model output and accounting metadata. CostUSD
// is zero when the provider reports no cost (e.g. self-hosted models);
// Model is the model that actually served the request.
type Response struct {
	TranslatedText string  `json:"translated_text"`
	CostUSD        float64 `json:"cost_usd"`
	Model          string  `json:"model"`
}

// Service is an LLM provider capable of serving analysis requests.
type Service interface {
	Name() string
	Translate(ctx context.Context, req Request) (*Response, error)
	IsAvailable(ctx context.Context) error
}

// ServiceError reports a non-2xx reply from a provider API.
type ServiceError struct {
	Service string
	Status  int
	Message string
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s API returned status %d: %s", e.Service, e.Status, e.Message)
	}
	return fmt.Sprintf("%s API returned status %d", e.Service, e.Status)
}
