package translator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/valpere/noveldiff/internal/postprocess"
)

const DefaultOpenRouterModel = "google/gemini-2.0-flash-exp:free"

type OpenRouterService struct {
	apiKey       string
	baseURL      string
	defaultModel string
	client       *http.Client
}

func NewOpenRouterService(apiKey, baseURL, defaultModel string) *OpenRouterService {
	if baseURL == "" {
		baseURL = "https://openrouter.ai/api/v1"
	}
	if defaultModel == "" {
		defaultModel = DefaultOpenRouterModel
	}
	return &OpenRouterService{
		apiKey:       apiKey,
		baseURL:      baseURL,
		defaultModel: defaultModel,
		client:       &http.Client{Timeout: 120 * time.Second},
	}
}

func (s *OpenRouterService) Name() string {
	return "openrouter"
}

func (s *OpenRouterService) Translate(ctx context.Context, req Request) (*Response, error) {
	if s.apiKey == "" {
		return nil, fmt.Errorf("OpenRouter API key required")
	}

	model := req.Model
	if model == "" {
		model = s.defaultModel
	}

	openrouterReq := map[string]interface{}{
		"model": model,
		"messages": []map[string]string{
			{"role": "system", "content": req.SystemPrompt},
			{"role": "user", "content": req.Text},
		},
		"temperature": req.Temperature,
		"max_tokens":  8192,
		"usage":       map[string]bool{"include": true},
	}

	jsonData, err := json.Marshal(openrouterReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", fmt.Sprintf("%s/chat/completions", s.baseURL), bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", fmt.Sprintf("Bearer %s", s.apiKey))
	httpReq.Header.Set("HTTP-Referer", "https://noveldiff.local")
	httpReq.Header.Set("X-Title", "NovelDiff")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp map[string]interface{}
		json.NewDecoder(resp.Body).Decode(&errResp)
		return nil, &ServiceError{
			Service: "openrouter",
			Status:  resp.StatusCode,
			Message: fmt.Sprintf("%v", errResp),
		}
	}

	var openrouterResp struct {
		Model   string `json:"model"`
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Usage struct {
			PromptTokens     int     `json:"prompt_tokens"`
			CompletionTokens int     `json:"completion_tokens"`
			Cost             float64 `json:"cost"`
		} `json:"usage"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&openrouterResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(openrouterResp.Choices) == 0 {
		return nil, fmt.Errorf("empty response from API")
	}

	served := openrouterResp.Model
	if served == "" {
		served = model
	}

	return &Response{
		TranslatedText: postprocess.Clean(openrouterResp.Choices[0].Message.Content),
		CostUSD:        openrouterResp.Usage.Cost,
		Model:          served,
	}, nil
}

func (s *OpenRouterService) IsAvailable(ctx context.Context) error {
	if s.apiKey == "" {
		return fmt.Errorf("OpenRouter API key not configured")
	}
	return nil
}
