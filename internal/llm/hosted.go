package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/signalhound/signalhound/internal/metrics"
	"github.com/signalhound/signalhound/internal/scrape"
)

const (
	defaultHostedAPIURL = "https://api.groq.com/openai/v1/chat/completions"
	defaultHostedModel  = "llama-3.3-70b-versatile"
)

// Hosted talks to an OpenAI-compatible chat-completions endpoint with a
// bearer credential. The default host is Groq's free-tier inference API.
type Hosted struct {
	client *scrape.HTTPClient
	pacer  *Pacer
	apiURL string
	apiKey string
	model  string
}

// NewHosted returns an unconfigured hosted client sharing the given pacer.
func NewHosted(pacer *Pacer) *Hosted {
	return &Hosted{pacer: pacer}
}

func (h *Hosted) Name() string { return "groq" }

// Configure reads api_key (falling back to GROQ_API_KEY), model, and api_url.
func (h *Hosted) Configure(config map[string]string) error {
	h.apiKey = config["api_key"]
	if h.apiKey == "" {
		h.apiKey = os.Getenv("GROQ_API_KEY")
	}
	if h.apiKey == "" {
		return fmt.Errorf("groq: api key is required")
	}
	h.model = config["model"]
	if h.model == "" {
		h.model = defaultHostedModel
	}
	h.apiURL = config["api_url"]
	if h.apiURL == "" {
		h.apiURL = defaultHostedAPIURL
	}
	// Retries live in withRetry so the 5-attempt 2-60s budget is honored;
	// the transport client contributes rate limiting and the breaker only.
	h.client = scrape.NewHTTPClient(scrape.HTTPClientConfig{
		Name:           h.Name(),
		RequestTimeout: 60 * time.Second,
		RateLimitRPS:   1.0,
		MaxRetries:     1,
	})
	return nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	Temperature    float64       `json:"temperature"`
	MaxTokens      int           `json:"max_tokens"`
	ResponseFormat *struct {
		Type string `json:"type"`
	} `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Complete sends one chat completion and returns choices[0].message.content.
func (h *Hosted) Complete(ctx context.Context, prompt string, opts Options) (string, error) {
	if h.client == nil {
		return "", ErrNotConfigured
	}
	if err := h.pacer.Wait(ctx); err != nil {
		return "", err
	}

	start := time.Now()
	reply, err := withRetry(ctx, func() (string, error) {
		return h.request(ctx, prompt, opts)
	})
	metrics.LLMRequestDuration.WithLabelValues(h.Name()).Observe(time.Since(start).Seconds())
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.LLMRequests.WithLabelValues(h.Name(), status).Inc()
	return reply, err
}

func (h *Hosted) request(ctx context.Context, prompt string, opts Options) (string, error) {
	system := opts.SystemPrompt
	if system == "" {
		system = "You are a helpful assistant."
	}

	req := chatRequest{
		Model: h.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
		Temperature: orDefault(opts.Temperature, 0.1),
		MaxTokens:   orDefaultInt(opts.MaxTokens, 1024),
	}
	if opts.ResponseFormat != "" {
		req.ResponseFormat = &struct {
			Type string `json:"type"`
		}{Type: opts.ResponseFormat}
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return "", permanent(fmt.Errorf("groq: marshal request: %w", err))
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+h.apiKey)
	header.Set("Content-Type", "application/json")

	body, err := h.client.Post(ctx, h.apiURL, header, payload)
	if err != nil {
		var httpErr *scrape.StatusError
		if errors.As(err, &httpErr) && httpErr.Code >= 400 && httpErr.Code < 500 &&
			httpErr.Code != http.StatusTooManyRequests {
			return "", permanent(fmt.Errorf("groq: %w", err))
		}
		return "", fmt.Errorf("groq: %w", err)
	}

	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("groq: decode reply: %w", err)
	}
	if resp.Error != nil {
		return "", fmt.Errorf("groq: api error: %s", resp.Error.Message)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("groq: reply carried no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
