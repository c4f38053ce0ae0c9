package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/signalhound/signalhound/internal/metrics"
	"github.com/signalhound/signalhound/internal/scrape"
)

const (
	defaultOllamaHost  = "http://localhost:11434"
	defaultOllamaModel = "llama3"
)

// Ollama talks to a local Ollama daemon's chat endpoint. No credentials;
// structured output maps to the daemon's format=json knob.
type Ollama struct {
	client *scrape.HTTPClient
	pacer  *Pacer
	host   string
	model  string
}

// NewOllama returns an unconfigured local client sharing the given pacer.
func NewOllama(pacer *Pacer) *Ollama {
	return &Ollama{pacer: pacer}
}

func (o *Ollama) Name() string { return "ollama" }

// Configure reads optional host and model overrides.
func (o *Ollama) Configure(config map[string]string) error {
	o.host = config["host"]
	if o.host == "" {
		o.host = defaultOllamaHost
	}
	o.model = config["model"]
	if o.model == "" {
		o.model = defaultOllamaModel
	}
	o.client = scrape.NewHTTPClient(scrape.HTTPClientConfig{
		Name:           o.Name(),
		RequestTimeout: 120 * time.Second, // local inference is slow
		RateLimitRPS:   4.0,
		MaxRetries:     1,
	})
	return nil
}

type ollamaRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Format   string        `json:"format,omitempty"`
	Options  struct {
		Temperature float64 `json:"temperature"`
		NumPredict  int     `json:"num_predict"`
	} `json:"options"`
}

// Complete sends one chat request and returns the reply content.
func (o *Ollama) Complete(ctx context.Context, prompt string, opts Options) (string, error) {
	if o.client == nil {
		return "", ErrNotConfigured
	}
	if err := o.pacer.Wait(ctx); err != nil {
		return "", err
	}

	start := time.Now()
	reply, err := withRetry(ctx, func() (string, error) {
		return o.request(ctx, prompt, opts)
	})
	metrics.LLMRequestDuration.WithLabelValues(o.Name()).Observe(time.Since(start).Seconds())
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.LLMRequests.WithLabelValues(o.Name(), status).Inc()
	return reply, err
}

func (o *Ollama) request(ctx context.Context, prompt string, opts Options) (string, error) {
	system := opts.SystemPrompt
	if system == "" {
		system = "You are a helpful assistant."
	}

	req := ollamaRequest{
		Model: o.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
		Stream: false,
	}
	req.Options.Temperature = orDefault(opts.Temperature, 0.1)
	req.Options.NumPredict = orDefaultInt(opts.MaxTokens, 1024)
	if opts.ResponseFormat == "json_object" {
		req.Format = "json"
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return "", permanent(fmt.Errorf("ollama: marshal request: %w", err))
	}

	header := http.Header{}
	header.Set("Content-Type", "application/json")

	body, err := o.client.Post(ctx, o.host+"/api/chat", header, payload)
	if err != nil {
		return "", fmt.Errorf("ollama: %w", err)
	}

	var resp struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("ollama: decode reply: %w", err)
	}
	if resp.Error != "" {
		return "", fmt.Errorf("ollama: daemon error: %s", resp.Error)
	}
	return resp.Message.Content, nil
}
