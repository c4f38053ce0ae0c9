package llm

import (
	"context"
	"strings"
)

// Mock returns canned JSON keyed on prompt content. It exists for offline
// runs and tests: the discovery pipeline works end to end with no credential.
type Mock struct{}

// NewMock returns a mock client. No configuration required.
func NewMock() *Mock {
	return &Mock{}
}

func (m *Mock) Name() string { return "mock" }

func (m *Mock) Configure(config map[string]string) error { return nil }

// Complete inspects the prompt and returns a matching canned reply.
func (m *Mock) Complete(ctx context.Context, prompt string, opts Options) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	lower := strings.ToLower(prompt)
	switch {
	case strings.Contains(lower, "persona"):
		return `{
			"persona_name": "Test Founder",
			"demographics": {"role": "Founder", "company_size": "1-10", "industry": "SaaS", "experience_level": "Intermediate"},
			"top_pain_points": ["Cost of user acquisition", "Technical debt"],
			"buying_triggers": ["Scalability issues"],
			"channels": ["Reddit", "HN"],
			"messaging_hooks": ["Save 50% on AWS"],
			"willingness_to_pay": "High"
		}`, nil
	case strings.Contains(lower, "pain point"):
		return `{
			"score": 0.85,
			"reasoning": "High signal pain point confirmed by mock LLM",
			"detected_problems": ["Manual data entry"],
			"suggested_solutions": ["Automated CRM integration"],
			"sentiment_label": "frustrated",
			"sentiment_intensity": 0.8,
			"engagement_score": 0.7,
			"validation_score": 0.6,
			"recency_score": 0.9,
			"composite_value": 0.8
		}`, nil
	case strings.Contains(lower, "buying intent") || strings.Contains(lower, "intent"):
		return `{
			"intent_score": 0.7,
			"intent_type": "seeking_recommendation",
			"product_category": "automation tooling",
			"urgency": "medium"
		}`, nil
	}
	return `{"result": "success"}`, nil
}
