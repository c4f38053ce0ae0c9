// Package apify implements the review-platform adapters. Both delegate
// scraping to hosted Apify actors: an actor run produces a dataset, and the
// dataset items stream out as review records.
package apify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/signalhound/signalhound/internal/scrape"
)

const defaultAPIBase = "https://api.apify.com/v2"

// Client talks to the Apify actor-runner API.
type Client struct {
	http     *scrape.HTTPClient
	apiBase  string
	apiToken string
}

// NewClient builds an actor-runner client. apiBase "" selects the public API.
func NewClient(apiToken, apiBase string, httpClient *scrape.HTTPClient) *Client {
	if apiBase == "" {
		apiBase = defaultAPIBase
	}
	return &Client{
		http:     httpClient,
		apiBase:  apiBase,
		apiToken: apiToken,
	}
}

// runResult is the subset of the actor-run envelope the adapters need.
type runResult struct {
	Data struct {
		ID               string `json:"id"`
		Status           string `json:"status"`
		DefaultDatasetID string `json:"defaultDatasetId"`
	} `json:"data"`
}

// RunActor starts an actor synchronously (waits for finish server-side) and
// returns the id of the dataset the run produced.
func (c *Client) RunActor(ctx context.Context, actorID string, input map[string]any) (string, error) {
	payload, err := json.Marshal(input)
	if err != nil {
		return "", fmt.Errorf("marshal actor input: %w", err)
	}

	// Actor ids use "owner/name"; the REST path wants "owner~name".
	endpoint := fmt.Sprintf("%s/acts/%s/runs?token=%s&waitForFinish=300",
		c.apiBase, url.PathEscape(actorPathID(actorID)), url.QueryEscape(c.apiToken))

	header := http.Header{}
	header.Set("Content-Type", "application/json")

	body, err := c.http.Post(ctx, endpoint, header, payload)
	if err != nil {
		return "", fmt.Errorf("run actor %s: %w", actorID, err)
	}

	var run runResult
	if err := json.Unmarshal(body, &run); err != nil {
		return "", fmt.Errorf("decode actor run reply: %w", err)
	}
	if run.Data.Status != "SUCCEEDED" {
		return "", fmt.Errorf("actor %s run %s finished with status %s",
			actorID, run.Data.ID, run.Data.Status)
	}
	if run.Data.DefaultDatasetID == "" {
		return "", fmt.Errorf("actor %s run %s produced no dataset", actorID, run.Data.ID)
	}
	return run.Data.DefaultDatasetID, nil
}

// DatasetItems pages through a dataset and returns up to limit raw items.
func (c *Client) DatasetItems(ctx context.Context, datasetID string, limit int) ([]map[string]any, error) {
	const pageSize = 100

	items := make([]map[string]any, 0, limit)
	for offset := 0; len(items) < limit; offset += pageSize {
		endpoint := fmt.Sprintf("%s/datasets/%s/items?token=%s&format=json&offset=%d&limit=%d",
			c.apiBase, url.PathEscape(datasetID), url.QueryEscape(c.apiToken), offset, pageSize)

		body, err := c.http.Get(ctx, endpoint, nil)
		if err != nil {
			return nil, fmt.Errorf("fetch dataset %s items: %w", datasetID, err)
		}

		var page []map[string]any
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("decode dataset %s items: %w", datasetID, err)
		}
		if len(page) == 0 {
			break
		}
		items = append(items, page...)
	}

	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func actorPathID(actorID string) string {
	out := make([]byte, len(actorID))
	for i := 0; i < len(actorID); i++ {
		if actorID[i] == '/' {
			out[i] = '~'
		} else {
			out[i] = actorID[i]
		}
	}
	return string(out)
}

// Item field helpers: actor outputs are loosely typed, so adapters read
// fields defensively.

func str(item map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := item[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

func num(item map[string]any, keys ...string) float64 {
	for _, key := range keys {
		switch v := item[key].(type) {
		case float64:
			return v
		case int:
			return float64(v)
		case json.Number:
			if f, err := v.Float64(); err == nil {
				return f
			}
		}
	}
	return 0
}
