// Package llm provides the summarization collaborator: a client for an
// external model endpoint that turns cleaned document text into a medical
// summary.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// maxPayloadChars bounds the text sent to the model; longer documents are
// truncated rather than rejected.
const maxPayloadChars = 6000

// Section is one document's contribution to an aggregate patient summary.
type Section struct {
	Title   string
	Summary string
}

// Client calls a summarization endpoint that accepts a form field `text`
// and returns the summary as its response body.
type Client struct {
	endpoint string
	http     *http.Client
}

// NewClient creates a new summarizer client.
func NewClient(endpoint string) *Client {
	return &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: 120 * time.Second},
	}
}

// GenerateSummary produces a summary of a single document's cleaned text.
func (c *Client) GenerateSummary(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("no text provided for summarization")
	}
	return c.request(ctx, text)
}

// GenerateAggregateSummary produces a unified summary across all of a
// patient's documents from their per-document summaries.
func (c *Client) GenerateAggregateSummary(ctx context.Context, sections []Section) (string, error) {
	if len(sections) == 0 {
		return "", fmt.Errorf("no sections provided for aggregate summarization")
	}

	var sb strings.Builder
	for _, s := range sections {
		sb.WriteString(s.Title)
		sb.WriteString(":\n")
		sb.WriteString(s.Summary)
		sb.WriteString("\n\n")
	}

	return c.request(ctx, sb.String())
}

func (c *Client) request(ctx context.Context, text string) (string, error) {
	if len(text) > maxPayloadChars {
		text = text[:maxPayloadChars]
	}

	form := url.Values{"text": {text}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint,
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to build summarizer request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("summarizer request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("summarizer endpoint returned status %d", resp.StatusCode)
	}

	var out struct {
		Summary string `json:"summary"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode summarizer response: %w", err)
	}
	if strings.TrimSpace(out.Summary) == "" {
		return "", fmt.Errorf("summarizer returned an empty summary")
	}

	return out.Summary, nil
}
