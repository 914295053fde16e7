// Package ocr provides the text-extraction collaborator used by the
// summarization pipeline, plus cleaning of raw OCR output.
package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Client calls an external OCR endpoint that accepts a document URL (or
// data URL) and returns the extracted raw text.
type Client struct {
	endpoint string
	http     *http.Client
}

// NewClient creates a new OCR client.
func NewClient(endpoint string) *Client {
	return &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: 60 * time.Second},
	}
}

type extractRequest struct {
	URL string `json:"url"`
}

type extractResponse struct {
	Text  string `json:"text"`
	Error string `json:"error,omitempty"`
}

// ExtractText sends the document to the OCR endpoint and returns the raw
// extracted text.
func (c *Client) ExtractText(ctx context.Context, documentURL string) (string, error) {
	body, err := json.Marshal(extractRequest{URL: documentURL})
	if err != nil {
		return "", fmt.Errorf("failed to encode ocr request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build ocr request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("ocr request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ocr endpoint returned status %d", resp.StatusCode)
	}

	var out extractResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode ocr response: %w", err)
	}
	if out.Error != "" {
		return "", fmt.Errorf("ocr extraction failed: %s", out.Error)
	}

	return out.Text, nil
}
