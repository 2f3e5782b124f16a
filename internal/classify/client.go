// Package classify labels representative articles through an external
// model API. The call contract is small on purpose: title and description in,
// categories, tags, and a confidence score out. Callers substitute the
// Fallback result when a call fails; no error here aborts a pipeline run.
package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	DefaultEndpoint       = "https://api.anthropic.com/v1/messages"
	DefaultModel          = "claude-3-5-sonnet-20241022"
	DefaultMaxTokens      = 1000
	DefaultRequestTimeout = 30 * time.Second

	apiVersion = "2023-06-01"

	// Confidence ceiling applied when the model named no valid category and
	// the result fell back to uncategorized.
	fallbackConfidenceCap = 50
)

const promptTemplate = `Analyze the following real-estate/finance news article. Assign categories and extract tags.

Article:
Title: %s
Body: %s

Categories (choose 1-2, most relevant only):
1. policy_regulation - government policy, regulatory change, legal amendments
2. market_trends - market trends, transaction volume, price movements
3. finance_investment - interest rates, investments, funds, lending
4. real_estate_development - development projects, redevelopment, new supply
5. corporate_projects - corporate news, project financing, project progress
6. legal_litigation - legal disputes, lawsuits, regulatory violations
7. economic_indicators - GDP, inflation, economic statistics
8. uncategorized - none of the above

Response format (JSON):
{
  "categories": ["category1", "category2"],
  "tags": ["tag1", "tag2", "tag3"],
  "confidence": 95,
  "reasoning": "one short sentence"
}

Rules:
- categories: 1-2 entries from the list above
- tags: 3-5 key terms
- confidence: 0-100
Respond with JSON only:`

// Result is a classification attached to a representative article.
type Result struct {
	Categories []string
	Tags       []string
	Confidence int
}

// Fallback is the fixed result substituted when a classification call fails.
func Fallback() Result {
	return Result{
		Categories: []string{CategoryUncategorized},
		Tags:       []string{},
		Confidence: 0,
	}
}

type Options struct {
	Endpoint       string
	APIKey         string
	Model          string
	MaxTokens      int
	RequestTimeout time.Duration
}

// Client calls an Anthropic-style messages API. Safe for concurrent use.
type Client struct {
	opts       Options
	httpClient *http.Client
	logger     zerolog.Logger
}

func NewClient(opts Options, logger zerolog.Logger) *Client {
	normalized := opts
	if strings.TrimSpace(normalized.Endpoint) == "" {
		normalized.Endpoint = DefaultEndpoint
	}
	if strings.TrimSpace(normalized.Model) == "" {
		normalized.Model = DefaultModel
	}
	if normalized.MaxTokens <= 0 {
		normalized.MaxTokens = DefaultMaxTokens
	}
	if normalized.RequestTimeout <= 0 {
		normalized.RequestTimeout = DefaultRequestTimeout
	}
	return &Client{
		opts:       normalized,
		httpClient: &http.Client{},
		logger:     logger,
	}
}

type messagesRequest struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
	Messages    []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// Classify labels one article. Errors are returned for the caller to handle
// with Fallback; they are never fatal to a batch run.
func (c *Client) Classify(ctx context.Context, title, description string) (Result, error) {
	if c == nil {
		return Result{}, fmt.Errorf("classifier client is not initialized")
	}

	body := strings.TrimSpace(description)
	if body == "" {
		body = title
	}
	prompt := fmt.Sprintf(promptTemplate, title, body)

	payload, err := json.Marshal(messagesRequest{
		Model:       c.opts.Model,
		MaxTokens:   c.opts.MaxTokens,
		Temperature: 0,
		Messages:    []message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return Result{}, fmt.Errorf("marshal classification request: %w", err)
	}

	requestCtx, cancel := context.WithTimeout(ctx, c.opts.RequestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(requestCtx, http.MethodPost, c.opts.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return Result{}, fmt.Errorf("build classification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.opts.APIKey)
	req.Header.Set("anthropic-version", apiVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("classification request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("read classification response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Result{}, fmt.Errorf("classification service status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var parsed messagesResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return Result{}, fmt.Errorf("decode classification response: %w", err)
	}
	if len(parsed.Content) == 0 {
		return Result{}, fmt.Errorf("classification response has no content")
	}

	return resultFromText(parsed.Content[0].Text)
}

// resultFromText extracts the JSON object from model output (tolerating
// fenced code blocks and surrounding prose), validates it, and normalizes
// categories and confidence.
func resultFromText(text string) (Result, error) {
	raw, err := extractJSON(text)
	if err != nil {
		return Result{}, err
	}

	parsed, err := parseResultPayload([]byte(raw))
	if err != nil {
		return Result{}, err
	}

	result := Result{
		Categories: FilterCategories(parsed.Categories),
		Tags:       parsed.Tags,
		Confidence: parsed.Confidence,
	}
	if result.Tags == nil {
		result.Tags = []string{}
	}
	if len(result.Categories) == 0 {
		result.Categories = []string{CategoryUncategorized}
		if result.Confidence > fallbackConfidenceCap {
			result.Confidence = fallbackConfidenceCap
		}
	}
	switch {
	case result.Confidence < 0:
		result.Confidence = 0
	case result.Confidence > 100:
		result.Confidence = 100
	}
	return result, nil
}

func extractJSON(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", fmt.Errorf("classification text is empty")
	}

	if json.Valid([]byte(trimmed)) {
		return trimmed, nil
	}

	for _, fence := range []string{"```json", "```"} {
		start := strings.Index(trimmed, fence)
		if start == -1 {
			continue
		}
		rest := trimmed[start+len(fence):]
		end := strings.Index(rest, "```")
		if end == -1 {
			continue
		}
		candidate := strings.TrimSpace(rest[:end])
		if candidate != "" {
			return candidate, nil
		}
	}

	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start != -1 && end > start {
		return trimmed[start : end+1], nil
	}

	return "", fmt.Errorf("no JSON object found in classification text")
}
