package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	// promptContentCap bounds how much article text is sent to the model.
	promptContentCap = 4000
	// synthesisDocCap bounds how many documents feed topic synthesis.
	synthesisDocCap = 5

	embedMaxRetries   = 3
	embedInitialDelay = 1 * time.Second
)

var (
	_ Scorer    = (*Client)(nil)
	_ Generator = (*Client)(nil)
	_ Embedder  = (*Client)(nil)
)

// Client talks to an OpenAI-compatible API and implements the scoring,
// generation and embedding capabilities.
type Client struct {
	endpoint       string
	apiKey         string
	chatModel      string
	embeddingModel string
	httpClient     *http.Client
}

func NewClient(endpoint, apiKey, chatModel, embeddingModel string) *Client {
	return &Client{
		endpoint:       strings.TrimRight(endpoint, "/"),
		apiKey:         apiKey,
		chatModel:      chatModel,
		embeddingModel: embeddingModel,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type embeddingRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Score asks the model to rate how relevant the article is to AI/ML
// research and industry news.
func (c *Client) Score(ctx context.Context, title, content string) (float64, error) {
	prompt := fmt.Sprintf(`You are filtering articles for an AI research aggregator.
Rate how relevant this article is to AI, machine learning, or technology
research on a scale from 0.0 (unrelated) to 1.0 (highly relevant research
or industry news). General business, politics, sports, entertainment and
lifestyle content scores low.

Title: %s
Content: %s

Respond in JSON format:
{"score": 0.0}`, title, capText(content, promptContentCap))

	raw, err := c.chatJSON(ctx, "You are an expert AI research analyst. Respond with JSON only.", prompt, 100)
	if err != nil {
		return 0, err
	}

	var result struct {
		Score float64 `json:"score"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return 0, fmt.Errorf("failed to parse score response: %w", err)
	}

	return clampScore(result.Score), nil
}

// Summarize produces the structured summary fields for one article.
func (c *Client) Summarize(ctx context.Context, title, content, source, url string) (*Summary, error) {
	prompt := fmt.Sprintf(`You are an AI research analyst. Analyze this AI research/news content and provide:

1. TL;DR: One sentence summary (at most 140 characters) - the key insight
2. Summary: 2-3 concise, factual sentences explaining what this is about
3. Why it matters: One short sentence explaining the significance/impact
4. Tags: 1-3 topical tags (e.g., "transformer", "computer-vision", "efficiency")
5. References: Extract any relevant links (papers, code, datasets) from the content

Title: %s
Source: %s
URL: %s
Content: %s

Respond in JSON format:
{
    "tl_dr": "One sentence summary...",
    "summary": "2-3 sentence explanation...",
    "why_it_matters": "Why this is significant...",
    "tags": ["tag1", "tag2"],
    "references": [
        {"label": "Paper", "url": "https://..."}
    ]
}`, title, source, url, capText(content, promptContentCap))

	raw, err := c.chatJSON(ctx, "You are an expert AI research analyst. Provide accurate, concise summaries in JSON format.", prompt, 1000)
	if err != nil {
		return nil, err
	}

	var summary Summary
	if err := json.Unmarshal(raw, &summary); err != nil {
		return nil, fmt.Errorf("failed to parse summary response: %w", err)
	}

	return &summary, nil
}

// SynthesizeTopic produces a short narrative over a retrieved result set.
func (c *Client) SynthesizeTopic(ctx context.Context, query string, docs []TopicDoc) (*TopicSynthesis, error) {
	var sb strings.Builder
	for i, doc := range docs {
		if i >= synthesisDocCap {
			break
		}
		fmt.Fprintf(&sb, "%d. %s\n%s\n\n", i+1, doc.Title, doc.Summary)
	}

	prompt := fmt.Sprintf(`You are an AI research analyst. Based on the retrieved documents about "%s", provide:

1. Topic Summary: 2-3 sentences synthesizing the key trends and developments
2. Why it matters: One sentence explaining the significance of this topic

Retrieved documents:
%s
Respond in JSON format:
{
    "topic_summary": "2-3 sentence synthesis...",
    "why_it_matters": "Why this topic is significant..."
}`, query, sb.String())

	raw, err := c.chatJSON(ctx, "You are an expert AI research analyst. Provide accurate, concise topic summaries in JSON format.", prompt, 500)
	if err != nil {
		return nil, err
	}

	var synthesis TopicSynthesis
	if err := json.Unmarshal(raw, &synthesis); err != nil {
		return nil, fmt.Errorf("failed to parse synthesis response: %w", err)
	}

	return &synthesis, nil
}

// Embed returns the embedding vector for the given text. Transient API
// errors are retried with exponential backoff.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(embeddingRequest{
		Input: []string{text},
		Model: c.embeddingModel,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal embedding request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < embedMaxRetries; attempt++ {
		if attempt > 0 {
			delay := embedInitialDelay << uint(attempt-1)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		data, status, err := c.post(ctx, "/embeddings", body)
		if err != nil {
			lastErr = err
			continue
		}

		if status != http.StatusOK {
			lastErr = apiErrorFromBody(status, data)
			// Retry rate limits and server errors only.
			if status == http.StatusTooManyRequests || status >= 500 {
				continue
			}
			return nil, lastErr
		}

		var resp embeddingResponse
		if err := json.Unmarshal(data, &resp); err != nil {
			return nil, fmt.Errorf("failed to decode embedding response: %w", err)
		}
		if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
			return nil, fmt.Errorf("embedding response contains no vector")
		}

		return resp.Data[0].Embedding, nil
	}

	return nil, fmt.Errorf("embedding failed after %d attempts: %w", embedMaxRetries, lastErr)
}

// chatJSON sends a chat completion request and returns the JSON object
// embedded in the model's reply.
func (c *Client) chatJSON(ctx context.Context, system, user string, maxTokens int) ([]byte, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("AI client misconfigured: missing API key")
	}

	body, err := json.Marshal(chatRequest{
		Model: c.chatModel,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: 0.3,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal chat request: %w", err)
	}

	data, status, err := c.post(ctx, "/chat/completions", body)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, apiErrorFromBody(status, data)
	}

	var resp chatResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode chat response: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("chat response contains no choices")
	}

	raw, err := extractJSON(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}
	return raw, nil
}

func (c *Client) post(ctx context.Context, path string, body []byte) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(body))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, resp.StatusCode, nil
}

// extractJSON locates the outermost JSON object in a model reply. Models
// occasionally wrap JSON in prose or code fences.
func extractJSON(content string) ([]byte, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end <= start {
		return nil, fmt.Errorf("no JSON object in model response")
	}
	return []byte(content[start : end+1]), nil
}

func apiErrorFromBody(status int, body []byte) error {
	var apiErr apiError
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
		return fmt.Errorf("API error (%d): %s", status, apiErr.Error.Message)
	}
	return fmt.Errorf("API error (%d): %s", status, strings.TrimSpace(string(body)))
}

// capText truncates at the byte limit without splitting a multibyte rune.
func capText(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	for limit > 0 && !utf8.RuneStart(text[limit]) {
		limit--
	}
	return text[:limit]
}

func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
