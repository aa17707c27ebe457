// Package ai provides the Azure OpenAI embedding adapter.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/edulens/quizcover/internal/port"
	"github.com/edulens/quizcover/internal/vector"
)

// embedBatchSize is the maximum number of inputs sent per request. Azure
// accepts more, but large batches make rate-limit failures more expensive.
const embedBatchSize = 100

// AzureConfig holds the settings for one Azure OpenAI embeddings deployment.
type AzureConfig struct {
	Endpoint   string // e.g. https://myresource.openai.azure.com
	APIKey     string
	Deployment string // e.g. text-embedding-3-large
	APIVersion string
}

// AzureClient implements port.EmbeddingProvider against the Azure OpenAI
// embeddings API. It is immutable after construction and safe for concurrent
// use.
type AzureClient struct {
	cfg        AzureConfig
	httpClient *http.Client
}

// NewAzureClient validates the configuration and returns a client. Missing
// endpoint or key is a startup-time error, not a per-call one.
func NewAzureClient(cfg AzureConfig) (*AzureClient, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("azure embeddings: endpoint is required")
	}
	if cfg.APIKey == "" {
		return nil, errors.New("azure embeddings: api key is required")
	}
	if cfg.Deployment == "" {
		return nil, errors.New("azure embeddings: deployment is required")
	}
	cfg.Endpoint = strings.TrimRight(cfg.Endpoint, "/")
	if cfg.APIVersion == "" {
		cfg.APIVersion = "2024-02-01"
	}
	return &AzureClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}, nil
}

// ModelName returns the deployment identifier.
func (c *AzureClient) ModelName() string {
	return c.cfg.Deployment
}

// EmbedBatch generates one vector per input text, in input order. Requests
// are chunked at embedBatchSize and the concatenated result is L2-normalized
// so that dot products are cosine similarities.
func (c *AzureClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	all := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += embedBatchSize {
		end := min(start+embedBatchSize, len(texts))
		batch, err := c.embedChunk(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		all = append(all, batch...)
	}

	vector.Normalize(all)
	return all, nil
}

func (c *AzureClient) embedChunk(ctx context.Context, texts []string) ([][]float32, error) {
	payload, err := json.Marshal(map[string]any{"input": texts})
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	url := fmt.Sprintf("%s/openai/deployments/%s/embeddings?api-version=%s",
		c.cfg.Endpoint, c.cfg.Deployment, c.cfg.APIVersion)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, &port.EmbeddingError{Kind: port.EmbeddingTransient, Err: err}
		}
		return nil, &port.EmbeddingError{Kind: port.EmbeddingOther, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &port.EmbeddingError{Kind: port.EmbeddingTransient, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, classifyStatus(resp, raw)
	}

	var decoded struct {
		Data []struct {
			Index     int       `json:"index"`
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, &port.EmbeddingError{
			Kind: port.EmbeddingOther,
			Err:  fmt.Errorf("decode embeddings response: %w", err),
		}
	}
	if len(decoded.Data) != len(texts) {
		return nil, &port.EmbeddingError{
			Kind: port.EmbeddingOther,
			Err:  fmt.Errorf("expected %d embeddings, got %d", len(texts), len(decoded.Data)),
		}
	}

	// The API may return items out of order; the index field restores
	// request order.
	out := make([][]float32, len(texts))
	for _, item := range decoded.Data {
		if item.Index < 0 || item.Index >= len(out) {
			return nil, &port.EmbeddingError{
				Kind: port.EmbeddingOther,
				Err:  fmt.Errorf("embedding index %d out of range", item.Index),
			}
		}
		out[item.Index] = item.Embedding
	}
	return out, nil
}

func classifyStatus(resp *http.Response, body []byte) *port.EmbeddingError {
	cause := fmt.Errorf("azure embeddings API error (%d): %s", resp.StatusCode, string(body))
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return &port.EmbeddingError{Kind: port.EmbeddingAuth, Err: cause}
	case resp.StatusCode == http.StatusNotFound:
		return &port.EmbeddingError{Kind: port.EmbeddingModelNotFound, Err: cause}
	case resp.StatusCode == http.StatusTooManyRequests:
		return &port.EmbeddingError{
			Kind:       port.EmbeddingRateLimit,
			RetryAfter: retryAfterHint(resp, body),
			Err:        cause,
		}
	case resp.StatusCode == http.StatusRequestTimeout || resp.StatusCode >= 500:
		return &port.EmbeddingError{Kind: port.EmbeddingTransient, Err: cause}
	default:
		return &port.EmbeddingError{Kind: port.EmbeddingOther, Err: cause}
	}
}

var retryAfterPattern = regexp.MustCompile(`retry after (\d+) seconds?`)

// retryAfterHint extracts a retry delay from the Retry-After header or, as
// Azure sometimes does, from the error message body. Absence of a parseable
// hint returns 0.
func retryAfterHint(resp *http.Response, body []byte) time.Duration {
	if v := resp.Header.Get("Retry-After"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return time.Duration(n) * time.Second
		}
	}
	if m := retryAfterPattern.FindSubmatch(bytes.ToLower(body)); m != nil {
		if n, err := strconv.Atoi(string(m[1])); err == nil && n > 0 {
			return time.Duration(n) * time.Second
		}
	}
	return 0
}
