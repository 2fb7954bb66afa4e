package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/tdesai7/secondbrain-backend/internal/logger"
	"github.com/tdesai7/secondbrain-backend/internal/utils"
)

// EmbeddingError marks a failed attempt to turn text into a vector. An empty
// vector from the provider is reported as this error, never as success.
type EmbeddingError struct {
	Reason string
	Err    error
}

func (e *EmbeddingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("embedding failed: %s: %v", e.Reason, e.Err)
	}
	return "embedding failed: " + e.Reason
}

func (e *EmbeddingError) Unwrap() error { return e.Err }

// Embedder converts text into a fixed-purpose vector for similarity search.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type geminiClient struct {
	log        *logger.Logger
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

func NewGeminiClient(log *logger.Logger) (Embedder, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("missing GEMINI_API_KEY")
	}
	baseURL := utils.GetEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com", log)
	model := utils.GetEnv("GEMINI_EMBED_MODEL", "gemini-embedding-001", log)
	timeoutSec := utils.GetEnvAsInt("GEMINI_TIMEOUT_SECONDS", 60, log)

	return &geminiClient{
		log:        log.With("service", "GeminiClient"),
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
	}, nil
}

type geminiHTTPError struct {
	StatusCode int
	Body       string
}

func (e *geminiHTTPError) Error() string {
	return fmt.Sprintf("gemini http %d: %s", e.StatusCode, e.Body)
}

func isRetryableHTTP(code int) bool {
	if code == 408 || code == 429 {
		return true
	}
	return code >= 500 && code <= 599
}

// IsRetryableEmbeddingErr reports whether a failed embed call is worth an
// immediate local retry (timeouts, throttling, provider 5xx). Hard rejects
// like invalid input are not.
func IsRetryableEmbeddingErr(err error) bool {
	if err == nil {
		return false
	}
	var httpErr *geminiHTTPError
	if errors.As(err, &httpErr) {
		return isRetryableHTTP(httpErr.StatusCode)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var embErr *EmbeddingError
	if errors.As(err, &embErr) && embErr.Err != nil {
		return IsRetryableEmbeddingErr(embErr.Err)
	}
	return false
}

func (c *geminiClient) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, &EmbeddingError{Reason: "empty input text"}
	}

	body := map[string]any{
		"content": map[string]any{
			"parts": []map[string]any{{"text": text}},
		},
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, &EmbeddingError{Reason: "encode request", Err: err}
	}

	path := fmt.Sprintf("/v1beta/models/%s:embedContent", c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return nil, &EmbeddingError{Reason: "build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &EmbeddingError{Reason: "request failed", Err: err}
	}
	defer resp.Body.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, &EmbeddingError{Reason: "read response", Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &EmbeddingError{
			Reason: "provider error",
			Err:    &geminiHTTPError{StatusCode: resp.StatusCode, Body: buf.String()},
		}
	}

	var parsed struct {
		Embedding struct {
			Values []float32 `json:"values"`
		} `json:"embedding"`
	}
	if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
		return nil, &EmbeddingError{Reason: "decode response", Err: err}
	}
	if len(parsed.Embedding.Values) == 0 {
		return nil, &EmbeddingError{Reason: "provider returned empty embedding"}
	}
	return parsed.Embedding.Values, nil
}

// EmbedWithRetry calls Embed up to 1+maxRetries times with an incremental
// delay between attempts. An empty vector counts as a failure.
func EmbedWithRetry(ctx context.Context, e Embedder, text string, maxRetries int, delay time.Duration) ([]float32, error) {
	if maxRetries < 0 {
		maxRetries = 0
	}
	var lastErr error
	for attempt := 1; attempt <= maxRetries+1; attempt++ {
		vec, err := e.Embed(ctx, text)
		if err == nil && len(vec) > 0 {
			return vec, nil
		}
		retryable := true
		if err == nil {
			// Empty vectors are failures, and worth another shot.
			err = &EmbeddingError{Reason: "empty embedding"}
		} else {
			retryable = IsRetryableEmbeddingErr(err)
		}
		lastErr = err
		if attempt > maxRetries || !retryable {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay * time.Duration(attempt)):
		}
	}
	return nil, lastErr
}
