// Package backend implements the HTTP client for the external scraping API.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/scrapable/preview-service/internal/preview"
)

const (
	syncPreviewPath  = "/preview-url"
	asyncEnqueuePath = "/scraper/preview/async"

	defaultSyncTimeout = 8 * time.Second
)

// Config controls Client behavior.
type Config struct {
	BaseURL string
	// SyncTimeout bounds the fast-path preview call. The orchestrator does
	// not time the call itself; it only reacts to the resulting failure.
	SyncTimeout time.Duration
}

// Client calls the sync preview and async enqueue endpoints with a bearer
// credential supplied per call.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *zap.Logger
}

// New constructs a Client.
func New(cfg Config, logger *zap.Logger) *Client {
	if cfg.SyncTimeout <= 0 {
		cfg.SyncTimeout = defaultSyncTimeout
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{},
		logger:     logger,
	}
}

type previewRequest struct {
	URL string `json:"url"`
}

type enqueueResponse struct {
	TaskID string `json:"task_id"`
}

// PreviewSync attempts the fast synchronous preview. Timeouts, non-2xx
// responses, and network errors all come back as errors; the caller decides
// whether to escalate.
func (c *Client) PreviewSync(ctx context.Context, targetURL, token string) (*preview.TaskResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.SyncTimeout)
	defer cancel()

	body, err := c.post(ctx, syncPreviewPath, targetURL, token)
	if err != nil {
		return nil, err
	}
	var result preview.TaskResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode sync preview response: %w", err)
	}
	return &result, nil
}

// EnqueueAsync asks the backend to accept an asynchronous scrape task and
// returns the assigned task ID.
func (c *Client) EnqueueAsync(ctx context.Context, targetURL, token string) (string, error) {
	body, err := c.post(ctx, asyncEnqueuePath, targetURL, token)
	if err != nil {
		return "", err
	}
	var resp enqueueResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decode enqueue response: %w", err)
	}
	if resp.TaskID == "" {
		return "", fmt.Errorf("enqueue response missing task_id")
	}
	return resp.TaskID, nil
}

func (c *Client) post(ctx context.Context, path, targetURL, token string) ([]byte, error) {
	payload, err := json.Marshal(previewRequest{URL: targetURL})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", path, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.Debug("close response body", zap.Error(cerr))
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", path, err)
	}
	c.logger.Debug("backend call finished",
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("dur", time.Since(start)),
	)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%s returned status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}
