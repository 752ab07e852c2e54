package kofa

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"kofa_admin/internal/config"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

const jsonMediaType = "application/json"

// ErrRequestFailed is the single failure kind for every backend call:
// transport errors, non-2xx statuses and undecodable bodies all wrap it.
var ErrRequestFailed = errors.New("kofa request failed")

type APIError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: %s", ErrRequestFailed, e.Status)
	}
	return fmt.Sprintf("%s: %s: %s", ErrRequestFailed, e.Status, e.Message)
}

func (e *APIError) Unwrap() error {
	return ErrRequestFailed
}

type Client struct {
	http   *resty.Client
	cache  CacheStore
	logger *zap.Logger
}

func NewClient(cfg config.Config, cache CacheStore, logger *zap.Logger) *Client {
	transport := otelhttp.NewTransport(http.DefaultTransport)
	httpClient := resty.NewWithClient(&http.Client{Transport: transport}).
		SetBaseURL(strings.TrimRight(strings.TrimSpace(cfg.APIBaseURL), "/")).
		SetHeader("Accept", jsonMediaType).
		SetHeader("Content-Type", jsonMediaType).
		SetTimeout(cfg.Timeout)

	if token := strings.TrimSpace(cfg.APIToken); token != "" {
		httpClient.SetAuthScheme("Bearer")
		httpClient.SetAuthToken(token)
	}
	if cache == nil {
		cache = NewMemoryCache(cfg.CacheTTL)
	}

	return &Client{
		http:   httpClient,
		cache:  cache,
		logger: logger.Named("kofa"),
	}
}

// Cache exposes the store backing CachedGet.
func (c *Client) Cache() CacheStore {
	return c.cache
}

// Call issues one request and decodes the JSON response into result.
// A nil body sends no payload; a nil result discards the response body.
func (c *Client) Call(ctx context.Context, method, endpoint string, body, result any) error {
	req := c.http.R().SetContext(ctx)
	if body != nil {
		req.SetBody(body)
	}

	resp, err := req.Execute(method, endpoint)
	if err != nil {
		c.logger.Warn("request failed",
			zap.String("method", method),
			zap.String("endpoint", endpoint),
			zap.Error(err),
		)
		return fmt.Errorf("%w: %s %s: %v", ErrRequestFailed, method, endpoint, err)
	}

	c.logger.Debug("response",
		zap.String("method", method),
		zap.String("endpoint", endpoint),
		zap.Int("status", resp.StatusCode()),
		zap.Duration("elapsed", resp.Time()),
	)

	if resp.StatusCode() < http.StatusOK || resp.StatusCode() >= http.StatusMultipleChoices {
		return apiErrorFromResponse(resp)
	}
	if result == nil {
		return nil
	}

	raw := bytes.TrimSpace(resp.Body())
	if len(raw) == 0 {
		return fmt.Errorf("%w: %s %s: empty response body", ErrRequestFailed, method, endpoint)
	}
	if err := json.Unmarshal(raw, result); err != nil {
		return fmt.Errorf("%w: %s %s: decode response: %v", ErrRequestFailed, method, endpoint, err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, endpoint string, result any) error {
	return c.Call(ctx, http.MethodGet, endpoint, nil, result)
}

func apiErrorFromResponse(resp *resty.Response) error {
	return &APIError{
		StatusCode: resp.StatusCode(),
		Status:     resp.Status(),
		Message:    serverMessage(resp.Body()),
	}
}

const maxErrorBody = 200

// serverMessage pulls the human-readable reason out of an error body.
// FastAPI reports it under "detail"; other handlers use "message" or "error".
func serverMessage(body []byte) string {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return ""
	}
	if gjson.ValidBytes(body) {
		for _, path := range []string{"detail", "message", "error"} {
			if value := gjson.GetBytes(body, path); value.Exists() {
				return strings.TrimSpace(value.String())
			}
		}
		return ""
	}
	text := string(body)
	if len(text) > maxErrorBody {
		text = text[:maxErrorBody] + "..."
	}
	return text
}
