// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package openai implements the single-shot chat-completion call quickask
// makes for each submission.
//
// The client reads the whole response as text before trying to parse it,
// because error responses (and some gateways' success responses) are not
// guaranteed to be JSON. Every outcome is reported as a classified Result;
// Complete never panics and never retries.
package openai

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/jeranaias/quickask/internal/logging"
)

// Fixed request parameters.
const (
	Model       = "gpt-3.5-turbo"
	MaxTokens   = 500
	Temperature = 0.7
)

const (
	// DefaultBaseURL is the OpenAI API root.
	DefaultBaseURL = "https://api.openai.com/v1"

	// DefaultTimeout bounds a single request, connect through last body byte.
	DefaultTimeout = 60 * time.Second

	// MaxResponseSize caps how much of a response body is read.
	MaxResponseSize = 10 * 1024 * 1024
)

// sharedHTTPClient pools connections across submissions. Per-request
// deadlines come from the context, not from http.Client.Timeout.
var sharedHTTPClient = &http.Client{
	Transport: &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	},
}

// Doer is the transport. *http.Client satisfies it; tests substitute stubs.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// KeyFunc resolves the credential at call time.
type KeyFunc func() (string, bool)

// Message is a single chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is the chat-completions request body.
type Request struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
}

// NewRequest builds the fixed-parameter body for one prompt.
func NewRequest(prompt string) Request {
	return Request{
		Model:       Model,
		Messages:    []Message{{Role: "user", Content: prompt}},
		MaxTokens:   MaxTokens,
		Temperature: Temperature,
	}
}

// response holds only the path we read. Pointers distinguish a missing
// field from an empty one.
type response struct {
	Choices []struct {
		Message *struct {
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Client performs completion requests.
type Client struct {
	keys       KeyFunc
	baseURL    string
	httpClient Doer
	timeout    time.Duration
	limiter    *rate.Limiter
	logger     *zap.Logger
}

// New creates a client that resolves its key through keys on every call.
func New(keys KeyFunc) *Client {
	return &Client{
		keys:       keys,
		baseURL:    DefaultBaseURL,
		httpClient: sharedHTTPClient,
		timeout:    DefaultTimeout,
		logger:     zap.NewNop(),
	}
}

// WithBaseURL sets a custom base URL for the API.
func (c *Client) WithBaseURL(url string) *Client {
	if url != "" {
		c.baseURL = strings.TrimSuffix(url, "/")
	}
	return c
}

// WithHTTPClient replaces the transport.
func (c *Client) WithHTTPClient(d Doer) *Client {
	if d != nil {
		c.httpClient = d
	}
	return c
}

// WithTimeout sets the per-request timeout. Zero disables it.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	c.timeout = timeout
	return c
}

// WithRateLimit allows at most perMinute requests per minute, with a burst
// of one. Zero or less removes the limit.
func (c *Client) WithRateLimit(perMinute int) *Client {
	if perMinute <= 0 {
		c.limiter = nil
		return c
	}
	c.limiter = rate.NewLimiter(rate.Limit(float64(perMinute)/60), 1)
	return c
}

// WithLogger sets the diagnostics logger. Nil means no-op.
func (c *Client) WithLogger(l *zap.Logger) *Client {
	c.logger = logging.OrNop(l).Named(logging.OpenAI)
	return c
}

// Endpoint returns the chat-completions URL.
func (c *Client) Endpoint() string {
	return c.baseURL + "/chat/completions"
}

// Complete sends prompt and classifies the outcome. Cancelling ctx aborts
// the request and yields KindCancelled.
func (c *Client) Complete(ctx context.Context, prompt string) Result {
	if strings.TrimSpace(prompt) == "" {
		return Fail(KindValidation, MsgValidation)
	}

	key, ok := "", false
	if c.keys != nil {
		key, ok = c.keys()
	}
	if !ok || strings.TrimSpace(key) == "" {
		c.logger.Debug("no API key resolved, skipping request")
		return Fail(KindConfiguration, MsgConfiguration)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return c.transportFailure(ctx, fmt.Errorf("rate limiter: %w", err))
		}
	}

	payload := NewRequest(prompt)
	c.logger.Debug("request payload", zap.Any("payload", payload))

	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return c.transportFailure(ctx, fmt.Errorf("failed to marshal request: %w", err))
	}

	reqCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.Endpoint(), bytes.NewReader(bodyBytes))
	if err != nil {
		return c.transportFailure(ctx, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+key)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.transportFailure(ctx, fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	c.logger.Debug("response status",
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	body, err := readResponse(resp)
	if err != nil {
		return c.transportFailure(ctx, err)
	}

	return c.classify(resp.StatusCode, body)
}

// classify turns a fully read response into a Result.
func (c *Client) classify(status int, body []byte) Result {
	ok := status >= 200 && status < 300

	if json.Valid(body) {
		var compact bytes.Buffer
		if err := json.Compact(&compact, body); err != nil {
			compact.Reset()
			compact.Write(body)
		}
		c.logger.Debug("response body (json)", zap.String("body", compact.String()))

		if !ok {
			return Result{
				Kind:    KindHTTP,
				Status:  status,
				Message: fmt.Sprintf("HTTP error! status: %d - %s", status, compact.String()),
				Body:    compact.String(),
			}
		}

		text, err := extractContent(body)
		if err != nil {
			c.logger.Debug("unexpected response shape", zap.Error(err))
			return Result{Kind: KindMalformed, Status: status, Message: MsgMalformed, Body: compact.String()}
		}
		return Result{Kind: KindSuccess, Status: status, Text: text}
	}

	raw := string(body)
	c.logger.Debug("response body (text)", zap.String("body", raw))

	if !ok {
		return Result{
			Kind:    KindHTTP,
			Status:  status,
			Message: fmt.Sprintf("HTTP error! status: %d - %s", status, raw),
			Body:    raw,
		}
	}
	return Result{Kind: KindMalformed, Status: status, Message: MsgMalformed, Body: raw}
}

// extractContent reads choices[0].message.content.
func extractContent(body []byte) (string, error) {
	var parsed response
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", errors.New("response has no choices")
	}
	msg := parsed.Choices[0].Message
	if msg == nil || msg.Content == nil {
		return "", errors.New("choices[0].message.content missing")
	}
	return *msg.Content, nil
}

// transportFailure classifies a fault that happened before a complete
// response was read. Cancellation of the caller's context is reported as
// KindCancelled; everything else, including our own timeout, is a network
// error whose cause is logged but not shown.
func (c *Client) transportFailure(ctx context.Context, err error) Result {
	if errors.Is(ctx.Err(), context.Canceled) || errors.Is(err, context.Canceled) {
		c.logger.Debug("request cancelled", zap.Error(err))
		return Result{Kind: KindCancelled, Message: MsgCancelled, Cause: err}
	}
	c.logger.Error("API call failed", zap.Error(err))
	return Result{Kind: KindNetwork, Message: MsgNetwork, Cause: err}
}

// readResponse reads the response body with a size limit.
func readResponse(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) > MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}
	return body, nil
}
