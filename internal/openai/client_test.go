// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package openai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const testKey = "sk-test-abcdefghijklmnopqrstuvwxyz0123456789"

func staticKey(key string) KeyFunc {
	return func() (string, bool) { return key, key != "" }
}

// stubDoer returns a canned response or error without touching the network.
type stubDoer struct {
	status int
	body   string
	err    error
	calls  atomic.Int32
	last   *http.Request
	sent   []byte
	auth   string
}

func (s *stubDoer) Do(req *http.Request) (*http.Response, error) {
	s.calls.Add(1)
	s.last = req
	s.auth = req.Header.Get("Authorization")
	if req.Body != nil {
		s.sent, _ = io.ReadAll(req.Body)
	}
	if s.err != nil {
		return nil, s.err
	}
	return &http.Response{
		StatusCode: s.status,
		Body:       io.NopCloser(strings.NewReader(s.body)),
		Header:     make(http.Header),
	}, nil
}

func newStubClient(d Doer) *Client {
	return New(staticKey(testKey)).WithHTTPClient(d)
}

// =============================================================================
// SUCCESS PATH
// =============================================================================

func TestComplete_Success(t *testing.T) {
	var gotReq Request
	var gotAuth, gotType, gotPath string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotType = r.Header.Get("Content-Type")
		gotPath = r.URL.Path
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"X"}}]}`))
	}))
	defer server.Close()

	client := New(staticKey(testKey)).WithBaseURL(server.URL + "/v1/")
	res := client.Complete(context.Background(), "Hello")

	require.True(t, res.OK(), "unexpected failure: %+v", res)
	assert.Equal(t, "X", res.Text)
	assert.NoError(t, res.Err())

	assert.Equal(t, "/v1/chat/completions", gotPath)
	assert.Equal(t, "Bearer "+testKey, gotAuth)
	assert.Equal(t, "application/json", gotType)
	assert.Equal(t, Model, gotReq.Model)
	assert.Equal(t, MaxTokens, gotReq.MaxTokens)
	assert.InDelta(t, Temperature, gotReq.Temperature, 1e-9)
	require.Len(t, gotReq.Messages, 1)
	assert.Equal(t, Message{Role: "user", Content: "Hello"}, gotReq.Messages[0])
}

func TestComplete_RequestBodyShape(t *testing.T) {
	stub := &stubDoer{status: 200, body: `{"choices":[{"message":{"content":"ok"}}]}`}
	res := newStubClient(stub).Complete(context.Background(), "Hi")
	require.True(t, res.OK())

	assert.JSONEq(t,
		`{"model":"gpt-3.5-turbo","messages":[{"role":"user","content":"Hi"}],"max_tokens":500,"temperature":0.7}`,
		string(stub.sent))
	assert.Equal(t, "Bearer "+testKey, stub.auth)
	assert.Equal(t, "application/json", stub.last.Header.Get("Content-Type"))
	assert.Equal(t, http.MethodPost, stub.last.Method)
}

func TestComplete_EmptyContentIsSuccess(t *testing.T) {
	stub := &stubDoer{status: 200, body: `{"choices":[{"message":{"content":""}}]}`}
	res := newStubClient(stub).Complete(context.Background(), "Hi")
	require.True(t, res.OK())
	assert.Equal(t, "", res.Text)
}

// =============================================================================
// PRE-FLIGHT FAILURES
// =============================================================================

func TestComplete_NoKeyMakesNoCall(t *testing.T) {
	for _, prompt := range []string{"Hello", "a much longer prompt", "  padded  "} {
		stub := &stubDoer{status: 200, body: `{}`}
		res := New(staticKey("")).WithHTTPClient(stub).Complete(context.Background(), prompt)

		assert.Equal(t, KindConfiguration, res.Kind)
		assert.True(t, errors.Is(res.Err(), ErrConfiguration))
		assert.Zero(t, stub.calls.Load(), "no network call without a key")
	}

	stub := &stubDoer{status: 200}
	res := New(nil).WithHTTPClient(stub).Complete(context.Background(), "Hello")
	assert.Equal(t, KindConfiguration, res.Kind)

	res = New(staticKey("   ")).WithHTTPClient(stub).Complete(context.Background(), "Hello")
	assert.Equal(t, KindConfiguration, res.Kind)
	assert.Zero(t, stub.calls.Load())
}

func TestComplete_EmptyPromptGuard(t *testing.T) {
	stub := &stubDoer{status: 200}
	res := newStubClient(stub).Complete(context.Background(), " \n\t ")

	assert.Equal(t, KindValidation, res.Kind)
	assert.Equal(t, MsgValidation, res.Message)
	assert.Zero(t, stub.calls.Load())
}

// =============================================================================
// RESPONSE CLASSIFICATION
// =============================================================================

func TestComplete_Classification(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantKind   Kind
		wantInMsg  string
		wantSentry error
	}{
		{
			name:       "json error body",
			status:     500,
			body:       `{"error":"server"}`,
			wantKind:   KindHTTP,
			wantInMsg:  `HTTP error! status: 500 - {"error":"server"}`,
			wantSentry: ErrHTTP,
		},
		{
			name:       "json error body is compacted in order",
			status:     401,
			body:       "{\n  \"error\": {\"message\": \"bad key\", \"code\": \"invalid_api_key\"}\n}",
			wantKind:   KindHTTP,
			wantInMsg:  `status: 401 - {"error":{"message":"bad key","code":"invalid_api_key"}}`,
			wantSentry: ErrHTTP,
		},
		{
			name:       "text error body",
			status:     502,
			body:       "<html>Bad Gateway</html>",
			wantKind:   KindHTTP,
			wantInMsg:  "HTTP error! status: 502 - <html>Bad Gateway</html>",
			wantSentry: ErrHTTP,
		},
		{
			name:       "empty error body",
			status:     429,
			body:       "",
			wantKind:   KindHTTP,
			wantInMsg:  "status: 429",
			wantSentry: ErrHTTP,
		},
		{
			name:       "success status with text body",
			status:     200,
			body:       "not a json",
			wantKind:   KindMalformed,
			wantInMsg:  MsgMalformed,
			wantSentry: ErrMalformed,
		},
		{
			name:       "success status with empty body",
			status:     200,
			body:       "",
			wantKind:   KindMalformed,
			wantSentry: ErrMalformed,
		},
		{
			name:       "missing choices",
			status:     200,
			body:       `{"id":"x"}`,
			wantKind:   KindMalformed,
			wantSentry: ErrMalformed,
		},
		{
			name:       "empty choices",
			status:     200,
			body:       `{"choices":[]}`,
			wantKind:   KindMalformed,
			wantSentry: ErrMalformed,
		},
		{
			name:       "missing message",
			status:     200,
			body:       `{"choices":[{"finish_reason":"stop"}]}`,
			wantKind:   KindMalformed,
			wantSentry: ErrMalformed,
		},
		{
			name:       "content wrong type",
			status:     200,
			body:       `{"choices":[{"message":{"content":42}}]}`,
			wantKind:   KindMalformed,
			wantSentry: ErrMalformed,
		},
		{
			name:       "top level array",
			status:     200,
			body:       `[1,2,3]`,
			wantKind:   KindMalformed,
			wantSentry: ErrMalformed,
		},
		{
			name:       "json null",
			status:     200,
			body:       `null`,
			wantKind:   KindMalformed,
			wantSentry: ErrMalformed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubDoer{status: tt.status, body: tt.body}
			res := newStubClient(stub).Complete(context.Background(), "Hello")

			assert.Equal(t, tt.wantKind, res.Kind, "result: %+v", res)
			assert.Equal(t, int32(1), stub.calls.Load(), "exactly one attempt")
			if tt.wantInMsg != "" {
				assert.Contains(t, res.Message, tt.wantInMsg)
			}
			assert.True(t, errors.Is(res.Err(), tt.wantSentry))
			if tt.wantKind == KindHTTP {
				assert.Equal(t, tt.status, res.Status)
			}
		})
	}
}

func TestComplete_ServerErrorIsNotRetried(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error":"overloaded"}`))
	}))
	defer server.Close()

	res := New(staticKey(testKey)).WithBaseURL(server.URL).Complete(context.Background(), "Hello")

	assert.Equal(t, KindHTTP, res.Kind)
	assert.Equal(t, 503, res.Status)
	assert.Equal(t, int32(1), hits.Load())
}

// =============================================================================
// TRANSPORT FAULTS
// =============================================================================

func TestComplete_NetworkFaultIsGeneric(t *testing.T) {
	fault := errors.New("dial tcp 10.0.0.1:443: connect: secret-internal-detail")
	stub := &stubDoer{err: fault}

	res := newStubClient(stub).Complete(context.Background(), "Hello")

	assert.Equal(t, KindNetwork, res.Kind)
	assert.Equal(t, MsgNetwork, res.Message)
	assert.NotContains(t, res.Message, "secret-internal-detail")
	assert.NotContains(t, res.Err().Error(), "secret-internal-detail")
	assert.True(t, errors.Is(res.Err(), ErrNetwork))
	assert.True(t, errors.Is(res.Err(), fault), "cause stays reachable for diagnostics")
}

func TestComplete_UnreachableHost(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	res := New(staticKey(testKey)).WithBaseURL(url).Complete(context.Background(), "Hello")
	assert.Equal(t, KindNetwork, res.Kind)
}

func TestComplete_TimeoutIsNetworkError(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	res := New(staticKey(testKey)).
		WithBaseURL(server.URL).
		WithTimeout(50 * time.Millisecond).
		Complete(context.Background(), "Hello")

	assert.Equal(t, KindNetwork, res.Kind)
	assert.True(t, errors.Is(res.Cause, context.DeadlineExceeded))
}

func TestComplete_CancellationIsDistinct(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan Result, 1)
	go func() {
		done <- New(staticKey(testKey)).WithBaseURL(server.URL).Complete(ctx, "Hello")
	}()

	<-started
	cancel()

	select {
	case res := <-done:
		assert.Equal(t, KindCancelled, res.Kind)
		assert.True(t, res.Cancelled())
		assert.True(t, errors.Is(res.Err(), ErrCancelled))
	case <-time.After(5 * time.Second):
		t.Fatal("Complete did not return after cancellation")
	}
}

func TestComplete_CancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stub := &stubDoer{err: context.Canceled}
	res := newStubClient(stub).Complete(ctx, "Hello")
	assert.Equal(t, KindCancelled, res.Kind)
}

func TestComplete_OversizedBody(t *testing.T) {
	stub := &stubDoer{status: 200, body: strings.Repeat("a", MaxResponseSize+10)}
	res := newStubClient(stub).Complete(context.Background(), "Hello")
	assert.Equal(t, KindNetwork, res.Kind)
}

// =============================================================================
// RATE LIMITING
// =============================================================================

func TestComplete_RateLimitWaitHonoursCancellation(t *testing.T) {
	stub := &stubDoer{status: 200, body: `{"choices":[{"message":{"content":"ok"}}]}`}
	client := newStubClient(stub).WithRateLimit(1)

	require.True(t, client.Complete(context.Background(), "first").OK())

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	res := client.Complete(ctx, "second")

	assert.Equal(t, KindCancelled, res.Kind)
	assert.Equal(t, int32(1), stub.calls.Load(), "second request must not be sent")
}

func TestWithRateLimit_ZeroDisables(t *testing.T) {
	stub := &stubDoer{status: 200, body: `{"choices":[{"message":{"content":"ok"}}]}`}
	client := newStubClient(stub).WithRateLimit(60).WithRateLimit(0)

	for i := 0; i < 5; i++ {
		require.True(t, client.Complete(context.Background(), "again").OK())
	}
	assert.Equal(t, int32(5), stub.calls.Load())
}

// =============================================================================
// DIAGNOSTICS
// =============================================================================

func TestComplete_LogsStagesWithoutKey(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	stub := &stubDoer{status: 500, body: "boom"}

	newStubClient(stub).WithLogger(zap.New(core)).Complete(context.Background(), "Hello")

	var messages []string
	for _, entry := range logs.All() {
		messages = append(messages, entry.Message)
		assert.Equal(t, "openai", entry.LoggerName)
		for _, f := range entry.Context {
			assert.NotContains(t, f.String, testKey, "API key must never be logged")
		}
	}
	assert.Contains(t, messages, "request payload")
	assert.Contains(t, messages, "response status")
	assert.Contains(t, messages, "response body (text)")
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "HttpError", KindHTTP.String())
	assert.Equal(t, "Cancelled", KindCancelled.String())
	assert.Equal(t, "Kind(99)", Kind(99).String())
}
