// Package rpcclient implements the two framed-RPC call shapes (unary and
// server-streaming) used to talk to a sandbox's in-sandbox agent (envd):
// a thin HTTP transport wrapper driven by the envelope codec in
// pkg/envelope.
package rpcclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	json "github.com/goccy/go-json"

	"github.com/e2b-dev/e2b-go/pkg/envelope"
)

const (
	headerProtocolVersion = "connect-protocol-version"
	headerKeepalivePing   = "connect-keepalive-ping"
	keepaliveIntervalSec  = "30"

	contentTypeUnary  = "application/json"
	contentTypeStream = "application/connect+json"
)

type statusMessage struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Client is a cheaply-cloneable handle on a shared *http.Client and a
// base URL + header set (notably Authorization). Filesystem and process
// RPC clients each hold one of these.
//
// StreamClient, when set, is used for server-streaming calls instead of
// HTTPClient: a client-level timeout bounds each unary request but must
// not bound a long-lived stream, which relies on keepalive pings instead.
type Client struct {
	BaseURL      string
	HTTPClient   *http.Client
	StreamClient *http.Client
	Headers      http.Header
}

// New constructs a Client bound to baseURL, sharing httpClient (and its
// connection pool) across all calls made through it.
func New(baseURL string, httpClient *http.Client, headers http.Header) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if headers == nil {
		headers = http.Header{}
	}
	return &Client{BaseURL: baseURL, HTTPClient: httpClient, Headers: headers}
}

func (c *Client) url(service, method string) string {
	return fmt.Sprintf("%s/%s/%s", c.BaseURL, service, method)
}

func (c *Client) newRequest(ctx context.Context, service, method, contentType string, payload []byte) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(service, method), bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	for k, vals := range c.Headers {
		for _, v := range vals {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set(headerProtocolVersion, "1")
	req.Header.Set("content-type", contentType)
	return req, nil
}

// Unary performs a single request/response RPC call: POST a JSON body,
// decode a JSON response on 2xx, surface a mapped *Error otherwise.
func (c *Client) Unary(ctx context.Context, service, method string, reqBody, respBody any) error {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("rpcclient: marshal request: %w", err)
	}
	req, err := c.newRequest(ctx, service, method, contentTypeUnary, payload)
	if err != nil {
		return err
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return &Error{Kind: KindNetwork, Message: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Kind: KindNetwork, Message: err.Error()}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(resp.StatusCode, body)
	}
	if respBody == nil {
		return nil
	}
	if len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, respBody); err != nil {
		return fmt.Errorf("rpcclient: decode response: %w", err)
	}
	return nil
}

// Stream performs a server-streaming RPC call: POST a single envelope
// carrying the JSON request, returning a MessageStream that decodes
// further envelopes into typed messages as the caller pulls them.
func (c *Client) Stream(ctx context.Context, service, method string, reqBody any) (*MessageStream, error) {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("rpcclient: marshal request: %w", err)
	}
	framed := envelope.Encode(0, payload)

	req, err := c.newRequest(ctx, service, method, contentTypeStream, framed)
	if err != nil {
		return nil, err
	}
	req.Header.Set(headerKeepalivePing, keepaliveIntervalSec)

	httpClient := c.StreamClient
	if httpClient == nil {
		httpClient = c.HTTPClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Message: err.Error()}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, statusError(resp.StatusCode, body)
	}
	return &MessageStream{resp: resp, parser: envelope.NewParser(resp.Body)}, nil
}

func statusError(status int, body []byte) error {
	var sm statusMessage
	if err := json.Unmarshal(body, &sm); err == nil && sm.Message != "" {
		return NewStatusError(status, sm.Message)
	}
	return NewStatusError(status, string(bytes.TrimSpace(body)))
}

// MessageStream decodes a sequence of JSON messages carried over the
// framed-RPC envelope stream, per pkg/envelope.
type MessageStream struct {
	resp   *http.Response
	parser *envelope.Parser
}

// Next decodes the next message into out. It returns io.EOF when the
// stream closes cleanly (an empty end-of-stream envelope); any other
// error (including an end-of-stream error body, surfaced as
// *envelope.StreamError) ends the stream.
func (s *MessageStream) Next(out any) error {
	env, err := s.parser.Next()
	if err != nil {
		return err
	}
	if len(env.Data) == 0 {
		return nil
	}
	return json.Unmarshal(env.Data, out)
}

// Close aborts the underlying HTTP response, cancelling the request.
// Callers MUST call Close when done consuming (or abandoning) the stream.
func (s *MessageStream) Close() error {
	return s.resp.Body.Close()
}
