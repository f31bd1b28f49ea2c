package e2b

import (
	"bytes"
	"context"
	"io"
	"net/http"

	json "github.com/goccy/go-json"
)

const headerAPIKey = "X-API-KEY"

// controlClient is the thin REST wrapper over the control plane, split
// out so pkg/e2b can share one *http.Client across lifecycle calls and
// the per-sandbox agent clients it derives.
type controlClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	cfg        *Config
}

func newControlClient(cfg *Config) *controlClient {
	return &controlClient{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    cfg.BaseDomain.String(),
		apiKey:     cfg.APIKey,
		cfg:        cfg,
	}
}

func (c *controlClient) do(ctx context.Context, method, path string, reqBody, out any) error {
	var body io.Reader
	if reqBody != nil {
		buf, err := json.Marshal(reqBody)
		if err != nil {
			return err
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set(headerAPIKey, c.apiKey)
	if reqBody != nil {
		req.Header.Set("content-type", "application/json")
	}

	logf(c.cfg, "control request method=%s path=%s", method, path)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logf(c.cfg, "control request method=%s path=%s error=%v", method, path, err)
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		logf(c.cfg, "control request method=%s path=%s error=%v", method, path, err)
		return err
	}
	logf(c.cfg, "control response method=%s path=%s status=%d", method, path, resp.StatusCode)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return controlError(resp.StatusCode, respBody)
	}
	if out == nil || len(respBody) == 0 {
		return nil
	}
	return json.Unmarshal(respBody, out)
}
