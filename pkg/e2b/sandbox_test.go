package e2b

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T, baseURL string) *Config {
	t.Helper()
	return &Config{
		APIKey:        "test-key",
		BaseDomain:    mustParseURL(t, baseURL),
		Timeout:       5 * time.Second,
		AgentUsername: "user",
	}
}

func TestCreateSendsAPIKeyAndDecodesResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("X-API-KEY"))
		assert.Equal(t, "/sandboxes", r.URL.Path)

		var body newSandboxWire
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "py-template", body.TemplateID)
		assert.False(t, body.AutoPause)
		assert.False(t, body.Secure)

		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(createdSandboxWire{
			SandboxID:  "sbx123",
			ClientID:   "client456",
			TemplateID: "py-template",
		})
	}))
	defer srv.Close()

	sbx, err := Create(context.Background(), testConfig(t, srv.URL), "py-template", CreateOptions{})
	require.NoError(t, err)
	assert.Equal(t, "sbx123", sbx.SandboxID)
	assert.Equal(t, "client456", sbx.ClientID)
	u := mustParseURL(t, srv.URL)
	assert.Equal(t, u.Scheme+"://49983-sbx123-client456."+u.Host, sbx.AgentURL())
}

func TestCreateMapsRateLimitError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"code":429,"message":"too many"}`))
	}))
	defer srv.Close()

	_, err := Create(context.Background(), testConfig(t, srv.URL), "py-template", CreateOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too many")
}

func TestKillIssuesDelete(t *testing.T) {
	var gotMethod, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sbx := newSandbox(testConfig(t, srv.URL), newControlClient(testConfig(t, srv.URL)), "sbx1", "client1", "tmpl")
	require.NoError(t, sbx.Kill(context.Background()))
	assert.Equal(t, http.MethodDelete, gotMethod)
	assert.Equal(t, "/sandboxes/sbx1", gotPath)
}

func TestListFiltersByState(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode([]ListedSandbox{
			{SandboxID: "a", State: StateRunning},
			{SandboxID: "b", State: StatePaused},
		})
	}))
	defer srv.Close()

	listed, err := List(context.Background(), testConfig(t, srv.URL), ListOptions{State: StateRunning})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "a", listed[0].SandboxID)
}
