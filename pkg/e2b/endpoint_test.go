package e2b

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParseURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestAgentBaseURLStripsAPIPrefix(t *testing.T) {
	cfg := &Config{BaseDomain: mustParseURL(t, "https://api.example.com")}
	got := agentBaseURL(cfg, "s", "c")
	assert.Equal(t, "https://49983-s-c.example.com", got)
}

func TestAgentBaseURLKeepsNonAPIHost(t *testing.T) {
	cfg := &Config{BaseDomain: mustParseURL(t, "https://foo.example.com")}
	got := agentBaseURL(cfg, "s", "c")
	assert.Equal(t, "https://49983-s-c.foo.example.com", got)
}

func TestAgentBaseURLDebugModeUsesLocalhost(t *testing.T) {
	cfg := &Config{BaseDomain: mustParseURL(t, "https://api.example.com"), Debug: true}
	got := agentBaseURL(cfg, "s", "c")
	assert.Equal(t, "http://localhost:49983", got)
}

func TestAgentAuthHeaderIsBasicWithEmptyPassword(t *testing.T) {
	h := agentAuthHeader("user")
	// base64("user:") == "dXNlcjo="
	assert.Equal(t, "Basic dXNlcjo=", h.Get("Authorization"))
}
