package e2b

import (
	"fmt"
	"net/url"
	"time"
)

const (
	envAPIKey         = "E2B_API_KEY"
	envDomain         = "E2B_DOMAIN"
	envTimeoutSeconds = "E2B_TIMEOUT_SECONDS"
	envDebug          = "E2B_DEBUG"
	envAgentUsername  = "E2B_AGENT_USERNAME"

	defaultDomain         = "https://api.e2b.dev"
	defaultTimeoutSeconds = 30
	defaultAgentUsername  = "user"
)

// Config is the immutable set of values needed to reach the control
// plane and, indirectly, any sandbox it creates or connects to.
type Config struct {
	APIKey         string
	BaseDomain     *url.URL
	Timeout        time.Duration
	Debug          bool
	AgentUsername  string
}

// LoadConfig builds a Config from environment variables. APIKey is
// required; every other field falls back to a documented default.
func LoadConfig() (*Config, error) {
	apiKey := getenv(envAPIKey, "")
	if apiKey == "" {
		return nil, fmt.Errorf("e2b: %s is required", envAPIKey)
	}

	domain := getenv(envDomain, defaultDomain)
	parsed, err := url.Parse(domain)
	if err != nil {
		return nil, fmt.Errorf("e2b: invalid %s %q: %w", envDomain, domain, err)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("e2b: %s must be an absolute URL with a host, got %q", envDomain, domain)
	}

	return &Config{
		APIKey:        apiKey,
		BaseDomain:    parsed,
		Timeout:       getenvDuration(envTimeoutSeconds, defaultTimeoutSeconds*time.Second),
		Debug:         getenvBool(envDebug, false),
		AgentUsername: getenv(envAgentUsername, defaultAgentUsername),
	}, nil
}
