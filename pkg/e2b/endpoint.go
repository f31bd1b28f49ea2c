package e2b

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
)

const (
	envdPort       = 49983
	debugAgentBase = "http://localhost:49983"
	apiHostPrefix  = "api."
)

// agentBaseURL derives the per-sandbox agent's base URL from the control
// plane's base domain and a sandbox's identity: strip a leading "api."
// from the domain host, then prefix it with
// "49983-{sandbox_id}-{client_id}.". In debug mode the agent is assumed
// to be reachable on localhost.
func agentBaseURL(cfg *Config, sandboxID, clientID string) string {
	if cfg.Debug {
		return debugAgentBase
	}
	host := strings.TrimPrefix(cfg.BaseDomain.Host, apiHostPrefix)
	return fmt.Sprintf("%s://%d-%s-%s.%s", cfg.BaseDomain.Scheme, envdPort, sandboxID, clientID, host)
}

// agentAuthHeader builds the Basic-auth-with-empty-password header the
// agent expects: the trailing colon before an empty password is
// load-bearing, not an oversight.
func agentAuthHeader(username string) http.Header {
	token := base64.StdEncoding.EncodeToString([]byte(username + ":"))
	h := http.Header{}
	h.Set("Authorization", "Basic "+token)
	return h
}
