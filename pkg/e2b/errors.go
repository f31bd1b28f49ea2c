package e2b

import (
	"bytes"

	json "github.com/goccy/go-json"

	"github.com/e2b-dev/e2b-go/pkg/rpcclient"
)

// controlStatusMessage is the control plane's {code, message} error body
// shape. When a response parses as one, its message is preferred over
// the raw body text.
type controlStatusMessage struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// controlError maps a non-2xx control-plane response into the shared
// *rpcclient.Error taxonomy via rpcclient.KindFromStatus; the agent's
// framed-RPC layer uses the same mapping.
func controlError(status int, body []byte) error {
	var sm controlStatusMessage
	if err := json.Unmarshal(body, &sm); err == nil && sm.Message != "" {
		return rpcclient.NewStatusError(status, sm.Message)
	}
	return rpcclient.NewStatusError(status, string(bytes.TrimSpace(body)))
}
