package rpcclient

import "fmt"

// Kind is the error taxonomy shared by the control plane and the
// framed-RPC agent layer.
type Kind string

const (
	KindAuthentication  Kind = "authentication"
	KindNotFound        Kind = "not-found"
	KindInvalidArgument Kind = "invalid-argument"
	KindTimeout         Kind = "timeout"
	KindNotEnoughSpace  Kind = "not-enough-space"
	KindRateLimit       Kind = "rate-limit"
	KindTemplate        Kind = "template"
	KindNetwork         Kind = "network"
	KindProtocol        Kind = "protocol"
	KindInternal        Kind = "internal"
	KindOther           Kind = "other"
)

// Error is the boundary error type returned by both the control-plane
// client and the framed-RPC client.
type Error struct {
	Kind    Kind
	Code    int
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s (%d)", e.Kind, e.Code)
	}
	return fmt.Sprintf("%s (%d): %s", e.Kind, e.Code, e.Message)
}

// KindFromStatus maps an HTTP status code to an error kind per the
// control-plane/agent mapping table. Unmapped statuses are "internal".
func KindFromStatus(status int) Kind {
	switch status {
	case 400:
		return KindInvalidArgument
	case 401:
		return KindAuthentication
	case 404:
		return KindNotFound
	case 408:
		return KindTimeout
	case 413:
		return KindNotEnoughSpace
	case 429:
		return KindRateLimit
	case 502:
		return KindTimeout
	case 507:
		return KindNotEnoughSpace
	default:
		return KindInternal
	}
}

// NewStatusError builds an *Error from an HTTP status code and message,
// mapping the status to a Kind via KindFromStatus.
func NewStatusError(status int, message string) *Error {
	return &Error{Kind: KindFromStatus(status), Code: status, Message: message}
}
