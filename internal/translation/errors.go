package translation

import (
	"errors"
	"fmt"
)

// Kind classifies a translation failure for callers.
type Kind string

const (
	// KindNetwork covers timeouts, connection failures and other transport
	// errors. Not retried beyond the session-renewal retry.
	KindNetwork Kind = "NET_ERR"
	// KindAPI covers backend-reported rejections (rate limiting, auth, or an
	// unrecognized status) and exhausted local recovery. Never auto-retried.
	KindAPI Kind = "API_ERR"
	// KindLanguage means the requested operation has no mapping for the
	// resolved language on this backend. Fatal for the call.
	KindLanguage Kind = "LANG_ERR"
)

// Action records what an engine was doing when a call failed.
type Action struct {
	Engine    string `json:"engine"`
	Operation string `json:"operation"`
	Text      string `json:"text,omitempty"`
	From      string `json:"from,omitempty"`
	To        string `json:"to,omitempty"`
}

// Error is the envelope every engine-level failure is wrapped in before it
// propagates to the orchestrator.
type Error struct {
	Kind    Kind
	Code    int
	Message string
	Action  Action
	cause   error
}

func (e *Error) Error() string {
	if e.Action.Engine != "" {
		return fmt.Sprintf("%s %s: %s (%s, code %d)",
			e.Action.Engine, e.Action.Operation, e.Message, e.Kind, e.Code)
	}
	return fmt.Sprintf("%s (%s, code %d)", e.Message, e.Kind, e.Code)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// NewError builds a bare error envelope.
func NewError(kind Kind, code int, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// WrapError annotates err with the given action, preserving an existing
// envelope's kind and code. Plain errors become KindNetwork, which matches
// how raw transport failures reach engine call sites.
func WrapError(err error, act Action) *Error {
	if err == nil {
		return nil
	}
	var envelope *Error
	if errors.As(err, &envelope) {
		if envelope.Action.Engine == "" {
			envelope.Action = act
		}
		return envelope
	}
	return &Error{
		Kind:    KindNetwork,
		Message: err.Error(),
		Action:  act,
		cause:   err,
	}
}

// KindOf extracts the failure kind from err, defaulting to KindNetwork for
// errors that never passed through an engine.
func KindOf(err error) Kind {
	var envelope *Error
	if errors.As(err, &envelope) {
		return envelope.Kind
	}
	return KindNetwork
}
