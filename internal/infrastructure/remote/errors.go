package remote

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrUnavailable wraps transport failures: the remote service could not be
// reached or did not answer in time.
var ErrUnavailable = errors.New("remote service unavailable")

// RemoteError is a non-2xx answer from the remote service.
type RemoteError struct {
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("remote service returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("remote service returned status %d: %s", e.StatusCode, e.Message)
}

// IsNotFound reports whether err is a 404 from the remote service.
func IsNotFound(err error) bool {
	var re *RemoteError
	return errors.As(err, &re) && re.StatusCode == 404
}

var messageKeys = []string{"message", "detail", "error", "msg"}

// extractMessage reads a human-readable message out of an error body such
// as {"message": "..."} or {"detail": "..."}.
func extractMessage(body []byte) string {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		return ""
	}
	for _, key := range messageKeys {
		raw, ok := obj[key]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
		// {"error": {"message": "..."}}
		if nested := extractMessage(raw); nested != "" {
			return nested
		}
	}
	return ""
}
