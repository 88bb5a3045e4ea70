package client

import (
	"errors"
	"fmt"
	"net/http"
)

// HTTPError is a non-2xx response from the club API. Message is the
// backend's "error" or "detail" field when it sent one, otherwise the raw
// body.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("api: %d %s", e.StatusCode, msg)
}

// IsStatus reports whether err wraps an *HTTPError with status code.
func IsStatus(err error, code int) bool {
	var herr *HTTPError
	return errors.As(err, &herr) && herr.StatusCode == code
}
