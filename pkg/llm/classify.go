package llm

import (
	"context"
	stderrors "errors"
	"net"
	"net/http"

	"github.com/ensembleai/ensemble/pkg/errors"
)

// ClassifyStatus maps an HTTP status from a completion backend to a typed
// error. 408/429 and 5xx are transient; 4xx are permanent.
func ClassifyStatus(status int, body string) error {
	switch {
	case status == http.StatusTooManyRequests:
		return errors.New(errors.CodeRateLimit, "backend rate limited", nil).
			WithContext("status", status)
	case status == http.StatusRequestTimeout:
		return errors.New(errors.CodeTimeout, "backend request timeout", nil).
			WithContext("status", status)
	case status >= 500:
		return errors.New(errors.CodeServerError, "backend server error", nil).
			WithContext("status", status).
			WithContext("body", body)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return errors.New(errors.CodeUnauthorized, "backend rejected credentials", nil).
			WithContext("status", status)
	case status == http.StatusUnprocessableEntity:
		return errors.New(errors.CodeContentPolicy, "backend refused content", nil).
			WithContext("status", status).
			WithContext("body", body)
	default:
		return errors.New(errors.CodeInvalidRequest, "backend rejected request", nil).
			WithContext("status", status).
			WithContext("body", body)
	}
}

// ClassifyTransportErr maps transport-level failures to typed errors.
// Network timeouts and cancelled contexts are distinguished; everything
// else is a transient server-side problem from the caller's perspective.
func ClassifyTransportErr(err error) error {
	if err == nil {
		return nil
	}
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return errors.New(errors.CodeTimeout, "completion call deadline exceeded", err)
	}
	var netErr net.Error
	if stderrors.As(err, &netErr) && netErr.Timeout() {
		return errors.New(errors.CodeTimeout, "completion call timed out", err)
	}
	return errors.New(errors.CodeServerError, "completion transport failure", err)
}
