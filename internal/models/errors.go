package models

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/easeaico/custom-chats/internal/types"
)

// ErrNoCredentials is returned when the selected provider has no API key or URL.
var ErrNoCredentials = errors.New("No API key configured")

// ProviderError is a failed provider call tagged with its category at the
// place it was raised.
type ProviderError struct {
	Provider   string
	Category   types.ErrorType
	StatusCode int
	Message    string
	Err        error
}

func (e *ProviderError) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// CategoryFromStatus maps an HTTP status to an error category, or "" when
// the status alone says nothing.
func CategoryFromStatus(code int) types.ErrorType {
	switch code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return types.ErrorTypeAPIKey
	case http.StatusPaymentRequired:
		return types.ErrorTypeQuota
	case http.StatusTooManyRequests:
		return types.ErrorTypeRateLimit
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return types.ErrorTypeTimeout
	default:
		return ""
	}
}

// Categorize classifies err. Typed provider errors win; anything else is
// matched on well-known substrings of its message.
func Categorize(err error) types.ErrorType {
	if err == nil {
		return ""
	}
	var perr *ProviderError
	if errors.As(err, &perr) && perr.Category != "" {
		return perr.Category
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return types.ErrorTypeTimeout
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "API key"):
		return types.ErrorTypeAPIKey
	case strings.Contains(msg, "rate limit"), strings.Contains(msg, "429"):
		return types.ErrorTypeRateLimit
	case strings.Contains(msg, "network"), strings.Contains(msg, "fetch"):
		return types.ErrorTypeNetwork
	case strings.Contains(msg, "quota"), strings.Contains(msg, "billing"):
		return types.ErrorTypeQuota
	case strings.Contains(msg, "timeout"):
		return types.ErrorTypeTimeout
	default:
		return types.ErrorTypeGeneric
	}
}

func missingCredentials(provider string) *ProviderError {
	return &ProviderError{
		Provider: provider,
		Category: types.ErrorTypeAPIKey,
		Message:  ErrNoCredentials.Error(),
		Err:      ErrNoCredentials,
	}
}

func statusError(provider string, code int, message string) *ProviderError {
	return &ProviderError{
		Provider:   provider,
		Category:   CategoryFromStatus(code),
		StatusCode: code,
		Message:    message,
	}
}

func responseError(provider, format string, args ...any) *ProviderError {
	return &ProviderError{
		Provider: provider,
		Category: types.ErrorTypeGeneric,
		Message:  fmt.Sprintf(format, args...),
	}
}

// transportError wraps a failure to reach the provider at all.
func transportError(provider string, err error) *ProviderError {
	category := types.ErrorTypeNetwork
	message := fmt.Sprintf("%s network error", provider)
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		category = types.ErrorTypeTimeout
		message = fmt.Sprintf("%s request timeout", provider)
	}
	return &ProviderError{Provider: provider, Category: category, Message: message, Err: err}
}

// isTransportFailure reports whether err means the request never produced
// an HTTP response.
func isTransportFailure(err error) bool {
	var urlErr *url.Error
	var netErr net.Error
	return errors.As(err, &urlErr) || errors.As(err, &netErr) || errors.Is(err, io.ErrUnexpectedEOF)
}
