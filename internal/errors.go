package internal

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind tags the failure class of a WebshareError
type ErrorKind int

const (
	// ErrTransport means the service could not be reached (connection error, timeout, cancellation)
	ErrTransport ErrorKind = iota
	// ErrAPI means the service answered with a non-OK status
	ErrAPI
	// ErrInvalidURL means the input was not a share link; raised before any network call
	ErrInvalidURL
	// ErrInvalidResponse means the service answered with something that is not a usable envelope
	ErrInvalidResponse
)

// ErrorSeverity represents the severity of an error
type ErrorSeverity int

const (
	SeverityInfo ErrorSeverity = iota
	SeverityWarning
	SeverityError
	SeverityCritical
)

// StatusOK is the envelope status of a successful call
const StatusOK = "OK"

// WebshareError is the single error type surfaced by the API client.
// Kind selects which of the remaining fields are meaningful.
type WebshareError struct {
	Kind       ErrorKind
	Severity   ErrorSeverity
	Endpoint   string
	Status     string // server status tag, ErrAPI only
	Code       string // server error code, ErrAPI only, may be empty
	Message    string
	URL        string
	Suggestion string
	Context    map[string]interface{}
	Err        error
}

// Error implements the error interface
func (e *WebshareError) Error() string {
	var parts []string

	switch e.Kind {
	case ErrAPI:
		parts = append(parts, fmt.Sprintf("webshare.cz returned %s - %s", e.Status, e.Message))
	case ErrTransport:
		if e.Err != nil {
			parts = append(parts, fmt.Sprintf("webshare transport error: %v", e.Err))
		} else {
			parts = append(parts, "webshare transport error: "+e.Message)
		}
	default:
		msg := e.Message
		if msg == "" && e.Err != nil {
			msg = e.Err.Error()
		}
		parts = append(parts, fmt.Sprintf("webshare error (%s): %s", e.Kind.String(), msg))
	}

	if e.Endpoint != "" {
		parts = append(parts, fmt.Sprintf("endpoint: %s", e.Endpoint))
	}

	return strings.Join(parts, " - ")
}

// Unwrap exposes the underlying cause
func (e *WebshareError) Unwrap() error {
	return e.Err
}

// DetailedError returns a detailed error message with all available information
func (e *WebshareError) DetailedError() string {
	var parts []string

	parts = append(parts, fmt.Sprintf("[%s] %s Error", e.Severity.String(), e.Kind.String()))

	if e.Endpoint != "" {
		parts = append(parts, fmt.Sprintf("Endpoint: %s", e.Endpoint))
	}
	if e.Status != "" {
		parts = append(parts, fmt.Sprintf("Status: %s", e.Status))
	}
	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("Code: %s", e.Code))
	}
	if e.Message != "" {
		parts = append(parts, fmt.Sprintf("Message: %s", e.Message))
	}
	if e.Err != nil {
		parts = append(parts, fmt.Sprintf("Cause: %v", e.Err))
	}
	if e.URL != "" {
		parts = append(parts, fmt.Sprintf("URL: %s", redactSensitiveURL(e.URL)))
	}

	if len(e.Context) > 0 {
		contextParts := make([]string, 0, len(e.Context))
		for k, v := range e.Context {
			contextParts = append(contextParts, fmt.Sprintf("%s=%v", k, v))
		}
		parts = append(parts, fmt.Sprintf("Context: %s", strings.Join(contextParts, ", ")))
	}

	if e.Suggestion != "" {
		parts = append(parts, fmt.Sprintf("\nSuggestion: %s", e.Suggestion))
	}

	return strings.Join(parts, "\n")
}

// String returns the string representation of ErrorKind
func (k ErrorKind) String() string {
	switch k {
	case ErrTransport:
		return "Transport"
	case ErrAPI:
		return "API"
	case ErrInvalidURL:
		return "InvalidURL"
	case ErrInvalidResponse:
		return "InvalidResponse"
	default:
		return "Unknown"
	}
}

// String returns the string representation of ErrorSeverity
func (es ErrorSeverity) String() string {
	switch es {
	case SeverityInfo:
		return "INFO"
	case SeverityWarning:
		return "WARNING"
	case SeverityError:
		return "ERROR"
	case SeverityCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

func newWebshareError(kind ErrorKind, endpoint, message string, cause error) *WebshareError {
	return &WebshareError{
		Kind:       kind,
		Severity:   getDefaultSeverity(kind),
		Endpoint:   endpoint,
		Message:    message,
		Suggestion: getDefaultSuggestion(kind),
		Context:    make(map[string]interface{}),
		Err:        cause,
	}
}

// NewTransportError wraps a network-level failure reaching endpoint
func NewTransportError(endpoint string, cause error) *WebshareError {
	return newWebshareError(ErrTransport, endpoint, "", cause)
}

// NewAPIError records a non-OK status reported by the service
func NewAPIError(endpoint, status, code, message string) *WebshareError {
	err := newWebshareError(ErrAPI, endpoint, message, nil)
	err.Status = status
	err.Code = code
	return err
}

// NewInvalidURLError creates an error for input that is not a share link
func NewInvalidURLError(url string) *WebshareError {
	return newWebshareError(ErrInvalidURL, "", "not a webshare.cz URL", nil).WithURL(url)
}

// NewInvalidResponseError creates an error for an undecodable or incomplete envelope
func NewInvalidResponseError(endpoint, message string, cause error) *WebshareError {
	return newWebshareError(ErrInvalidResponse, endpoint, message, cause)
}

// WithSuggestion adds a custom suggestion to the error
func (e *WebshareError) WithSuggestion(suggestion string) *WebshareError {
	e.Suggestion = suggestion
	return e
}

// WithURL adds URL context to the error (will be redacted in logs)
func (e *WebshareError) WithURL(url string) *WebshareError {
	e.URL = url
	return e
}

// WithContext adds context information to the error
func (e *WebshareError) WithContext(key string, value interface{}) *WebshareError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// IsCritical returns true if the error is critical and should stop execution
func (e *WebshareError) IsCritical() bool {
	return e.Severity == SeverityCritical
}

// IsKind reports whether err carries a WebshareError of the given kind
func IsKind(err error, kind ErrorKind) bool {
	var wsErr *WebshareError
	if errors.As(err, &wsErr) {
		return wsErr.Kind == kind
	}
	return false
}

// AsWebshareError extracts the WebshareError from err's chain
func AsWebshareError(err error) (*WebshareError, bool) {
	var wsErr *WebshareError
	ok := errors.As(err, &wsErr)
	return wsErr, ok
}

// ValidationError represents input validation errors
type ValidationError struct {
	Field      string                 `json:"field"`
	Message    string                 `json:"message"`
	Value      interface{}            `json:"value,omitempty"`
	Suggestion string                 `json:"suggestion,omitempty"`
	Context    map[string]interface{} `json:"context,omitempty"`
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	parts := []string{fmt.Sprintf("validation error for %s: %s", e.Field, e.Message)}

	if e.Suggestion != "" {
		parts = append(parts, fmt.Sprintf("Suggestion: %s", e.Suggestion))
	}

	return strings.Join(parts, " - ")
}

// DetailedError returns a detailed validation error message
func (e *ValidationError) DetailedError() string {
	var parts []string

	parts = append(parts, fmt.Sprintf("Validation Error for field '%s'", e.Field))
	parts = append(parts, fmt.Sprintf("Message: %s", e.Message))

	if e.Value != nil {
		parts = append(parts, fmt.Sprintf("Provided value: %v", e.Value))
	}

	if len(e.Context) > 0 {
		contextParts := make([]string, 0, len(e.Context))
		for k, v := range e.Context {
			contextParts = append(contextParts, fmt.Sprintf("%s=%v", k, v))
		}
		parts = append(parts, fmt.Sprintf("Context: %s", strings.Join(contextParts, ", ")))
	}

	if e.Suggestion != "" {
		parts = append(parts, fmt.Sprintf("\nSuggestion: %s", e.Suggestion))
	}

	return strings.Join(parts, "\n")
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Context: make(map[string]interface{}),
	}
}

// NewValidationErrorWithValue creates a ValidationError with the invalid value
func NewValidationErrorWithValue(field, message string, value interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
		Context: make(map[string]interface{}),
	}
}

// WithSuggestion adds a suggestion to the validation error
func (e *ValidationError) WithSuggestion(suggestion string) *ValidationError {
	e.Suggestion = suggestion
	return e
}

// WithContext adds context to the validation error
func (e *ValidationError) WithContext(key string, value interface{}) *ValidationError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

func getDefaultSuggestion(kind ErrorKind) string {
	switch kind {
	case ErrTransport:
		return "Check your internet connection and try again. Consider using a proxy if needed"
	case ErrAPI:
		return "The service rejected the request. Check credentials, file password and that the link is still valid"
	case ErrInvalidURL:
		return "Please provide a webshare.cz share URL (e.g., https://webshare.cz/#/file/<ident>/<name>)"
	case ErrInvalidResponse:
		return "Unexpected response from server. The API might have changed"
	default:
		return "Please check the error details and try again"
	}
}

func getDefaultSeverity(kind ErrorKind) ErrorSeverity {
	switch kind {
	case ErrTransport:
		return SeverityWarning
	case ErrInvalidResponse:
		return SeverityCritical
	default:
		return SeverityError
	}
}

// redactSensitiveURL redacts sensitive information from URLs
func redactSensitiveURL(url string) string {
	if strings.Contains(url, "?") {
		parts := strings.Split(url, "?")
		return parts[0] + "?[REDACTED]"
	}
	return url
}
