package translate

import (
	"errors"
	"fmt"
)

var (
	ErrNotConfigured = errors.New("translator is not configured, set an api key or a cloud deployment first")
	ErrEmptyText     = errors.New("text is required")
)

type ConfigurationError struct {
	Field string // Missing field, empty when the whole configuration is absent
	Err   error
}

func (e *ConfigurationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s is required", e.Field)
	}
	return fmt.Sprintf("configuration error: %v", e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// ProviderError reports a failed exchange with the remote model.
// StatusCode is zero when no HTTP response was received.
type ProviderError struct {
	Provider   string
	StatusCode int
	Message    string
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		if e.Message != "" {
			return fmt.Sprintf("%s: bad status code %d: %s", e.Provider, e.StatusCode, e.Message)
		}
		return fmt.Sprintf("%s: bad status code %d", e.Provider, e.StatusCode)
	}
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

type MalformedResponseError struct {
	Response string
	Reason   string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed model response %q: %s", e.Response, e.Reason)
}
