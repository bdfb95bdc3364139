package engine

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/parakeet-chat/parakeet/src/provider"
)

// Kind labels an error for presentation across the background/interactive
// boundary. Errors cross that boundary as (kind, message) pairs, never as
// raw panics.
type Kind string

const (
	KindCapability   Kind = "capability"
	KindModelCatalog Kind = "model_catalog"
	KindTransient    Kind = "transient_provider"
	KindFatal        Kind = "fatal_provider"
	KindBusy         Kind = "busy"
	KindUnknown      Kind = "unknown"
)

// CapabilityError reports a request needing a modality the target model
// does not support. Raised before any network call.
type CapabilityError struct {
	Model      string
	Capability provider.Capability
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("model %s does not support %s", e.Model, e.Capability)
}

// ModelCatalogError reports a failed model list fetch. Callers degrade to
// an empty list and surface it as a warning.
type ModelCatalogError struct {
	Provider string
	Err      error
}

func (e *ModelCatalogError) Error() string {
	return fmt.Sprintf("fetching %s model catalog: %v", e.Provider, e.Err)
}

func (e *ModelCatalogError) Unwrap() error { return e.Err }

// TransientProviderError reports a retryable provider failure such as a
// network error or rate limit. The core never retries on its own; retry is
// a user-initiated resubmission.
type TransientProviderError struct {
	Provider string
	Err      error
}

func (e *TransientProviderError) Error() string {
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *TransientProviderError) Unwrap() error { return e.Err }

// FatalProviderError reports a non-retryable provider failure such as
// invalid credentials or an unsupported request.
type FatalProviderError struct {
	Provider string
	Err      error
}

func (e *FatalProviderError) Error() string {
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *FatalProviderError) Unwrap() error { return e.Err }

// KindOf classifies an error for the presentation adapter.
func KindOf(err error) Kind {
	var (
		capErr   *CapabilityError
		catErr   *ModelCatalogError
		transErr *TransientProviderError
		fatalErr *FatalProviderError
	)
	switch {
	case errors.As(err, &capErr):
		return KindCapability
	case errors.As(err, &catErr):
		return KindModelCatalog
	case errors.As(err, &transErr):
		return KindTransient
	case errors.As(err, &fatalErr):
		return KindFatal
	default:
		return KindUnknown
	}
}

// classifyStatus wraps an SDK error by HTTP status. Rate limits and server
// errors are transient; auth and request errors are fatal.
func classifyStatus(providerName string, status int, err error) error {
	if status == 429 || status >= 500 {
		return &TransientProviderError{Provider: providerName, Err: err}
	}
	return &FatalProviderError{Provider: providerName, Err: err}
}

// classifyNet wraps errors with no HTTP status. Timeouts and connection
// failures are transient.
func classifyNet(providerName string, err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
		return &TransientProviderError{Provider: providerName, Err: err}
	}
	return &FatalProviderError{Provider: providerName, Err: err}
}
