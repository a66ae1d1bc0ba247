package eco

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidActionID indicates a submission named an action missing from the catalog.
	ErrInvalidActionID = errors.New("invalid action id")
	// ErrInvalidConfiguration indicates the catalog or badge table failed validation.
	ErrInvalidConfiguration = errors.New("invalid eco configuration")
	// ErrMissingSessionID indicates a session operation without an identifier.
	ErrMissingSessionID = errors.New("session id is required")
	// ErrSessionOwnership indicates a session id that belongs to another user.
	ErrSessionOwnership = errors.New("session belongs to another user")
)

// InvalidActionIDError names every unknown id of a rejected submission.
type InvalidActionIDError struct {
	IDs []string
}

func (e *InvalidActionIDError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidActionID, strings.Join(e.IDs, ", "))
}

func (e *InvalidActionIDError) Unwrap() error {
	return ErrInvalidActionID
}

// ConfigurationError lists every problem found while validating configuration.
type ConfigurationError struct {
	Problems []string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidConfiguration, strings.Join(e.Problems, "; "))
}

func (e *ConfigurationError) Unwrap() error {
	return ErrInvalidConfiguration
}
