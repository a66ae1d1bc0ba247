package assistant

import "errors"

var (
	// ErrAssistantUnavailable indicates no generative backend can serve the request.
	ErrAssistantUnavailable = errors.New("ai assistant unavailable")
	// ErrEmptyResponse indicates the model answered with no usable content.
	ErrEmptyResponse = errors.New("ai assistant returned empty response")
	// ErrInvalidOutput indicates a structured reply could not be parsed or validated.
	ErrInvalidOutput = errors.New("invalid ai output format")
)
