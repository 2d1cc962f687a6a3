package extract

import "errors"

// Common extraction errors
var (
	// ErrExtractionFailed is returned when the model output is empty or not
	// valid JSON. It is a per-document failure: batch processing logs it and
	// moves on to the next document.
	ErrExtractionFailed = errors.New("AI extraction returned unusable output")

	// ErrMissingAPIKey is returned when the selected provider has no API key
	// configured.
	ErrMissingAPIKey = errors.New("missing extraction provider API key")

	// ErrUnknownProvider is returned by the factory for an unrecognized
	// provider name.
	ErrUnknownProvider = errors.New("unknown extraction provider")
)
