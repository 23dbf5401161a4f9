package consultation

import "errors"

var (
	// ErrInvalidInput means the message was absent or too long. Nothing is
	// logged.
	ErrInvalidInput = errors.New("invalid input")

	// ErrTokenizerUnavailable means the tokenizer could not be built.
	// Nothing is logged.
	ErrTokenizerUnavailable = errors.New("tokenizer unavailable")

	// ErrPersistence means the response was composed but could not be
	// logged. The response must not be treated as delivered.
	ErrPersistence = errors.New("interaction log write failed")

	ErrExportUnavailable = errors.New("history export is not configured")
)
