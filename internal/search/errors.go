package search

import "errors"

// ErrIndexUnavailable is returned when search is invoked and the current
// snapshot has no indexable content.
var ErrIndexUnavailable = errors.New("search index has no indexable content")

// ErrInferenceUnavailable is returned when a vector mode is requested but no
// inferencer was configured to embed the query.
var ErrInferenceUnavailable = errors.New("no inferencer configured for vector search")

// ValidationError reports a malformed query: empty input, or a text/image
// payload that does not match the chosen mode's modality.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid search query: " + e.Reason
}
