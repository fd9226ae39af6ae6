package types

import "errors"

// Error taxonomy for the recommendation pipeline.
//
// Configuration errors are fatal for the invocation and must not be retried
// without reconfiguration. Core failures (store reads, the ranker call)
// propagate to the caller. Enrichment failures (query parsing, candidate
// search) are downgraded locally and never surface as errors.
var (
	// ErrMissingAPIKey means the Gemini credential was not configured.
	ErrMissingAPIKey = errors.New("gemini api key not configured")

	// ErrPlacesUnavailable wraps network/HTTP failures from the place-search
	// collaborator, distinguishable from a legitimate empty result.
	ErrPlacesUnavailable = errors.New("places search unavailable")

	// ErrNotFound is returned by repositories when a row does not exist.
	ErrNotFound = errors.New("not found")
)
