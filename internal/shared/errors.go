package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Resolution errors, recovered by falling back to a single best-effort item
	ErrProbeFailed = fmt.Errorf("probe failed")

	// Acquisition errors
	ErrAcquireFailed = fmt.Errorf("acquisition failed")
	ErrUndersized    = fmt.Errorf("file below minimum viable size")

	// Transcode errors
	ErrTranscodeFailed   = fmt.Errorf("transcode failed")
	ErrTranscoderMissing = fmt.Errorf("transcoder binary not found")

	// Enrichment errors, always swallowed by the pipeline
	ErrEnrichFailed  = fmt.Errorf("enrichment failed")
	ErrLookupMiss    = fmt.Errorf("lookup returned no result")
	ErrTagFailed     = fmt.Errorf("tag write failed")
	ErrAPIRequest    = fmt.Errorf("API request failed")
	ErrRateLimited   = fmt.Errorf("rate limited")
	ErrCacheDisabled = fmt.Errorf("lookup cache disabled")

	// Persistence errors
	ErrRecordNotFound = fmt.Errorf("record not found")

	// Process-level errors
	ErrInterrupted    = fmt.Errorf("interrupted")
	ErrOutputLocked   = fmt.Errorf("output directory is locked by another run")
	ErrAttemptsFailed = fmt.Errorf("all attempts failed")
	ErrToolsMissing   = fmt.Errorf("required tools not found")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
