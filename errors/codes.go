package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Pipeline-level errors (fatal, abort the run)
const (
	// ErrCodeNoTranscribableAudio indicates segmentation and bounding produced zero chunks.
	ErrCodeNoTranscribableAudio ErrorCode = "NO_TRANSCRIBABLE_AUDIO"
	// ErrCodeBackendUnavailable indicates the selected backend failed its pre-run availability check.
	ErrCodeBackendUnavailable ErrorCode = "BACKEND_UNAVAILABLE"
	// ErrCodeStagingFailed indicates chunk audio could not be staged for the backend.
	ErrCodeStagingFailed ErrorCode = "STAGING_FAILED"
	// ErrCodeCancelled indicates the caller cancelled the run.
	ErrCodeCancelled ErrorCode = "CANCELLED"
)

// Per-chunk transcription errors (recovered; the run continues)
const (
	// ErrCodeUnintelligible indicates the backend could not make sense of the chunk audio.
	ErrCodeUnintelligible ErrorCode = "UNINTELLIGIBLE"
	// ErrCodeServiceUnavailable indicates the backend service could not be reached or refused the request.
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	// ErrCodeConfiguration indicates the backend is misconfigured (bad model tier, missing key).
	ErrCodeConfiguration ErrorCode = "CONFIGURATION_ERROR"
	// ErrCodeTimeout indicates a chunk transcription exceeded its per-chunk deadline.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
	// ErrCodeRateLimited indicates the backend rejected the call due to quota limits.
	ErrCodeRateLimited ErrorCode = "RATE_LIMITED"
)

// Acquisition errors (surfaced before the pipeline runs)
const (
	// ErrCodeDownloadFailed indicates source audio could not be fetched.
	ErrCodeDownloadFailed ErrorCode = "DOWNLOAD_FAILED"
	// ErrCodeDecodeFailed indicates downloaded audio could not be decoded to PCM.
	ErrCodeDecodeFailed ErrorCode = "DECODE_FAILED"
)

// Input errors
const (
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeServiceUnavailable: true,
	ErrCodeTimeout:            true,
	ErrCodeRateLimited:        true,
	ErrCodeDownloadFailed:     true,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}

var chunkCodes = map[ErrorCode]bool{
	ErrCodeUnintelligible:     true,
	ErrCodeServiceUnavailable: true,
	ErrCodeConfiguration:      true,
	ErrCodeTimeout:            true,
	ErrCodeRateLimited:        true,
}

// IsChunkCode returns true if the code describes a per-chunk failure that the
// pipeline absorbs into a failed chunk result instead of aborting the run.
func IsChunkCode(code ErrorCode) bool {
	return chunkCodes[code]
}
