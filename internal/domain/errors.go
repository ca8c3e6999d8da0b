package domain

import "errors"

// Domain errors
var (
	ErrFileTypeRejected   = errors.New("file type rejected")
	ErrFileTooLarge       = errors.New("file too large")
	ErrExtractionFailed   = errors.New("extraction failed")
	ErrUploadFailed       = errors.New("upload failed")
	ErrRecordInsertFailed = errors.New("record insert failed")
	ErrSynthesisFailed    = errors.New("synthesis failed")
	ErrSecretLookupFailed = errors.New("secret lookup failed")

	ErrSuperseded         = errors.New("superseded by a newer selection")
	ErrNoDocument         = errors.New("no document selected")
	ErrNewspaperNotFound  = errors.New("newspaper not found")
	ErrPersistenceOff     = errors.New("persistence is not configured")
	ErrSynthesizerMissing = errors.New("no voice api configured")
)

// ErrorKind names a user-facing failure category.
type ErrorKind string

const (
	KindFileTypeRejected   ErrorKind = "file_type_rejected"
	KindFileTooLarge       ErrorKind = "file_too_large"
	KindExtractionFailed   ErrorKind = "extraction_failed"
	KindUploadFailed       ErrorKind = "upload_failed"
	KindRecordInsertFailed ErrorKind = "record_insert_failed"
	KindSynthesisFailed    ErrorKind = "synthesis_failed"
	KindSecretLookupFailed ErrorKind = "secret_lookup_failed"
	KindUnknown            ErrorKind = "unknown"
)

var errorKinds = []struct {
	err  error
	kind ErrorKind
}{
	{ErrFileTypeRejected, KindFileTypeRejected},
	{ErrFileTooLarge, KindFileTooLarge},
	{ErrExtractionFailed, KindExtractionFailed},
	{ErrUploadFailed, KindUploadFailed},
	{ErrRecordInsertFailed, KindRecordInsertFailed},
	// secret lookup failures are wrapped in synthesis failures, so check them first
	{ErrSecretLookupFailed, KindSecretLookupFailed},
	{ErrSynthesisFailed, KindSynthesisFailed},
}

// KindOf classifies err by the domain sentinel it wraps.
func KindOf(err error) ErrorKind {
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindUnknown
}

// ValidationError represents a validation error with field and message information.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return e.Field + ": " + e.Message
	}
	return e.Message
}
