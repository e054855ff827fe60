package gather

import (
	"errors"
	"fmt"
)

// Error kinds recorded on SourceRecord entries.
const (
	KindValidation = "validation"
	KindNetwork    = "network"
	KindExtraction = "extraction"
	KindStorage    = "storage"
	KindInternal   = "internal"
)

// ValidationError reports malformed call input. It is the only error kind
// that crosses the orchestrator boundary.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return "validation: " + e.Msg
}

// NetworkError reports a transport or HTTP failure for one URL. StatusCode is
// zero when the request never produced a response.
type NetworkError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("network: fetch %s: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("network: fetch %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// ExtractionError reports a content-parsing failure for one document.
type ExtractionError struct {
	URL string
	Err error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction: %s: %v", e.URL, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// StorageError reports a snapshot write failure. It is logged at the session
// boundary, never raised to the caller of Run.
type StorageError struct {
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Path, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// KindOf maps an error to the taxonomy used in ErrorRecord.Kind, looking
// through wrapping.
func KindOf(err error) string {
	var (
		validationErr *ValidationError
		networkErr    *NetworkError
		extractionErr *ExtractionError
		storageErr    *StorageError
	)
	switch {
	case errors.As(err, &validationErr):
		return KindValidation
	case errors.As(err, &networkErr):
		return KindNetwork
	case errors.As(err, &extractionErr):
		return KindExtraction
	case errors.As(err, &storageErr):
		return KindStorage
	default:
		return KindInternal
	}
}
