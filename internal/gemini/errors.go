package gemini

import (
	"errors"
	"fmt"
	"time"
)

// ErrStoreNotConfigured is returned by generation calls when no File Search
// store name is configured
var ErrStoreNotConfigured = errors.New("file search store name is not configured (set EMAIL_WRITER_FILE_SEARCH_STORE_NAME)")

// TimeoutError reports an upload whose operation did not finish within MaxWait
type TimeoutError struct {
	FileName string
	MaxWait  time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("upload of %s did not complete within %s", e.FileName, e.MaxWait)
}

// UploadFailedError reports an upload whose operation finished with an error
type UploadFailedError struct {
	FileName string
	Status   *Status
}

func (e *UploadFailedError) Error() string {
	if e.Status == nil {
		return fmt.Sprintf("upload of %s failed", e.FileName)
	}
	return fmt.Sprintf("upload of %s failed: %s (code %d)", e.FileName, e.Status.Message, e.Status.Code)
}
