package models

import (
	"errors"
	"fmt"
)

// Sentinel errors
var (
	ErrNoCredentials  = errors.New("no stored credentials")
	ErrSyncInProgress = errors.New("sync already in progress")
	ErrPaperNotFound  = errors.New("paper not found")
	ErrRateLimited    = errors.New("rate limited")
)

// APIError represents an HTTP error from the remote library API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// RecordError wraps a failure while processing one remote record. The
// sync cycle continues past it.
type RecordError struct {
	Key   string
	Title string
	Err   error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("record %s (%s): %v", e.Key, e.Title, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

// SyncError provides detailed sync failure information.
type SyncError struct {
	Phase string
	Err   error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("sync %s: %v", e.Phase, e.Err)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}
