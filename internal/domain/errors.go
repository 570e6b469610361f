package domain

import (
	"fmt"
	"strings"
)

// NotFoundError represents a missing resource.
type NotFoundError struct {
	Resource string
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

// Is enables errors.Is matching on NotFoundError.
func (e NotFoundError) Is(target error) bool {
	_, ok := target.(NotFoundError)
	if ok {
		return true
	}
	_, ok = target.(*NotFoundError)
	return ok
}

// ErrNotFound is the sentinel error for missing resources.
var ErrNotFound = NotFoundError{}

// ValidationError lists the submission fields that are missing or unacceptable.
// Nothing has been written when it is returned.
type ValidationError struct {
	Fields []string
	Reason string
}

func (e ValidationError) Error() string {
	msg := "validation failed"
	if len(e.Fields) > 0 {
		msg += ": missing or invalid " + strings.Join(e.Fields, ", ")
	}
	if e.Reason != "" {
		msg += " (" + e.Reason + ")"
	}
	return msg
}

func (e ValidationError) Is(target error) bool {
	switch target.(type) {
	case ValidationError, *ValidationError:
		return true
	}
	return false
}

// ErrValidation matches any ValidationError with errors.Is.
var ErrValidation = ValidationError{}

// UploadError means the asset backend was unreachable or rejected the bytes.
// No record exists for the submission.
type UploadError struct {
	Err error
}

func (e UploadError) Error() string {
	if e.Err == nil {
		return "asset upload failed"
	}
	return "asset upload failed: " + e.Err.Error()
}

func (e UploadError) Unwrap() error { return e.Err }

func (e UploadError) Is(target error) bool {
	switch target.(type) {
	case UploadError, *UploadError:
		return true
	}
	return false
}

// ErrUpload matches any UploadError with errors.Is.
var ErrUpload = UploadError{}

// PersistenceError means the asset is stored but the record row was not written.
// Asset is the reference to retry the table write with.
type PersistenceError struct {
	Asset AssetRef
	Err   error
}

func (e PersistenceError) Error() string {
	msg := "asset saved but record not recorded"
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e PersistenceError) Unwrap() error { return e.Err }

func (e PersistenceError) Is(target error) bool {
	switch target.(type) {
	case PersistenceError, *PersistenceError:
		return true
	}
	return false
}

// ErrPersistence matches any PersistenceError with errors.Is.
var ErrPersistence = PersistenceError{}
