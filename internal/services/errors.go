package services

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"

	gcs "cloud.google.com/go/storage"
	"github.com/ezparkk/site-api/internal/models"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrorKind classifies every failure the submission service reports.
type ErrorKind string

const (
	KindMissingFields           ErrorKind = "MissingFields"
	KindInvalidEmail            ErrorKind = "InvalidEmail"
	KindEmptyAfterNormalization ErrorKind = "EmptyAfterNormalization"
	KindDuplicateEntry          ErrorKind = "DuplicateEntry"
	KindConfigurationError      ErrorKind = "ConfigurationError"
	KindInvalidFile             ErrorKind = "InvalidFile"
	KindFileTooLarge            ErrorKind = "FileTooLarge"
	KindUnsupportedFileType     ErrorKind = "UnsupportedFileType"
	KindAccessDenied            ErrorKind = "AccessDenied"
	KindCanceled                ErrorKind = "Canceled"
	KindTransportError          ErrorKind = "TransportError"
	KindQuotaExceeded           ErrorKind = "QuotaExceeded"
	KindAuthRequired            ErrorKind = "AuthRequired"
	KindUploadFailed            ErrorKind = "UploadFailed"
	KindPermissionDenied        ErrorKind = "PermissionDenied"
	KindServiceUnavailable      ErrorKind = "ServiceUnavailable"
	KindPreconditionFailed      ErrorKind = "PreconditionFailed"
	KindInvalidArgument         ErrorKind = "InvalidArgument"
	KindStoreNotFound           ErrorKind = "StoreNotFound"
	KindSubmissionTimeout       ErrorKind = "SubmissionTimeout"
	KindSubmissionFailed        ErrorKind = "SubmissionFailed"
)

// Sentinels for errors.Is. They match any SubmissionError of the same kind.
var (
	ErrMissingFields           = &SubmissionError{Kind: KindMissingFields}
	ErrInvalidEmail            = &SubmissionError{Kind: KindInvalidEmail}
	ErrEmptyAfterNormalization = &SubmissionError{Kind: KindEmptyAfterNormalization}
	ErrDuplicateEntry          = &SubmissionError{Kind: KindDuplicateEntry}
	ErrConfiguration           = &SubmissionError{Kind: KindConfigurationError}
	ErrInvalidFile             = &SubmissionError{Kind: KindInvalidFile}
	ErrFileTooLarge            = &SubmissionError{Kind: KindFileTooLarge}
	ErrUnsupportedFileType     = &SubmissionError{Kind: KindUnsupportedFileType}
	ErrAccessDenied            = &SubmissionError{Kind: KindAccessDenied}
	ErrCanceled                = &SubmissionError{Kind: KindCanceled}
	ErrTransport               = &SubmissionError{Kind: KindTransportError}
	ErrQuotaExceeded           = &SubmissionError{Kind: KindQuotaExceeded}
	ErrAuthRequired            = &SubmissionError{Kind: KindAuthRequired}
	ErrUploadFailed            = &SubmissionError{Kind: KindUploadFailed}
	ErrPermissionDenied        = &SubmissionError{Kind: KindPermissionDenied}
	ErrServiceUnavailable      = &SubmissionError{Kind: KindServiceUnavailable}
	ErrPreconditionFailed      = &SubmissionError{Kind: KindPreconditionFailed}
	ErrInvalidArgument         = &SubmissionError{Kind: KindInvalidArgument}
	ErrStoreNotFound           = &SubmissionError{Kind: KindStoreNotFound}
	ErrSubmissionTimeout       = &SubmissionError{Kind: KindSubmissionTimeout}
	ErrSubmissionFailed        = &SubmissionError{Kind: KindSubmissionFailed}
)

// SubmissionError is the only error type that leaves the submission service.
// Message is safe to show to the person filling in the form; Err keeps the
// raw store error for logs.
type SubmissionError struct {
	Kind    ErrorKind
	Message string
	// BlobKey names an uploaded resume left without an application record.
	BlobKey string
	Err     error
}

func (e *SubmissionError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Kind)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

func (e *SubmissionError) Is(target error) bool {
	t, ok := target.(*SubmissionError)
	return ok && t.Kind == e.Kind
}

// KindOf reports the kind of err, or "" if it is not a SubmissionError.
func KindOf(err error) ErrorKind {
	var se *SubmissionError
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}

func newError(kind ErrorKind, msg string, cause error) *SubmissionError {
	return &SubmissionError{Kind: kind, Message: msg, Err: cause}
}

const (
	msgDuplicateEntry      = "This email is already on the waitlist!"
	msgMissingFields       = "Missing required fields. Please fill in all required information."
	msgInvalidEmail        = "Invalid email address. Please enter a valid email."
	msgEmptyAfterNormalize = "Required fields are empty after sanitization."
	msgStorageNotReady     = "Resume storage is not configured. Please set FIREBASE_STORAGE_BUCKET and verify Cloud Storage is enabled for the project."
	msgInvalidFile         = "Invalid file. Please select a valid resume file."
	msgFileTooLarge        = "File size exceeds 5MB limit. Please compress your resume."
	msgUnsupportedFileType = "Invalid file type. Please upload a PDF, DOC, or DOCX file."
	msgSubmissionTimeout   = "The application request timed out. This usually means the store's security rules are rejecting the write for the \"jobApplications\" collection. Please check the write rules."
)

// mapStorageError translates a blob store failure into an upload error kind.
func mapStorageError(err error) *SubmissionError {
	var se *SubmissionError
	if errors.As(err, &se) {
		return se
	}

	switch {
	case errors.Is(err, gcs.ErrBucketNotExist):
		return newError(KindConfigurationError, msgStorageNotReady, err)
	case errors.Is(err, context.Canceled):
		return newError(KindCanceled, "Upload was canceled. Please try again.", err)
	}

	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		switch gErr.Code {
		case http.StatusUnauthorized:
			return newError(KindAuthRequired, "Authentication required. Please check the storage credentials configuration.", err)
		case http.StatusForbidden:
			if hasQuotaReason(gErr) {
				return newError(KindQuotaExceeded, "Storage quota exceeded. Please contact support.", err)
			}
			return newError(KindAccessDenied, "Storage access denied. Please check the bucket's access rules.", err)
		case http.StatusTooManyRequests:
			return newError(KindQuotaExceeded, "Storage quota exceeded. Please contact support.", err)
		case http.StatusNotFound:
			return newError(KindConfigurationError, msgStorageNotReady, err)
		}
	}

	if isTransportError(err) {
		return newError(KindTransportError, "An unknown error occurred during upload. Please check your internet connection and try again.", err)
	}

	msg := err.Error()
	if msg == "" {
		msg = "Failed to upload resume. Please check your file and storage configuration."
	}
	return newError(KindUploadFailed, msg, err)
}

// mapStoreError translates a document store failure into a submission error
// kind. Both repositories report gRPC status codes. collection names the
// write target so permission hints point at the right rules.
func mapStoreError(err error, collection string) *SubmissionError {
	var se *SubmissionError
	if errors.As(err, &se) {
		return se
	}

	switch status.Code(err) {
	case codes.PermissionDenied:
		return newError(KindPermissionDenied, permissionMessage(collection), err)
	case codes.Unavailable:
		return newError(KindServiceUnavailable, "The database is temporarily unavailable. Please try again in a moment.", err)
	case codes.FailedPrecondition:
		return newError(KindPreconditionFailed, "The database operation failed due to a precondition. Please check the store's rules and indexes.", err)
	case codes.InvalidArgument:
		return newError(KindInvalidArgument, "Invalid data format. Please check all fields are properly filled.", err)
	case codes.NotFound:
		return newError(KindStoreNotFound, "Database not found. Please check the project configuration.", err)
	}

	msg := err.Error()
	if s, ok := status.FromError(err); ok && s.Message() != "" {
		msg = s.Message()
	}
	if msg == "" {
		msg = "Failed to submit. Please try again."
	}
	return newError(KindSubmissionFailed, msg, err)
}

func permissionMessage(collection string) string {
	keys := "name, email, role and message"
	if collection == models.JobApplicationsCollection {
		keys = "name, email, role and coverLetter"
	}
	return fmt.Sprintf("Permission denied. The store's security rules are blocking this write. Ensure the %q collection allows creates with the keys %s.", collection, keys)
}

func hasQuotaReason(e *googleapi.Error) bool {
	for _, item := range e.Errors {
		r := strings.ToLower(item.Reason)
		if strings.Contains(r, "quota") || strings.Contains(r, "ratelimit") {
			return true
		}
	}
	return false
}

func isTransportError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}
