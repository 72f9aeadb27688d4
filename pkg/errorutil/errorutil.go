package errorutil

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes for the conversation and lifecycle engine. Every one of these
// is recoverable: it is rendered back to the party that triggered it and
// never aborts the process.
const (
	CodeInvalidSelection   = "INVALID_SELECTION"
	CodeAttachmentLimit    = "ATTACHMENT_LIMIT_EXCEEDED"
	CodeIncompleteSubmit   = "INCOMPLETE_SUBMISSION"
	CodeTicketNotFound     = "TICKET_NOT_FOUND"
	CodeTicketClosed       = "TICKET_CLOSED"
	CodeInvalidTransition  = "INVALID_TRANSITION"
	CodeDeliveryFailure    = "DELIVERY_FAILURE"
	CodeValidationFailed   = "VALIDATION_FAILED"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeInternal           = "INTERNAL_ERROR"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewInvalidSelection(option string) error {
	return NewDomainError(CodeInvalidSelection, "unrecognized option", http.StatusBadRequest, map[string]any{"option": option})
}

func NewAttachmentLimit(max int) error {
	return NewDomainError(CodeAttachmentLimit, fmt.Sprintf("at most %d attachments per ticket", max), http.StatusBadRequest, map[string]any{"max": max})
}

func NewIncompleteSubmission() error {
	return NewDomainError(CodeIncompleteSubmit, "ticket description is required before submitting", http.StatusBadRequest, nil)
}

func NewTicketNotFound(id int64) error {
	return NewDomainError(CodeTicketNotFound, fmt.Sprintf("ticket #%d not found", id), http.StatusNotFound, map[string]any{"ticket_id": id})
}

func NewTicketClosed(id int64) error {
	return NewDomainError(CodeTicketClosed, fmt.Sprintf("ticket #%d is closed", id), http.StatusConflict, map[string]any{"ticket_id": id})
}

func NewInvalidTransition(from, to string) error {
	return NewDomainError(CodeInvalidTransition, fmt.Sprintf("cannot move ticket from %s to %s", from, to), http.StatusConflict, map[string]any{"from": from, "to": to})
}

func NewDeliveryFailure(err error) error {
	return &DomainError{
		Code:       CodeDeliveryFailure,
		Message:    "message could not be delivered",
		HTTPStatus: http.StatusBadGateway,
		Err:        err,
	}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidationFailed, message, http.StatusBadRequest, details)
}

func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthorized, message, http.StatusUnauthorized, nil)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// HasCode reports whether err is a DomainError carrying the given code.
func HasCode(err error, code string) bool {
	var domainErr *DomainError
	if !errors.As(err, &domainErr) {
		return false
	}
	return domainErr.Code == code
}
