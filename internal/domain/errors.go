package domain

import (
	"errors"
	"fmt"
)

// Виды ошибок. Конкретные ошибки оборачивают один из них,
// поэтому errors.Is(err, ErrInvalidState) работает для всех нарушений guard-условий.
var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidState = errors.New("invalid state")
	ErrValidation   = errors.New("validation error")
	ErrDependency   = errors.New("dependency failure")
)

// Error - бизнес-ошибка с понятной пользователю причиной
type Error struct {
	Kind   error
	Reason string
	Cause  error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Reason + ": " + e.Cause.Error()
	}
	return e.Reason
}

func (e *Error) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Kind, e.Cause}
	}
	return []error{e.Kind}
}

func newError(kind error, reason string) *Error {
	return &Error{Kind: kind, Reason: reason}
}

// Определение бизнес-ошибок
var (
	ErrUserNotFound         = newError(ErrNotFound, "user not found")
	ErrRequestNotFound      = newError(ErrNotFound, "document request not found")
	ErrAssignmentNotFound   = newError(ErrNotFound, "assignment not found")
	ErrDocumentNotFound     = newError(ErrNotFound, "document not found")
	ErrNotificationNotFound = newError(ErrNotFound, "notification not found")

	ErrNotAssignmentOwner = newError(ErrForbidden, "You can only upload documents to your own assignments")
	ErrReviewForbidden    = newError(ErrForbidden, "Only ADMIN or HR can review submissions")
	ErrDeleteForbidden    = newError(ErrForbidden, "You can only delete your own documents")
	ErrCreateForbidden    = newError(ErrForbidden, "You are not allowed to create requests for this department")
	ErrCancelForbidden    = newError(ErrForbidden, "You are not allowed to cancel this request")
	ErrReminderForbidden  = newError(ErrForbidden, "You are not allowed to send reminders")
	ErrAdminOnly          = newError(ErrForbidden, "Only ADMIN can perform this action")

	ErrRequestClosed      = newError(ErrInvalidState, "This request is no longer accepting submissions")
	ErrAlreadyApproved    = newError(ErrInvalidState, "This assignment has already been approved")
	ErrNotSubmitted       = newError(ErrInvalidState, "Can only review submitted assignments")
	ErrNotPending         = newError(ErrInvalidState, "Only pending assignments can become overdue")
	ErrInvalidTransition  = newError(ErrInvalidState, "Invalid assignment status transition")
	ErrRequestNotOpen     = newError(ErrInvalidState, "Only open requests can be cancelled")
	ErrDeleteApproved     = newError(ErrInvalidState, "Cannot delete documents of an approved assignment")
	ErrVersionUnavailable = newError(ErrInvalidState, "Concurrent upload in progress, please retry")

	ErrRejectionReasonRequired = newError(ErrValidation, "Rejection reason is required")
	ErrInvalidDecision         = newError(ErrValidation, "Decision must be APPROVED or REJECTED")
	ErrEmptyFile               = newError(ErrValidation, "File is empty")
	ErrNoTargets               = newError(ErrValidation, "Request has no matching employees")
	ErrNoReminderTargets       = newError(ErrValidation, "No assignments match the reminder selection")
)

// Validationf создаёт ошибку валидации с произвольной причиной
func Validationf(format string, args ...any) error {
	return &Error{Kind: ErrValidation, Reason: fmt.Sprintf(format, args...)}
}

// DependencyError оборачивает сбой хранилища, файлового хранилища или почты
func DependencyError(op string, err error) error {
	if err == nil {
		return nil
	}
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return err
	}
	return &Error{Kind: ErrDependency, Reason: op, Cause: err}
}
