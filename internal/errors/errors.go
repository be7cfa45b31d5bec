package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a planner error code.
type ErrorCode string

const (
	ErrInvalidRequest    ErrorCode = "INVALID_REQUEST"     // 400
	ErrInvalidTerm       ErrorCode = "INVALID_TERM"        // 400
	ErrNotFound          ErrorCode = "NOT_FOUND"           // 404
	ErrDuplicateCourse   ErrorCode = "DUPLICATE_COURSE"    // 409
	ErrStaleResponse     ErrorCode = "STALE_RESPONSE"      // 409
	ErrCreditCapExceeded ErrorCode = "CREDIT_CAP_EXCEEDED" // 422
	ErrNoCapacity        ErrorCode = "NO_CAPACITY"         // 422
	ErrInternal          ErrorCode = "INTERNAL"            // 500
	ErrUnavailable       ErrorCode = "UNAVAILABLE"         // 503
)

// PlanError represents a structured error with code, status, and details.
// Message is safe to show to the student as-is.
type PlanError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *PlanError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *PlanError {
	return &PlanError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewInvalidTerm creates a 400 error for a term that is not "Season Year" or
// a range that cannot be walked.
func NewInvalidTerm(term string) *PlanError {
	return &PlanError{
		Code:    ErrInvalidTerm,
		Status:  400,
		Message: fmt.Sprintf("invalid term: %q", term),
		Details: map[string]any{"term": term},
	}
}

// NewInvalidRange creates a 400 error for a start..end pair with no valid path.
func NewInvalidRange(start, end string) *PlanError {
	return &PlanError{
		Code:    ErrInvalidTerm,
		Status:  400,
		Message: fmt.Sprintf("no valid term range from %q to %q", start, end),
		Details: map[string]any{"start": start, "end": end},
	}
}

// NewNotFound creates a 404 error.
func NewNotFound(identifier string) *PlanError {
	return &PlanError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("not found: %s", identifier),
		Details: map[string]any{"identifier": identifier},
	}
}

// NewDuplicateCourse creates a 409 error for a course already in the plan.
// where names the container holding it ("the current semester", "Fall 2025").
func NewDuplicateCourse(courseID, where string) *PlanError {
	return &PlanError{
		Code:    ErrDuplicateCourse,
		Status:  409,
		Message: fmt.Sprintf("This course is already in %s!", where),
		Details: map[string]any{"course_id": courseID, "term": where},
	}
}

// NewStaleResponse creates a 409 error for a generation result superseded by
// a newer request.
func NewStaleResponse(token string) *PlanError {
	return &PlanError{
		Code:    ErrStaleResponse,
		Status:  409,
		Message: "plan generation was superseded by a newer request",
		Details: map[string]any{"request_token": token},
	}
}

// NewCreditCapExceeded creates a 422 error when a semester would exceed the cap.
func NewCreditCapExceeded(cap, current, adding int) *PlanError {
	return &PlanError{
		Code:    ErrCreditCapExceeded,
		Status:  422,
		Message: fmt.Sprintf("Cannot add course. Semester limit is %d credits.", cap),
		Details: map[string]any{"max_credits": cap, "current_credits": current, "adding_credits": adding},
	}
}

// NewNoCapacity creates a 422 error when no future semester has room.
func NewNoCapacity(cap, adding int) *PlanError {
	return &PlanError{
		Code:   ErrNoCapacity,
		Status: 422,
		Message: fmt.Sprintf(
			"No semester has room under %d credits. Remove a course or use '+ Add Elective' to rearrange.", cap),
		Details: map[string]any{"max_credits": cap, "adding_credits": adding},
	}
}

// NewUnavailable creates a 503 error for a failed collaborator call.
// The underlying cause is logged by the caller, not surfaced here.
func NewUnavailable(service string) *PlanError {
	return &PlanError{
		Code:    ErrUnavailable,
		Status:  503,
		Message: fmt.Sprintf("%s is unavailable, please try again", service),
		Details: map[string]any{"service": service},
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
// The cause is kept in Details for logging, not in the message.
func NewInternal(err error) *PlanError {
	details := map[string]any{}
	if err != nil {
		details["internal_error"] = err.Error()
	}
	return &PlanError{
		Code:    ErrInternal,
		Status:  500,
		Message: "an internal error occurred",
		Details: details,
	}
}

// Is checks if an error (or anything it wraps) is a PlanError with the given code.
func Is(err error, code ErrorCode) bool {
	var pErr *PlanError
	if stderrors.As(err, &pErr) {
		return pErr.Code == code
	}
	return false
}

// As unwraps err to a PlanError, converting anything else to an internal error.
func As(err error) *PlanError {
	var pErr *PlanError
	if stderrors.As(err, &pErr) {
		return pErr
	}
	return NewInternal(err)
}
