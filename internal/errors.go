package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

type ErrorType string

const (
	ErrorTypeValidation     ErrorType = "VALIDATION_ERROR"
	ErrorTypeNotFound       ErrorType = "NOT_FOUND"
	ErrorTypeUnauthorized   ErrorType = "UNAUTHORIZED"
	ErrorTypeForbidden      ErrorType = "FORBIDDEN"
	ErrorTypeConflict       ErrorType = "CONFLICT"
	ErrorTypeInvalidState   ErrorType = "INVALID_STATE"
	ErrorTypeInvalidBalance ErrorType = "INVALID_BALANCE"
	ErrorTypeInternal       ErrorType = "INTERNAL_ERROR"
)

type ErrorCode string

const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidDate      ErrorCode = "INVALID_DATE"
	ErrCodeInvalidPeriod    ErrorCode = "INVALID_PERIOD"
	ErrCodeInvalidAmount    ErrorCode = "INVALID_AMOUNT"

	ErrCodeLeaveTypeNotFound      ErrorCode = "LEAVE_TYPE_NOT_FOUND"
	ErrCodeLeaveTypeDuplicateName ErrorCode = "LEAVE_TYPE_DUPLICATE_NAME"
	ErrCodeLeaveTypeDisabled      ErrorCode = "LEAVE_TYPE_DISABLED"
	ErrCodeDefaultTypeDisabled    ErrorCode = "DEFAULT_TYPE_CANNOT_BE_DISABLED"

	ErrCodeBalanceNotFound      ErrorCode = "BALANCE_NOT_FOUND"
	ErrCodeBalanceAlreadyExists ErrorCode = "BALANCE_ALREADY_EXISTS"
	ErrCodeBalanceNegative      ErrorCode = "BALANCE_NEGATIVE"
	ErrCodeBalanceExceedsMax    ErrorCode = "BALANCE_EXCEEDS_MAX"
	ErrCodeInvalidMaxBalance    ErrorCode = "INVALID_MAX_BALANCE"

	ErrCodeAccrualNotFound              ErrorCode = "ACCRUAL_NOT_FOUND"
	ErrCodeAccrualAlreadyProcessed      ErrorCode = "ACCRUAL_ALREADY_PROCESSED"
	ErrCodeNoBalancesConfigured         ErrorCode = "NO_BALANCES_CONFIGURED"
	ErrCodeCarryForwardAlreadyProcessed ErrorCode = "CARRY_FORWARD_ALREADY_PROCESSED"

	ErrCodeLeaveRequestNotFound  ErrorCode = "LEAVE_REQUEST_NOT_FOUND"
	ErrCodeInvalidRequestStatus  ErrorCode = "INVALID_REQUEST_STATUS"
	ErrCodeReasonRequired        ErrorCode = "REASON_REQUIRED"
	ErrCodeDocumentRequired      ErrorCode = "DOCUMENT_REQUIRED"
	ErrCodeDurationExceeded      ErrorCode = "DURATION_EXCEEDS_MAX"
	ErrCodeRejectionReasonNeeded ErrorCode = "REJECTION_REASON_REQUIRED"
	ErrCodeNotRequestOwner       ErrorCode = "NOT_REQUEST_OWNER"
	ErrCodeApproverNotAllowed    ErrorCode = "APPROVER_NOT_ALLOWED"

	ErrCodeEmployeeNotFound     ErrorCode = "EMPLOYEE_NOT_FOUND"
	ErrCodeHolidayNotFound      ErrorCode = "HOLIDAY_NOT_FOUND"
	ErrCodeHolidayDuplicate     ErrorCode = "HOLIDAY_DUPLICATE_DATE"
	ErrCodeNotificationNotFound ErrorCode = "NOTIFICATION_NOT_FOUND"
	ErrCodeUnauthorizedAccess   ErrorCode = "UNAUTHORIZED_ACCESS"

	ErrCodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	ErrCodeUserInactive       ErrorCode = "USER_INACTIVE"
	ErrCodeInvalidToken       ErrorCode = "INVALID_TOKEN"
	ErrCodeTokenExpired       ErrorCode = "TOKEN_EXPIRED"
)

type AppError struct {
	Type       ErrorType   `json:"type"`
	Code       ErrorCode   `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	StatusCode int         `json:"-"`
	Cause      error       `json:"-"`
}

func (e *AppError) Error() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok && len(validationErrors.Errors) > 0 {
			return validationErrors.Errors[0].Message
		}
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches on Type and Code so callers can compare against the package
// level sentinels with errors.Is.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Code == t.Code
}

func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

func (e *AppError) WithDetails(details interface{}) *AppError {
	e.Details = details
	return e
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func NewValidationError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func NewValidationFieldError(field, message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       ErrCodeValidationFailed,
		Message:    "Validation failed",
		StatusCode: http.StatusBadRequest,
		Details: ValidationErrors{
			Errors: []ValidationError{
				{Field: field, Message: message, Code: string(code)},
			},
		},
	}
}

func NewNotFoundError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

func NewUnauthorizedError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeUnauthorized,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

func NewForbiddenError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeForbidden,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusForbidden,
	}
}

func NewConflictError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

func NewStateError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeInvalidState,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

func NewInvalidBalanceError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeInvalidBalance,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusUnprocessableEntity,
	}
}

func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// Sentinels are compared with errors.Is; never call WithCause/WithDetails on them.
var (
	ErrLeaveTypeNotFound    = NewNotFoundError("leave type not found", ErrCodeLeaveTypeNotFound)
	ErrLeaveTypeDisabled    = NewValidationError("leave type is disabled", ErrCodeLeaveTypeDisabled)
	ErrBalanceNotFound      = NewNotFoundError("employee balance not found", ErrCodeBalanceNotFound)
	ErrAccrualNotFound      = NewNotFoundError("leave accrual not found", ErrCodeAccrualNotFound)
	ErrLeaveRequestNotFound = NewNotFoundError("leave request not found", ErrCodeLeaveRequestNotFound)
	ErrEmployeeNotFound     = NewNotFoundError("employee not found", ErrCodeEmployeeNotFound)
	ErrHolidayNotFound      = NewNotFoundError("public holiday not found", ErrCodeHolidayNotFound)
	ErrNotificationNotFound = NewNotFoundError("notification not found", ErrCodeNotificationNotFound)
	ErrUnauthorizedAccess   = NewForbiddenError("unauthorized access", ErrCodeUnauthorizedAccess)

	ErrInvalidCredentials = NewUnauthorizedError("Invalid email or password", ErrCodeInvalidCredentials)
	ErrUserInactive       = NewForbiddenError("User account is inactive", ErrCodeUserInactive)
	ErrInvalidToken       = NewUnauthorizedError("Invalid token", ErrCodeInvalidToken)
	ErrTokenExpired       = NewUnauthorizedError("Token has expired", ErrCodeTokenExpired)
)

func IsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsErrorType reports whether err is an AppError of the given type.
func IsErrorType(err error, t ErrorType) bool {
	appErr, ok := IsAppError(err)
	return ok && appErr.Type == t
}

type Response struct {
	Error *AppError `json:"error"`
}

func (e *AppError) ToHTTPResponse() (int, interface{}) {
	return e.StatusCode, Response{Error: e}
}

func (e *AppError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    ErrorType   `json:"type"`
		Code    ErrorCode   `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details,omitempty"`
	}{
		Type:    e.Type,
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
}
