// internal/errors/errors.go
package appErrors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrSaveInProgress = errors.New("a save is in progress")
	ErrVirtualParent  = errors.New("virtual campaign items cannot be duplicated")
	ErrParentNotFound = errors.New("parent campaign item not found")
	ErrNotVirtual     = errors.New("only virtual campaign items can be deleted")
	ErrRowNotFound    = errors.New("campaign item row not found")
	ErrNotNumberSet   = errors.New("field does not hold store numbers")
)

// ErrCampaignItemNotFound is returned when a persisted item does not exist
type ErrCampaignItemNotFound struct {
	ID string
}

func (e *ErrCampaignItemNotFound) Error() string {
	return fmt.Sprintf("campaign item with ID %s not found", e.ID)
}

func NewCampaignItemNotFound(id string) error {
	return &ErrCampaignItemNotFound{ID: id}
}

// ErrSessionNotFound is returned for unknown or expired grid sessions
type ErrSessionNotFound struct {
	ID string
}

func (e *ErrSessionNotFound) Error() string {
	return fmt.Sprintf("evaluation session %s not found", e.ID)
}

func NewSessionNotFound(id string) error {
	return &ErrSessionNotFound{ID: id}
}

// ErrAccountNotFound is returned when an account does not exist
type ErrAccountNotFound struct {
	ID string
}

func (e *ErrAccountNotFound) Error() string {
	return fmt.Sprintf("account with ID %s not found", e.ID)
}

func NewAccountNotFound(id string) error {
	return &ErrAccountNotFound{ID: id}
}

// FieldValidationError reports a draft value failing a format rule
type FieldValidationError struct {
	RowID   string
	Field   string
	Message string
}

func (e *FieldValidationError) Error() string {
	return e.Message
}

func NewFieldValidation(rowID, field, message string) error {
	return &FieldValidationError{RowID: rowID, Field: field, Message: message}
}

// RequestValidationError lists the request fields failing their rules
type RequestValidationError struct {
	Fields map[string]string
}

func (e *RequestValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for f, rule := range e.Fields {
		parts = append(parts, f+" is "+rule)
	}
	sort.Strings(parts)
	return "invalid request: " + strings.Join(parts, ", ")
}

// ABLabelError reports a missing or duplicated A/B test label
type ABLabelError struct {
	Label   string
	Message string
}

func (e *ABLabelError) Error() string {
	return e.Message
}

func NewABLabel(label, message string) error {
	return &ABLabelError{Label: label, Message: message}
}

// Backend error codes
const (
	CodeEntityIsDeleted = "ENTITY_IS_DELETED"
	CodeDuplicateValue  = "DUPLICATE_VALUE"
	CodeInvalidField    = "INVALID_FIELD"
)

// ErrorEntry is one (code, message) pair returned by the backend
type ErrorEntry struct {
	Code    string `json:"errorCode"`
	Message string `json:"message"`
}

// FieldErrors lists the backend messages for one field
type FieldErrors struct {
	Field    string       `json:"field"`
	Messages []ErrorEntry `json:"messages"`
}

// BackendError is a structured rejection from the persistence layer
type BackendError struct {
	Errors      []ErrorEntry  `json:"errors,omitempty"`
	FieldErrors []FieldErrors `json:"fieldErrors,omitempty"`
	Message     string        `json:"message,omitempty"`
	Err         error         `json:"-"`
}

func (e *BackendError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	parts := make([]string, 0, len(e.Errors))
	for _, entry := range e.Errors {
		parts = append(parts, entry.Code+"- "+entry.Message)
	}
	if msg := e.FirstFieldMessage(); msg != "" {
		parts = append(parts, msg)
	}
	if len(parts) == 0 && e.Err != nil {
		return e.Err.Error()
	}
	return strings.Join(parts, "; ")
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// FirstFieldMessage returns the first message of the first field with errors.
func (e *BackendError) FirstFieldMessage() string {
	for _, fe := range e.FieldErrors {
		if len(fe.Messages) > 0 {
			return fe.Messages[0].Message
		}
	}
	return ""
}

// IsValidation reports whether err was produced by local validation.
func IsValidation(err error) bool {
	var fv *FieldValidationError
	var ab *ABLabelError
	var req *RequestValidationError
	return errors.As(err, &fv) || errors.As(err, &ab) || errors.As(err, &req)
}

// IsNotFound reports whether err names a missing item, row or session.
func IsNotFound(err error) bool {
	var item *ErrCampaignItemNotFound
	var session *ErrSessionNotFound
	var account *ErrAccountNotFound
	return errors.As(err, &item) || errors.As(err, &session) || errors.As(err, &account) ||
		errors.Is(err, ErrRowNotFound) || errors.Is(err, ErrParentNotFound)
}
