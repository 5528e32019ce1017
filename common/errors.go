package common

import (
	"errors"
	"fmt"
)

//
// Base Types
//

type BaseError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Cause   error                  `json:"cause"`
	Details map[string]interface{} `json:"details"`
}

func (e *BaseError) Unwrap() error {
	return e.Cause
}

func (e *BaseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s -> %s", e.Code, e.Message, e.Cause.Error())
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BaseError) CodeChain() string {
	if e.Cause != nil {
		var be interface{ CodeChain() string }
		if errors.As(e.Cause, &be) {
			return fmt.Sprintf("%s <- %s", e.Code, be.CodeChain())
		}
	}

	return e.Code
}

// HasErrorCode reports whether any error in err's chain carries one of the codes.
func HasErrorCode(err error, codes ...string) bool {
	for err != nil {
		if be, ok := err.(interface{ GetCode() string }); ok {
			for _, code := range codes {
				if be.GetCode() == code {
					return true
				}
			}
		}
		err = errors.Unwrap(err)
	}
	return false
}

func (e *BaseError) GetCode() string {
	return e.Code
}

//
// Usage Errors
//

type ErrInvalidInputKind struct{ BaseError }

const ErrCodeInvalidInputKind = "ErrInvalidInputKind"

var NewErrInvalidInputKind = func(key string) error {
	return &ErrInvalidInputKind{
		BaseError{
			Code:    ErrCodeInvalidInputKind,
			Message: "cannot look up a key in a null value",
			Details: map[string]interface{}{
				"key": key,
			},
		},
	}
}

type ErrKeyNotFound struct{ BaseError }

const ErrCodeKeyNotFound = "ErrKeyNotFound"

var NewErrKeyNotFound = func(key string) error {
	return &ErrKeyNotFound{
		BaseError{
			Code:    ErrCodeKeyNotFound,
			Message: fmt.Sprintf("no value found for key '%s'", key),
			Details: map[string]interface{}{
				"key": key,
			},
		},
	}
}

//
// Schema Errors
//

type ErrInvalidSchema struct{ BaseError }

const ErrCodeInvalidSchema = "ErrInvalidSchema"

var NewErrInvalidSchema = func(reason string, cause error) error {
	return &ErrInvalidSchema{
		BaseError{
			Code:    ErrCodeInvalidSchema,
			Message: reason,
			Cause:   cause,
		},
	}
}

type ErrSchemaNotFound struct{ BaseError }

const ErrCodeSchemaNotFound = "ErrSchemaNotFound"

var NewErrSchemaNotFound = func(method string, dir string) error {
	return &ErrSchemaNotFound{
		BaseError{
			Code:    ErrCodeSchemaNotFound,
			Message: fmt.Sprintf("no schema document for method '%s'", method),
			Details: map[string]interface{}{
				"method": method,
				"dir":    dir,
			},
		},
	}
}

//
// Validation Errors
//

type ErrValidationMismatch struct{ BaseError }

const ErrCodeValidationMismatch = "ErrValidationMismatch"

var NewErrValidationMismatch = func(path []string, value interface{}, cause error) error {
	return &ErrValidationMismatch{
		BaseError{
			Code:    ErrCodeValidationMismatch,
			Message: "data does not conform to schema",
			Cause:   cause,
			Details: map[string]interface{}{
				"path":  path,
				"value": value,
			},
		},
	}
}

// Path returns the keys leading to the offending field, outermost first.
func (e *ErrValidationMismatch) Path() []string {
	if p, ok := e.Details["path"].([]string); ok {
		return p
	}
	return nil
}

// Value returns the instance value that failed validation.
func (e *ErrValidationMismatch) Value() interface{} {
	return e.Details["value"]
}

type ErrEmptyDataset struct{ BaseError }

const ErrCodeEmptyDataset = "ErrEmptyDataset"

var NewErrEmptyDataset = func() error {
	return &ErrEmptyDataset{
		BaseError{
			Code:    ErrCodeEmptyDataset,
			Message: "schema can not be validated against empty data",
		},
	}
}

//
// Assertion Errors
//

type ErrAggregatedFailure struct {
	BaseError
	Report string `json:"-"`
}

const ErrCodeAggregatedFailure = "ErrAggregatedFailure"

var NewErrAggregatedFailure = func(count int, report string) error {
	return &ErrAggregatedFailure{
		BaseError: BaseError{
			Code:    ErrCodeAggregatedFailure,
			Message: fmt.Sprintf("%d expectation(s) failed, check stderr for the list of assertion errors", count),
			Details: map[string]interface{}{
				"failures": count,
			},
		},
		Report: report,
	}
}

func (e *ErrAggregatedFailure) Failures() int {
	if c, ok := e.Details["failures"].(int); ok {
		return c
	}
	return 0
}

//
// Configuration Errors
//

type ErrInvalidConfig struct{ BaseError }

const ErrCodeInvalidConfig = "ErrInvalidConfig"

var NewErrInvalidConfig = func(message string) error {
	return &ErrInvalidConfig{
		BaseError{
			Code:    ErrCodeInvalidConfig,
			Message: message,
		},
	}
}

type ErrSampleNotFound struct{ BaseError }

const ErrCodeSampleNotFound = "ErrSampleNotFound"

var NewErrSampleNotFound = func(method string) error {
	return &ErrSampleNotFound{
		BaseError{
			Code:    ErrCodeSampleNotFound,
			Message: fmt.Sprintf("no recorded sample for method '%s'", method),
			Details: map[string]interface{}{
				"method": method,
			},
		},
	}
}

//
// Input Errors
//

type ErrInvalidDocument struct{ BaseError }

const ErrCodeInvalidDocument = "ErrInvalidDocument"

var NewErrInvalidDocument = func(format string, cause error) error {
	return &ErrInvalidDocument{
		BaseError{
			Code:    ErrCodeInvalidDocument,
			Message: fmt.Sprintf("could not decode %s document", format),
			Cause:   cause,
			Details: map[string]interface{}{
				"format": format,
			},
		},
	}
}
