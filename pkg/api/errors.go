package api

import (
	"errors"
	"fmt"
)

// ErrorType represents the category of an error surfaced by the envelope layer
// or the transport behind it.
type ErrorType string

const (
	ErrorTypeSerialization    ErrorType = "serialization_error"
	ErrorTypeDeserialization  ErrorType = "deserialization_error"
	ErrorTypeSchemaGeneration ErrorType = "schema_generation_error"
	ErrorTypeSchemaRequired   ErrorType = "schema_required_for_typed_response"
	ErrorTypeInvalidRequest   ErrorType = "invalid_request"
	ErrorTypeAuthentication   ErrorType = "authentication_error"
	ErrorTypePermission       ErrorType = "permission_denied"
	ErrorTypeNotFound         ErrorType = "not_found"
	ErrorTypeTooManyRequests  ErrorType = "too_many_requests"
	ErrorTypeServerError      ErrorType = "server_error"
	ErrorTypeUnavailable      ErrorType = "unavailable"
	ErrorTypeTimeout          ErrorType = "timeout"
)

// APIError is a structured error with a type, an optional parameter name,
// a message, and an optional underlying cause.
//
// Two APIErrors match under errors.Is when their types are equal, so the
// package-level sentinels below can be used to test for a kind:
//
//	if errors.Is(err, api.ErrSchemaRequiredForTypedResponse) { ... }
type APIError struct {
	Type    ErrorType `json:"type"`
	Code    string    `json:"code,omitempty"`
	Param   string    `json:"param,omitempty"`
	Message string    `json:"message"`

	Err error `json:"-"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	} else if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	if e.Param != "" {
		return fmt.Sprintf("%s: %s (param: %s)", e.Type, msg, e.Param)
	}
	return fmt.Sprintf("%s: %s", e.Type, msg)
}

// Unwrap returns the underlying cause.
func (e *APIError) Unwrap() error { return e.Err }

// Is reports whether target is an *APIError of the same type.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	if !ok {
		return false
	}
	return t.Type == e.Type
}

// Sentinels for errors.Is. They carry no message and are never returned directly.
var (
	ErrSerialization                  = &APIError{Type: ErrorTypeSerialization}
	ErrDeserialization                = &APIError{Type: ErrorTypeDeserialization}
	ErrSchemaGeneration               = &APIError{Type: ErrorTypeSchemaGeneration}
	ErrSchemaRequiredForTypedResponse = &APIError{Type: ErrorTypeSchemaRequired}
	ErrInvalidRequest                 = &APIError{Type: ErrorTypeInvalidRequest}
	ErrAuthentication                 = &APIError{Type: ErrorTypeAuthentication}
	ErrPermission                     = &APIError{Type: ErrorTypePermission}
	ErrNotFound                       = &APIError{Type: ErrorTypeNotFound}
	ErrRateLimited                    = &APIError{Type: ErrorTypeTooManyRequests}
	ErrServer                         = &APIError{Type: ErrorTypeServerError}
	ErrUnavailable                    = &APIError{Type: ErrorTypeUnavailable}
	ErrTimeout                        = &APIError{Type: ErrorTypeTimeout}
)

// ErrorResponse is the error envelope returned by the Gemini API.
type ErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// NewSerializationError wraps a failure to encode a value for the wire.
func NewSerializationError(err error) *APIError {
	return &APIError{Type: ErrorTypeSerialization, Err: err}
}

// NewDeserializationError wraps a failure to decode a value from the wire.
func NewDeserializationError(err error) *APIError {
	return &APIError{Type: ErrorTypeDeserialization, Err: err}
}

// NewSchemaGenerationError wraps a schema derivation failure for the named type.
func NewSchemaGenerationError(typeName string, err error) *APIError {
	return &APIError{
		Type:    ErrorTypeSchemaGeneration,
		Param:   typeName,
		Message: "deriving response schema",
		Err:     err,
	}
}

const schemaRequiredMessage = "a response schema must be provided when using typed responses; " +
	"use WithResponseSchema or WithResponseJSONSchema to specify the expected structure"

// NewSchemaRequiredError reports a typed response configured without a schema.
func NewSchemaRequiredError() *APIError {
	return &APIError{
		Type:    ErrorTypeSchemaRequired,
		Message: schemaRequiredMessage,
	}
}

// NewInvalidRequestError creates an APIError for invalid request parameters.
func NewInvalidRequestError(param, message string) *APIError {
	return &APIError{
		Type:    ErrorTypeInvalidRequest,
		Param:   param,
		Message: message,
	}
}

// NewTransportError creates an APIError of the given type for a failure
// reported by the remote API or the network.
func NewTransportError(typ ErrorType, code, message string) *APIError {
	return &APIError{
		Type:    typ,
		Code:    code,
		Message: message,
	}
}

// AsAPIError returns the first *APIError in err's chain, if any.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
