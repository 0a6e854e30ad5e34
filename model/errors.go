package model

import (
	"errors"
	"net/http"
)

type ErrorKind int

const (
	ErrorKindNotFound ErrorKind = iota + 1
	ErrorKindRateLimited
	ErrorKindUpstreamMessage
	ErrorKindGenericAPI
	ErrorKindUnexpected
)

// Code returns the reason code sent to api consumers
func (k ErrorKind) Code() string {
	switch k {
	case ErrorKindNotFound:
		return "NOT_FOUND"
	case ErrorKindRateLimited:
		return "RATE_LIMIT_REACHED"
	case ErrorKindUpstreamMessage:
		return "UPSTREAM_ERROR"
	case ErrorKindGenericAPI:
		return "FETCH_ERROR"
	default:
		return "UNEXPECTED_ERROR"
	}
}

const (
	MessageNotFound       = "User or repository not found."
	MessageRateLimited    = "Rate limit exceeded. Please try again later."
	MessageGenericAPI     = "Unexpected API error occurred."
	MessageUnknown        = "An unknown error occurred."
	MessageNoRepositories = "This user has no public repositories."
	MessageNoCommits      = "No commits found for this repository."
)

// ErrEmptyResult marks an empty list returned by github
// the empty list is still reported as a not found error, this lets callers tell it apart from a 404
var ErrEmptyResult = errors.New("EMPTY_RESULT")

// APIError is returned by every github call, Message is meant to be shown to the user as is
type APIError struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *APIError) Error() string {
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.Cause
}

// HTTPFailure is the transport agnostic description of a failed request
// StatusCode is 0 when no http response was received (network error, timeout ...)
type HTTPFailure struct {
	StatusCode  int
	BodyMessage string
}

// ClassifyHTTPError convert a failed request into an APIError
func ClassifyHTTPError(failure HTTPFailure) *APIError {
	switch {
	case failure.StatusCode == 0:
		return &APIError{Kind: ErrorKindUnexpected, Message: MessageUnknown}

	case failure.StatusCode == http.StatusNotFound:
		return &APIError{Kind: ErrorKindNotFound, Message: MessageNotFound}

	case failure.StatusCode == http.StatusForbidden:
		return &APIError{Kind: ErrorKindRateLimited, Message: MessageRateLimited}

	case failure.BodyMessage != "":
		return &APIError{Kind: ErrorKindUpstreamMessage, Message: failure.BodyMessage}

	default:
		return &APIError{Kind: ErrorKindGenericAPI, Message: MessageGenericAPI}
	}
}

// NewEmptyResultError build the not found error used for empty lists
func NewEmptyResultError(message string) *APIError {
	return &APIError{Kind: ErrorKindNotFound, Message: message, Cause: ErrEmptyResult}
}

// IsKind check if err is an APIError of the given kind
func IsKind(err error, kind ErrorKind) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Kind == kind
}

type ResponseError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func NewResponseError(errReason error) ResponseError {
	var apiErr *APIError

	if errors.As(errReason, &apiErr) {
		return ResponseError{
			Code:    apiErr.Kind.Code(),
			Message: apiErr.Message,
		}
	}

	return ResponseError{
		Code:    "GENERIC_ERROR",
		Message: "internal server error. contact our support with the reason code for assistance",
	}
}
