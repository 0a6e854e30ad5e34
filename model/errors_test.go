package model

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestClassifyHTTPError will test every branch of ClassifyHTTPError
func TestClassifyHTTPError(t *testing.T) {
	tests := []struct {
		name            string
		failure         HTTPFailure
		expectedKind    ErrorKind
		expectedMessage string
	}{
		{
			name:            "Not found",
			failure:         HTTPFailure{StatusCode: http.StatusNotFound, BodyMessage: "Not Found"},
			expectedKind:    ErrorKindNotFound,
			expectedMessage: "User or repository not found.",
		},
		{
			name:            "Rate limited",
			failure:         HTTPFailure{StatusCode: http.StatusForbidden, BodyMessage: "API rate limit exceeded"},
			expectedKind:    ErrorKindRateLimited,
			expectedMessage: "Rate limit exceeded. Please try again later.",
		},
		{
			name:            "Other status with body message",
			failure:         HTTPFailure{StatusCode: http.StatusConflict, BodyMessage: "Git Repository is empty."},
			expectedKind:    ErrorKindUpstreamMessage,
			expectedMessage: "Git Repository is empty.",
		},
		{
			name:            "Other status without body message",
			failure:         HTTPFailure{StatusCode: http.StatusInternalServerError},
			expectedKind:    ErrorKindGenericAPI,
			expectedMessage: "Unexpected API error occurred.",
		},
		{
			name:            "No http response",
			failure:         HTTPFailure{},
			expectedKind:    ErrorKindUnexpected,
			expectedMessage: "An unknown error occurred.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ClassifyHTTPError(tt.failure)

			assert.Equal(t, tt.expectedKind, err.Kind)
			assert.EqualError(t, err, tt.expectedMessage)
			assert.True(t, IsKind(err, tt.expectedKind))
		})
	}
}

func TestEmptyResultError(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", NewEmptyResultError(MessageNoCommits))

	assert.True(t, errors.Is(err, ErrEmptyResult))
	assert.True(t, IsKind(err, ErrorKindNotFound))
	assert.False(t, errors.Is(ClassifyHTTPError(HTTPFailure{StatusCode: http.StatusNotFound}), ErrEmptyResult))
}

func TestNewResponseError(t *testing.T) {
	assert.Equal(t, ResponseError{Code: "RATE_LIMIT_REACHED", Message: MessageRateLimited},
		NewResponseError(ClassifyHTTPError(HTTPFailure{StatusCode: http.StatusForbidden})))

	assert.Equal(t, "GENERIC_ERROR", NewResponseError(errors.New("boom")).Code)
}

func TestFavouriteCommitsClone(t *testing.T) {
	favourites := FavouriteCommits{"octocat/repo1": {{SHA: "abc"}}}
	cloned := favourites.Clone()

	cloned["octocat/repo1"][0].SHA = "changed"
	cloned["octocat/other"] = nil

	assert.Equal(t, "abc", favourites["octocat/repo1"][0].SHA)
	assert.Len(t, favourites, 1)
	assert.Equal(t, "octocat/repo1", RepoKey("octocat", "repo1"))
}
