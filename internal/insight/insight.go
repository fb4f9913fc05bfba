//go:generate mockgen -destination ./mock/generator.go . Generator

// Package insight asks a generative-text service for a fact about a duration.
// Failures never escape as errors: callers always receive displayable text.
package insight

import (
	"context"
	"errors"
	"fmt"
)

// FailureText is shown when the service could not be reached or answered badly.
const FailureText = "Could not generate a time fact at this moment. But great timing!"

var (
	ErrMissingAPIKey    = errors.New("insight API key not set")
	ErrDurationTooShort = errors.New("duration must be at least one second")
)

// Generator produces a fact for a whole number of seconds.
type Generator interface {
	Generate(ctx context.Context, seconds int) Result
}

// Result is the outcome of one Generate call. Text is never empty. Fallback is
// set whenever Text did not come from the service; Err carries the cause when
// there was one.
type Result struct {
	Seconds  int
	Text     string
	Fallback bool
	Err      error
}

// EmptyText is shown when the service answered without any text.
func EmptyText(seconds int) string {
	return fmt.Sprintf("Time is relative, but that was exactly %d seconds.", seconds)
}

func failed(seconds int, err error) Result {
	return Result{Seconds: seconds, Text: FailureText, Fallback: true, Err: err}
}

// APIError is a non-2xx answer from the service.
type APIError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("insight API error (%d %s): %s", e.StatusCode, e.Status, e.Message)
}
