package voice

import (
	"fmt"
	"time"
)

// ThrottleError - провайдер ответил 429; RetryAfter взят из заголовка Retry-After
type ThrottleError struct {
	RetryAfter time.Duration
	Cause      error
}

func (e *ThrottleError) Error() string {
	return fmt.Sprintf("throttled: retry after %v (cause: %v)", e.RetryAfter, e.Cause)
}

func (e *ThrottleError) Unwrap() error { return e.Cause }

// StatusError - неуспешный HTTP статус провайдера
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("voice provider returned %d: %s", e.Code, e.Body)
}
