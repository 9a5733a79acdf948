package transcribe

import (
	"context"
	"errors"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// RetryPolicy describes how transcription attempts are repeated. The zero
// value is unusable; use DefaultRetryPolicy or build one from configuration.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
}

// DefaultRetryPolicy matches the provider guidance: three attempts with a
// fixed two-second pause between them.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, Delay: 2 * time.Second}
}

func (p RetryPolicy) normalized() RetryPolicy {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if p.Delay < 0 {
		p.Delay = 0
	}
	return p
}

// Retryable reports whether another attempt can help. Transport failures and
// server-side churn (5xx, 429, 408) are retryable. A provider-reported
// semantic failure means the job itself was rejected; retrying it only burns
// quota, so those surface immediately.
func (p RetryPolicy) Retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.HTTPStatusCode >= http.StatusInternalServerError:
			return true
		case apiErr.HTTPStatusCode == http.StatusTooManyRequests,
			apiErr.HTTPStatusCode == http.StatusRequestTimeout:
			return true
		default:
			return false
		}
	}
	// Anything without a provider verdict is treated as transport trouble.
	return true
}
