package retry

import (
	"regexp"
	"strings"
	"time"
)

// serverErrorCodePattern matches HTTP 5xx status codes at word boundaries so
// port numbers like ":5000" do not count as server errors.
var serverErrorCodePattern = regexp.MustCompile(`\b50[0-4]\b`)

// transientPatterns are HTTP 5xx status texts and TCP-level failure modes that
// warrant a retry rather than an abort.
var transientPatterns = []string{
	"Internal Server Error",
	"Bad Gateway",
	"Service Unavailable",
	"Gateway Timeout",
	"connection reset by peer",
	"connection refused",
	"i/o timeout",
	"TLS handshake timeout",
	"unexpected EOF",
	"no such host",
}

// IsTransient reports whether an error looks like a transient network failure.
// Callers that only want to retry network flake (as opposed to confirming
// resource stability) gate their retries on this.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	message := err.Error()

	for _, pattern := range transientPatterns {
		if strings.Contains(message, pattern) {
			return true
		}
	}

	return serverErrorCodePattern.MatchString(message)
}

// ExponentialDelay returns the delay before the given retry attempt using the
// formula min(baseWait * 2^(attempt-1), maxWait).
func ExponentialDelay(attempt int, baseWait, maxWait time.Duration) time.Duration {
	return min(baseWait*time.Duration(1<<(attempt-1)), maxWait)
}
