package providers

import (
	"errors"
	"strings"

	"brandforge/internal/providers/openai"
)

// FailureKind classifies a generation failure so callers can decide between
// per-job and pipeline-wide handling without re-parsing error text.
type FailureKind int

const (
	FailureOther FailureKind = iota
	FailureRateLimited
	FailureBilling
	FailureTimeout
)

// The hosted providers report exhausted quota in free-text form. These three
// substrings are the known fatal markers; matching stays substring-based to
// keep the error surface identical to what operators expect.
var (
	rateLimitMarkers = []string{"rate limit", "Limit 0"}
	billingMarkers   = []string{"payment method"}
)

// Classify maps an error onto a FailureKind. A timeout whose message also
// carries a quota marker classifies as the quota failure, not the timeout.
func Classify(err error) FailureKind {
	if err == nil {
		return FailureOther
	}
	msg := err.Error()
	for _, marker := range billingMarkers {
		if strings.Contains(msg, marker) {
			return FailureBilling
		}
	}
	for _, marker := range rateLimitMarkers {
		if strings.Contains(msg, marker) {
			return FailureRateLimited
		}
	}
	if errors.Is(err, openai.ErrPollTimeout) {
		return FailureTimeout
	}
	return FailureOther
}

// Fatal reports whether the failure must halt all further dispatch.
func (k FailureKind) Fatal() bool {
	return k == FailureRateLimited || k == FailureBilling
}

func (k FailureKind) String() string {
	switch k {
	case FailureRateLimited:
		return "rate_limited"
	case FailureBilling:
		return "billing"
	case FailureTimeout:
		return "timeout"
	default:
		return "other"
	}
}
