package worker

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// FailReason tags why a dequeued message was dropped. The values double as
// the reason label on the worker failure counter.
type FailReason string

const (
	FailDecode         FailReason = "decode"
	FailStoreTransient FailReason = "store_transient"
	FailStorePermanent FailReason = "store_permanent"
	FailNotify         FailReason = "notify"
)

// processError classifies a per-message failure so the loop can count and
// log it without distinguishing causes inline.
type processError struct {
	reason FailReason
	err    error
}

func (e *processError) Error() string {
	return fmt.Sprintf("%s: %v", e.reason, e.err)
}

func (e *processError) Unwrap() error { return e.err }

// failReason extracts the classification from an error, defaulting to
// permanent for anything untagged.
func failReason(err error) FailReason {
	var pe *processError
	if errors.As(err, &pe) {
		return pe.reason
	}
	return FailStorePermanent
}

// isTransient reports whether a store error is worth a bounded retry.
// Timeouts and dropped connections qualify; constraint violations and other
// definitive rejections do not.
func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}
