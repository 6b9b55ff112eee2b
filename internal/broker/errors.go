package broker

import (
	"errors"
	"fmt"
)

// ErrBrokerUnavailable marks a publish that could not reach the broker.
// Publish call sites log and swallow it; a local write can succeed while the
// change never reaches dependent services.
var ErrBrokerUnavailable = errors.New("broker_unavailable")

// MessageProcessingError reports a failure while handling one object within
// a delivery. The whole delivery is nacked, sibling objects included;
// partial success inside a batched message is not tracked.
type MessageProcessingError struct {
	Index int
	Err   error
}

func (e *MessageProcessingError) Error() string {
	return fmt.Sprintf("message processing failed at object %d: %v", e.Index, e.Err)
}

func (e *MessageProcessingError) Unwrap() error { return e.Err }
