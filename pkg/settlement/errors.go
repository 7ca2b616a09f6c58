package settlement

import (
	"errors"
	"fmt"
)

// ErrSessionRebind is returned when a caller attempts to rebind a
// session-bound message to a new link.
var ErrSessionRebind = errors.New("cannot rebind a session-bound message; the session lock died with its original link")

// Kind classifies a disposition failure.
type Kind string

const (
	// KindLinkSevered marks a disposition blocked client-side because the
	// link that issued the lock is closed.
	KindLinkSevered Kind = "link_severed"

	// KindLockLost marks a server-side rejection because the message or
	// session lock expired or was taken over.
	KindLockLost Kind = "lock_lost"

	// KindAlreadySettled marks a repeated disposition of a settled message.
	KindAlreadySettled Kind = "already_settled"

	// KindTransport marks any other failure surfaced by the transport.
	KindTransport Kind = "transport"
)

// DispositionError is a disposition failure synthesized by the settler.
// Transport failures are never wrapped in this type; they propagate
// unchanged.
type DispositionError struct {
	Kind    Kind
	Verb    Verb
	Message string
}

// Error implements the error interface.
func (e *DispositionError) Error() string {
	return e.Message
}

// newLinkSeveredError builds the severed-link failure for a verb.
// The message text is stable and embeds the verb so callers can act on it.
func newLinkSeveredError(verb Verb) *DispositionError {
	return &DispositionError{
		Kind: KindLinkSevered,
		Verb: verb,
		Message: fmt.Sprintf(
			"Failed to %s the message as the AMQP link with which the message was received is no longer alive.",
			verb),
	}
}

// newAlreadySettledError builds the repeated-settlement failure for a verb.
func newAlreadySettledError(verb Verb) *DispositionError {
	return &DispositionError{
		Kind: KindAlreadySettled,
		Verb: verb,
		Message: fmt.Sprintf(
			"Failed to %s the message as it has already been settled.",
			verb),
	}
}

// LockLostError is raised by the transport when the server reports that the
// message lock or session lock is no longer held. The settler records the
// state transition but surfaces the error unchanged.
type LockLostError struct {
	SessionID string
	Err       error
}

// Error implements the error interface.
func (e *LockLostError) Error() string {
	if e.SessionID != "" {
		return fmt.Sprintf("session lock lost for session %q: %v", e.SessionID, e.Err)
	}
	return fmt.Sprintf("message lock lost: %v", e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *LockLostError) Unwrap() error {
	return e.Err
}

// IsLockLost reports whether err is a lock-lost rejection.
func IsLockLost(err error) bool {
	var lockLost *LockLostError
	return errors.As(err, &lockLost)
}

// Classify maps any disposition outcome error to its Kind.
// Returns an empty Kind for nil.
func Classify(err error) Kind {
	if err == nil {
		return ""
	}
	var dispErr *DispositionError
	if errors.As(err, &dispErr) {
		return dispErr.Kind
	}
	if IsLockLost(err) {
		return KindLockLost
	}
	return KindTransport
}
