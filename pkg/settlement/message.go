// Package settlement gates message dispositions (complete, abandon, defer,
// dead-letter, renew-lock) on the liveness of the AMQP link that issued the
// message's lock.
//
// Sessions multiplex delivery and lock ownership onto one link: closing that
// link discards the session lock, so any settlement of a session message is
// unsalvageable once the link is gone and fails fast without a network call.
// Non-session locks are server-side state addressable by lock token, so
// settlement may proceed on a freshly bound link; only lock renewal, which is
// tied to the original receive context, requires the original link.
package settlement

import (
	"time"

	"github.com/google/uuid"
)

// State is the settlement state of a received message.
type State int32

const (
	// StateLocked is the initial state after a successful receive.
	StateLocked State = iota

	// StateSettled is terminal: a disposition was confirmed by the transport.
	StateSettled

	// StateLockLost is entered when the server rejects a disposition because
	// the lock expired or was taken over.
	StateLockLost

	// StateLinkSevered is terminal for session messages whose link closed
	// before settlement.
	StateLinkSevered
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateLocked:
		return "locked"
	case StateSettled:
		return "settled"
	case StateLockLost:
		return "lock_lost"
	case StateLinkSevered:
		return "link_severed"
	default:
		return "unknown"
	}
}

// LinkHandle reports the liveness of a receive link. The link lifecycle is
// owned elsewhere; this capability is read-only.
type LinkHandle interface {
	IsOpen() bool
}

// Message is a message delivered under a peek-lock or session-receive
// contract. The link reference is a weak association used only to check
// liveness, not ownership.
//
// Concurrent dispositions of the same message are not synchronized; the
// second caller observes whatever state the first left behind.
type Message struct {
	// LockToken identifies the server-side lock for this delivery.
	LockToken uuid.UUID

	// SequenceNumber is the message's stable sequence number.
	SequenceNumber int64

	// DeliveryCount is the number of deliveries so far.
	DeliveryCount uint32

	// LockedUntil is when the current lock expires. Updated by RenewLock.
	LockedUntil time.Time

	// SessionID is non-empty for messages received from a session.
	SessionID string

	// Body is the message payload.
	Body []byte

	link  LinkHandle
	state State
}

// NewMessage constructs a received message bound to the link that issued its
// lock. A non-empty sessionID marks the message session-bound.
func NewMessage(lockToken uuid.UUID, sequenceNumber int64, sessionID string, link LinkHandle) *Message {
	return &Message{
		LockToken:      lockToken,
		SequenceNumber: sequenceNumber,
		SessionID:      sessionID,
		link:           link,
		state:          StateLocked,
	}
}

// State returns the message's settlement state.
func (m *Message) State() State {
	return m.state
}

// SessionBound reports whether the message's lock lives on its session link.
func (m *Message) SessionBound() bool {
	return m.SessionID != ""
}

// LinkOpen reports whether the bound link is currently alive.
func (m *Message) LinkOpen() bool {
	return m.link != nil && m.link.IsOpen()
}

// BindLink rebinds the message to a freshly acquired link. Only valid for
// non-session messages: a session lock dies with its original link and no
// rebinding can revive it.
func (m *Message) BindLink(link LinkHandle) error {
	if m.SessionBound() {
		return ErrSessionRebind
	}
	m.link = link
	return nil
}
