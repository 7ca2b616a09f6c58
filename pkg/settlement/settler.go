package settlement

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for settlement operations.
var (
	sbSettlementsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sb_settlements_total",
		Help: "Total disposition attempts by verb and outcome",
	}, []string{"verb", "outcome"})

	sbLinkSeveredTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sb_link_severed_total",
		Help: "Dispositions rejected client-side on a severed link, by verb",
	}, []string{"verb"})
)

// Verb names a disposition operation. The values appear verbatim in
// severed-link error messages.
type Verb string

const (
	VerbComplete   Verb = "complete"
	VerbAbandon    Verb = "abandon"
	VerbDefer      Verb = "defer"
	VerbDeadLetter Verb = "deadLetter"
	VerbRenewLock  Verb = "renewLock"
)

// Disposer is the transport that carries dispositions to the broker.
// Its failures propagate to callers unchanged.
type Disposer interface {
	// Dispose applies a terminal disposition to the message.
	Dispose(ctx context.Context, verb Verb, m *Message) error

	// RenewLock extends the message lock and returns the new expiry.
	RenewLock(ctx context.Context, m *Message) (time.Time, error)
}

// Settler gates dispositions on link liveness before handing them to the
// transport.
type Settler struct {
	disposer Disposer
	logger   zerolog.Logger
}

// NewSettler creates a settler over the given disposer.
func NewSettler(disposer Disposer) *Settler {
	return &Settler{
		disposer: disposer,
		logger:   log.With().Str("component", "settler").Logger(),
	}
}

// Complete removes the message from the entity.
func (s *Settler) Complete(ctx context.Context, m *Message) error {
	return s.dispose(ctx, VerbComplete, m)
}

// Abandon releases the lock and makes the message available for redelivery.
func (s *Settler) Abandon(ctx context.Context, m *Message) error {
	return s.dispose(ctx, VerbAbandon, m)
}

// Defer moves the message to the deferred set, retrievable by sequence number.
func (s *Settler) Defer(ctx context.Context, m *Message) error {
	return s.dispose(ctx, VerbDefer, m)
}

// DeadLetter moves the message to the entity's dead-letter subqueue.
func (s *Settler) DeadLetter(ctx context.Context, m *Message) error {
	return s.dispose(ctx, VerbDeadLetter, m)
}

// RenewLock extends the message lock. Renewal is inherently tied to the
// original receive link, so a closed link blocks it even for non-session
// messages.
func (s *Settler) RenewLock(ctx context.Context, m *Message) error {
	if err := s.gate(m, VerbRenewLock); err != nil {
		sbSettlementsTotal.WithLabelValues(string(VerbRenewLock), string(Classify(err))).Inc()
		return err
	}

	lockedUntil, err := s.disposer.RenewLock(ctx, m)
	if err != nil {
		s.observeTransportFailure(VerbRenewLock, m, err)
		return err
	}

	m.LockedUntil = lockedUntil
	sbSettlementsTotal.WithLabelValues(string(VerbRenewLock), "ok").Inc()

	s.logger.Debug().
		Str("lock_token", m.LockToken.String()).
		Time("locked_until", lockedUntil).
		Msg("Lock renewed")

	return nil
}

// dispose gates and forwards a terminal disposition.
func (s *Settler) dispose(ctx context.Context, verb Verb, m *Message) error {
	if err := s.gate(m, verb); err != nil {
		sbSettlementsTotal.WithLabelValues(string(verb), string(Classify(err))).Inc()
		return err
	}

	if err := s.disposer.Dispose(ctx, verb, m); err != nil {
		s.observeTransportFailure(verb, m, err)
		return err
	}

	m.state = StateSettled
	sbSettlementsTotal.WithLabelValues(string(verb), "ok").Inc()

	s.logger.Debug().
		Str("verb", string(verb)).
		Str("lock_token", m.LockToken.String()).
		Int64("sequence_number", m.SequenceNumber).
		Msg("Message settled")

	return nil
}

// gate decides, without a network call, whether a disposition may be
// dispatched. Session messages with a closed link are severed permanently;
// non-session messages are only blocked for lock renewal.
func (s *Settler) gate(m *Message, verb Verb) error {
	switch m.state {
	case StateSettled:
		return newAlreadySettledError(verb)
	case StateLinkSevered:
		return newLinkSeveredError(verb)
	}

	if !m.LinkOpen() {
		if m.SessionBound() {
			m.state = StateLinkSevered
			sbLinkSeveredTotal.WithLabelValues(string(verb)).Inc()
			s.logger.Warn().
				Str("verb", string(verb)).
				Str("session_id", m.SessionID).
				Str("lock_token", m.LockToken.String()).
				Msg("Session link severed - disposition permanently blocked")
			return newLinkSeveredError(verb)
		}
		if verb == VerbRenewLock {
			sbLinkSeveredTotal.WithLabelValues(string(verb)).Inc()
			return newLinkSeveredError(verb)
		}
	}

	return nil
}

// observeTransportFailure records metrics and state for a transport-surfaced
// failure. The error itself is returned to the caller unchanged.
func (s *Settler) observeTransportFailure(verb Verb, m *Message, err error) {
	kind := Classify(err)
	if kind == KindLockLost {
		m.state = StateLockLost
	}
	sbSettlementsTotal.WithLabelValues(string(verb), string(kind)).Inc()

	s.logger.Warn().
		Err(err).
		Str("verb", string(verb)).
		Str("outcome", string(kind)).
		Str("lock_token", m.LockToken.String()).
		Msg("Disposition failed")
}
