package digest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/decoders-hk/centre-assistant-go/internal/config"
	apperrors "github.com/decoders-hk/centre-assistant-go/internal/errors"
	"github.com/decoders-hk/centre-assistant-go/internal/hktime"
	"github.com/decoders-hk/centre-assistant-go/internal/logger"
	"github.com/decoders-hk/centre-assistant-go/internal/metrics"
)

// DefaultMaxItems caps how many sessions one digest lists.
const DefaultMaxItems = 50

// Sender delivers a text message to a phone number.
type Sender interface {
	SendText(ctx context.Context, to, body string) error
}

// Config controls when and to whom the digest goes.
type Config struct {
	Hour           int
	Minute         int
	DirectorNumber string
	MaxItems       int
}

// Outcome values reported by RunOnce.
const (
	OutcomeSent        = "sent"
	OutcomeEmpty       = "empty"
	OutcomeAlreadySent = "already_sent"
	OutcomeLocked      = "locked"
	OutcomeError       = "error"
)

// Result describes one digest run.
type Result struct {
	Day     string
	Items   int
	Outcome string
}

// Service assembles and sends the daily digest.
type Service struct {
	store    Store
	state    SentState
	sender   Sender
	holidays HolidayChecker
	cfg      Config
	metrics  *metrics.Metrics
	log      *logger.Logger
	wrap     *apperrors.ErrorWrapper
	now      func() time.Time
}

// NewService wires a digest Service. holidays and m may be nil.
func NewService(cfg Config, store Store, state SentState, sender Sender, holidays HolidayChecker, m *metrics.Metrics, log *logger.Logger) *Service {
	if cfg.MaxItems <= 0 {
		cfg.MaxItems = DefaultMaxItems
	}
	return &Service{
		store:    store,
		state:    state,
		sender:   sender,
		holidays: holidays,
		cfg:      cfg,
		metrics:  m,
		log:      log.WithModule("digest"),
		wrap:     apperrors.NewWrapper("digest", "run"),
		now:      time.Now,
	}
}

// Store returns the pending-item store the chat flow writes to.
func (s *Service) Store() Store { return s.store }

// RunOnce sends today's digest unless it already went out.
func (s *Service) RunOnce(ctx context.Context) (Result, error) {
	now := s.now()
	res := Result{Day: hktime.DayKey(now)}

	unlock, ok, err := s.state.Lock(ctx)
	if err != nil {
		return s.fail(res, fmt.Errorf("digest: lock: %w", err))
	}
	defer unlock()
	if !ok {
		res.Outcome = OutcomeLocked
		s.metrics.RecordDigestRun(res.Outcome, 0)
		return res, nil
	}

	sent, err := s.state.WasSent(ctx, res.Day)
	if err != nil {
		return s.fail(res, err)
	}
	if sent {
		res.Outcome = OutcomeAlreadySent
		s.metrics.RecordDigestRun(res.Outcome, 0)
		return res, nil
	}

	items, err := s.store.ListUnresolved(ctx, res.Day, s.cfg.MaxItems)
	if err != nil {
		return s.fail(res, fmt.Errorf("digest: list pending: %w", err))
	}
	res.Items = len(items)

	if len(items) == 0 {
		if _, err := s.state.MarkSent(ctx, res.Day, 0, ""); err != nil {
			return s.fail(res, err)
		}
		res.Outcome = OutcomeEmpty
		s.metrics.RecordDigestRun(res.Outcome, 0)
		return res, nil
	}

	body := FormatBody(now, items)
	if err := s.sender.SendText(ctx, s.cfg.DirectorNumber, body); err != nil {
		return s.fail(res, fmt.Errorf("digest: send: %w", err))
	}

	if _, err := s.state.MarkSent(ctx, res.Day, len(items), body); err != nil {
		// Delivered; only the marker is missing.
		s.log.WithError(err).Warn("Digest sent but sent-state update failed")
	}

	res.Outcome = OutcomeSent
	s.metrics.RecordDigestRun(res.Outcome, len(items))
	return res, nil
}

func (s *Service) fail(res Result, err error) (Result, error) {
	res.Outcome = OutcomeError
	s.metrics.RecordDigestRun(res.Outcome, 0)
	return res, s.wrap.With("day", res.Day).Wrap(err, "admin digest not sent")
}

// maxAttemptsPerDay bounds same-day retries after a failed run.
const maxAttemptsPerDay = 3

// Run sends the digest at each eligible run time until ctx is cancelled.
// A failed run is retried after config.DigestRetryDelay on the same day.
func (s *Service) Run(ctx context.Context) {
	s.log.Debug("Digest scheduler started")
	defer s.log.Debug("Digest scheduler stopped")

	var (
		retryAt  time.Time
		attempts int
	)
	for {
		next := NextRun(ctx, s.now(), s.cfg.Hour, s.cfg.Minute, s.holidays)
		if !retryAt.IsZero() {
			next = retryAt
		}
		s.log.WithField("next_run", next.Format(time.RFC3339)).Info("Scheduled next admin digest")

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		res, err := s.RunOnce(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			attempts++
			s.log.WithError(err).WithField("attempt", attempts).Error("Admin digest run failed")

			retryAt = time.Time{}
			if candidate := s.now().Add(config.DigestRetryDelay); attempts < maxAttemptsPerDay && hktime.SameDay(candidate, s.now()) {
				retryAt = candidate
			} else {
				attempts = 0
			}
			continue
		}

		retryAt, attempts = time.Time{}, 0
		s.log.WithFields(map[string]any{
			"day":     res.Day,
			"items":   res.Items,
			"outcome": res.Outcome,
		}).Info("Admin digest run finished")
	}
}
