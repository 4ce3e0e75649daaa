package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/hoyechan/k-cse-diy-server/internal/clock"
	"github.com/hoyechan/k-cse-diy-server/internal/domain"
)

type BlacklistRepository interface {
	Append(ctx context.Context, studentID string, at time.Time) error
	List(ctx context.Context) ([]domain.BlacklistEntry, error)
}

// OverdueSweeper periodically checks whether the key holder has kept the
// key past their reservation's end plus a grace period, and if so marks
// the key not returned and blacklists the holder.
type OverdueSweeper struct {
	keys         KeyRepository
	reservations ReservationFinder
	blacklist    BlacklistRepository
	clock        clock.Clock
	logger       *slog.Logger
	grace        time.Duration
}

const defaultGracePeriod = 30 * time.Minute

func NewOverdueSweeper(keys KeyRepository, reservations ReservationFinder, blacklist BlacklistRepository, clk clock.Clock, logger *slog.Logger, opts ...SweeperOption) *OverdueSweeper {
	if logger == nil {
		logger = slog.Default()
	}
	sweeper := &OverdueSweeper{
		keys:         keys,
		reservations: reservations,
		blacklist:    blacklist,
		clock:        clk,
		logger:       logger,
		grace:        defaultGracePeriod,
	}
	for _, opt := range opts {
		opt(sweeper)
	}
	return sweeper
}

type SweeperOption func(*OverdueSweeper)

// WithGracePeriod overrides how long after a reservation's end the key may
// still be held without consequence.
func WithGracePeriod(d time.Duration) SweeperOption {
	return func(s *OverdueSweeper) {
		if d > 0 {
			s.grace = d
		}
	}
}

// Run invokes RunOnce on every tick until ctx is cancelled. Errors are
// logged and never stop the loop; the next tick starts fresh.
func (s *OverdueSweeper) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.RunOnce(ctx); err != nil {
				s.logger.Error("overdue sweep failed", "error", err)
			}
		}
	}
}

// RunOnce performs a single sweep at the clock's current instant. It is a
// no-op unless the key is in use and its holder is past the grace period.
// Running it again immediately produces no further effect.
func (s *OverdueSweeper) RunOnce(ctx context.Context) error {
	now := s.clock.Now()

	return s.keys.WithTx(ctx, func(txCtx context.Context) error {
		key, err := s.keys.GetForUpdate(txCtx)
		if err != nil {
			return err
		}
		if key.Status != domain.KeyStatusInUse {
			return nil
		}
		if key.Holder == nil {
			// Should be unreachable while in use; leave it for an admin.
			s.logger.Warn("key in use without a holder", "key_id", key.ID)
			return nil
		}

		reservation, err := s.reservations.FindForStudentOnDate(txCtx, key.Holder.ID, now)
		if err != nil {
			return err
		}
		if reservation == nil {
			s.logger.Warn("key holder has no reservation today",
				"key_id", key.ID,
				"student_number", key.Holder.StudentNumber,
			)
			return nil
		}

		deadline := reservation.EndTime.At(reservation.Date).Add(s.grace)
		if !now.After(deadline) {
			return nil
		}

		if err := s.blacklist.Append(txCtx, key.Holder.ID, now); err != nil {
			return err
		}
		if err := s.keys.SetCustody(txCtx, key.ID, nil, domain.KeyStatusNotReturned); err != nil {
			return err
		}
		if err := s.keys.AppendHistory(txCtx, domain.KeyHistoryEntry{
			StudentName:   key.Holder.Name,
			StudentNumber: key.Holder.StudentNumber,
			Status:        domain.KeyStatusNotReturned,
			OccurredAt:    now,
		}); err != nil {
			return err
		}

		s.logger.Info("key marked not returned",
			"key_id", key.ID,
			"student_number", key.Holder.StudentNumber,
			"deadline", deadline,
		)
		return nil
	})
}
