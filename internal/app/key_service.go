package app

import (
	"context"
	"time"

	"github.com/hoyechan/k-cse-diy-server/internal/clock"
	"github.com/hoyechan/k-cse-diy-server/internal/domain"
)

type KeyRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	// GetForUpdate loads the authoritative key row and locks it for the
	// remainder of the transaction, so racing custody transitions
	// serialize instead of both observing the same state.
	GetForUpdate(ctx context.Context) (domain.RoomKey, error)
	Get(ctx context.Context) (domain.RoomKey, error)
	SetCustody(ctx context.Context, keyID string, holderID *string, status domain.KeyStatus) error
	AppendHistory(ctx context.Context, entry domain.KeyHistoryEntry) error
	ListHistory(ctx context.Context) ([]domain.KeyHistoryEntry, error)
}

// ReservationFinder is the slice of the reservation ledger the custody
// machine needs: does this student hold a reservation on this date?
type ReservationFinder interface {
	FindForStudentOnDate(ctx context.Context, studentID string, date time.Time) (*domain.Reservation, error)
}

// KeyService is the custody machine for the single room key. Every
// transition runs under a row lock on the key and appends a history entry.
type KeyService struct {
	keys         KeyRepository
	students     StudentDirectory
	reservations ReservationFinder
	clock        clock.Clock
}

func NewKeyService(keys KeyRepository, students StudentDirectory, reservations ReservationFinder, clk clock.Clock) *KeyService {
	return &KeyService{
		keys:         keys,
		students:     students,
		reservations: reservations,
		clock:        clk,
	}
}

// Current returns the key with its holder, if any.
func (s *KeyService) Current(ctx context.Context) (domain.RoomKey, error) {
	return s.keys.Get(ctx)
}

// History returns the full custody trail, newest first.
func (s *KeyService) History(ctx context.Context) ([]domain.KeyHistoryEntry, error) {
	return s.keys.ListHistory(ctx)
}

// Rent hands the key to a student who holds a reservation for today. The
// key must currently be available.
func (s *KeyService) Rent(ctx context.Context, studentName, studentNumber string) (domain.KeyStatus, error) {
	student, err := s.students.FindByNameAndNumber(ctx, studentName, studentNumber)
	if err != nil {
		return "", err
	}

	now := s.clock.Now()
	err = s.keys.WithTx(ctx, func(txCtx context.Context) error {
		key, err := s.keys.GetForUpdate(txCtx)
		if err != nil {
			return err
		}
		if key.Status != domain.KeyStatusAvailable {
			return domain.ErrKeyStateMismatch
		}

		reservation, err := s.reservations.FindForStudentOnDate(txCtx, student.ID, now)
		if err != nil {
			return err
		}
		if reservation == nil {
			return domain.ErrKeyAuthFailed
		}

		if err := s.keys.SetCustody(txCtx, key.ID, &student.ID, domain.KeyStatusInUse); err != nil {
			return err
		}
		return s.keys.AppendHistory(txCtx, domain.KeyHistoryEntry{
			StudentName:   student.Name,
			StudentNumber: student.StudentNumber,
			Status:        domain.KeyStatusInUse,
			OccurredAt:    now,
		})
	})
	if err != nil {
		return "", err
	}
	return domain.KeyStatusInUse, nil
}

// Return takes the key back from its current holder. Only the student who
// rented it may return it, and only while it is in use.
func (s *KeyService) Return(ctx context.Context, studentName, studentNumber string) (domain.KeyStatus, error) {
	student, err := s.students.FindByNameAndNumber(ctx, studentName, studentNumber)
	if err != nil {
		return "", err
	}

	now := s.clock.Now()
	err = s.keys.WithTx(ctx, func(txCtx context.Context) error {
		key, err := s.keys.GetForUpdate(txCtx)
		if err != nil {
			return err
		}
		if key.Holder == nil || key.Holder.ID != student.ID {
			return domain.ErrKeyAuthFailed
		}
		if key.Status != domain.KeyStatusInUse {
			return domain.ErrKeyStateMismatch
		}

		if err := s.keys.SetCustody(txCtx, key.ID, nil, domain.KeyStatusAvailable); err != nil {
			return err
		}
		return s.keys.AppendHistory(txCtx, domain.KeyHistoryEntry{
			StudentName:   student.Name,
			StudentNumber: student.StudentNumber,
			Status:        domain.KeyStatusAvailable,
			OccurredAt:    now,
		})
	})
	if err != nil {
		return "", err
	}
	return domain.KeyStatusAvailable, nil
}

// ForceReturn unconditionally clears custody and sets the given status.
// Admin path, used to reset the key after a not_returned determination.
func (s *KeyService) ForceReturn(ctx context.Context, status domain.KeyStatus) (domain.RoomKey, error) {
	now := s.clock.Now()
	var result domain.RoomKey
	err := s.keys.WithTx(ctx, func(txCtx context.Context) error {
		key, err := s.keys.GetForUpdate(txCtx)
		if err != nil {
			return err
		}
		if err := s.keys.SetCustody(txCtx, key.ID, nil, status); err != nil {
			return err
		}
		if key.Holder != nil {
			if err := s.keys.AppendHistory(txCtx, domain.KeyHistoryEntry{
				StudentName:   key.Holder.Name,
				StudentNumber: key.Holder.StudentNumber,
				Status:        status,
				OccurredAt:    now,
			}); err != nil {
				return err
			}
		}
		key.Holder = nil
		key.Status = status
		result = key
		return nil
	})
	if err != nil {
		return domain.RoomKey{}, err
	}
	return result, nil
}
