package app

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hoyechan/k-cse-diy-server/internal/authcode"
	"github.com/hoyechan/k-cse-diy-server/internal/clock"
	"github.com/hoyechan/k-cse-diy-server/internal/domain"
)

type ReservationRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	LockDate(ctx context.Context, date time.Time) error
	Create(ctx context.Context, r domain.Reservation) error
	GetByID(ctx context.Context, id string) (domain.Reservation, error)
	Update(ctx context.Context, r domain.Reservation) error
	Delete(ctx context.Context, id string) error
	FindByStudentAndDate(ctx context.Context, studentID string, date time.Time) (*domain.Reservation, error)
	ListByDate(ctx context.Context, date time.Time) ([]domain.Reservation, error)
	ListByDateRange(ctx context.Context, from, to time.Time) ([]domain.Reservation, error)
	ListByStudent(ctx context.Context, studentID string) ([]domain.Reservation, error)
	ListByStatus(ctx context.Context, status domain.ReservationStatus) ([]domain.Reservation, error)
	ListUpcomingByStudent(ctx context.Context, studentID string, nowDate time.Time, nowTime domain.TimeOfDay) ([]domain.Reservation, error)
	ListClosest(ctx context.Context, nowDate time.Time, nowTime domain.TimeOfDay, limit int) ([]domain.Reservation, error)
}

type StudentDirectory interface {
	FindByNameAndNumber(ctx context.Context, name, number string) (domain.Student, error)
	FindByName(ctx context.Context, name string) (domain.Student, error)
	FindByNumber(ctx context.Context, number string) (domain.Student, error)
}

// ReservationService owns the booking ledger: it enforces the daily limit,
// the booking window, the auth-code gate, and the interval conflict rules.
type ReservationService struct {
	repo          ReservationRepository
	students      StudentDirectory
	hasher        authcode.Hasher
	clock         clock.Clock
	bookingWindow int
}

// Reservations may be made for today through today+defaultBookingWindow days.
const defaultBookingWindow = 28

func NewReservationService(repo ReservationRepository, students StudentDirectory, hasher authcode.Hasher, clk clock.Clock, opts ...ReservationServiceOption) *ReservationService {
	svc := &ReservationService{
		repo:          repo,
		students:      students,
		hasher:        hasher,
		clock:         clk,
		bookingWindow: defaultBookingWindow,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type ReservationServiceOption func(*ReservationService)

// WithBookingWindow overrides how many days ahead a reservation may be made.
func WithBookingWindow(days int) ReservationServiceOption {
	return func(s *ReservationService) {
		if days >= 0 {
			s.bookingWindow = days
		}
	}
}

type CreateReservationInput struct {
	StudentName   string
	StudentNumber string
	Date          time.Time
	StartTime     domain.TimeOfDay
	EndTime       domain.TimeOfDay
	Reason        string
	AuthCode      string
}

func (s *ReservationService) CreateReservation(ctx context.Context, in CreateReservationInput) (domain.Reservation, error) {
	if !authcode.Valid(in.AuthCode) {
		return domain.Reservation{}, domain.ErrInvalidAuthCode
	}
	if in.StartTime >= in.EndTime {
		return domain.Reservation{}, domain.ErrInvalidTimeRange
	}

	student, err := s.students.FindByNameAndNumber(ctx, in.StudentName, in.StudentNumber)
	if err != nil {
		return domain.Reservation{}, err
	}

	now := s.clock.Now()
	date := dateOnly(in.Date)
	if !withinBookingWindow(date, dateOnly(now), s.bookingWindow) {
		return domain.Reservation{}, domain.ErrDateOutOfRange
	}

	hash, err := s.hasher.Hash(in.AuthCode)
	if err != nil {
		return domain.Reservation{}, err
	}

	reservation := domain.Reservation{
		ID:           uuid.NewString(),
		Student:      student,
		Date:         date,
		StartTime:    in.StartTime,
		EndTime:      in.EndTime,
		Reason:       in.Reason,
		AuthCodeHash: hash,
		Status:       domain.ReservationStatusPending,
		CreatedAt:    now,
	}

	err = s.repo.WithTx(ctx, func(txCtx context.Context) error {
		// Serializes every booking check for this date against concurrent
		// creates and updates.
		if err := s.repo.LockDate(txCtx, date); err != nil {
			return err
		}

		existing, err := s.repo.FindByStudentAndDate(txCtx, student.ID, date)
		if err != nil {
			return err
		}
		if existing != nil {
			return domain.ErrDailyLimitReached
		}

		if err := s.checkConflicts(txCtx, reservation); err != nil {
			return err
		}
		return s.repo.Create(txCtx, reservation)
	})
	if err != nil {
		return domain.Reservation{}, err
	}
	return reservation, nil
}

type UpdateReservationInput struct {
	ID        string
	StartTime domain.TimeOfDay
	EndTime   domain.TimeOfDay
	Reason    string
	AuthCode  string
}

// UpdateReservation rewrites the window and reason of an existing
// reservation after verifying its auth code. The reservation drops back to
// pending for re-approval.
func (s *ReservationService) UpdateReservation(ctx context.Context, in UpdateReservationInput) (domain.Reservation, error) {
	if in.StartTime >= in.EndTime {
		return domain.Reservation{}, domain.ErrInvalidTimeRange
	}

	var result domain.Reservation
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		reservation, err := s.repo.GetByID(txCtx, in.ID)
		if err != nil {
			return err
		}
		if !s.hasher.Matches(in.AuthCode, reservation.AuthCodeHash) {
			return domain.ErrAuthCodeMismatch
		}

		if err := s.repo.LockDate(txCtx, reservation.Date); err != nil {
			return err
		}

		reservation.StartTime = in.StartTime
		reservation.EndTime = in.EndTime
		reservation.Reason = in.Reason
		reservation.Status = domain.ReservationStatusPending

		if err := s.checkConflicts(txCtx, reservation); err != nil {
			return err
		}
		if err := s.repo.Update(txCtx, reservation); err != nil {
			return err
		}
		result = reservation
		return nil
	})
	if err != nil {
		return domain.Reservation{}, err
	}
	return result, nil
}

// ApproveReservation marks a pending reservation approved. Admin path; no
// auth code involved.
func (s *ReservationService) ApproveReservation(ctx context.Context, id string) (domain.Reservation, error) {
	return s.setStatus(ctx, id, domain.ReservationStatusApproved, "")
}

// ApproveReservations approves a batch of reservations in one transaction;
// one missing id fails the whole batch.
func (s *ReservationService) ApproveReservations(ctx context.Context, ids []string) ([]domain.Reservation, error) {
	approved := make([]domain.Reservation, 0, len(ids))
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		for _, id := range ids {
			reservation, err := s.repo.GetByID(txCtx, id)
			if err != nil {
				return err
			}
			reservation.Status = domain.ReservationStatusApproved
			if err := s.repo.Update(txCtx, reservation); err != nil {
				return err
			}
			approved = append(approved, reservation)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return approved, nil
}

// CancelReservation cancels a reservation with a reason. Admin path.
func (s *ReservationService) CancelReservation(ctx context.Context, id, reason string) (domain.Reservation, error) {
	return s.setStatus(ctx, id, domain.ReservationStatusCancelled, reason)
}

// UpdateAuthCode replaces a reservation's auth code. Admin path, used when
// a student forgets the code they booked with.
func (s *ReservationService) UpdateAuthCode(ctx context.Context, id, newCode string) (domain.Reservation, error) {
	if !authcode.Valid(newCode) {
		return domain.Reservation{}, domain.ErrInvalidAuthCode
	}
	hash, err := s.hasher.Hash(newCode)
	if err != nil {
		return domain.Reservation{}, err
	}

	var result domain.Reservation
	err = s.repo.WithTx(ctx, func(txCtx context.Context) error {
		reservation, err := s.repo.GetByID(txCtx, id)
		if err != nil {
			return err
		}
		reservation.AuthCodeHash = hash
		if err := s.repo.Update(txCtx, reservation); err != nil {
			return err
		}
		result = reservation
		return nil
	})
	if err != nil {
		return domain.Reservation{}, err
	}
	return result, nil
}

// DeleteReservation hard-deletes a reservation after verifying its auth
// code. Owner path.
func (s *ReservationService) DeleteReservation(ctx context.Context, id, code string) error {
	return s.repo.WithTx(ctx, func(txCtx context.Context) error {
		reservation, err := s.repo.GetByID(txCtx, id)
		if err != nil {
			return err
		}
		if !s.hasher.Matches(code, reservation.AuthCodeHash) {
			return domain.ErrAuthCodeMismatch
		}
		return s.repo.Delete(txCtx, id)
	})
}

// DeleteReservationByAdmin hard-deletes unconditionally.
func (s *ReservationService) DeleteReservationByAdmin(ctx context.Context, id string) error {
	return s.repo.WithTx(ctx, func(txCtx context.Context) error {
		if _, err := s.repo.GetByID(txCtx, id); err != nil {
			return err
		}
		return s.repo.Delete(txCtx, id)
	})
}

func (s *ReservationService) FindByID(ctx context.Context, id string) (domain.Reservation, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *ReservationService) FindByDate(ctx context.Context, date time.Time) ([]domain.Reservation, error) {
	return s.repo.ListByDate(ctx, dateOnly(date))
}

// FindByMonth lists reservations for every day of the given month.
func (s *ReservationService) FindByMonth(ctx context.Context, year int, month time.Month) ([]domain.Reservation, error) {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	return s.repo.ListByDateRange(ctx, first, last)
}

func (s *ReservationService) FindByDateRange(ctx context.Context, from, to time.Time) ([]domain.Reservation, error) {
	return s.repo.ListByDateRange(ctx, dateOnly(from), dateOnly(to))
}

func (s *ReservationService) FindByStudent(ctx context.Context, name, number string) ([]domain.Reservation, error) {
	student, err := s.students.FindByNameAndNumber(ctx, name, number)
	if err != nil {
		return nil, err
	}
	return s.repo.ListByStudent(ctx, student.ID)
}

func (s *ReservationService) FindByStudentName(ctx context.Context, name string) ([]domain.Reservation, error) {
	student, err := s.students.FindByName(ctx, name)
	if err != nil {
		return nil, err
	}
	return s.repo.ListByStudent(ctx, student.ID)
}

func (s *ReservationService) FindByStudentNumber(ctx context.Context, number string) ([]domain.Reservation, error) {
	student, err := s.students.FindByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	return s.repo.ListByStudent(ctx, student.ID)
}

func (s *ReservationService) FindByStatus(ctx context.Context, status domain.ReservationStatus) ([]domain.Reservation, error) {
	return s.repo.ListByStatus(ctx, status)
}

// FindUpcomingByStudent lists a student's reservations on a future date, or
// today with a start time at or after now.
func (s *ReservationService) FindUpcomingByStudent(ctx context.Context, name, number string) ([]domain.Reservation, error) {
	student, err := s.students.FindByNameAndNumber(ctx, name, number)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	return s.repo.ListUpcomingByStudent(ctx, student.ID, dateOnly(now), domain.TimeOfDayFrom(now))
}

// FindClosest lists at most limit upcoming reservations across all
// students, ordered by date then start time.
func (s *ReservationService) FindClosest(ctx context.Context, limit int) ([]domain.Reservation, error) {
	now := s.clock.Now()
	return s.repo.ListClosest(ctx, dateOnly(now), domain.TimeOfDayFrom(now), limit)
}

// FindForStudentOnDate reports the student's reservation for a date, or nil.
// The key custody machine and the overdue sweeper key off this.
func (s *ReservationService) FindForStudentOnDate(ctx context.Context, studentID string, date time.Time) (*domain.Reservation, error) {
	return s.repo.FindByStudentAndDate(ctx, studentID, dateOnly(date))
}

func (s *ReservationService) setStatus(ctx context.Context, id string, status domain.ReservationStatus, cancelledReason string) (domain.Reservation, error) {
	var result domain.Reservation
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		reservation, err := s.repo.GetByID(txCtx, id)
		if err != nil {
			return err
		}
		reservation.Status = status
		if status == domain.ReservationStatusCancelled {
			reservation.CancelledReason = cancelledReason
		}
		if err := s.repo.Update(txCtx, reservation); err != nil {
			return err
		}
		result = reservation
		return nil
	})
	if err != nil {
		return domain.Reservation{}, err
	}
	return result, nil
}

func (s *ReservationService) checkConflicts(ctx context.Context, reservation domain.Reservation) error {
	sameDay, err := s.repo.ListByDate(ctx, reservation.Date)
	if err != nil {
		return err
	}
	for _, other := range sameDay {
		if reservation.ConflictsWith(other) {
			return domain.ErrReservationConflict
		}
	}
	return nil
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// withinBookingWindow reports whether date is between today and
// today+window, both ends included.
func withinBookingWindow(date, today time.Time, window int) bool {
	return !date.Before(today) && !date.After(today.AddDate(0, 0, window))
}
