package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/hoyechan/k-cse-diy-server/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ReservationRepository struct {
	pool *pgxpool.Pool
}

func NewReservationRepository(pool *pgxpool.Pool) *ReservationRepository {
	return &ReservationRepository{pool: pool}
}

func (r *ReservationRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

// LockDate takes a transaction-scoped advisory lock for the date, so the
// check-then-act sequence around bookings is serialized per date. Must be
// called inside WithTx.
func (r *ReservationRepository) LockDate(ctx context.Context, date time.Time) error {
	key := int64(date.Year())*10000 + int64(date.Month())*100 + int64(date.Day())
	if _, err := conn(ctx, r.pool).Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, key); err != nil {
		return fmt.Errorf("lock date: %w", err)
	}
	return nil
}

const reservationColumns = `
r.id, r.student_id, s.student_number, s.name, s.role,
r.auth_code_hash, r.reservation_date, r.start_minutes, r.end_minutes,
r.reason, COALESCE(r.cancelled_reason, ''), r.status, r.created_at`

const reservationFrom = ` FROM reservations r JOIN students s ON s.id = r.student_id`

func scanReservation(row pgx.Row) (domain.Reservation, error) {
	var res domain.Reservation
	err := row.Scan(
		&res.ID,
		&res.Student.ID,
		&res.Student.StudentNumber,
		&res.Student.Name,
		&res.Student.Role,
		&res.AuthCodeHash,
		&res.Date,
		&res.StartTime,
		&res.EndTime,
		&res.Reason,
		&res.CancelledReason,
		&res.Status,
		&res.CreatedAt,
	)
	return res, err
}

func (r *ReservationRepository) Create(ctx context.Context, res domain.Reservation) error {
	const stmt = `
INSERT INTO reservations (id, student_id, auth_code_hash, reservation_date, start_minutes, end_minutes, reason, status, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := conn(ctx, r.pool).Exec(ctx, stmt,
		res.ID,
		res.Student.ID,
		res.AuthCodeHash,
		res.Date,
		res.StartTime,
		res.EndTime,
		res.Reason,
		res.Status,
		res.CreatedAt,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		if isUniqueViolation(err) {
			return domain.ErrDailyLimitReached
		}
		return fmt.Errorf("create reservation: %w", err)
	}
	return nil
}

func (r *ReservationRepository) GetByID(ctx context.Context, id string) (domain.Reservation, error) {
	query := `SELECT` + reservationColumns + reservationFrom + ` WHERE r.id = $1`
	res, err := scanReservation(conn(ctx, r.pool).QueryRow(ctx, query, id))
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Reservation{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Reservation{}, domain.ErrReservationNotFound
		}
		return domain.Reservation{}, fmt.Errorf("get reservation: %w", err)
	}
	return res, nil
}

func (r *ReservationRepository) Update(ctx context.Context, res domain.Reservation) error {
	const stmt = `
UPDATE reservations
SET start_minutes = $2, end_minutes = $3, reason = $4, cancelled_reason = NULLIF($5, ''), status = $6, auth_code_hash = $7
WHERE id = $1`

	tag, err := conn(ctx, r.pool).Exec(ctx, stmt,
		res.ID,
		res.StartTime,
		res.EndTime,
		res.Reason,
		res.CancelledReason,
		res.Status,
		res.AuthCodeHash,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("update reservation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrReservationNotFound
	}
	return nil
}

func (r *ReservationRepository) Delete(ctx context.Context, id string) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM reservations WHERE id = $1`, id)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("delete reservation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrReservationNotFound
	}
	return nil
}

func (r *ReservationRepository) FindByStudentAndDate(ctx context.Context, studentID string, date time.Time) (*domain.Reservation, error) {
	query := `SELECT` + reservationColumns + reservationFrom + ` WHERE r.student_id = $1 AND r.reservation_date = $2`
	res, err := scanReservation(conn(ctx, r.pool).QueryRow(ctx, query, studentID, date))
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find reservation by student and date: %w", err)
	}
	return &res, nil
}

func (r *ReservationRepository) ListByDate(ctx context.Context, date time.Time) ([]domain.Reservation, error) {
	query := `SELECT` + reservationColumns + reservationFrom + ` WHERE r.reservation_date = $1 ORDER BY r.start_minutes`
	return r.list(ctx, query, date)
}

func (r *ReservationRepository) ListByDateRange(ctx context.Context, from, to time.Time) ([]domain.Reservation, error) {
	query := `SELECT` + reservationColumns + reservationFrom + `
WHERE r.reservation_date BETWEEN $1 AND $2
ORDER BY r.reservation_date, r.start_minutes`
	return r.list(ctx, query, from, to)
}

func (r *ReservationRepository) ListByStudent(ctx context.Context, studentID string) ([]domain.Reservation, error) {
	query := `SELECT` + reservationColumns + reservationFrom + `
WHERE r.student_id = $1
ORDER BY r.reservation_date, r.start_minutes`
	return r.list(ctx, query, studentID)
}

func (r *ReservationRepository) ListByStatus(ctx context.Context, status domain.ReservationStatus) ([]domain.Reservation, error) {
	query := `SELECT` + reservationColumns + reservationFrom + `
WHERE r.status = $1
ORDER BY r.reservation_date, r.start_minutes`
	return r.list(ctx, query, status)
}

func (r *ReservationRepository) ListUpcomingByStudent(ctx context.Context, studentID string, nowDate time.Time, nowTime domain.TimeOfDay) ([]domain.Reservation, error) {
	query := `SELECT` + reservationColumns + reservationFrom + `
WHERE r.student_id = $1
  AND (r.reservation_date > $2 OR (r.reservation_date = $2 AND r.start_minutes >= $3))
ORDER BY r.reservation_date, r.start_minutes`
	return r.list(ctx, query, studentID, nowDate, nowTime)
}

func (r *ReservationRepository) ListClosest(ctx context.Context, nowDate time.Time, nowTime domain.TimeOfDay, limit int) ([]domain.Reservation, error) {
	query := `SELECT` + reservationColumns + reservationFrom + `
WHERE r.reservation_date > $1 OR (r.reservation_date = $1 AND r.start_minutes >= $2)
ORDER BY r.reservation_date, r.start_minutes
LIMIT $3`
	return r.list(ctx, query, nowDate, nowTime, limit)
}

func (r *ReservationRepository) list(ctx context.Context, query string, args ...any) ([]domain.Reservation, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	defer rows.Close()

	var out []domain.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	return out, nil
}
