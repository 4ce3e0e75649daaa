package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/hoyechan/k-cse-diy-server/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

// BlacklistRepository is the append-only log of students who failed to
// return the key in time. Nothing in this service ever removes entries.
type BlacklistRepository struct {
	pool *pgxpool.Pool
}

func NewBlacklistRepository(pool *pgxpool.Pool) *BlacklistRepository {
	return &BlacklistRepository{pool: pool}
}

func (r *BlacklistRepository) Append(ctx context.Context, studentID string, at time.Time) error {
	_, err := conn(ctx, r.pool).Exec(ctx,
		`INSERT INTO reservation_blacklist (student_id, created_at) VALUES ($1, $2)`,
		studentID, at,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("append blacklist entry: %w", err)
	}
	return nil
}

func (r *BlacklistRepository) List(ctx context.Context) ([]domain.BlacklistEntry, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
SELECT b.id, b.created_at, s.id, s.student_number, s.name, s.role
FROM reservation_blacklist b
JOIN students s ON s.id = b.student_id
ORDER BY b.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list blacklist: %w", err)
	}
	defer rows.Close()

	var out []domain.BlacklistEntry
	for rows.Next() {
		var entry domain.BlacklistEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.CreatedAt,
			&entry.Student.ID,
			&entry.Student.StudentNumber,
			&entry.Student.Name,
			&entry.Student.Role,
		); err != nil {
			return nil, fmt.Errorf("scan blacklist entry: %w", err)
		}
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list blacklist: %w", err)
	}
	return out, nil
}
