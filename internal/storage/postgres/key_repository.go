package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/hoyechan/k-cse-diy-server/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type KeyRepository struct {
	pool *pgxpool.Pool
}

func NewKeyRepository(pool *pgxpool.Pool) *KeyRepository {
	return &KeyRepository{pool: pool}
}

func (r *KeyRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

// The oldest key row is authoritative; FOR UPDATE pins it so concurrent
// rent/return attempts serialize on the row lock and the loser sees the
// committed state.
const keyQuery = `
SELECT k.id, k.status, k.created_at, s.id, s.student_number, s.name, s.role
FROM room_keys k
LEFT JOIN students s ON s.id = k.holder_id
ORDER BY k.created_at
LIMIT 1`

func (r *KeyRepository) Get(ctx context.Context) (domain.RoomKey, error) {
	return r.get(ctx, keyQuery)
}

func (r *KeyRepository) GetForUpdate(ctx context.Context) (domain.RoomKey, error) {
	return r.get(ctx, keyQuery+` FOR UPDATE OF k`)
}

func (r *KeyRepository) get(ctx context.Context, query string) (domain.RoomKey, error) {
	var (
		key                          domain.RoomKey
		holderID, number, name, role *string
	)
	err := conn(ctx, r.pool).QueryRow(ctx, query).Scan(
		&key.ID,
		&key.Status,
		&key.CreatedAt,
		&holderID,
		&number,
		&name,
		&role,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.RoomKey{}, domain.ErrKeyNotFound
		}
		return domain.RoomKey{}, fmt.Errorf("get room key: %w", err)
	}
	if holderID != nil {
		key.Holder = &domain.Student{
			ID:            *holderID,
			StudentNumber: *number,
			Name:          *name,
			Role:          domain.Role(*role),
		}
	}
	return key, nil
}

func (r *KeyRepository) SetCustody(ctx context.Context, keyID string, holderID *string, status domain.KeyStatus) error {
	tag, err := conn(ctx, r.pool).Exec(ctx,
		`UPDATE room_keys SET holder_id = $2, status = $3 WHERE id = $1`,
		keyID, holderID, status,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("set key custody: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrKeyNotFound
	}
	return nil
}

func (r *KeyRepository) AppendHistory(ctx context.Context, entry domain.KeyHistoryEntry) error {
	_, err := conn(ctx, r.pool).Exec(ctx,
		`INSERT INTO room_key_history (student_name, student_number, status, occurred_at) VALUES ($1, $2, $3, $4)`,
		entry.StudentName, entry.StudentNumber, entry.Status, entry.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("append key history: %w", err)
	}
	return nil
}

func (r *KeyRepository) ListHistory(ctx context.Context) ([]domain.KeyHistoryEntry, error) {
	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT id, student_name, student_number, status, occurred_at FROM room_key_history ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list key history: %w", err)
	}
	defer rows.Close()

	var out []domain.KeyHistoryEntry
	for rows.Next() {
		var entry domain.KeyHistoryEntry
		if err := rows.Scan(&entry.ID, &entry.StudentName, &entry.StudentNumber, &entry.Status, &entry.OccurredAt); err != nil {
			return nil, fmt.Errorf("scan key history: %w", err)
		}
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list key history: %w", err)
	}
	return out, nil
}

// EnsureKey inserts the singleton key row when none exists yet. Safe to
// call on every startup.
func (r *KeyRepository) EnsureKey(ctx context.Context, id string, createdAt time.Time) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `
INSERT INTO room_keys (id, status, created_at)
SELECT $1, $2, $3
WHERE NOT EXISTS (SELECT 1 FROM room_keys)`,
		id, domain.KeyStatusAvailable, createdAt,
	)
	if err != nil {
		return fmt.Errorf("ensure room key: %w", err)
	}
	return nil
}
