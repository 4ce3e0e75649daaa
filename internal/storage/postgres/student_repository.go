package postgres

import (
	"context"
	"fmt"

	"github.com/hoyechan/k-cse-diy-server/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// StudentRepository is the directory of space members. Records come from
// an upstream roster import; this service only reads them.
type StudentRepository struct {
	pool *pgxpool.Pool
}

func NewStudentRepository(pool *pgxpool.Pool) *StudentRepository {
	return &StudentRepository{pool: pool}
}

const studentColumns = `id, student_number, name, role`

func (r *StudentRepository) FindByNameAndNumber(ctx context.Context, name, number string) (domain.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE name = $1 AND student_number = $2`
	return r.one(ctx, query, name, number)
}

func (r *StudentRepository) FindByName(ctx context.Context, name string) (domain.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE name = $1`
	return r.one(ctx, query, name)
}

func (r *StudentRepository) FindByNumber(ctx context.Context, number string) (domain.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE student_number = $1`
	return r.one(ctx, query, number)
}

func (r *StudentRepository) one(ctx context.Context, query string, args ...any) (domain.Student, error) {
	var s domain.Student
	err := conn(ctx, r.pool).QueryRow(ctx, query, args...).
		Scan(&s.ID, &s.StudentNumber, &s.Name, &s.Role)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Student{}, domain.ErrStudentNotFound
		}
		return domain.Student{}, fmt.Errorf("find student: %w", err)
	}
	return s, nil
}
