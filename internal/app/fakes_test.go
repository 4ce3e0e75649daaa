package app

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/hoyechan/k-cse-diy-server/internal/domain"
)

// fakeHasher marks digests with a prefix so tests stay fast and can assert
// that plaintext codes are never stored.
type fakeHasher struct{}

func (fakeHasher) Hash(code string) (string, error) { return "digest:" + code, nil }

func (fakeHasher) Matches(code, digest string) bool { return digest == "digest:"+code }

type fakeDirectory struct {
	students []domain.Student
}

func (f *fakeDirectory) FindByNameAndNumber(_ context.Context, name, number string) (domain.Student, error) {
	for _, s := range f.students {
		if s.Name == name && s.StudentNumber == number {
			return s, nil
		}
	}
	return domain.Student{}, domain.ErrStudentNotFound
}

func (f *fakeDirectory) FindByName(_ context.Context, name string) (domain.Student, error) {
	for _, s := range f.students {
		if s.Name == name {
			return s, nil
		}
	}
	return domain.Student{}, domain.ErrStudentNotFound
}

func (f *fakeDirectory) FindByNumber(_ context.Context, number string) (domain.Student, error) {
	for _, s := range f.students {
		if s.StudentNumber == number {
			return s, nil
		}
	}
	return domain.Student{}, domain.ErrStudentNotFound
}

type fakeReservationRepo struct {
	reservations []domain.Reservation
}

func newFakeReservationRepo(reservations ...domain.Reservation) *fakeReservationRepo {
	return &fakeReservationRepo{reservations: append([]domain.Reservation{}, reservations...)}
}

func (f *fakeReservationRepo) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (f *fakeReservationRepo) LockDate(context.Context, time.Time) error { return nil }

func (f *fakeReservationRepo) Create(_ context.Context, r domain.Reservation) error {
	f.reservations = append(f.reservations, r)
	return nil
}

func (f *fakeReservationRepo) GetByID(_ context.Context, id string) (domain.Reservation, error) {
	for _, r := range f.reservations {
		if r.ID == id {
			return r, nil
		}
	}
	return domain.Reservation{}, domain.ErrReservationNotFound
}

func (f *fakeReservationRepo) Update(_ context.Context, r domain.Reservation) error {
	for i := range f.reservations {
		if f.reservations[i].ID == r.ID {
			f.reservations[i] = r
			return nil
		}
	}
	return domain.ErrReservationNotFound
}

func (f *fakeReservationRepo) Delete(_ context.Context, id string) error {
	for i := range f.reservations {
		if f.reservations[i].ID == id {
			f.reservations = append(f.reservations[:i], f.reservations[i+1:]...)
			return nil
		}
	}
	return domain.ErrReservationNotFound
}

func (f *fakeReservationRepo) FindByStudentAndDate(_ context.Context, studentID string, date time.Time) (*domain.Reservation, error) {
	for i := range f.reservations {
		r := f.reservations[i]
		if r.Student.ID == studentID && r.Date.Equal(date) {
			return &r, nil
		}
	}
	return nil, nil
}

func (f *fakeReservationRepo) ListByDate(_ context.Context, date time.Time) ([]domain.Reservation, error) {
	var out []domain.Reservation
	for _, r := range f.reservations {
		if r.Date.Equal(date) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeReservationRepo) ListByDateRange(_ context.Context, from, to time.Time) ([]domain.Reservation, error) {
	var out []domain.Reservation
	for _, r := range f.reservations {
		if !r.Date.Before(from) && !r.Date.After(to) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeReservationRepo) ListByStudent(_ context.Context, studentID string) ([]domain.Reservation, error) {
	var out []domain.Reservation
	for _, r := range f.reservations {
		if r.Student.ID == studentID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeReservationRepo) ListByStatus(_ context.Context, status domain.ReservationStatus) ([]domain.Reservation, error) {
	var out []domain.Reservation
	for _, r := range f.reservations {
		if r.Status == status {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeReservationRepo) ListUpcomingByStudent(_ context.Context, studentID string, nowDate time.Time, nowTime domain.TimeOfDay) ([]domain.Reservation, error) {
	var out []domain.Reservation
	for _, r := range f.reservations {
		if r.Student.ID != studentID {
			continue
		}
		if r.Date.After(nowDate) || (r.Date.Equal(nowDate) && r.StartTime >= nowTime) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeReservationRepo) ListClosest(_ context.Context, nowDate time.Time, nowTime domain.TimeOfDay, limit int) ([]domain.Reservation, error) {
	var out []domain.Reservation
	for _, r := range f.reservations {
		if r.Date.After(nowDate) || (r.Date.Equal(nowDate) && r.StartTime >= nowTime) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].StartTime < out[j].StartTime
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeKeyRepo struct {
	mu      sync.Mutex
	key     domain.RoomKey
	history []domain.KeyHistoryEntry
	// students resolves holder ids back to directory records for Get.
	students map[string]domain.Student
}

func newFakeKeyRepo(key domain.RoomKey, students ...domain.Student) *fakeKeyRepo {
	byID := make(map[string]domain.Student, len(students))
	for _, s := range students {
		byID[s.ID] = s
	}
	return &fakeKeyRepo{key: key, students: byID}
}

func (f *fakeKeyRepo) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (f *fakeKeyRepo) GetForUpdate(ctx context.Context) (domain.RoomKey, error) {
	return f.Get(ctx)
}

func (f *fakeKeyRepo) Get(context.Context) (domain.RoomKey, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.key.ID == "" {
		return domain.RoomKey{}, domain.ErrKeyNotFound
	}
	return f.key, nil
}

func (f *fakeKeyRepo) SetCustody(_ context.Context, keyID string, holderID *string, status domain.KeyStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.key.ID != keyID {
		return domain.ErrKeyNotFound
	}
	if holderID == nil {
		f.key.Holder = nil
	} else {
		student := f.students[*holderID]
		f.key.Holder = &student
	}
	f.key.Status = status
	return nil
}

func (f *fakeKeyRepo) AppendHistory(_ context.Context, entry domain.KeyHistoryEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	entry.ID = int64(len(f.history) + 1)
	f.history = append(f.history, entry)
	return nil
}

func (f *fakeKeyRepo) ListHistory(context.Context) ([]domain.KeyHistoryEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := append([]domain.KeyHistoryEntry{}, f.history...)
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

type fakeBlacklist struct {
	mu      sync.Mutex
	entries []domain.BlacklistEntry
}

func (f *fakeBlacklist) Append(_ context.Context, studentID string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, domain.BlacklistEntry{
		ID:        int64(len(f.entries) + 1),
		Student:   domain.Student{ID: studentID},
		CreatedAt: at,
	})
	return nil
}

func (f *fakeBlacklist) List(context.Context) ([]domain.BlacklistEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.BlacklistEntry{}, f.entries...), nil
}
