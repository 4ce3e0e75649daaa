package http

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/hoyechan/k-cse-diy-server/internal/app"
	"github.com/hoyechan/k-cse-diy-server/internal/domain"
)

// stubReservationService satisfies both the public and the admin
// reservation interfaces and records the identifiers it was called with.
type stubReservationService struct {
	res  domain.Reservation
	list []domain.Reservation
	err  error

	createInput app.CreateReservationInput
	updateInput app.UpdateReservationInput
	gotID       string
	gotIDs      []string
	gotCode     string
	gotReason   string
}

func (s *stubReservationService) CreateReservation(_ context.Context, in app.CreateReservationInput) (domain.Reservation, error) {
	s.createInput = in
	return s.res, s.err
}

func (s *stubReservationService) UpdateReservation(_ context.Context, in app.UpdateReservationInput) (domain.Reservation, error) {
	s.updateInput = in
	return s.res, s.err
}

func (s *stubReservationService) DeleteReservation(_ context.Context, id, code string) error {
	s.gotID, s.gotCode = id, code
	return s.err
}

func (s *stubReservationService) FindByID(_ context.Context, id string) (domain.Reservation, error) {
	s.gotID = id
	return s.res, s.err
}

func (s *stubReservationService) FindByDate(context.Context, time.Time) ([]domain.Reservation, error) {
	return s.list, s.err
}

func (s *stubReservationService) FindByDateRange(context.Context, time.Time, time.Time) ([]domain.Reservation, error) {
	return s.list, s.err
}

func (s *stubReservationService) FindByMonth(context.Context, int, time.Month) ([]domain.Reservation, error) {
	return s.list, s.err
}

func (s *stubReservationService) FindByStatus(context.Context, domain.ReservationStatus) ([]domain.Reservation, error) {
	return s.list, s.err
}

func (s *stubReservationService) FindByStudent(_ context.Context, name, number string) ([]domain.Reservation, error) {
	s.gotID = name + "/" + number
	return s.list, s.err
}

func (s *stubReservationService) FindByStudentName(_ context.Context, name string) ([]domain.Reservation, error) {
	s.gotID = name
	return s.list, s.err
}

func (s *stubReservationService) FindByStudentNumber(_ context.Context, number string) ([]domain.Reservation, error) {
	s.gotID = number
	return s.list, s.err
}

func (s *stubReservationService) FindUpcomingByStudent(_ context.Context, name, number string) ([]domain.Reservation, error) {
	s.gotID = name + "/" + number
	return s.list, s.err
}

func (s *stubReservationService) FindClosest(context.Context, int) ([]domain.Reservation, error) {
	return s.list, s.err
}

func (s *stubReservationService) ApproveReservation(_ context.Context, id string) (domain.Reservation, error) {
	s.gotID = id
	return s.res, s.err
}

func (s *stubReservationService) ApproveReservations(_ context.Context, ids []string) ([]domain.Reservation, error) {
	s.gotIDs = ids
	return s.list, s.err
}

func (s *stubReservationService) CancelReservation(_ context.Context, id, reason string) (domain.Reservation, error) {
	s.gotID, s.gotReason = id, reason
	return s.res, s.err
}

func (s *stubReservationService) UpdateAuthCode(_ context.Context, id, code string) (domain.Reservation, error) {
	s.gotID, s.gotCode = id, code
	return s.res, s.err
}

func (s *stubReservationService) DeleteReservationByAdmin(_ context.Context, id string) error {
	s.gotID = id
	return s.err
}

type stubKeyService struct {
	key     domain.RoomKey
	status  domain.KeyStatus
	history []domain.KeyHistoryEntry
	err     error

	gotName   string
	gotNumber string
	gotStatus domain.KeyStatus
}

func (s *stubKeyService) Current(context.Context) (domain.RoomKey, error) {
	return s.key, s.err
}

func (s *stubKeyService) History(context.Context) ([]domain.KeyHistoryEntry, error) {
	return s.history, s.err
}

func (s *stubKeyService) Rent(_ context.Context, name, number string) (domain.KeyStatus, error) {
	s.gotName, s.gotNumber = name, number
	return s.status, s.err
}

func (s *stubKeyService) Return(_ context.Context, name, number string) (domain.KeyStatus, error) {
	s.gotName, s.gotNumber = name, number
	return s.status, s.err
}

func (s *stubKeyService) ForceReturn(_ context.Context, status domain.KeyStatus) (domain.RoomKey, error) {
	s.gotStatus = status
	return s.key, s.err
}

type stubBlacklist struct {
	entries []domain.BlacklistEntry
	err     error
}

func (s *stubBlacklist) List(context.Context) ([]domain.BlacklistEntry, error) {
	return s.entries, s.err
}

func newTestRouter(svc *stubReservationService, keys *stubKeyService, blacklist *stubBlacklist) http.Handler {
	if svc == nil {
		svc = &stubReservationService{}
	}
	if keys == nil {
		keys = &stubKeyService{}
	}
	if blacklist == nil {
		blacklist = &stubBlacklist{}
	}
	cfg := RouterConfig{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	return NewRouter(cfg,
		NewReservationHandler(svc),
		NewAdminReservationHandler(svc),
		NewKeyHandler(keys, blacklist),
	)
}
