package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hoyechan/k-cse-diy-server/internal/app"
	"github.com/hoyechan/k-cse-diy-server/internal/domain"
)

// ReservationService is the minimal interface the public reservation
// endpoints need.
type ReservationService interface {
	CreateReservation(ctx context.Context, in app.CreateReservationInput) (domain.Reservation, error)
	UpdateReservation(ctx context.Context, in app.UpdateReservationInput) (domain.Reservation, error)
	DeleteReservation(ctx context.Context, id, code string) error
	FindByID(ctx context.Context, id string) (domain.Reservation, error)
	FindByDate(ctx context.Context, date time.Time) ([]domain.Reservation, error)
	FindByDateRange(ctx context.Context, from, to time.Time) ([]domain.Reservation, error)
	FindByMonth(ctx context.Context, year int, month time.Month) ([]domain.Reservation, error)
	FindByStatus(ctx context.Context, status domain.ReservationStatus) ([]domain.Reservation, error)
	FindByStudent(ctx context.Context, name, number string) ([]domain.Reservation, error)
	FindByStudentName(ctx context.Context, name string) ([]domain.Reservation, error)
	FindByStudentNumber(ctx context.Context, number string) ([]domain.Reservation, error)
	FindUpcomingByStudent(ctx context.Context, name, number string) ([]domain.Reservation, error)
	FindClosest(ctx context.Context, limit int) ([]domain.Reservation, error)
}

type ReservationHandler struct {
	svc ReservationService
}

func NewReservationHandler(svc ReservationService) *ReservationHandler {
	return &ReservationHandler{svc: svc}
}

const dateLayout = "2006-01-02"

type studentResponse struct {
	Name          string `json:"name"`
	StudentNumber string `json:"student_number"`
}

type reservationResponse struct {
	ID              string          `json:"id"`
	Student         studentResponse `json:"student"`
	Date            string          `json:"date"`
	StartTime       string          `json:"start_time"`
	EndTime         string          `json:"end_time"`
	Reason          string          `json:"reason"`
	CancelledReason string          `json:"cancelled_reason,omitempty"`
	Status          string          `json:"status"`
	CreatedAt       time.Time       `json:"created_at"`
}

func toReservationResponse(res domain.Reservation) reservationResponse {
	return reservationResponse{
		ID: res.ID,
		Student: studentResponse{
			Name:          res.Student.Name,
			StudentNumber: res.Student.StudentNumber,
		},
		Date:            res.Date.Format(dateLayout),
		StartTime:       res.StartTime.String(),
		EndTime:         res.EndTime.String(),
		Reason:          res.Reason,
		CancelledReason: res.CancelledReason,
		Status:          string(res.Status),
		CreatedAt:       res.CreatedAt,
	}
}

func toReservationResponses(list []domain.Reservation) []reservationResponse {
	out := make([]reservationResponse, 0, len(list))
	for _, res := range list {
		out = append(out, toReservationResponse(res))
	}
	return out
}

type createReservationRequest struct {
	StudentName   string `json:"student_name"`
	StudentNumber string `json:"student_number"`
	Date          string `json:"date"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
	Reason        string `json:"reason"`
	AuthCode      string `json:"auth_code"`
}

func (h *ReservationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createReservationRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
		return
	}

	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidDate, "date must be YYYY-MM-DD")
		return
	}
	start, err := domain.ParseTimeOfDay(req.StartTime)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidTime, "start_time must be HH:MM")
		return
	}
	end, err := domain.ParseTimeOfDay(req.EndTime)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidTime, "end_time must be HH:MM")
		return
	}

	res, err := h.svc.CreateReservation(r.Context(), app.CreateReservationInput{
		StudentName:   req.StudentName,
		StudentNumber: req.StudentNumber,
		Date:          date,
		StartTime:     start,
		EndTime:       end,
		Reason:        req.Reason,
		AuthCode:      req.AuthCode,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toReservationResponse(res))
}

// List serves the filtered collection. Exactly one filter family is
// accepted: date, from/to, month, student_name, student_number, or status.
func (h *ReservationHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	switch {
	case q.Get("date") != "":
		date, err := time.Parse(dateLayout, q.Get("date"))
		if err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidDate, "date must be YYYY-MM-DD")
			return
		}
		h.respondList(w, r, func(ctx context.Context) ([]domain.Reservation, error) {
			return h.svc.FindByDate(ctx, date)
		})
	case q.Get("from") != "" || q.Get("to") != "":
		from, err := time.Parse(dateLayout, q.Get("from"))
		if err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidDate, "from must be YYYY-MM-DD")
			return
		}
		to, err := time.Parse(dateLayout, q.Get("to"))
		if err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidDate, "to must be YYYY-MM-DD")
			return
		}
		h.respondList(w, r, func(ctx context.Context) ([]domain.Reservation, error) {
			return h.svc.FindByDateRange(ctx, from, to)
		})
	case q.Get("month") != "":
		month, err := time.Parse("2006-01", q.Get("month"))
		if err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidDate, "month must be YYYY-MM")
			return
		}
		h.respondList(w, r, func(ctx context.Context) ([]domain.Reservation, error) {
			return h.svc.FindByMonth(ctx, month.Year(), month.Month())
		})
	case q.Get("student_name") != "":
		h.respondList(w, r, func(ctx context.Context) ([]domain.Reservation, error) {
			return h.svc.FindByStudentName(ctx, q.Get("student_name"))
		})
	case q.Get("student_number") != "":
		h.respondList(w, r, func(ctx context.Context) ([]domain.Reservation, error) {
			return h.svc.FindByStudentNumber(ctx, q.Get("student_number"))
		})
	case q.Get("status") != "":
		status := domain.ReservationStatus(q.Get("status"))
		switch status {
		case domain.ReservationStatusPending, domain.ReservationStatusApproved, domain.ReservationStatusCancelled:
		default:
			writeError(w, http.StatusBadRequest, codeInvalidQuery, "unknown status")
			return
		}
		h.respondList(w, r, func(ctx context.Context) ([]domain.Reservation, error) {
			return h.svc.FindByStatus(ctx, status)
		})
	default:
		writeError(w, http.StatusBadRequest, codeInvalidQuery, "one of date, from/to, month, student_name, student_number or status is required")
	}
}

func (h *ReservationHandler) respondList(w http.ResponseWriter, r *http.Request, find func(context.Context) ([]domain.Reservation, error)) {
	list, err := find(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toReservationResponses(list))
}

func (h *ReservationHandler) Closest(w http.ResponseWriter, r *http.Request) {
	limit := 3
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, codeInvalidQuery, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	list, err := h.svc.FindClosest(r.Context(), limit)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toReservationResponses(list))
}

func (h *ReservationHandler) Get(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.FindByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toReservationResponse(res))
}

func (h *ReservationHandler) ByStudent(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.FindByStudent(r.Context(), chi.URLParam(r, "name"), chi.URLParam(r, "number"))
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toReservationResponses(list))
}

func (h *ReservationHandler) UpcomingByStudent(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.FindUpcomingByStudent(r.Context(), chi.URLParam(r, "name"), chi.URLParam(r, "number"))
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toReservationResponses(list))
}

type updateReservationRequest struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Reason    string `json:"reason"`
	AuthCode  string `json:"auth_code"`
}

func (h *ReservationHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateReservationRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
		return
	}

	start, err := domain.ParseTimeOfDay(req.StartTime)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidTime, "start_time must be HH:MM")
		return
	}
	end, err := domain.ParseTimeOfDay(req.EndTime)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidTime, "end_time must be HH:MM")
		return
	}

	res, err := h.svc.UpdateReservation(r.Context(), app.UpdateReservationInput{
		ID:        chi.URLParam(r, "id"),
		StartTime: start,
		EndTime:   end,
		Reason:    req.Reason,
		AuthCode:  req.AuthCode,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toReservationResponse(res))
}

type deleteReservationRequest struct {
	AuthCode string `json:"auth_code"`
}

func (h *ReservationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var req deleteReservationRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
		return
	}

	if err := h.svc.DeleteReservation(r.Context(), chi.URLParam(r, "id"), req.AuthCode); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
