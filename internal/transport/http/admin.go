package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hoyechan/k-cse-diy-server/internal/domain"
)

// AdminReservationService is the minimal interface the admin reservation
// endpoints need.
type AdminReservationService interface {
	ApproveReservation(ctx context.Context, id string) (domain.Reservation, error)
	ApproveReservations(ctx context.Context, ids []string) ([]domain.Reservation, error)
	CancelReservation(ctx context.Context, id, reason string) (domain.Reservation, error)
	UpdateAuthCode(ctx context.Context, id, newCode string) (domain.Reservation, error)
	DeleteReservationByAdmin(ctx context.Context, id string) error
}

type AdminReservationHandler struct {
	svc AdminReservationService
}

func NewAdminReservationHandler(svc AdminReservationService) *AdminReservationHandler {
	return &AdminReservationHandler{svc: svc}
}

func (h *AdminReservationHandler) Approve(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.ApproveReservation(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toReservationResponse(res))
}

type approveBatchRequest struct {
	IDs []string `json:"ids"`
}

func (h *AdminReservationHandler) ApproveBatch(w http.ResponseWriter, r *http.Request) {
	var req approveBatchRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
		return
	}
	if len(req.IDs) == 0 {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "ids must not be empty")
		return
	}

	list, err := h.svc.ApproveReservations(r.Context(), req.IDs)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toReservationResponses(list))
}

type cancelReservationRequest struct {
	Reason string `json:"reason"`
}

func (h *AdminReservationHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	var req cancelReservationRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
		return
	}

	res, err := h.svc.CancelReservation(r.Context(), chi.URLParam(r, "id"), req.Reason)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toReservationResponse(res))
}

type updateAuthCodeRequest struct {
	AuthCode string `json:"auth_code"`
}

func (h *AdminReservationHandler) UpdateAuthCode(w http.ResponseWriter, r *http.Request) {
	var req updateAuthCodeRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
		return
	}

	res, err := h.svc.UpdateAuthCode(r.Context(), chi.URLParam(r, "id"), req.AuthCode)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toReservationResponse(res))
}

func (h *AdminReservationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteReservationByAdmin(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
