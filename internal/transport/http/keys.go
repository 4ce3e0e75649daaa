package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/hoyechan/k-cse-diy-server/internal/domain"
)

// KeyService is the minimal interface the key custody endpoints need.
type KeyService interface {
	Current(ctx context.Context) (domain.RoomKey, error)
	History(ctx context.Context) ([]domain.KeyHistoryEntry, error)
	Rent(ctx context.Context, studentName, studentNumber string) (domain.KeyStatus, error)
	Return(ctx context.Context, studentName, studentNumber string) (domain.KeyStatus, error)
	ForceReturn(ctx context.Context, status domain.KeyStatus) (domain.RoomKey, error)
}

// BlacklistReader lists students flagged for not returning the key.
type BlacklistReader interface {
	List(ctx context.Context) ([]domain.BlacklistEntry, error)
}

type KeyHandler struct {
	svc       KeyService
	blacklist BlacklistReader
}

func NewKeyHandler(svc KeyService, blacklist BlacklistReader) *KeyHandler {
	return &KeyHandler{svc: svc, blacklist: blacklist}
}

type keyResponse struct {
	Status string           `json:"status"`
	Holder *studentResponse `json:"holder,omitempty"`
}

func toKeyResponse(key domain.RoomKey) keyResponse {
	resp := keyResponse{Status: string(key.Status)}
	if key.Holder != nil {
		resp.Holder = &studentResponse{
			Name:          key.Holder.Name,
			StudentNumber: key.Holder.StudentNumber,
		}
	}
	return resp
}

func (h *KeyHandler) Current(w http.ResponseWriter, r *http.Request) {
	key, err := h.svc.Current(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toKeyResponse(key))
}

type keyCustodyRequest struct {
	StudentName   string `json:"student_name"`
	StudentNumber string `json:"student_number"`
}

type keyStatusResponse struct {
	Status string `json:"status"`
}

func (h *KeyHandler) Rent(w http.ResponseWriter, r *http.Request) {
	h.custody(w, r, h.svc.Rent)
}

func (h *KeyHandler) Return(w http.ResponseWriter, r *http.Request) {
	h.custody(w, r, h.svc.Return)
}

func (h *KeyHandler) custody(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, name, number string) (domain.KeyStatus, error)) {
	var req keyCustodyRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
		return
	}

	status, err := op(r.Context(), req.StudentName, req.StudentNumber)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, keyStatusResponse{Status: string(status)})
}

type forceReturnRequest struct {
	Status string `json:"status"`
}

// ForceReturn lets an admin reset custody regardless of who holds the key.
func (h *KeyHandler) ForceReturn(w http.ResponseWriter, r *http.Request) {
	req := forceReturnRequest{Status: string(domain.KeyStatusAvailable)}
	if r.ContentLength != 0 {
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
	}

	status := domain.KeyStatus(req.Status)
	switch status {
	case domain.KeyStatusAvailable, domain.KeyStatusNotReturned:
	default:
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "status must be available or not_returned")
		return
	}

	key, err := h.svc.ForceReturn(r.Context(), status)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toKeyResponse(key))
}

type keyHistoryResponse struct {
	ID            int64     `json:"id"`
	StudentName   string    `json:"student_name"`
	StudentNumber string    `json:"student_number"`
	Status        string    `json:"status"`
	OccurredAt    time.Time `json:"occurred_at"`
}

func (h *KeyHandler) History(w http.ResponseWriter, r *http.Request) {
	entries, err := h.svc.History(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}

	resp := make([]keyHistoryResponse, 0, len(entries))
	for _, entry := range entries {
		resp = append(resp, keyHistoryResponse{
			ID:            entry.ID,
			StudentName:   entry.StudentName,
			StudentNumber: entry.StudentNumber,
			Status:        string(entry.Status),
			OccurredAt:    entry.OccurredAt,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

type blacklistEntryResponse struct {
	ID        int64           `json:"id"`
	Student   studentResponse `json:"student"`
	CreatedAt time.Time       `json:"created_at"`
}

func (h *KeyHandler) Blacklist(w http.ResponseWriter, r *http.Request) {
	entries, err := h.blacklist.List(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}

	resp := make([]blacklistEntryResponse, 0, len(entries))
	for _, entry := range entries {
		resp = append(resp, blacklistEntryResponse{
			ID: entry.ID,
			Student: studentResponse{
				Name:          entry.Student.Name,
				StudentNumber: entry.Student.StudentNumber,
			},
			CreatedAt: entry.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}
