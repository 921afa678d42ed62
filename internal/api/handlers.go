/**
 * @description
 * This file contains the HTTP handlers for the points ledger API. Handlers are
 * responsible for parsing incoming requests, calling the appropriate methods on
 * the application service, and writing the HTTP response. They act as the
 * bridge between the web layer and the business logic layer.
 *
 * @dependencies
 * - encoding/json, log, net/http: Standard Go libraries.
 * - internal/app, internal/domain, internal/store: For service logic, models, and custom errors.
 */

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/RajSoni19/EcoStreak-project-sub000/internal/app"
	"github.com/RajSoni19/EcoStreak-project-sub000/internal/domain"
	"github.com/RajSoni19/EcoStreak-project-sub000/internal/store"
)

// LedgerHandlers holds the application service that handlers will use.
type LedgerHandlers struct {
	service *app.Service
}

// NewLedgerHandlers creates a new instance of LedgerHandlers.
func NewLedgerHandlers(service *app.Service) *LedgerHandlers {
	return &LedgerHandlers{service: service}
}

type transferRequest struct {
	ToAccountID uuid.UUID `json:"to_account_id"`
	Amount      int64     `json:"amount"`
}

type transferResponse struct {
	FromBalance int64 `json:"from_balance"`
	ToBalance   int64 `json:"to_balance"`
}

type appreciationListResponse struct {
	PostID                  uuid.UUID                   `json:"post_id"`
	TotalAppreciationPoints int64                       `json:"total_appreciation_points"`
	Appreciations           []domain.AppreciationRecord `json:"appreciations"`
}

type setActiveRequest struct {
	Active bool `json:"active"`
}

// accountID resolves the authenticated caller's ledger account id from the
// request context, writing the error response itself on failure.
func (h *LedgerHandlers) accountID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	subject, ok := GetAuthSubject(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "Could not get subject from context")
		return uuid.Nil, false
	}
	accountID, err := uuid.Parse(subject)
	if err != nil {
		log.Printf("level=warn component=api msg=\"subject is not a valid account id\" subject=%s", subject)
		h.writeError(w, http.StatusUnauthorized, "Invalid subject format")
		return uuid.Nil, false
	}
	return accountID, true
}

// ProvisionAccountHandler creates a zero-balance ledger account for the caller.
func (h *LedgerHandlers) ProvisionAccountHandler(w http.ResponseWriter, r *http.Request) {
	accountID, ok := h.accountID(w, r)
	if !ok {
		return
	}

	account := &domain.Account{ID: accountID, Active: true}
	if err := h.service.ProvisionAccount(r.Context(), account); err != nil {
		log.Printf("level=error component=api endpoint=provision_account outcome=error account_id=%s err=%v", accountID, err)
		h.writeError(w, http.StatusInternalServerError, "Could not provision account.")
		return
	}

	log.Printf("level=info component=api endpoint=provision_account outcome=created account_id=%s", accountID)
	h.writeJSON(w, http.StatusCreated, account)
}

// GetAccountHandler returns the caller's ledger snapshot: balance, points
// given, and streak state.
func (h *LedgerHandlers) GetAccountHandler(w http.ResponseWriter, r *http.Request) {
	accountID, ok := h.accountID(w, r)
	if !ok {
		return
	}

	account, err := h.service.GetAccount(r.Context(), accountID)
	if err != nil {
		if errors.Is(err, store.ErrAccountNotFound) {
			h.writeError(w, http.StatusNotFound, "Account not found.")
			return
		}
		log.Printf("level=error component=api endpoint=get_account outcome=error account_id=%s err=%v", accountID, err)
		h.writeError(w, http.StatusInternalServerError, "Could not retrieve account.")
		return
	}

	h.writeJSON(w, http.StatusOK, account)
}

// SetAccountActiveHandler toggles the caller's account between active and
// deactivated. Deactivated accounts reject every point movement.
func (h *LedgerHandlers) SetAccountActiveHandler(w http.ResponseWriter, r *http.Request) {
	accountID, ok := h.accountID(w, r)
	if !ok {
		return
	}

	var req setActiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request payload.")
		return
	}

	if err := h.service.SetAccountActive(r.Context(), accountID, req.Active); err != nil {
		if errors.Is(err, store.ErrAccountNotFound) {
			h.writeError(w, http.StatusNotFound, "Account not found.")
			return
		}
		log.Printf("level=error component=api endpoint=set_account_active outcome=error account_id=%s err=%v", accountID, err)
		h.writeError(w, http.StatusInternalServerError, "Could not update account.")
		return
	}

	log.Printf("level=info component=api endpoint=set_account_active outcome=updated account_id=%s active=%t", accountID, req.Active)
	h.writeJSON(w, http.StatusOK, map[string]bool{"active": req.Active})
}

// TransferHandler moves points from the caller to another account.
func (h *LedgerHandlers) TransferHandler(w http.ResponseWriter, r *http.Request) {
	fromAccountID, ok := h.accountID(w, r)
	if !ok {
		return
	}

	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	fromBalance, toBalance, err := h.service.TransferPoints(r.Context(), fromAccountID, req.ToAccountID, req.Amount)
	if err != nil {
		h.writeLedgerError(w, "transfer", fromAccountID, err)
		return
	}

	log.Printf("level=info component=api endpoint=transfer outcome=completed from=%s to=%s amount=%d", fromAccountID, req.ToAccountID, req.Amount)
	h.writeJSON(w, http.StatusOK, transferResponse{FromBalance: fromBalance, ToBalance: toBalance})
}

// AppreciateHandler gifts points from the caller to a post's author.
func (h *LedgerHandlers) AppreciateHandler(w http.ResponseWriter, r *http.Request) {
	fromAccountID, ok := h.accountID(w, r)
	if !ok {
		return
	}

	var req domain.AppreciateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	record, err := h.service.Appreciate(r.Context(), fromAccountID, req)
	if err != nil {
		h.writeLedgerError(w, "appreciate", fromAccountID, err)
		return
	}

	log.Printf("level=info component=api endpoint=appreciate outcome=created from=%s post_id=%s points=%d", fromAccountID, req.PostID, req.Points)
	h.writeJSON(w, http.StatusCreated, record)
}

// ListPostAppreciationsHandler returns a post's appreciation records in
// insertion order together with the aggregated total.
func (h *LedgerHandlers) ListPostAppreciationsHandler(w http.ResponseWriter, r *http.Request) {
	postID, err := uuid.Parse(chi.URLParam(r, "postID"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid post id.")
		return
	}

	records, total, err := h.service.PostAppreciations(r.Context(), postID)
	if err != nil {
		if errors.Is(err, store.ErrPostNotFound) {
			h.writeError(w, http.StatusNotFound, "Post not found.")
			return
		}
		log.Printf("level=error component=api endpoint=list_appreciations outcome=error post_id=%s err=%v", postID, err)
		h.writeError(w, http.StatusInternalServerError, "Could not retrieve appreciations.")
		return
	}

	h.writeJSON(w, http.StatusOK, appreciationListResponse{
		PostID:                  postID,
		TotalAppreciationPoints: total,
		Appreciations:           records,
	})
}

// AwardBatchHandler credits the same number of points to a list of target
// accounts on behalf of the calling organizer.
func (h *LedgerHandlers) AwardBatchHandler(w http.ResponseWriter, r *http.Request) {
	organizerID, ok := h.accountID(w, r)
	if !ok {
		return
	}

	var req domain.AwardBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	if len(req.TargetAccountIDs) == 0 {
		h.writeError(w, http.StatusBadRequest, "Target account list is empty.")
		return
	}

	result, err := h.service.AwardPointsBatch(r.Context(), organizerID, req)
	if err != nil {
		h.writeLedgerError(w, "award_batch", organizerID, err)
		return
	}

	log.Printf("level=info component=api endpoint=award_batch outcome=completed organizer=%s targets=%d credited=%d failed=%d", organizerID, len(req.TargetAccountIDs), len(result.Credited), len(result.Failures))
	h.writeJSON(w, http.StatusOK, result)
}

// EvaluateStreakHandler runs the caller's daily streak evaluation. Repeated
// same-day calls are no-ops and return the unmodified state.
func (h *LedgerHandlers) EvaluateStreakHandler(w http.ResponseWriter, r *http.Request) {
	accountID, ok := h.accountID(w, r)
	if !ok {
		return
	}

	evaluation, err := h.service.EvaluateDailyStreak(r.Context(), accountID)
	if err != nil {
		if errors.Is(err, store.ErrAccountNotFound) {
			h.writeError(w, http.StatusNotFound, "Account not found.")
			return
		}
		log.Printf("level=error component=api endpoint=evaluate_streak outcome=error account_id=%s err=%v", accountID, err)
		h.writeError(w, http.StatusInternalServerError, "Could not evaluate streak.")
		return
	}

	h.writeJSON(w, http.StatusOK, evaluation)
}

// writeLedgerError maps the service and store error taxonomy onto HTTP
// statuses shared by the point-movement endpoints.
func (h *LedgerHandlers) writeLedgerError(w http.ResponseWriter, endpoint string, accountID uuid.UUID, err error) {
	switch {
	case errors.Is(err, app.ErrInvalidAmount):
		h.writeError(w, http.StatusBadRequest, "Amount is out of range.")
	case errors.Is(err, app.ErrRateLimited):
		w.Header().Set("Retry-After", time.Minute.String())
		h.writeError(w, http.StatusTooManyRequests, "Too many attempts. Please slow down.")
	case errors.Is(err, store.ErrInsufficientFunds):
		h.writeError(w, http.StatusUnprocessableEntity, "Insufficient points.")
	case errors.Is(err, store.ErrAccountNotFound):
		h.writeError(w, http.StatusNotFound, "Account not found.")
	case errors.Is(err, store.ErrPostNotFound):
		h.writeError(w, http.StatusNotFound, "Post not found.")
	case errors.Is(err, store.ErrSelfAppreciation):
		h.writeError(w, http.StatusBadRequest, "You cannot appreciate your own post.")
	case errors.Is(err, store.ErrDuplicateAppreciation):
		h.writeError(w, http.StatusConflict, "You have already appreciated this post.")
	default:
		log.Printf("level=error component=api endpoint=%s outcome=error account_id=%s err=%v", endpoint, accountID, err)
		h.writeError(w, http.StatusInternalServerError, "Internal server error.")
	}
}

// writeJSON is a helper for writing JSON responses.
func (h *LedgerHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError is a helper for writing JSON error responses.
func (h *LedgerHandlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
