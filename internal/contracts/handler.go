package contracts

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/recoleo/recoleo/internal/auth"
	"github.com/recoleo/recoleo/internal/finance/schedule"
	"github.com/recoleo/recoleo/internal/platform/httpx"
	"github.com/recoleo/recoleo/internal/shared"
)

type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		validator: validator.New(),
	}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Show)
	r.Patch("/{id}/terms", h.UpdateTerms)
	r.Post("/{id}/installments", h.OverrideInstallment)
	r.Post("/{id}/reconcile", h.Reconcile)
	r.Post("/{id}/activate", h.Activate)
	r.Post("/{id}/cancel", h.Cancel)
	r.Post("/{id}/close", h.Close)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	var req ListContractsRequest
	if v := r.URL.Query().Get("client_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			req.ClientID = &id
		}
	}
	if v := r.URL.Query().Get("status"); v != "" {
		status := Status(v)
		req.Status = &status
	}
	page := shared.ParsePage(r.URL.Query(), 50)
	req.Limit = page.Limit
	req.Offset = page.Offset

	result, total, err := h.service.List(r.Context(), req)
	if err != nil {
		h.logger.Error("list contracts", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"contracts": result,
		"total":     total,
	})
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, ok := h.contractID(w, r)
	if !ok {
		return
	}
	contract, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, "get contract", err)
		return
	}
	httpx.JSON(w, http.StatusOK, contract)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateContractRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	userID, _ := auth.UserIDFromContext(r.Context())
	contract, err := h.service.Create(r.Context(), req, userID)
	if err != nil {
		h.respondServiceError(w, "create contract", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, contract)
}

func (h *Handler) UpdateTerms(w http.ResponseWriter, r *http.Request) {
	id, ok := h.contractID(w, r)
	if !ok {
		return
	}
	var req UpdateTermsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	resp, err := h.service.UpdateTerms(r.Context(), id, req)
	if err != nil {
		h.respondServiceError(w, "update contract terms", err)
		return
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) OverrideInstallment(w http.ResponseWriter, r *http.Request) {
	id, ok := h.contractID(w, r)
	if !ok {
		return
	}
	var req OverrideInstallmentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	resp, err := h.service.OverrideInstallment(r.Context(), id, req)
	if err != nil {
		h.respondServiceError(w, "override installment", err)
		return
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) Reconcile(w http.ResponseWriter, r *http.Request) {
	id, ok := h.contractID(w, r)
	if !ok {
		return
	}
	var req ReconcileRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	resp, err := h.service.ReconcileDownPayment(r.Context(), id, req.DownPayment)
	if err != nil {
		h.respondServiceError(w, "reconcile down payment", err)
		return
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) Activate(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, StatusActive)
}

func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, StatusCancelled)
}

func (h *Handler) Close(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, StatusClosed)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, target Status) {
	id, ok := h.contractID(w, r)
	if !ok {
		return
	}
	contract, err := h.service.Transition(r.Context(), id, target)
	if err != nil {
		h.respondServiceError(w, "transition contract", err)
		return
	}
	httpx.JSON(w, http.StatusOK, contract)
}

func (h *Handler) contractID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid contract id")
		return 0, false
	}
	return id, true
}

func (h *Handler) respondServiceError(w http.ResponseWriter, op string, err error) {
	var mismatch *schedule.BalanceMismatchError
	switch {
	case errors.Is(err, shared.ErrNotFound):
		httpx.RespondError(w, httpx.ErrNotFound)
	case errors.Is(err, shared.ErrAlreadyExists):
		httpx.RespondError(w, httpx.ErrDuplicate)
	case errors.Is(err, shared.ErrInvalidStatusTransition):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.As(err, &mismatch):
		httpx.Problem(w, http.StatusConflict, "Balance Mismatch", err.Error())
	case errors.Is(err, schedule.ErrValidation):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}
