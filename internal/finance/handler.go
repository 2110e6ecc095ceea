package finance

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

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
	r.Get("/documents", h.ListDocuments)
	r.Post("/documents", h.CreateDocument)
	r.Get("/documents/{id}", h.ShowDocument)
	r.Post("/payments", h.RegisterPayment)
	r.Get("/aging", h.Aging)
}

func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	var req ListDocumentsRequest

	if v := r.URL.Query().Get("kind"); v != "" {
		kind := DocumentKind(v)
		req.Kind = &kind
	}
	if v := r.URL.Query().Get("status"); v != "" {
		status := DocumentStatus(v)
		req.Status = &status
	}
	if v := r.URL.Query().Get("client_id"); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil && parsed > 0 {
			req.ClientID = &parsed
		}
	}
	page := shared.ParsePage(r.URL.Query(), 50)
	req.Limit = page.Limit
	req.Offset = page.Offset

	documents, total, err := h.service.ListDocuments(r.Context(), req)
	if err != nil {
		h.logger.Error("list documents", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"documents": documents,
		"total":     total,
	})
}

func (h *Handler) ShowDocument(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid document id")
		return
	}

	doc, err := h.service.GetDocument(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, "get document", err)
		return
	}
	httpx.JSON(w, http.StatusOK, doc)
}

func (h *Handler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	var req CreateDocumentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	userID, _ := auth.UserIDFromContext(r.Context())
	doc, err := h.service.CreateDocument(r.Context(), CreateDocumentInput{
		Number:       req.Number,
		Kind:         req.Kind,
		ClientID:     req.ClientID,
		Description:  req.Description,
		TotalValue:   req.TotalValue,
		DownPayment:  req.DownPayment,
		Installments: req.Installments,
		IssueDate:    req.IssueDate,
		CreatedBy:    userID,
	})
	if err != nil {
		h.respondServiceError(w, "create document", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, doc)
}

func (h *Handler) RegisterPayment(w http.ResponseWriter, r *http.Request) {
	var req RegisterPaymentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	userID, _ := auth.UserIDFromContext(r.Context())
	payment, err := h.service.RegisterPayment(r.Context(), req, userID)
	if err != nil {
		switch {
		case errors.Is(err, ErrPaymentExceedsBalance):
			httpx.Problem(w, http.StatusUnprocessableEntity, "Payment Rejected", err.Error())
		case errors.Is(err, shared.ErrInvalidStatusTransition):
			httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
		default:
			h.respondServiceError(w, "register payment", err)
		}
		return
	}
	httpx.JSON(w, http.StatusCreated, payment)
}

func (h *Handler) Aging(w http.ResponseWriter, r *http.Request) {
	kind := KindReceivable
	if v := r.URL.Query().Get("kind"); v != "" {
		kind = DocumentKind(v)
	}
	if kind != KindReceivable && kind != KindPayable {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid document kind")
		return
	}

	asOf := time.Now()
	if v := r.URL.Query().Get("as_of"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "as_of must be YYYY-MM-DD")
			return
		}
		asOf = parsed
	}

	bucket, err := h.service.Aging(r.Context(), kind, asOf)
	if err != nil {
		h.logger.Error("aging report", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, bucket)
}

func (h *Handler) respondServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		httpx.RespondError(w, httpx.ErrNotFound)
	case errors.Is(err, schedule.ErrValidation):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		var mismatch *schedule.BalanceMismatchError
		if errors.As(err, &mismatch) {
			httpx.Problem(w, http.StatusUnprocessableEntity, "Plan Out Of Balance", mismatch.Error())
			return
		}
		h.logger.Error(op, slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}
