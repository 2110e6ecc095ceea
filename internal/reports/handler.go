package reports

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/recoleo/recoleo/internal/auth"
	"github.com/recoleo/recoleo/internal/platform/httpx"
	"github.com/recoleo/recoleo/internal/shared"
)

// ExportRequest starts a new export.
type ExportRequest struct {
	Type   ExportType `json:"type" validate:"required,oneof=collections_by_client ledger_summary"`
	Format Format     `json:"format" validate:"required,oneof=CSV XLSX"`
	From   time.Time  `json:"from"`
	To     time.Time  `json:"to"`
	Kind   string     `json:"kind" validate:"omitempty,oneof=RECEIVABLE PAYABLE"`
}

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
	r.Get("/exports", h.ListExports)
	r.Post("/exports", h.CreateExport)
	r.Get("/exports/{id}", h.ShowExport)
}

func (h *Handler) CreateExport(w http.ResponseWriter, r *http.Request) {
	var req ExportRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	userID, _ := auth.UserIDFromContext(r.Context())
	id, err := h.service.RequestExport(r.Context(), req.Type, req.Format, Filters{
		From: req.From,
		To:   req.To,
		Kind: req.Kind,
	}, userID)
	if err != nil {
		h.logger.Error("request export", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusAccepted, map[string]any{"id": id})
}

func (h *Handler) ListExports(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	exports, err := h.service.ListExports(r.Context(), userID)
	if err != nil {
		h.logger.Error("list exports", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"exports": exports})
}

func (h *Handler) ShowExport(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid export id")
		return
	}

	userID, _ := auth.UserIDFromContext(r.Context())
	status, err := h.service.GetExport(r.Context(), id, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			httpx.RespondError(w, httpx.ErrNotFound)
			return
		}
		h.logger.Error("get export", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, status)
}
