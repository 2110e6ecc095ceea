package documents

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/recoleo/recoleo/internal/auth"
	"github.com/recoleo/recoleo/internal/platform/httpx"
	"github.com/recoleo/recoleo/internal/shared"
)

// RenderRequest asks for a document to be generated.
type RenderRequest struct {
	Kind      Kind   `json:"kind" validate:"required,oneof=CONTRACT RECEIPT CERTIFICATE"`
	RefID     int64  `json:"ref_id" validate:"required,gt=0"`
	Signature string `json:"signature" validate:"omitempty,max=1500000"`
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
	r.Post("/render", h.Render)
	r.Get("/{key}", h.Show)
	r.Get("/{key}/download", h.Download)
}

func (h *Handler) Render(w http.ResponseWriter, r *http.Request) {
	var req RenderRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	userID, _ := auth.UserIDFromContext(r.Context())
	key, err := h.service.Request(r.Context(), req.Kind, req.RefID, req.Signature, userID)
	if err != nil {
		if errors.Is(err, ErrInvalidSignature) {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
			return
		}
		h.logger.Error("request document render", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusAccepted, map[string]any{"key": key})
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	key, ok := h.pathKey(w, r)
	if !ok {
		return
	}

	record, err := h.service.Get(r.Context(), key)
	if err != nil {
		h.respondServiceError(w, "get document", err)
		return
	}
	httpx.JSON(w, http.StatusOK, record)
}

func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	key, ok := h.pathKey(w, r)
	if !ok {
		return
	}

	url, err := h.service.DownloadURL(r.Context(), key)
	if err != nil {
		h.respondServiceError(w, "document download url", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"url": url})
}

func (h *Handler) pathKey(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	key, err := uuid.Parse(chi.URLParam(r, "key"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid document key")
		return uuid.Nil, false
	}
	return key, true
}

func (h *Handler) respondServiceError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, shared.ErrNotFound) {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	h.logger.Error(op, slog.Any("error", err))
	httpx.RespondError(w, err)
}
