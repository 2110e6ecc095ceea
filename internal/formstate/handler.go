package formstate

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/recoleo/recoleo/internal/auth"
	"github.com/recoleo/recoleo/internal/platform/httpx"
	"github.com/recoleo/recoleo/internal/shared"
)

// SaveDraftRequest stores one snapshot.
type SaveDraftRequest struct {
	Form    string          `json:"form" validate:"required,max=100"`
	Payload json.RawMessage `json:"payload" validate:"required"`
}

type Handler struct {
	logger    *slog.Logger
	store     Store
	validator *validator.Validate
}

func NewHandler(logger *slog.Logger, store Store) *Handler {
	return &Handler{
		logger:    logger,
		store:     store,
		validator: validator.New(),
	}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Put("/", h.Save)
	r.Get("/{form}", h.Load)
	r.Delete("/{form}", h.Discard)
}

func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	var req SaveDraftRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	userID, _ := auth.UserIDFromContext(r.Context())
	draft, err := h.store.Save(r.Context(), userID, req.Form, req.Payload)
	if err != nil {
		h.logger.Error("save draft", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, draft)
}

func (h *Handler) Load(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	draft, err := h.store.Load(r.Context(), userID, chi.URLParam(r, "form"))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			httpx.RespondError(w, httpx.ErrNotFound)
			return
		}
		h.logger.Error("load draft", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, draft)
}

func (h *Handler) Discard(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	if err := h.store.Discard(r.Context(), userID, chi.URLParam(r, "form")); err != nil {
		h.logger.Error("discard draft", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
