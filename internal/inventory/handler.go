package inventory

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/recoleo/recoleo/internal/auth"
	"github.com/recoleo/recoleo/internal/platform/httpx"
	"github.com/recoleo/recoleo/internal/shared"
)

// OutboundRequest sells oil out of a tank.
type OutboundRequest struct {
	TankID int64   `json:"tank_id" validate:"required,gt=0"`
	Liters float64 `json:"liters" validate:"required,gt=0"`
	Note   string  `json:"note" validate:"max=500"`
}

// AdjustmentRequest corrects a tank balance after measurement.
type AdjustmentRequest struct {
	TankID   int64   `json:"tank_id" validate:"required,gt=0"`
	Liters   float64 `json:"liters" validate:"required"`
	UnitCost float64 `json:"unit_cost" validate:"gte=0"`
	Note     string  `json:"note" validate:"required,max=500"`
}

// TransferRequest moves oil between tanks.
type TransferRequest struct {
	SrcTank int64   `json:"src_tank" validate:"required,gt=0"`
	DstTank int64   `json:"dst_tank" validate:"required,gt=0,nefield=SrcTank"`
	Liters  float64 `json:"liters" validate:"required,gt=0"`
	Note    string  `json:"note" validate:"max=500"`
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
	r.Get("/balances", h.ListBalances)
	r.Get("/tanks/{id}/card", h.StockCard)
	r.Post("/outbound", h.PostOutbound)
	r.Post("/adjustments", h.PostAdjustment)
	r.Post("/transfers", h.PostTransfer)
}

func (h *Handler) ListBalances(w http.ResponseWriter, r *http.Request) {
	balances, err := h.service.ListBalances(r.Context())
	if err != nil {
		h.logger.Error("list tank balances", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"balances": balances})
}

func (h *Handler) StockCard(w http.ResponseWriter, r *http.Request) {
	tankID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid tank id")
		return
	}

	filter := StockCardFilter{TankID: tankID}
	if v := r.URL.Query().Get("from"); v != "" {
		if parsed, err := time.Parse("2006-01-02", v); err == nil {
			filter.From = parsed
		}
	}
	if v := r.URL.Query().Get("to"); v != "" {
		if parsed, err := time.Parse("2006-01-02", v); err == nil {
			filter.To = parsed
		}
	}
	filter.Limit = shared.ParsePage(r.URL.Query(), 200).Limit

	entries, err := h.service.GetStockCard(r.Context(), filter)
	if err != nil {
		h.logger.Error("stock card", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (h *Handler) PostOutbound(w http.ResponseWriter, r *http.Request) {
	var req OutboundRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	userID, _ := auth.UserIDFromContext(r.Context())
	card, err := h.service.PostOutbound(r.Context(), OutboundInput{
		TankID:  req.TankID,
		Liters:  req.Liters,
		Note:    req.Note,
		ActorID: userID,
	})
	if err != nil {
		h.respondMovementError(w, "post outbound", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, card)
}

func (h *Handler) PostAdjustment(w http.ResponseWriter, r *http.Request) {
	var req AdjustmentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	userID, _ := auth.UserIDFromContext(r.Context())
	card, err := h.service.PostAdjustment(r.Context(), AdjustmentInput{
		TankID:   req.TankID,
		Liters:   req.Liters,
		UnitCost: req.UnitCost,
		Note:     req.Note,
		ActorID:  userID,
	})
	if err != nil {
		h.respondMovementError(w, "post adjustment", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, card)
}

func (h *Handler) PostTransfer(w http.ResponseWriter, r *http.Request) {
	var req TransferRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	userID, _ := auth.UserIDFromContext(r.Context())
	out, in, err := h.service.PostTransfer(r.Context(), TransferInput{
		SrcTank: req.SrcTank,
		DstTank: req.DstTank,
		Liters:  req.Liters,
		Note:    req.Note,
		ActorID: userID,
	})
	if err != nil {
		h.respondMovementError(w, "post transfer", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"out": out, "in": in})
}

func (h *Handler) respondMovementError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrNegativeStock):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Insufficient Stock", err.Error())
	case errors.Is(err, ErrInvalidQuantity), errors.Is(err, ErrInvalidUnitCost):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}
