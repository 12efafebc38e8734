package cart

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/noah-isme/quoter-api/internal/common"
)

// Handler wires the cart service to HTTP.
type Handler struct {
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(service *Service, validate *validator.Validate) *Handler {
	if validate == nil {
		validate = validator.New()
	}
	return &Handler{service: service, validate: validate}
}

type selectionPayload struct {
	Category      string `json:"category" validate:"required"`
	Model         string `json:"model" validate:"required"`
	BundleType    string `json:"bundleType"`
	ContractYears int    `json:"contractYears" validate:"required,min=1,max=10"`
	CareType      string `json:"careType"`
	VisitCycle    string `json:"visitCycle"`
	PrepayOption  string `json:"prepayOption"`
}

func (p selectionPayload) selection() Selection {
	return Selection{
		Category:      p.Category,
		Model:         p.Model,
		BundleType:    p.BundleType,
		ContractYears: p.ContractYears,
		CareType:      p.CareType,
		VisitCycle:    p.VisitCycle,
		PrepayOption:  p.PrepayOption,
	}
}

type attachCardPayload struct {
	Issuer    string `json:"issuer" validate:"required"`
	UsageTier string `json:"usageTier" validate:"required"`
}

// Create handles POST /api/v1/carts.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	channel, _ := common.Channel(r.Context())
	cart, err := h.service.Create(r.Context(), channel)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": cart})
}

// Get handles GET /api/v1/carts/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	cartID, ok := h.cartID(w, r)
	if !ok {
		return
	}
	cart, result, err := h.service.Get(r.Context(), cartID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": cartResponse(cart, result)})
}

// Quote handles GET /api/v1/carts/{id}/quote.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	cartID, ok := h.cartID(w, r)
	if !ok {
		return
	}
	result, err := h.service.Quote(r.Context(), cartID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": result})
}

// AddItem handles POST /api/v1/carts/{id}/items.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	cartID, ok := h.cartID(w, r)
	if !ok {
		return
	}
	var payload selectionPayload
	if !h.decode(w, r, &payload) {
		return
	}
	cart, result, err := h.service.AddItem(r.Context(), cartID, payload.selection())
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": cartResponse(cart, result)})
}

// EditItem handles PUT /api/v1/carts/{id}/items/{itemID}.
func (h *Handler) EditItem(w http.ResponseWriter, r *http.Request) {
	cartID, ok := h.cartID(w, r)
	if !ok {
		return
	}
	itemID, ok := h.itemID(w, r)
	if !ok {
		return
	}
	var payload selectionPayload
	if !h.decode(w, r, &payload) {
		return
	}
	cart, result, err := h.service.EditItem(r.Context(), cartID, itemID, payload.selection())
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": cartResponse(cart, result)})
}

// RemoveItem handles DELETE /api/v1/carts/{id}/items/{itemID}.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	cartID, ok := h.cartID(w, r)
	if !ok {
		return
	}
	itemID, ok := h.itemID(w, r)
	if !ok {
		return
	}
	cart, result, err := h.service.RemoveItem(r.Context(), cartID, itemID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": cartResponse(cart, result)})
}

// AttachCard handles PUT /api/v1/carts/{id}/items/{itemID}/partner-card.
func (h *Handler) AttachCard(w http.ResponseWriter, r *http.Request) {
	cartID, ok := h.cartID(w, r)
	if !ok {
		return
	}
	itemID, ok := h.itemID(w, r)
	if !ok {
		return
	}
	var payload attachCardPayload
	if !h.decode(w, r, &payload) {
		return
	}
	cart, result, err := h.service.AttachCard(r.Context(), cartID, itemID, payload.Issuer, payload.UsageTier)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": cartResponse(cart, result)})
}

// DetachCard handles DELETE /api/v1/carts/{id}/items/{itemID}/partner-card.
func (h *Handler) DetachCard(w http.ResponseWriter, r *http.Request) {
	cartID, ok := h.cartID(w, r)
	if !ok {
		return
	}
	itemID, ok := h.itemID(w, r)
	if !ok {
		return
	}
	cart, result, err := h.service.DetachCard(r.Context(), cartID, itemID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": cartResponse(cart, result)})
}

func cartResponse(cart Cart, result QuoteResult) map[string]any {
	return map[string]any{
		"cart":  cart,
		"quote": result,
	}
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		var fields []string
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				fields = append(fields, fe.Field())
			}
		}
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", map[string]any{"fields": fields})
		return false
	}
	return true
}

func (h *Handler) cartID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid cart id", nil)
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) itemID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "itemID"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid item id", nil)
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "cart not found", nil)
	case errors.Is(err, ErrItemNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "cart item not found", nil)
	default:
		common.WriteError(w, err)
	}
}
