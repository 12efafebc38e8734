package catalog

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/quoter-api/internal/common"
)

// Handler exposes the catalog read endpoints backing the selection wizard.
type Handler struct {
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Categories handles GET /api/v1/categories.
func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.ListCategories(r.Context(), requestChannel(r))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": categories})
}

// Wizard handles GET /api/v1/products/options: the ordered selection steps
// the storefront walks through.
func (h *Handler) Wizard(w http.ResponseWriter, _ *http.Request) {
	common.JSON(w, http.StatusOK, map[string]any{"data": WizardFields()})
}

// Options handles GET /api/v1/products/options/{field}: the distinct values
// for one wizard step given the selections made so far.
func (h *Handler) Options(w http.ResponseWriter, r *http.Request) {
	field := chi.URLParam(r, "field")
	filter := filterFromQuery(r.URL.Query(), requestChannel(r))
	options, err := h.service.ListOptions(r.Context(), field, filter)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": options})
}

// FindExact handles GET /api/v1/products/find-exact.
func (h *Handler) FindExact(w http.ResponseWriter, r *http.Request) {
	filter := filterFromQuery(r.URL.Query(), requestChannel(r))
	products, err := h.service.FindExact(r.Context(), filter)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": products})
}

// PartnerCards handles GET /api/v1/partner-cards.
func (h *Handler) PartnerCards(w http.ResponseWriter, r *http.Request) {
	cards, err := h.service.ListPartnerCards(r.Context(), requestChannel(r))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": cards})
}

func filterFromQuery(values url.Values, channel string) Filter {
	return Filter{
		Channel:       channel,
		Category:      strings.TrimSpace(values.Get("category")),
		Model:         strings.TrimSpace(values.Get("model")),
		BundleType:    strings.TrimSpace(values.Get("bundleType")),
		ContractYears: common.AtoiDefault(values.Get("contractYears"), 0),
		CareType:      strings.TrimSpace(values.Get("careType")),
		VisitCycle:    strings.TrimSpace(values.Get("visitCycle")),
		PrepayOption:  strings.TrimSpace(values.Get("prepayOption")),
	}
}

func requestChannel(r *http.Request) string {
	if channel, ok := common.Channel(r.Context()); ok {
		return channel
	}
	return ""
}
