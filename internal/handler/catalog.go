package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/subsync/internal/stripe"
)

// CatalogHandler serves simplified projections of the Stripe product and
// price catalog for the pricing page.
type CatalogHandler struct {
	stripeClient *stripe.Client
	logger       *slog.Logger
}

func NewCatalogHandler(sc *stripe.Client, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{
		stripeClient: sc,
		logger:       logger,
	}
}

type productResponse struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Description    string `json:"description,omitempty"`
	DefaultPriceID string `json:"defaultPriceId,omitempty"`
}

type priceResponse struct {
	ID              string `json:"id"`
	ProductID       string `json:"productId"`
	UnitAmount      int64  `json:"unitAmount"`
	Currency        string `json:"currency"`
	Interval        string `json:"interval,omitempty"`
	TrialPeriodDays int64  `json:"trialPeriodDays,omitempty"`
}

// Products lists active products.
func (h *CatalogHandler) Products(w http.ResponseWriter, r *http.Request) {
	products, err := h.stripeClient.ListActiveProducts()
	if err != nil {
		h.logger.Error("list products", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list products")
		return
	}

	resp := make([]productResponse, 0, len(products))
	for _, p := range products {
		resp = append(resp, productResponse{
			ID:             p.ID,
			Name:           p.Name,
			Description:    p.Description,
			DefaultPriceID: p.DefaultPrice.ID,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// Prices lists active recurring prices.
func (h *CatalogHandler) Prices(w http.ResponseWriter, r *http.Request) {
	prices, err := h.stripeClient.ListActiveRecurringPrices()
	if err != nil {
		h.logger.Error("list prices", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list prices")
		return
	}

	resp := make([]priceResponse, 0, len(prices))
	for _, p := range prices {
		pr := priceResponse{
			ID:         p.ID,
			ProductID:  p.Product.ID,
			UnitAmount: p.UnitAmount,
			Currency:   p.Currency,
		}
		if p.Recurring != nil {
			pr.Interval = p.Recurring.Interval
			pr.TrialPeriodDays = p.Recurring.TrialPeriodDays
		}
		resp = append(resp, pr)
	}
	writeJSON(w, http.StatusOK, resp)
}
