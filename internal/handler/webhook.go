package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/dukerupert/subsync/internal/store"
	"github.com/dukerupert/subsync/internal/stripe"
)

type WebhookHandler struct {
	stripeClient *stripe.Client
	teamStore    *store.TeamStore
	logger       *slog.Logger
}

func NewWebhookHandler(sc *stripe.Client, ts *store.TeamStore, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		stripeClient: sc,
		teamStore:    ts,
		logger:       logger,
	}
}

// HandleStripeWebhook verifies and reconciles a webhook delivery. The raw
// body bytes feed signature verification; parsing happens only afterwards,
// since reserializing would break the signature.
func (h *WebhookHandler) HandleStripeWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 65536))
	if err != nil {
		writeError(w, http.StatusBadRequest, "read body")
		return
	}

	if !h.stripeClient.VerifyWebhook(body, r.Header.Get("Stripe-Signature")) {
		writeError(w, http.StatusBadRequest, "invalid signature")
		return
	}

	var event stripe.Event
	if err := json.Unmarshal(body, &event); err != nil {
		writeError(w, http.StatusBadRequest, "invalid event payload")
		return
	}

	switch event.Type {
	case stripe.EventSubscriptionUpdated, stripe.EventSubscriptionDeleted:
		h.handleSubscriptionChange(w, event)
	default:
		// Unknown event types are acknowledged, not rejected, so Stripe can
		// add types without breaking delivery.
		writeJSON(w, http.StatusOK, map[string]any{"received": true})
	}
}

// handleSubscriptionChange applies an updated/deleted subscription event to
// the team bound to the event's customer. Updates are full overwrites of the
// billing fields, so redelivered events are idempotent and out-of-order
// deliveries resolve last-write-wins; no sequence reconciliation is
// attempted.
func (h *WebhookHandler) handleSubscriptionChange(w http.ResponseWriter, event stripe.Event) {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Object, &sub); err != nil {
		h.logger.Warn("unmarshal subscription event", "event", event.Type, "error", err)
		writeError(w, http.StatusBadRequest, "invalid subscription payload")
		return
	}

	customerID := sub.Customer.ID
	if customerID == "" {
		writeError(w, http.StatusBadRequest, "subscription event missing customer")
		return
	}

	team, err := h.teamStore.GetByStripeCustomerID(customerID)
	if err != nil {
		h.logger.Error("get team by stripe customer id", "customer", customerID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if team == nil {
		// Expected when the webhook races ahead of checkout finalization;
		// answer success so Stripe does not retry-storm.
		h.logger.Info("webhook for unknown customer", "event", event.Type, "customer", customerID)
		writeJSON(w, http.StatusOK, map[string]any{"received": true, "note": "team not found"})
		return
	}

	productID, planName := sub.PlanDetails()

	update := store.SubscriptionUpdate{
		Status: sub.Status,
	}
	if event.Type == stripe.EventSubscriptionUpdated {
		update.StripeSubscriptionID = &sub.ID
	}
	if productID != "" {
		update.StripeProductID = &productID
	}
	if planName != "" {
		update.PlanName = &planName
	}

	if err := h.teamStore.UpdateSubscription(team.ID, update); err != nil {
		h.logger.Error("update team subscription", "team", team.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.logger.Info("reconciled subscription event",
		"event", event.Type, "team", team.ID, "subscription", sub.ID, "status", sub.Status)
	writeJSON(w, http.StatusOK, map[string]any{"received": true})
}
