package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/subsync/internal/store"
	"github.com/dukerupert/subsync/internal/stripe"
)

type CheckoutHandler struct {
	stripeClient *stripe.Client
	teamStore    *store.TeamStore
	baseURL      string
	logger       *slog.Logger
}

func NewCheckoutHandler(sc *stripe.Client, ts *store.TeamStore, baseURL string, logger *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		stripeClient: sc,
		teamStore:    ts,
		baseURL:      baseURL,
		logger:       logger,
	}
}

// Callback finalizes a completed checkout session when Stripe redirects the
// buyer's browser back to us. This runs on a user-facing redirect path, so
// every terminal state is a redirect: missing preconditions fall back to the
// pricing page and upstream failures to the error page, never a 5xx body.
func (h *CheckoutHandler) Callback(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		h.redirect(w, r, "/pricing")
		return
	}

	sess, err := h.stripeClient.RetrieveCheckoutSession(sessionID)
	if err != nil {
		h.logger.Error("retrieve checkout session", "session", sessionID, "error", err)
		h.redirect(w, r, "/error")
		return
	}

	if sess.Customer.ID == "" {
		h.logger.Warn("checkout session missing customer", "session", sessionID)
		h.redirect(w, r, "/pricing")
		return
	}
	if sess.Subscription.ID == "" {
		h.logger.Warn("checkout session missing subscription", "session", sessionID)
		h.redirect(w, r, "/pricing")
		return
	}

	sub, err := h.stripeClient.RetrieveSubscription(sess.Subscription.ID)
	if err != nil {
		h.logger.Error("retrieve subscription", "subscription", sess.Subscription.ID, "error", err)
		h.redirect(w, r, "/error")
		return
	}

	// client_reference_id carries the local user id supplied at session
	// creation; without it the purchase cannot be attributed.
	userID := sess.ClientReferenceID
	if userID == "" {
		h.logger.Warn("checkout session missing client reference id", "session", sessionID)
		h.redirect(w, r, "/pricing")
		return
	}

	team, err := h.teamStore.GetForUser(userID)
	if err != nil {
		h.logger.Error("get team for user", "user", userID, "error", err)
		h.redirect(w, r, "/error")
		return
	}
	if team == nil {
		// Payment went through but the user has no team yet; nothing to
		// corrupt, and a later webhook retry converges the record.
		h.logger.Warn("no team for checkout user", "user", userID, "session", sessionID)
		h.redirect(w, r, "/dashboard")
		return
	}

	productID, planName := sub.PlanDetails()
	update := store.SubscriptionUpdate{
		StripeSubscriptionID: &sub.ID,
		Status:               sub.Status,
	}
	if productID != "" {
		update.StripeProductID = &productID
	}
	if planName != "" {
		update.PlanName = &planName
	}
	if err := h.teamStore.UpdateSubscription(team.ID, update); err != nil {
		h.logger.Error("update team subscription", "team", team.ID, "error", err)
		h.redirect(w, r, "/error")
		return
	}

	// Write-once: a second checkout completion must not overwrite an
	// already-bound customer.
	if err := h.teamStore.SetStripeCustomerIDIfEmpty(team.ID, sess.Customer.ID); err != nil {
		h.logger.Error("bind stripe customer", "team", team.ID, "error", err)
		h.redirect(w, r, "/error")
		return
	}

	h.logger.Info("checkout finalized",
		"team", team.ID, "subscription", sub.ID, "status", sub.Status)
	h.redirect(w, r, "/dashboard")
}

// CreateCheckoutSession starts a subscription checkout for the requested
// price and returns the hosted checkout URL.
func (h *CheckoutHandler) CreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	priceID := h.priceIDFromRequest(r)
	if priceID == "" {
		writeError(w, http.StatusBadRequest, "priceId is required")
		return
	}

	// Reuse the team's bound customer so repeat checkouts land on the same
	// Stripe customer record.
	customerID := ""
	team, err := h.teamStore.GetForUser(userID)
	if err != nil {
		h.logger.Error("get team for user", "user", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if team != nil && team.StripeCustomerID != nil {
		customerID = *team.StripeCustomerID
	}

	sess, err := h.stripeClient.CreateCheckoutSession(priceID, customerID, userID)
	if err != nil {
		h.logger.Error("create checkout session", "user", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create checkout session")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"url": sess.URL})
}

// BillingPortal creates a Stripe billing portal session and returns the URL.
func (h *CheckoutHandler) BillingPortal(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	team, err := h.teamStore.GetForUser(userID)
	if err != nil {
		h.logger.Error("get team for user", "user", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if team == nil || team.StripeCustomerID == nil || *team.StripeCustomerID == "" {
		writeError(w, http.StatusBadRequest, "no billing account")
		return
	}

	sess, err := h.stripeClient.CreateBillingPortalSession(*team.StripeCustomerID)
	if err != nil {
		h.logger.Error("create billing portal session", "team", team.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create portal session")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"url": sess.URL})
}

// priceIDFromRequest accepts {"priceId": ...} JSON or a priceId form field.
func (h *CheckoutHandler) priceIDFromRequest(r *http.Request) string {
	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "application/json") {
		var req struct {
			PriceID string `json:"priceId"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return ""
		}
		return req.PriceID
	}
	return r.FormValue("priceId")
}

func (h *CheckoutHandler) redirect(w http.ResponseWriter, r *http.Request, path string) {
	http.Redirect(w, r, h.baseURL+path, http.StatusFound)
}
