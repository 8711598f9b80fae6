package handlers

import (
	"io"
	"net/http"

	"github.com/stripe/stripe-go/v82/webhook"
	"go.uber.org/zap"

	"github.com/resonant-ai/resonant-engine/pkg/auth"
	"github.com/resonant-ai/resonant-engine/pkg/services"
)

// maxWebhookBody bounds the Stripe webhook payload read.
const maxWebhookBody = 1 << 16

// CheckoutSessionResponse for POST /api/billing/checkout
type CheckoutSessionResponse struct {
	URL string `json:"url"`
}

// BillingHandler handles subscription and Stripe webhook HTTP requests.
type BillingHandler struct {
	subscriptions services.SubscriptionService
	webhookSecret string
	logger        *zap.Logger
}

// NewBillingHandler creates a new billing handler.
func NewBillingHandler(
	subscriptions services.SubscriptionService,
	webhookSecret string,
	logger *zap.Logger,
) *BillingHandler {
	return &BillingHandler{
		subscriptions: subscriptions,
		webhookSecret: webhookSecret,
		logger:        logger,
	}
}

// RegisterRoutes registers the billing handler's routes on the given mux.
// The webhook route is unauthenticated; Stripe authenticates by signature.
func (h *BillingHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("GET /api/billing/status", authMiddleware.RequireAuth(h.Status))
	mux.HandleFunc("POST /api/billing/checkout", authMiddleware.RequireAuth(h.CreateCheckout))
	mux.HandleFunc("POST /api/billing/portal", authMiddleware.RequireAuth(h.CreatePortal))
	mux.HandleFunc("POST /api/billing/webhook", h.Webhook)
}

// Status handles GET /api/billing/status
func (h *BillingHandler) Status(w http.ResponseWriter, r *http.Request) {
	userID, ok := RequireUserID(w, r, h.logger)
	if !ok {
		return
	}

	status, err := h.subscriptions.Status(r.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to load subscription status",
			zap.String("user_id", userID.String()),
			zap.Error(err))
		if err := serviceError(w, err, "billing_status_failed"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteData(w, http.StatusOK, status); err != nil {
		h.logger.Error("Failed to encode billing status", zap.Error(err))
	}
}

// CreateCheckout handles POST /api/billing/checkout
func (h *BillingHandler) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	userID, ok := RequireUserID(w, r, h.logger)
	if !ok {
		return
	}

	url, err := h.subscriptions.CreateCheckoutSession(r.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to create checkout session",
			zap.String("user_id", userID.String()),
			zap.Error(err))
		if err := serviceError(w, err, "checkout_failed"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteData(w, http.StatusOK, CheckoutSessionResponse{URL: url}); err != nil {
		h.logger.Error("Failed to encode checkout response", zap.Error(err))
	}
}

// CreatePortal handles POST /api/billing/portal
func (h *BillingHandler) CreatePortal(w http.ResponseWriter, r *http.Request) {
	userID, ok := RequireUserID(w, r, h.logger)
	if !ok {
		return
	}

	url, err := h.subscriptions.CreatePortalSession(r.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to create portal session",
			zap.String("user_id", userID.String()),
			zap.Error(err))
		if err := serviceError(w, err, "portal_failed"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteData(w, http.StatusOK, CheckoutSessionResponse{URL: url}); err != nil {
		h.logger.Error("Failed to encode portal response", zap.Error(err))
	}
}

// Webhook handles POST /api/billing/webhook. Signature verification is
// mandatory; an unverifiable payload is rejected without processing.
func (h *BillingHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_body", "Failed to read payload"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	event, err := webhook.ConstructEvent(payload, r.Header.Get("Stripe-Signature"), h.webhookSecret)
	if err != nil {
		h.logger.Warn("Rejected webhook with bad signature", zap.Error(err))
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_signature", "Webhook signature verification failed"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := h.subscriptions.ProcessWebhookEvent(r.Context(), event); err != nil {
		h.logger.Error("Failed to process webhook event",
			zap.String("event_type", string(event.Type)),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "webhook_failed", "Failed to process event"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, map[string]bool{"received": true}); err != nil {
		h.logger.Error("Failed to encode webhook response", zap.Error(err))
	}
}
