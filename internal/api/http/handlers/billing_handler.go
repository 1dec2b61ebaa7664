package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/project-pulse/pulse/internal/api/dto"
	"github.com/project-pulse/pulse/internal/auth"
	"github.com/project-pulse/pulse/internal/billing"
	"github.com/project-pulse/pulse/internal/domain"
	apperrors "github.com/project-pulse/pulse/pkg/util/errorutil"
)

// BillingHandler exposes subscription purchase and management endpoints.
type BillingHandler struct {
	billing *billing.Service
}

// NewBillingHandler constructs handler.
func NewBillingHandler(billingService *billing.Service) *BillingHandler {
	return &BillingHandler{billing: billingService}
}

// ListPlans handles GET /products.
func (h *BillingHandler) ListPlans(c *fiber.Ctx) error {
	plans := h.billing.Plans()
	out := make([]dto.PlanResponse, 0, len(plans))
	for _, plan := range plans {
		out = append(out, dto.PlanResponse{
			ID:          string(plan.ID),
			Name:        plan.Name,
			Description: plan.Description,
			Amount:      plan.Amount,
			Currency:    plan.Currency,
			Interval:    plan.Interval,
			Features:    plan.Features,
			Tickets:     plan.Tickets,
			CTA:         plan.CTA,
			Featured:    plan.Featured,
			TrialDays:   plan.TrialDays,
		})
	}
	return c.JSON(fiber.Map{"data": out})
}

// CreateCheckoutSession handles POST /billing/create-checkout-session.
func (h *BillingHandler) CreateCheckoutSession(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.CheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	url, err := h.billing.StartCheckout(c.UserContext(), domain.SubscriptionTier(req.Tier), req.WorkspaceID, principal.Email)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.SessionResponse{URL: url}})
}

// CreatePortalSession handles POST /billing/create-portal-session.
func (h *BillingHandler) CreatePortalSession(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	url, err := h.billing.StartPortal(c.UserContext(), principal.Email)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.SessionResponse{URL: url}})
}

// CancelSubscription handles POST /billing/cancel-subscription.
func (h *BillingHandler) CancelSubscription(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	if err := h.billing.Cancel(c.UserContext(), principal.Email); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"status": "cancellation requested"}})
}

// Webhook handles POST /billing/webhook.
func (h *BillingHandler) Webhook(c *fiber.Ctx) error {
	if err := h.billing.HandleWebhook(c.UserContext(), c.Body()); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"received": true})
}
