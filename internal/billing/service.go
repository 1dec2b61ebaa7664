package billing

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/project-pulse/pulse/internal/config"
	"github.com/project-pulse/pulse/internal/domain"
	"github.com/project-pulse/pulse/internal/repository"
	apperrors "github.com/project-pulse/pulse/pkg/util/errorutil"
)

// Service orchestrates checkout flows and webhook-driven profile sync.
type Service struct {
	provider Provider
	profiles repository.ProfileRepository
	cfg      config.BillingConfig
	logger   *zap.Logger
}

// NewService constructs the billing service.
func NewService(provider Provider, profiles repository.ProfileRepository, cfg config.BillingConfig, logger *zap.Logger) *Service {
	return &Service{provider: provider, profiles: profiles, cfg: cfg, logger: logger}
}

// Plans returns the sellable catalogue.
func (s *Service) Plans() []domain.PlanTier {
	return domain.PlanCatalogue
}

// StartCheckout creates a hosted checkout session for the given tier.
func (s *Service) StartCheckout(ctx context.Context, tier domain.SubscriptionTier, workspaceID, email string) (string, error) {
	plan, ok := domain.FindPlan(tier)
	if !ok {
		return "", apperrors.NewValidationError("unknown plan tier", map[string]any{"tier": tier})
	}
	if strings.TrimSpace(workspaceID) == "" {
		return "", apperrors.NewValidationError("workspace_id is required", nil)
	}

	url, err := s.provider.CreateCheckoutSession(ctx, CheckoutParams{
		Plan:        plan,
		WorkspaceID: workspaceID,
		Email:       email,
		SuccessURL:  s.cfg.FrontendURL + "/billing/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:   s.cfg.FrontendURL + "/billing/cancel",
	})
	if err != nil {
		return "", apperrors.NewUpstreamError("payment provider", err)
	}
	return url, nil
}

// StartPortal creates a self-service portal session for an existing customer.
func (s *Service) StartPortal(ctx context.Context, email string) (string, error) {
	url, err := s.provider.CreatePortalSession(ctx, email, s.cfg.FrontendURL+"/billing")
	if err != nil {
		if err == ErrCustomerNotFound {
			return "", apperrors.NewNotFound("billing customer", nil)
		}
		return "", apperrors.NewUpstreamError("payment provider", err)
	}
	return url, nil
}

// Cancel cancels the customer's active subscription. The profile flips to
// canceled when the provider's deletion webhook arrives.
func (s *Service) Cancel(ctx context.Context, email string) error {
	if err := s.provider.CancelSubscription(ctx, email); err != nil {
		if err == ErrCustomerNotFound {
			return apperrors.NewNotFound("active subscription", nil)
		}
		return apperrors.NewUpstreamError("payment provider", err)
	}
	return nil
}

type webhookEvent struct {
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

type checkoutSessionObject struct {
	CustomerEmail   string `json:"customer_email"`
	CustomerDetails struct {
		Email string `json:"email"`
	} `json:"customer_details"`
	Metadata map[string]string `json:"metadata"`
}

type subscriptionObject struct {
	Status   string            `json:"status"`
	Metadata map[string]string `json:"metadata"`
}

// HandleWebhook applies a provider event to the subscription profile store.
// Unknown event types are acknowledged without action so the provider does
// not retry them forever.
func (s *Service) HandleWebhook(ctx context.Context, body []byte) error {
	var event webhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return apperrors.NewValidationError("malformed webhook payload", nil)
	}

	switch event.Type {
	case "checkout.session.completed":
		return s.applyCheckoutCompleted(ctx, event.Data.Object)
	case "customer.subscription.updated":
		return s.applySubscriptionChange(ctx, event.Data.Object, "")
	case "customer.subscription.deleted":
		return s.applySubscriptionChange(ctx, event.Data.Object, domain.StatusCanceled)
	default:
		s.logger.Debug("webhook event ignored", zap.String("type", event.Type))
		return nil
	}
}

func (s *Service) applyCheckoutCompleted(ctx context.Context, raw json.RawMessage) error {
	var session checkoutSessionObject
	if err := json.Unmarshal(raw, &session); err != nil {
		return apperrors.NewValidationError("malformed checkout session", nil)
	}

	workspaceID := session.Metadata["workspace_id"]
	if workspaceID == "" {
		s.logger.Warn("checkout completed without workspace metadata")
		return nil
	}
	email := session.CustomerEmail
	if email == "" {
		email = session.CustomerDetails.Email
	}

	profile := &domain.SubscriptionProfile{
		WorkspaceID: workspaceID,
		Email:       email,
		Tier:        normalizeTier(session.Metadata["tier"]),
		Status:      domain.StatusActive,
	}
	if err := s.profiles.Upsert(ctx, profile); err != nil {
		return apperrors.MapError(err)
	}
	s.logger.Info("subscription activated",
		zap.String("workspace_id", workspaceID),
		zap.String("tier", string(profile.Tier)))
	return nil
}

func (s *Service) applySubscriptionChange(ctx context.Context, raw json.RawMessage, override domain.SubscriptionStatus) error {
	var sub subscriptionObject
	if err := json.Unmarshal(raw, &sub); err != nil {
		return apperrors.NewValidationError("malformed subscription object", nil)
	}

	workspaceID := sub.Metadata["workspace_id"]
	if workspaceID == "" {
		s.logger.Warn("subscription event without workspace metadata")
		return nil
	}

	existing, err := s.profiles.GetByWorkspace(ctx, workspaceID)
	if err != nil {
		return apperrors.MapError(err)
	}

	status := override
	if status == "" {
		status = normalizeStatus(sub.Status)
	}
	existing.Status = status
	if tier := sub.Metadata["tier"]; tier != "" {
		existing.Tier = normalizeTier(tier)
	}
	if err := s.profiles.Upsert(ctx, existing); err != nil {
		return apperrors.MapError(err)
	}
	s.logger.Info("subscription synced",
		zap.String("workspace_id", workspaceID),
		zap.String("status", string(status)))
	return nil
}

func normalizeTier(raw string) domain.SubscriptionTier {
	switch domain.SubscriptionTier(strings.ToLower(strings.TrimSpace(raw))) {
	case domain.TierStarter:
		return domain.TierStarter
	case domain.TierPro:
		return domain.TierPro
	case domain.TierEnterprise:
		return domain.TierEnterprise
	default:
		return domain.TierFree
	}
}

func normalizeStatus(raw string) domain.SubscriptionStatus {
	switch domain.SubscriptionStatus(strings.ToLower(strings.TrimSpace(raw))) {
	case domain.StatusActive:
		return domain.StatusActive
	case domain.StatusTrialing:
		return domain.StatusTrialing
	case domain.StatusCanceled:
		return domain.StatusCanceled
	default:
		return domain.StatusPastDue
	}
}
