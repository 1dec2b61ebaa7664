package billing

import (
	"context"
	"errors"

	stripe "github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
	"go.uber.org/zap"
)

// ErrCustomerNotFound indicates no payment-provider customer exists for an
// email; the caller should direct the user to checkout first.
var ErrCustomerNotFound = errors.New("billing customer not found")

// stripeProvider implements Provider against the Stripe API.
type stripeProvider struct {
	api    *client.API
	logger *zap.Logger
}

// NewStripeProvider builds the Stripe-backed provider.
func NewStripeProvider(apiKey string, logger *zap.Logger) Provider {
	api := &client.API{}
	api.Init(apiKey, nil)
	return &stripeProvider{api: api, logger: logger}
}

func (p *stripeProvider) CreateCheckoutSession(ctx context.Context, params CheckoutParams) (string, error) {
	plan := params.Plan

	sessionParams := &stripe.CheckoutSessionParams{
		Mode:          stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		SuccessURL:    stripe.String(params.SuccessURL),
		CancelURL:     stripe.String(params.CancelURL),
		CustomerEmail: stripe.String(params.Email),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			Quantity: stripe.Int64(1),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(plan.Currency),
				UnitAmount: stripe.Int64(plan.Amount),
				Recurring: &stripe.CheckoutSessionLineItemPriceDataRecurringParams{
					Interval: stripe.String(plan.Interval),
				},
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name:        stripe.String(plan.Name),
					Description: stripe.String(plan.Description),
				},
			},
		}},
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{
				"workspace_id": params.WorkspaceID,
				"tier":         string(plan.ID),
			},
		},
	}
	if plan.TrialDays > 0 {
		sessionParams.SubscriptionData.TrialPeriodDays = stripe.Int64(int64(plan.TrialDays))
	}
	sessionParams.Context = ctx
	sessionParams.AddMetadata("workspace_id", params.WorkspaceID)
	sessionParams.AddMetadata("tier", string(plan.ID))

	session, err := p.api.CheckoutSessions.New(sessionParams)
	if err != nil {
		return "", err
	}
	return session.URL, nil
}

func (p *stripeProvider) CreatePortalSession(ctx context.Context, email, returnURL string) (string, error) {
	customerID, err := p.findCustomer(ctx, email)
	if err != nil {
		return "", err
	}

	portalParams := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(returnURL),
	}
	portalParams.Context = ctx

	session, err := p.api.BillingPortalSessions.New(portalParams)
	if err != nil {
		return "", err
	}
	return session.URL, nil
}

func (p *stripeProvider) CancelSubscription(ctx context.Context, email string) error {
	customerID, err := p.findCustomer(ctx, email)
	if err != nil {
		return err
	}

	listParams := &stripe.SubscriptionListParams{
		Customer: stripe.String(customerID),
		Status:   stripe.String("active"),
	}
	listParams.Context = ctx

	iter := p.api.Subscriptions.List(listParams)
	canceled := 0
	for iter.Next() {
		sub := iter.Subscription()
		if _, err := p.api.Subscriptions.Cancel(sub.ID, nil); err != nil {
			return err
		}
		canceled++
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if canceled == 0 {
		return ErrCustomerNotFound
	}
	p.logger.Info("subscription canceled", zap.String("customer_id", customerID), zap.Int("count", canceled))
	return nil
}

func (p *stripeProvider) findCustomer(ctx context.Context, email string) (string, error) {
	listParams := &stripe.CustomerListParams{Email: stripe.String(email)}
	listParams.Context = ctx

	iter := p.api.Customers.List(listParams)
	for iter.Next() {
		return iter.Customer().ID, nil
	}
	if err := iter.Err(); err != nil {
		return "", err
	}
	return "", ErrCustomerNotFound
}
