package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v82"
	billingsession "github.com/stripe/stripe-go/v82/billingportal/session"
	"github.com/stripe/stripe-go/v82/charge"
	checkoutsession "github.com/stripe/stripe-go/v82/checkout/session"
	customerpkg "github.com/stripe/stripe-go/v82/customer"
	subscriptionpkg "github.com/stripe/stripe-go/v82/subscription"
)

// PaymentsGateway is the subset of the Stripe API the services call.
type PaymentsGateway interface {
	GetSubscription(ctx context.Context, id string) (*stripe.Subscription, error)
	CancelSubscription(ctx context.Context, id string) error
	CancelAtPeriodEnd(ctx context.Context, id string) (*stripe.Subscription, error)
	CreateCustomer(ctx context.Context, userID, email, name string) (string, error)
	CreateCheckoutSession(ctx context.Context, customerID, priceID, userID string) (string, error)
	CreatePortalSession(ctx context.Context, customerID string) (string, error)
	// SumCharges returns succeeded charges created in [start, end) net of
	// refunds, in major currency units.
	SumCharges(ctx context.Context, start, end time.Time) (decimal.Decimal, error)
}

type stripeGateway struct {
	returnURL string
}

// NewStripeGateway sets the global Stripe key and returns a gateway backed by
// the stripe-go package clients.
func NewStripeGateway(secretKey, returnURL string) PaymentsGateway {
	stripe.Key = secretKey
	return &stripeGateway{returnURL: returnURL}
}

func (g *stripeGateway) GetSubscription(ctx context.Context, id string) (*stripe.Subscription, error) {
	params := &stripe.SubscriptionParams{}
	params.Context = ctx
	sub, err := subscriptionpkg.Get(id, params)
	if err != nil {
		return nil, fmt.Errorf("get stripe subscription: %w", err)
	}
	return sub, nil
}

func (g *stripeGateway) CancelSubscription(ctx context.Context, id string) error {
	params := &stripe.SubscriptionCancelParams{}
	params.Context = ctx
	if _, err := subscriptionpkg.Cancel(id, params); err != nil {
		return fmt.Errorf("cancel stripe subscription: %w", err)
	}
	return nil
}

func (g *stripeGateway) CancelAtPeriodEnd(ctx context.Context, id string) (*stripe.Subscription, error) {
	params := &stripe.SubscriptionParams{CancelAtPeriodEnd: stripe.Bool(true)}
	params.Context = ctx
	sub, err := subscriptionpkg.Update(id, params)
	if err != nil {
		return nil, fmt.Errorf("update stripe subscription: %w", err)
	}
	return sub, nil
}

func (g *stripeGateway) CreateCustomer(ctx context.Context, userID, email, name string) (string, error) {
	params := &stripe.CustomerParams{
		Email:    stripe.String(email),
		Name:     stripe.String(name),
		Metadata: map[string]string{MetadataUserID: userID},
	}
	params.Context = ctx
	cust, err := customerpkg.New(params)
	if err != nil {
		return "", fmt.Errorf("create stripe customer: %w", err)
	}
	return cust.ID, nil
}

func (g *stripeGateway) CreateCheckoutSession(ctx context.Context, customerID, priceID, userID string) (string, error) {
	metadata := map[string]string{MetadataUserID: userID}
	params := &stripe.CheckoutSessionParams{
		Customer:   stripe.String(customerID),
		LineItems:  []*stripe.CheckoutSessionLineItemParams{{Price: stripe.String(priceID), Quantity: stripe.Int64(1)}},
		Mode:       stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		SuccessURL: stripe.String(g.returnURL + "?status=success"),
		CancelURL:  stripe.String(g.returnURL + "?status=cancel"),
		Metadata:   metadata,
		// The subscription carries the user id too so later subscription events resolve it.
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{Metadata: metadata},
	}
	params.Context = ctx
	sess, err := checkoutsession.New(params)
	if err != nil {
		return "", fmt.Errorf("create checkout session: %w", err)
	}
	return sess.URL, nil
}

func (g *stripeGateway) CreatePortalSession(ctx context.Context, customerID string) (string, error) {
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(g.returnURL),
	}
	params.Context = ctx
	sess, err := billingsession.New(params)
	if err != nil {
		return "", fmt.Errorf("create billing portal session: %w", err)
	}
	return sess.URL, nil
}

func (g *stripeGateway) SumCharges(ctx context.Context, start, end time.Time) (decimal.Decimal, error) {
	params := &stripe.ChargeListParams{
		CreatedRange: &stripe.RangeQueryParams{
			GreaterThanOrEqual: start.Unix(),
			LesserThan:         end.Unix(),
		},
	}
	params.Context = ctx
	params.Limit = stripe.Int64(100)

	var minor int64
	it := charge.List(params)
	for it.Next() {
		minor += netChargeAmount(it.Charge())
	}
	if err := it.Err(); err != nil {
		return decimal.Zero, fmt.Errorf("list stripe charges: %w", err)
	}
	return decimal.New(minor, -2), nil
}

// netChargeAmount is the captured amount minus refunds for succeeded charges, else 0.
func netChargeAmount(c *stripe.Charge) int64 {
	if c == nil || c.Status != stripe.ChargeStatusSucceeded {
		return 0
	}
	return c.Amount - c.AmountRefunded
}
