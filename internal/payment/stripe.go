// Package payment creates checkout sessions through the Stripe API.
package payment

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v79"
	stripeclient "github.com/stripe/stripe-go/v79/client"

	"github.com/taskchain/backend/pkg/logger"
)

// SessionCreator starts a payment flow and returns the redirect URL the
// frontend sends the user to.
type SessionCreator interface {
	CreateSession(ctx context.Context) (string, error)
}

// Config holds the fixed product and redirect targets for checkout sessions.
type Config struct {
	SecretKey  string
	PriceID    string
	SuccessURL string
	CancelURL  string
}

// Client creates Stripe Checkout sessions for one fixed price.
type Client struct {
	api *stripeclient.API
	cfg Config
	log *logger.Logger
}

var _ SessionCreator = (*Client)(nil)

// NewClient creates a Stripe-backed session creator.
func NewClient(cfg Config, log *logger.Logger) (*Client, error) {
	if cfg.SecretKey == "" {
		return nil, fmt.Errorf("stripe secret key required")
	}
	if cfg.PriceID == "" {
		return nil, fmt.Errorf("stripe price id required")
	}
	if cfg.SuccessURL == "" || cfg.CancelURL == "" {
		return nil, fmt.Errorf("success and cancel URLs required")
	}
	if log == nil {
		log = logger.NewDefault("payment")
	}

	api := &stripeclient.API{}
	api.Init(cfg.SecretKey, nil)

	return &Client{api: api, cfg: cfg, log: log}, nil
}

// CreateSession creates one checkout session for the configured price. Any
// provider failure is surfaced to the caller; there is no retry.
func (c *Client) CreateSession(ctx context.Context) (string, error) {
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			Price:    stripe.String(c.cfg.PriceID),
			Quantity: stripe.Int64(1),
		}},
		SuccessURL: stripe.String(c.cfg.SuccessURL),
		CancelURL:  stripe.String(c.cfg.CancelURL),
	}
	params.Context = ctx

	session, err := c.api.CheckoutSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("create checkout session: %w", err)
	}

	c.log.WithField("session_id", session.ID).Info("created checkout session")
	return session.URL, nil
}
