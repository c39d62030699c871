// Package stripe is a read-only adapter over stripe-go for the parts of the
// Stripe API the purchase index needs: listing charges and retrieving customers.
package stripe

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	stripego "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/charge"
	"github.com/stripe/stripe-go/v82/customer"

	"coldlead_backend/platform/config"
	"coldlead_backend/platform/logger"
	"coldlead_backend/platform/validator"
)

const (
	pageLimit = 100

	// ChargeStatusSucceeded is the status of a completed charge.
	ChargeStatusSucceeded = string(stripego.ChargeStatusSucceeded)
)

// Charge is a Stripe charge reduced to the fields that identify the buyer.
type Charge struct {
	ID            string `validate:"required"`
	Status        string
	BillingEmail  string
	MetadataEmail string
	CustomerID    string
}

// Client talks to the Stripe API with a secret key.
type Client struct {
	charges   *charge.Client
	customers *customer.Client
	val       *validator.Validator
	log       *logger.Logger
}

type options struct {
	baseURL    string
	retries    *int64
	httpClient *http.Client
}

// Option configures the backend the client talks to.
type Option func(*options)

// WithBaseURL points the client at another API host.
func WithBaseURL(baseURL string) Option {
	return func(o *options) { o.baseURL = strings.TrimRight(baseURL, "/") }
}

// WithMaxNetworkRetries overrides the SDK's retry count for failed requests.
func WithMaxNetworkRetries(n int64) Option {
	return func(o *options) { o.retries = stripego.Int64(n) }
}

// New creates a Stripe client with its own backend, so the global stripe.Key
// is never touched.
func New(cfg config.StripeConfig, val *validator.Validator, log *logger.Logger, opts ...Option) *Client {
	o := options{httpClient: &http.Client{Timeout: 20 * time.Second}}
	for _, opt := range opts {
		opt(&o)
	}

	backendCfg := &stripego.BackendConfig{
		HTTPClient:        o.httpClient,
		LeveledLogger:     leveledLogger{log: log},
		MaxNetworkRetries: o.retries,
	}
	if o.baseURL != "" {
		backendCfg.URL = stripego.String(o.baseURL)
	}
	backend := stripego.GetBackendWithConfig(stripego.APIBackend, backendCfg)
	key := cfg.GetStripeSecretKey()

	return &Client{
		charges:   &charge.Client{B: backend, Key: key},
		customers: &customer.Client{B: backend, Key: key},
		val:       val,
		log:       log,
	}
}

// ListSucceededCharges returns the succeeded charges created in [since, until].
// Any page failure fails the whole listing.
func (c *Client) ListSucceededCharges(ctx context.Context, since, until time.Time) ([]Charge, error) {
	params := &stripego.ChargeListParams{
		CreatedRange: &stripego.RangeQueryParams{
			GreaterThanOrEqual: since.Unix(),
			LesserThanOrEqual:  until.Unix(),
		},
	}
	params.Limit = stripego.Int64(pageLimit)
	params.Context = ctx

	var charges []Charge
	iter := c.charges.List(params)
	for iter.Next() {
		ch := toCharge(iter.Charge())
		if err := c.val.Struct(ch); err != nil {
			c.log.Warn("dropping invalid stripe charge", "invalid", validator.Describe(err))
			continue
		}
		if ch.Status != ChargeStatusSucceeded {
			continue
		}
		charges = append(charges, ch)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("list stripe charges: %w", err)
	}

	return charges, nil
}

// ResolveCustomerEmail returns the email on a customer account, or "" when the
// customer has none or was deleted.
func (c *Client) ResolveCustomerEmail(ctx context.Context, customerID string) (string, error) {
	params := &stripego.CustomerParams{}
	params.Context = ctx

	cust, err := c.customers.Get(customerID, params)
	if err != nil {
		return "", fmt.Errorf("retrieve stripe customer %s: %w", customerID, err)
	}
	if cust == nil || cust.Deleted {
		return "", nil
	}
	return strings.TrimSpace(cust.Email), nil
}

func toCharge(sc *stripego.Charge) Charge {
	ch := Charge{
		ID:     sc.ID,
		Status: string(sc.Status),
	}
	if sc.BillingDetails != nil {
		ch.BillingEmail = strings.TrimSpace(sc.BillingDetails.Email)
	}
	if sc.Metadata != nil {
		ch.MetadataEmail = strings.TrimSpace(sc.Metadata["email"])
	}
	if sc.Customer != nil {
		ch.CustomerID = sc.Customer.ID
	}
	return ch
}

// leveledLogger routes SDK diagnostics into the application logger.
type leveledLogger struct {
	log *logger.Logger
}

func (l leveledLogger) Debugf(format string, v ...interface{}) {
	l.log.Debug(fmt.Sprintf(format, v...))
}

func (l leveledLogger) Infof(format string, v ...interface{}) {
	l.log.Debug(fmt.Sprintf(format, v...))
}

func (l leveledLogger) Warnf(format string, v ...interface{}) {
	l.log.Warn(fmt.Sprintf(format, v...))
}

func (l leveledLogger) Errorf(format string, v ...interface{}) {
	l.log.Error(fmt.Sprintf(format, v...))
}
