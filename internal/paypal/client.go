package paypal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/kindnessforautism/donations-api/internal/domain"
)

const (
	sandboxBaseURL = "https://api-m.sandbox.paypal.com"
	liveBaseURL    = "https://api-m.paypal.com"

	// MinimumAmountCents is the smallest accepted donation ($1.00).
	MinimumAmountCents int64 = 100
)

var (
	ErrNotConfigured = errors.New("paypal credentials not configured")
	ErrInvalidAmount = errors.New("invalid donation amount")
	ErrUpstream      = errors.New("paypal request failed")
	ErrCapture       = errors.New("paypal capture failed")
)

// CaptureResult is what a successful capture yields: the amount that actually
// moved plus whatever payer details PayPal chose to return.
type CaptureResult struct {
	AmountCents int64
	Currency    string
	PayerName   string
	PayerEmail  string
}

// Client talks to the PayPal Orders v2 API. It holds no mutable state of its
// own; the embedded oauth2 transport caches and refreshes the bearer token,
// so a single Client is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	configured bool
	brandName  string
}

// NewClient builds a client for the given credentials. mode "live" selects
// the production API host; anything else gets the sandbox. Missing
// credentials produce a client whose calls fail with ErrNotConfigured.
func NewClient(clientID, clientSecret, mode, brandName string) *Client {
	base := sandboxBaseURL
	if mode == "live" {
		base = liveBaseURL
	}

	c := &Client{baseURL: base, brandName: brandName}
	if clientID == "" || clientSecret == "" {
		return c
	}

	cc := clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     base + "/v1/oauth2/token",
		AuthStyle:    oauth2.AuthStyleInHeader,
	}
	c.httpClient = cc.Client(context.Background())
	c.httpClient.Timeout = 15 * time.Second
	c.configured = true
	return c
}

// Configured reports whether credentials were supplied at construction.
func (c *Client) Configured() bool {
	return c.configured
}

type orderAmount struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

type purchaseUnit struct {
	Amount      orderAmount `json:"amount"`
	Description string      `json:"description,omitempty"`
}

type applicationContext struct {
	BrandName          string `json:"brand_name,omitempty"`
	ShippingPreference string `json:"shipping_preference"`
	UserAction         string `json:"user_action"`
}

type createOrderRequest struct {
	Intent             string             `json:"intent"`
	PurchaseUnits      []purchaseUnit     `json:"purchase_units"`
	ApplicationContext applicationContext `json:"application_context"`
}

type createOrderResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// CreateOrder registers a payment intent for the given amount in USD and
// returns PayPal's order ID. The amount is validated before any network call
// is made. Single attempt, no retries; the order is harmless if abandoned.
func (c *Client) CreateOrder(ctx context.Context, amountCents int64, description string) (string, error) {
	if amountCents < MinimumAmountCents {
		return "", fmt.Errorf("%w: %s is below the $1.00 minimum", ErrInvalidAmount, domain.FormatDollars(amountCents))
	}
	if !c.configured {
		return "", ErrNotConfigured
	}

	reqBody := createOrderRequest{
		Intent: "CAPTURE",
		PurchaseUnits: []purchaseUnit{{
			Amount: orderAmount{
				CurrencyCode: "USD",
				Value:        domain.FormatDollars(amountCents),
			},
			Description: description,
		}},
		ApplicationContext: applicationContext{
			BrandName:          c.brandName,
			ShippingPreference: "NO_SHIPPING",
			UserAction:         "PAY_NOW",
		},
	}

	var resp createOrderResponse
	if err := c.post(ctx, "/v2/checkout/orders", reqBody, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", fmt.Errorf("%w: order response missing id", ErrUpstream)
	}
	return resp.ID, nil
}

type captureOrderResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Payer  struct {
		Name struct {
			GivenName string `json:"given_name"`
			Surname   string `json:"surname"`
		} `json:"name"`
		EmailAddress string `json:"email_address"`
	} `json:"payer"`
	PurchaseUnits []struct {
		Payments struct {
			Captures []struct {
				Status string      `json:"status"`
				Amount orderAmount `json:"amount"`
			} `json:"captures"`
		} `json:"payments"`
	} `json:"purchase_units"`
}

// CaptureOrder finalizes a donor-approved order, moving the funds. A failure
// means no charge was made from this system's perspective; the caller may let
// the donor retry from the top.
func (c *Client) CaptureOrder(ctx context.Context, orderID string) (CaptureResult, error) {
	if !c.configured {
		return CaptureResult{}, ErrNotConfigured
	}

	var resp captureOrderResponse
	path := "/v2/checkout/orders/" + orderID + "/capture"
	if err := c.post(ctx, path, nil, &resp); err != nil {
		if errors.Is(err, ErrUpstream) {
			return CaptureResult{}, fmt.Errorf("%w: order %s", ErrCapture, orderID)
		}
		return CaptureResult{}, err
	}

	if len(resp.PurchaseUnits) == 0 || len(resp.PurchaseUnits[0].Payments.Captures) == 0 {
		return CaptureResult{}, fmt.Errorf("%w: order %s returned no captures", ErrCapture, orderID)
	}
	capture := resp.PurchaseUnits[0].Payments.Captures[0]
	if capture.Status != "COMPLETED" {
		return CaptureResult{}, fmt.Errorf("%w: order %s capture status %s", ErrCapture, orderID, capture.Status)
	}

	amountCents, err := domain.ParseDollars(capture.Amount.Value)
	if err != nil {
		return CaptureResult{}, fmt.Errorf("%w: order %s: %v", ErrCapture, orderID, err)
	}
	currency := capture.Amount.CurrencyCode
	if currency == "" {
		currency = "USD"
	}

	result := CaptureResult{
		AmountCents: amountCents,
		Currency:    currency,
		PayerEmail:  resp.Payer.EmailAddress,
	}
	name := strings.TrimSpace(resp.Payer.Name.GivenName + " " + resp.Payer.Name.Surname)
	if name != "" {
		result.PayerName = name
	}
	return result, nil
}

// post issues an authenticated JSON POST and decodes the 2xx response body
// into out. Non-2xx bodies are logged server-side only; the returned error
// carries no processor detail.
func (c *Client) post(ctx context.Context, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		log.Printf("paypal %s returned %d: %s", path, resp.StatusCode, detail)
		return fmt.Errorf("%w: %s returned %d", ErrUpstream, path, resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%w: decoding %s response: %v", ErrUpstream, path, err)
		}
	}
	return nil
}
