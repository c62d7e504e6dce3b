package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/okwaro/safaribook/internal/apierror"
)

// Client creates payment intents against the external processor's
// intent endpoint. Amounts on the wire are in minor currency units.
type Client struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
}

func NewClient(baseURL, secretKey string) *Client {
	return &Client{
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		secretKey: secretKey,
		httpClient: &http.Client{
			Timeout: 20 * time.Second,
		},
	}
}

type intentRequest struct {
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	BookingID string `json:"bookingId"`
}

type intentResponse struct {
	ClientSecret string `json:"clientSecret"`
}

// MinorUnits converts a decimal amount to minor units (cents),
// rounding half away from zero. Negative and non-finite amounts map
// to 0.
func MinorUnits(amount float64) int64 {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount < 0 {
		return 0
	}
	return int64(math.Round(amount * 100))
}

// CreateIntent registers a payment intent for a booking and returns
// the client secret used by the frontend to confirm the charge.
func (c *Client) CreateIntent(ctx context.Context, amount float64, currency, bookingID string) (string, error) {
	if bookingID == "" {
		return "", apierror.Validation("booking id is required", nil)
	}
	minor := MinorUnits(amount)
	if minor <= 0 {
		return "", apierror.Validation("amount must be positive", map[string][]string{
			"amount": {"must be greater than zero"},
		})
	}

	payload, err := json.Marshal(intentRequest{Amount: minor, Currency: currency, BookingID: bookingID})
	if err != nil {
		return "", fmt.Errorf("marshal intent: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/payments/intent", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", apierror.FromTransport(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", apierror.FromTransport(err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", apierror.FromResponse(resp.StatusCode, body)
	}

	var out intentResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("decode intent response: %w", err)
	}
	return out.ClientSecret, nil
}
