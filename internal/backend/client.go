package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/okwaro/safaribook/internal/apierror"
	"github.com/okwaro/safaribook/internal/domain"
)

// TokenSource supplies the current bearer token, or "" when the caller
// is anonymous.
type TokenSource interface {
	AccessToken() string
}

// Client talks to the external booking REST API. Every failure is
// normalized to *apierror.Error before it reaches a caller.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
}

func NewClient(baseURL string, tokens TokenSource) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		tokens: tokens,
	}
}

type createResponse struct {
	ID string `json:"id"`
}

type statusResponse struct {
	Status domain.BookingStatus `json:"status"`
}

// CreateBooking submits an assembled draft and returns the server
// assigned booking id.
func (c *Client) CreateBooking(ctx context.Context, draft *domain.BookingDraft) (string, error) {
	var resp createResponse
	if err := c.do(ctx, http.MethodPost, "/bookings", draft, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

func (c *Client) GetBooking(ctx context.Context, id string) (*domain.Booking, error) {
	var b domain.Booking
	if err := c.do(ctx, http.MethodGet, "/bookings/"+url.PathEscape(id), nil, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (c *Client) GetStatus(ctx context.Context, id string) (domain.BookingStatus, error) {
	var resp statusResponse
	if err := c.do(ctx, http.MethodGet, "/bookings/"+url.PathEscape(id)+"/status", nil, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}

// CancelBooking requests a transition to cancelled. The reason must be
// validated by the caller before this is reached; the server treats
// repeated cancels idempotently.
func (c *Client) CancelBooking(ctx context.Context, id, reason string) error {
	body := map[string]string{"reason": reason}
	return c.do(ctx, http.MethodPatch, "/bookings/"+url.PathEscape(id)+"/cancel", body, nil)
}

func (c *Client) ListBookings(ctx context.Context, userID string) ([]domain.Booking, error) {
	var bookings []domain.Booking
	path := "/bookings?userId=" + url.QueryEscape(userID)
	if err := c.do(ctx, http.MethodGet, path, nil, &bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}

// GetGuide fetches one raw guide payload. The shape varies between
// deployments, so the body is returned unparsed for boundary
// normalization by the guide service.
func (c *Client) GetGuide(ctx context.Context, id string) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/guides/"+url.PathEscape(id), nil, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func (c *Client) ListGuides(ctx context.Context) ([]json.RawMessage, error) {
	var raws []json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/guides", nil, &raws); err != nil {
		return nil, err
	}
	return raws, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		if token := c.tokens.AccessToken(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apierror.FromTransport(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return apierror.FromTransport(err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apierror.FromResponse(resp.StatusCode, data)
	}
	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
