package reviews

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/okwaro/safaribook/internal/apierror"
	"github.com/okwaro/safaribook/internal/backend"
	"github.com/okwaro/safaribook/internal/domain"
)

// uuidPattern mirrors the server's subject id check so bad reviews are
// rejected before the network call.
var uuidPattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[1-5][0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

const (
	maxReviewText   = 2000
	maxReviewerName = 200
)

// Client submits provider reviews to the review API with bearer auth.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     backend.TokenSource
}

func NewClient(baseURL string, tokens backend.TokenSource) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		tokens: tokens,
	}
}

// Validate checks a review against the server contract.
func Validate(r domain.Review) map[string][]string {
	fields := map[string][]string{}
	if r.SubjectType != "provider" {
		fields["subject_type"] = append(fields["subject_type"], `must be "provider"`)
	}
	if !uuidPattern.MatchString(r.SubjectID) {
		fields["subject_id"] = append(fields["subject_id"], "must be a lowercase UUID")
	}
	if r.Rating < 1 || r.Rating > 5 {
		fields["rating"] = append(fields["rating"], "must be between 1 and 5")
	}
	if text := strings.TrimSpace(r.ReviewText); text == "" || len(r.ReviewText) > maxReviewText {
		fields["review_text"] = append(fields["review_text"], "required, at most 2000 characters")
	}
	if name := strings.TrimSpace(r.ReviewerName); name == "" || len(r.ReviewerName) > maxReviewerName {
		fields["reviewer_name"] = append(fields["reviewer_name"], "required, at most 200 characters")
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}

// Submit validates and posts a review.
func (c *Client) Submit(ctx context.Context, r domain.Review) error {
	if fields := Validate(r); fields != nil {
		return apierror.Validation("review is invalid", fields)
	}

	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal review: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/reviews", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
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

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return apierror.FromTransport(err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apierror.FromResponse(resp.StatusCode, body)
	}
	return nil
}
