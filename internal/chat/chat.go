package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/okwaro/safaribook/internal/apierror"
	"github.com/okwaro/safaribook/internal/backend"
	"github.com/okwaro/safaribook/internal/domain"
)

// Client speaks the managed pub/sub service's GraphQL dialect: queries
// and mutations over HTTP, subscriptions over websocket. The caller's
// bearer token rides along as the authorizer argument on every
// operation.
type Client struct {
	httpEndpoint     string
	realtimeEndpoint string
	httpClient       *http.Client
	tokens           backend.TokenSource
}

func NewClient(httpEndpoint, realtimeEndpoint string, tokens backend.TokenSource) *Client {
	return &Client{
		httpEndpoint:     strings.TrimSuffix(httpEndpoint, "/"),
		realtimeEndpoint: realtimeEndpoint,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		tokens: tokens,
	}
}

const sendMessageMutation = `mutation SendMessage($bookingId: ID!, $senderId: ID!, $body: String!, $authorization: String!) {
  sendMessage(bookingId: $bookingId, senderId: $senderId, body: $body, authorization: $authorization) {
    id bookingId senderId body createdAt
  }
}`

const listMessagesQuery = `query ListMessages($bookingId: ID!, $authorization: String!) {
  listMessages(bookingId: $bookingId, authorization: $authorization) {
    id bookingId senderId body createdAt
  }
}`

const onMessageSubscription = `subscription OnMessage($bookingId: ID!, $authorization: String!) {
  onMessage(bookingId: $bookingId, authorization: $authorization) {
    id bookingId senderId body createdAt
  }
}`

type graphqlRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables"`
}

type graphqlError struct {
	Message string `json:"message"`
}

type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphqlError  `json:"errors"`
}

type wireMessage struct {
	ID        string `json:"id"`
	BookingID string `json:"bookingId"`
	SenderID  string `json:"senderId"`
	Body      string `json:"body"`
	CreatedAt string `json:"createdAt"`
}

func (w wireMessage) toDomain() domain.Message {
	created, _ := time.Parse(time.RFC3339, w.CreatedAt)
	return domain.Message{
		ID:        w.ID,
		BookingID: w.BookingID,
		SenderID:  w.SenderID,
		Body:      w.Body,
		CreatedAt: created,
	}
}

// Send posts one message to a booking's conversation.
func (c *Client) Send(ctx context.Context, bookingID, senderID, body string) (*domain.Message, error) {
	if strings.TrimSpace(body) == "" {
		return nil, apierror.Validation("message body is required", nil)
	}

	data, err := c.execute(ctx, sendMessageMutation, map[string]interface{}{
		"bookingId": bookingID,
		"senderId":  senderID,
		"body":      body,
	})
	if err != nil {
		return nil, err
	}

	var payload struct {
		SendMessage wireMessage `json:"sendMessage"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("decode send response: %w", err)
	}
	msg := payload.SendMessage.toDomain()
	return &msg, nil
}

// List fetches the conversation for a booking.
func (c *Client) List(ctx context.Context, bookingID string) ([]domain.Message, error) {
	data, err := c.execute(ctx, listMessagesQuery, map[string]interface{}{
		"bookingId": bookingID,
	})
	if err != nil {
		return nil, err
	}

	var payload struct {
		ListMessages []wireMessage `json:"listMessages"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("decode list response: %w", err)
	}
	messages := make([]domain.Message, 0, len(payload.ListMessages))
	for _, m := range payload.ListMessages {
		messages = append(messages, m.toDomain())
	}
	return messages, nil
}

func (c *Client) execute(ctx context.Context, query string, variables map[string]interface{}) (json.RawMessage, error) {
	variables["authorization"] = c.token()

	payload, err := json.Marshal(graphqlRequest{Query: query, Variables: variables})
	if err != nil {
		return nil, fmt.Errorf("marshal graphql request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.httpEndpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.token())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apierror.FromTransport(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apierror.FromTransport(err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apierror.FromResponse(resp.StatusCode, body)
	}

	var parsed graphqlResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode graphql response: %w", err)
	}
	if len(parsed.Errors) > 0 {
		return nil, &apierror.Error{
			Kind:    apierror.KindClient,
			Message: parsed.Errors[0].Message,
		}
	}
	return parsed.Data, nil
}

func (c *Client) token() string {
	if c.tokens == nil {
		return ""
	}
	return c.tokens.AccessToken()
}
