package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/okwaro/safaribook/internal/domain"
)

// The realtime endpoint speaks a graphql-ws style subprotocol:
// connection_init carrying the authorizer token, start per
// subscription, data frames until stop or disconnect.

type wsFrame struct {
	ID      string          `json:"id,omitempty"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type startPayload struct {
	Query      string                 `json:"query"`
	Variables  map[string]interface{} `json:"variables"`
	Extensions map[string]interface{} `json:"extensions,omitempty"`
}

// Subscribe opens a live feed of new messages for a booking. The feed
// closes when ctx is cancelled or the server drops the connection;
// cancellation on consumer teardown is mandatory so no update lands
// after its listener is gone.
func (c *Client) Subscribe(ctx context.Context, bookingID string) (<-chan domain.Message, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.realtimeEndpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("dial realtime endpoint: %w", err)
	}

	initPayload, _ := json.Marshal(map[string]string{"authorization": c.token()})
	if err := conn.WriteJSON(wsFrame{Type: "connection_init", Payload: initPayload}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("connection init: %w", err)
	}

	subID := uuid.NewString()
	start, _ := json.Marshal(startPayload{
		Query: onMessageSubscription,
		Variables: map[string]interface{}{
			"bookingId":     bookingID,
			"authorization": c.token(),
		},
		Extensions: map[string]interface{}{
			"authorization": map[string]string{"Authorization": c.token()},
		},
	})
	if err := conn.WriteJSON(wsFrame{ID: subID, Type: "start", Payload: start}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("start subscription: %w", err)
	}

	messages := make(chan domain.Message)

	go func() {
		<-ctx.Done()
		_ = conn.WriteJSON(wsFrame{ID: subID, Type: "stop"})
		conn.Close()
	}()

	go func() {
		defer close(messages)
		for {
			var frame wsFrame
			if err := conn.ReadJSON(&frame); err != nil {
				if ctx.Err() == nil {
					log.Printf("chat subscription for %s closed: %v", bookingID, err)
				}
				return
			}

			switch frame.Type {
			case "data":
				msg, err := decodeDataFrame(frame.Payload)
				if err != nil {
					log.Printf("chat subscription for %s: %v", bookingID, err)
					continue
				}
				select {
				case messages <- msg:
				case <-ctx.Done():
					return
				}
			case "error", "complete":
				return
			}
		}
	}()

	return messages, nil
}

func decodeDataFrame(payload json.RawMessage) (domain.Message, error) {
	var frame struct {
		Data struct {
			OnMessage wireMessage `json:"onMessage"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &frame); err != nil {
		return domain.Message{}, fmt.Errorf("decode data frame: %w", err)
	}
	return frame.Data.OnMessage.toDomain(), nil
}
