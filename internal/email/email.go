package email

import (
	"context"
	"fmt"

	"github.com/okwaro/safaribook/internal/kafka"
)

// Sender turns booking lifecycle events into customer notifications.
// The current transport just logs; a real SMTP hookup slots in here.
type Sender struct{}

func NewSender() *Sender {
	return &Sender{}
}

func (s *Sender) Send(ctx context.Context, event kafka.BookingEvent) error {
	if event.Email == "" {
		return nil
	}
	fmt.Printf("notify %s: booking %s %s (%.2f %s)\n",
		event.Email, event.BookingID, event.Type, event.Amount, event.Currency)
	return nil
}
