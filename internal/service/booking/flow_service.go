package booking

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/okwaro/safaribook/internal/apierror"
	"github.com/okwaro/safaribook/internal/domain"
	"github.com/okwaro/safaribook/internal/identity"
	"github.com/okwaro/safaribook/internal/kafka"
)

type FlowUseCase interface {
	Submit(ctx context.Context, draft *domain.BookingDraft) (string, error)
	Track(ctx context.Context, bookingID string) (domain.BookingStatus, error)
	Cancel(ctx context.Context, bookingID, reason string) error
	Get(ctx context.Context, bookingID string) (*domain.Booking, error)
	List(ctx context.Context, userID string) ([]domain.Booking, error)
}

// Backend is the slice of the booking API client the flow needs.
type Backend interface {
	CreateBooking(ctx context.Context, draft *domain.BookingDraft) (string, error)
	GetBooking(ctx context.Context, id string) (*domain.Booking, error)
	GetStatus(ctx context.Context, id string) (domain.BookingStatus, error)
	CancelBooking(ctx context.Context, id, reason string) error
	ListBookings(ctx context.Context, userID string) ([]domain.Booking, error)
}

// Locker serializes submissions per session across instances.
type Locker interface {
	AcquireSubmitLock(ctx context.Context, sessionID string, ttl time.Duration) (bool, error)
	ReleaseSubmitLock(ctx context.Context, sessionID string) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

// FlowService drives one booking through submit, payment-gated status
// tracking, and cancel. Submission for a session is strictly serial: a
// second submit while one is in flight fails instead of creating two
// server-side bookings.
type FlowService struct {
	backend       Backend
	locker        Locker
	producer      Producer
	sessions      *identity.Store
	bookingTopic  string
	pollInterval  time.Duration
	pollTimeout   time.Duration
	submitLockTTL time.Duration

	mu       sync.Mutex
	inFlight map[string]struct{}
	tracking map[string]struct{}
}

type FlowOption func(*FlowService)

func WithPollInterval(d time.Duration) FlowOption {
	return func(s *FlowService) {
		if d > 0 {
			s.pollInterval = d
		}
	}
}

// WithPollTimeout bounds how long a tracker keeps polling. The limit is
// an explicit parameter so unbounded polling cannot happen by accident.
func WithPollTimeout(d time.Duration) FlowOption {
	return func(s *FlowService) {
		if d > 0 {
			s.pollTimeout = d
		}
	}
}

func WithBookingTopic(topic string) FlowOption {
	return func(s *FlowService) { s.bookingTopic = topic }
}

func WithSubmitLockTTL(d time.Duration) FlowOption {
	return func(s *FlowService) {
		if d > 0 {
			s.submitLockTTL = d
		}
	}
}

func NewFlowService(backend Backend, locker Locker, producer Producer, sessions *identity.Store, opts ...FlowOption) *FlowService {
	s := &FlowService{
		backend:       backend,
		locker:        locker,
		producer:      producer,
		sessions:      sessions,
		pollInterval:  3 * time.Second,
		pollTimeout:   15 * time.Minute,
		submitLockTTL: 30 * time.Second,
		inFlight:      map[string]struct{}{},
		tracking:      map[string]struct{}{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ErrSubmitInFlight is returned when a submission for the same session
// is already running.
var ErrSubmitInFlight = &apierror.Error{
	Kind:    apierror.KindClient,
	Message: "a submission for this session is already in flight",
}

// ErrTrackingActive is returned when a tracker for the booking already
// exists.
var ErrTrackingActive = &apierror.Error{
	Kind:    apierror.KindClient,
	Message: "this booking is already being tracked",
}

// ErrTrackTimeout is returned when the configured poll timeout elapses
// before a terminal status is observed.
var ErrTrackTimeout = &apierror.Error{
	Kind:    apierror.KindNetwork,
	Message: "status tracking timed out before the booking settled",
}

// Submit sends an assembled draft to the booking API. There is no
// automatic retry; a failed submit is reported and left to the user.
func (s *FlowService) Submit(ctx context.Context, draft *domain.BookingDraft) (string, error) {
	if draft == nil {
		return "", apierror.Validation("draft is required", nil)
	}
	sessionID := draft.SessionID
	if sessionID == "" {
		return "", apierror.Validation("draft has no session id", nil)
	}

	s.mu.Lock()
	if _, busy := s.inFlight[sessionID]; busy {
		s.mu.Unlock()
		return "", ErrSubmitInFlight
	}
	s.inFlight[sessionID] = struct{}{}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.inFlight, sessionID)
		s.mu.Unlock()
	}()

	if s.locker != nil {
		ok, err := s.locker.AcquireSubmitLock(ctx, sessionID, s.submitLockTTL)
		if err != nil {
			return "", err
		}
		if !ok {
			return "", ErrSubmitInFlight
		}
		defer func() {
			_ = s.locker.ReleaseSubmitLock(context.WithoutCancel(ctx), sessionID)
		}()
	}

	id, err := s.backend.CreateBooking(ctx, draft)
	if err != nil {
		return "", err
	}

	// The anonymous session id is spent by a successful create.
	if s.sessions != nil {
		s.sessions.RotateAnonymousID()
	}

	s.publish(ctx, "booking_submitted", id, draft, domain.BookingStatusInitiated)
	return id, nil
}

// Track polls the status endpoint on the fixed interval until the
// booking reaches a terminal state, the caller cancels, or the
// configured timeout elapses. It must be started explicitly after the
// payment step; no request is issued before that.
func (s *FlowService) Track(ctx context.Context, bookingID string) (domain.BookingStatus, error) {
	if bookingID == "" {
		return "", apierror.Validation("booking id is required", nil)
	}

	s.mu.Lock()
	if _, active := s.tracking[bookingID]; active {
		s.mu.Unlock()
		return "", ErrTrackingActive
	}
	s.tracking[bookingID] = struct{}{}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.tracking, bookingID)
		s.mu.Unlock()
	}()

	deadline := time.NewTimer(s.pollTimeout)
	defer deadline.Stop()
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		status, err := s.backend.GetStatus(ctx, bookingID)
		if err != nil {
			if apiErr, ok := err.(*apierror.Error); !ok || !apiErr.Retryable() {
				return "", err
			}
			log.Printf("status poll for %s failed, retrying: %v", bookingID, err)
		} else if status.Terminal() {
			s.publish(ctx, "booking_"+string(status), bookingID, nil, status)
			return status, nil
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-deadline.C:
			s.publish(ctx, "tracking_timeout", bookingID, nil, "")
			return "", ErrTrackTimeout
		case <-ticker.C:
		}
	}
}

// Cancel requests a transition to cancelled. The reason is mandatory
// and checked before any network call; the server treats repeated
// cancels idempotently.
func (s *FlowService) Cancel(ctx context.Context, bookingID, reason string) error {
	if bookingID == "" {
		return apierror.Validation("booking id is required", nil)
	}
	if strings.TrimSpace(reason) == "" {
		return apierror.Validation("a cancellation reason is required", map[string][]string{
			"reason": {"must not be empty"},
		})
	}

	if err := s.backend.CancelBooking(ctx, bookingID, reason); err != nil {
		return err
	}
	s.publish(ctx, "booking_cancelled", bookingID, nil, domain.BookingStatusCancelled)
	return nil
}

func (s *FlowService) Get(ctx context.Context, bookingID string) (*domain.Booking, error) {
	return s.backend.GetBooking(ctx, bookingID)
}

func (s *FlowService) List(ctx context.Context, userID string) ([]domain.Booking, error) {
	return s.backend.ListBookings(ctx, userID)
}

func (s *FlowService) publish(ctx context.Context, eventType, bookingID string, draft *domain.BookingDraft, status domain.BookingStatus) {
	if s.producer == nil || s.bookingTopic == "" {
		return
	}
	event := kafka.BookingEvent{
		Type:       eventType,
		BookingID:  bookingID,
		Status:     string(status),
		OccurredAt: time.Now(),
	}
	if draft != nil {
		event.SessionID = draft.SessionID
		event.ResourceID = draft.ResourceID
		event.Email = draft.Contact.Email
		event.Amount = draft.PaymentAmount
		event.Currency = draft.Currency
	}
	if err := s.producer.Publish(ctx, s.bookingTopic, bookingID, event); err != nil {
		log.Printf("publish %s event for booking %s: %v", eventType, bookingID, err)
	}
}

var _ FlowUseCase = (*FlowService)(nil)
