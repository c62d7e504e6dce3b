package booking

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okwaro/safaribook/internal/apierror"
	"github.com/okwaro/safaribook/internal/domain"
	"github.com/okwaro/safaribook/internal/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) CreateBooking(ctx context.Context, draft *domain.BookingDraft) (string, error) {
	args := m.Called(ctx, draft)
	return args.String(0), args.Error(1)
}

func (m *MockBackend) GetBooking(ctx context.Context, id string) (*domain.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBackend) GetStatus(ctx context.Context, id string) (domain.BookingStatus, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.BookingStatus), args.Error(1)
}

func (m *MockBackend) CancelBooking(ctx context.Context, id, reason string) error {
	args := m.Called(ctx, id, reason)
	return args.Error(0)
}

func (m *MockBackend) ListBookings(ctx context.Context, userID string) ([]domain.Booking, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Booking), args.Error(1)
}

type MockLocker struct {
	mock.Mock
}

func (m *MockLocker) AcquireSubmitLock(ctx context.Context, sessionID string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, sessionID, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockLocker) ReleaseSubmitLock(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) Publish(ctx context.Context, topic, key string, value interface{}) error {
	args := m.Called(ctx, topic, key, value)
	return args.Error(0)
}

func testDraft() *domain.BookingDraft {
	return &domain.BookingDraft{
		SessionID:     "sess-1",
		ResourceID:    "guide-1",
		ResourceType:  "guide",
		Contact:       domain.Contact{Name: "Amina", Email: "a@example.com"},
		PaymentAmount: 450,
		Currency:      "USD",
	}
}

func TestSubmit(t *testing.T) {
	backend := &MockBackend{}
	locker := &MockLocker{}
	producer := &MockProducer{}
	sessions := identity.NewStore()
	anonBefore := sessions.AnonymousID()

	backend.On("CreateBooking", mock.Anything, mock.Anything).Return("bk-1", nil)
	locker.On("AcquireSubmitLock", mock.Anything, "sess-1", mock.Anything).Return(true, nil)
	locker.On("ReleaseSubmitLock", mock.Anything, "sess-1").Return(nil)
	producer.On("Publish", mock.Anything, "bookings", "bk-1", mock.Anything).Return(nil)

	svc := NewFlowService(backend, locker, producer, sessions, WithBookingTopic("bookings"))
	id, err := svc.Submit(context.Background(), testDraft())
	require.NoError(t, err)
	assert.Equal(t, "bk-1", id)

	// A successful create spends the anonymous session id.
	assert.NotEqual(t, anonBefore, sessions.AnonymousID())
	locker.AssertExpectations(t)
	producer.AssertExpectations(t)
}

func TestSubmit_lockHeldElsewhere(t *testing.T) {
	backend := &MockBackend{}
	locker := &MockLocker{}
	locker.On("AcquireSubmitLock", mock.Anything, "sess-1", mock.Anything).Return(false, nil)

	svc := NewFlowService(backend, locker, nil, nil)
	_, err := svc.Submit(context.Background(), testDraft())
	assert.ErrorIs(t, err, ErrSubmitInFlight)
	backend.AssertNotCalled(t, "CreateBooking")
}

func TestSubmit_concurrentSameSessionRejected(t *testing.T) {
	backend := &MockBackend{}
	release := make(chan struct{})
	started := make(chan struct{})
	backend.On("CreateBooking", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			close(started)
			<-release
		}).
		Return("bk-1", nil)

	svc := NewFlowService(backend, nil, nil, nil)

	errCh := make(chan error, 1)
	go func() {
		_, err := svc.Submit(context.Background(), testDraft())
		errCh <- err
	}()

	<-started
	_, err := svc.Submit(context.Background(), testDraft())
	assert.ErrorIs(t, err, ErrSubmitInFlight)

	close(release)
	require.NoError(t, <-errCh)
}

func TestSubmit_backendErrorNotRetried(t *testing.T) {
	backend := &MockBackend{}
	backend.On("CreateBooking", mock.Anything, mock.Anything).
		Return("", apierror.FromResponse(500, nil)).Once()

	sessions := identity.NewStore()
	anonBefore := sessions.AnonymousID()

	svc := NewFlowService(backend, nil, nil, sessions)
	_, err := svc.Submit(context.Background(), testDraft())
	assert.Error(t, err)
	// Failed create leaves the session id unspent.
	assert.Equal(t, anonBefore, sessions.AnonymousID())
	backend.AssertNumberOfCalls(t, "CreateBooking", 1)
}

func TestSubmit_requiresDraftAndSession(t *testing.T) {
	svc := NewFlowService(&MockBackend{}, nil, nil, nil)
	_, err := svc.Submit(context.Background(), nil)
	assert.Error(t, err)
	_, err = svc.Submit(context.Background(), &domain.BookingDraft{})
	assert.Error(t, err)
}

func TestTrack_stopsOnTerminalStatus(t *testing.T) {
	backend := &MockBackend{}
	var polls atomic.Int32
	backend.On("GetStatus", mock.Anything, "bk-1").
		Return(domain.BookingStatusInitiated, nil).Times(2).
		Run(func(mock.Arguments) { polls.Add(1) })
	backend.On("GetStatus", mock.Anything, "bk-1").
		Return(domain.BookingStatusConfirmed, nil).Once().
		Run(func(mock.Arguments) { polls.Add(1) })

	svc := NewFlowService(backend, nil, nil, nil,
		WithPollInterval(5*time.Millisecond), WithPollTimeout(time.Second))

	status, err := svc.Track(context.Background(), "bk-1")
	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusConfirmed, status)

	// No further requests after the terminal observation.
	settled := polls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, settled, polls.Load())
	assert.Equal(t, int32(3), settled)
}

func TestTrack_timesOut(t *testing.T) {
	backend := &MockBackend{}
	backend.On("GetStatus", mock.Anything, "bk-1").Return(domain.BookingStatusInitiated, nil)

	producer := &MockProducer{}
	producer.On("Publish", mock.Anything, "bookings", "bk-1", mock.Anything).Return(nil)

	svc := NewFlowService(backend, nil, producer, nil,
		WithPollInterval(5*time.Millisecond),
		WithPollTimeout(30*time.Millisecond),
		WithBookingTopic("bookings"))

	_, err := svc.Track(context.Background(), "bk-1")
	assert.ErrorIs(t, err, ErrTrackTimeout)
	producer.AssertExpectations(t)
}

func TestTrack_consumerCancellation(t *testing.T) {
	backend := &MockBackend{}
	backend.On("GetStatus", mock.Anything, "bk-1").Return(domain.BookingStatusInitiated, nil)

	ctx, cancel := context.WithCancel(context.Background())
	svc := NewFlowService(backend, nil, nil, nil,
		WithPollInterval(5*time.Millisecond), WithPollTimeout(time.Minute))

	errCh := make(chan error, 1)
	go func() {
		_, err := svc.Track(ctx, "bk-1")
		errCh <- err
	}()

	time.Sleep(15 * time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-errCh, context.Canceled)
}

func TestTrack_retriesTransientPollFailures(t *testing.T) {
	backend := &MockBackend{}
	backend.On("GetStatus", mock.Anything, "bk-1").
		Return(domain.BookingStatus(""), apierror.FromTransport(assert.AnError)).Once()
	backend.On("GetStatus", mock.Anything, "bk-1").
		Return(domain.BookingStatusConfirmed, nil).Once()

	svc := NewFlowService(backend, nil, nil, nil,
		WithPollInterval(5*time.Millisecond), WithPollTimeout(time.Second))

	status, err := svc.Track(context.Background(), "bk-1")
	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusConfirmed, status)
}

func TestTrack_stopsOnNonRetryableError(t *testing.T) {
	backend := &MockBackend{}
	backend.On("GetStatus", mock.Anything, "bk-1").
		Return(domain.BookingStatus(""), apierror.FromResponse(404, nil)).Once()

	svc := NewFlowService(backend, nil, nil, nil,
		WithPollInterval(5*time.Millisecond))

	_, err := svc.Track(context.Background(), "bk-1")
	var apiErr *apierror.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, apierror.KindClient, apiErr.Kind)
}

func TestTrack_secondTrackerRejected(t *testing.T) {
	backend := &MockBackend{}
	backend.On("GetStatus", mock.Anything, "bk-1").Return(domain.BookingStatusInitiated, nil)

	svc := NewFlowService(backend, nil, nil, nil,
		WithPollInterval(5*time.Millisecond), WithPollTimeout(time.Minute))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _, _ = svc.Track(ctx, "bk-1") }()
	time.Sleep(15 * time.Millisecond)

	_, err := svc.Track(context.Background(), "bk-1")
	assert.ErrorIs(t, err, ErrTrackingActive)
}

func TestCancel_emptyReasonRejectedBeforeNetwork(t *testing.T) {
	backend := &MockBackend{}
	svc := NewFlowService(backend, nil, nil, nil)

	err := svc.Cancel(context.Background(), "bk-1", "   ")
	var apiErr *apierror.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, apierror.KindValidation, apiErr.Kind)
	backend.AssertNotCalled(t, "CancelBooking")
}

func TestCancel(t *testing.T) {
	backend := &MockBackend{}
	backend.On("CancelBooking", mock.Anything, "bk-1", "plans changed").Return(nil)

	svc := NewFlowService(backend, nil, nil, nil)
	assert.NoError(t, svc.Cancel(context.Background(), "bk-1", "plans changed"))
	backend.AssertExpectations(t)
}
