package backend

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/okwaro/safaribook/internal/apierror"
	"github.com/okwaro/safaribook/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticToken string

func (s staticToken) AccessToken() string { return string(s) }

func TestCreateBooking(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/bookings", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"bk-1"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, staticToken("tok-abc"))
	id, err := client.CreateBooking(context.Background(), &domain.BookingDraft{ResourceID: "guide-1"})
	require.NoError(t, err)
	assert.Equal(t, "bk-1", id)
	assert.Equal(t, "Bearer tok-abc", gotAuth)
}

func TestCreateBooking_anonymousOmitsBearer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Write([]byte(`{"id":"bk-2"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, staticToken(""))
	_, err := client.CreateBooking(context.Background(), &domain.BookingDraft{})
	require.NoError(t, err)
}

func TestGetStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/bookings/bk-1/status", r.URL.Path)
		w.Write([]byte(`{"status":"confirmed"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, nil)
	status, err := client.GetStatus(context.Background(), "bk-1")
	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusConfirmed, status)
	assert.True(t, status.Terminal())
}

func TestCancelBooking(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPatch, r.Method)
		require.Equal(t, "/bookings/bk-1/cancel", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, nil)
	assert.NoError(t, client.CancelBooking(context.Background(), "bk-1", "plans changed"))
}

func TestErrorNormalization(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"session expired"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, nil)
	_, err := client.GetBooking(context.Background(), "bk-1")
	var apiErr *apierror.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, apierror.KindAuthentication, apiErr.Kind)
	assert.Equal(t, "session expired", apiErr.Message)
}

func TestTransportFailureIsNetworkKind(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // force connection refused

	client := NewClient(srv.URL, nil)
	_, err := client.GetStatus(context.Background(), "bk-1")
	var apiErr *apierror.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, apierror.KindNetwork, apiErr.Kind)
	assert.True(t, apiErr.Retryable())
}

func TestListBookings(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "user-7", r.URL.Query().Get("userId"))
		w.Write([]byte(`[{"id":"bk-1","status":"initiated"},{"id":"bk-2","status":"confirmed"}]`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, nil)
	bookings, err := client.ListBookings(context.Background(), "user-7")
	require.NoError(t, err)
	require.Len(t, bookings, 2)
	assert.Equal(t, domain.BookingStatusInitiated, bookings[0].Status)
}
