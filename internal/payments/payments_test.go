package payments

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/okwaro/safaribook/internal/apierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMinorUnits(t *testing.T) {
	assert.Equal(t, int64(45000), MinorUnits(450))
	assert.Equal(t, int64(1999), MinorUnits(19.99))
	assert.Equal(t, int64(100), MinorUnits(0.995))
	assert.Equal(t, int64(0), MinorUnits(-5))
	assert.Equal(t, int64(0), MinorUnits(math.NaN()))
	assert.Equal(t, int64(0), MinorUnits(math.Inf(1)))
}

func TestCreateIntent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/payments/intent", r.URL.Path)
		require.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, float64(45000), req["amount"])
		assert.Equal(t, "USD", req["currency"])
		assert.Equal(t, "bk-1", req["bookingId"])

		w.Write([]byte(`{"clientSecret":"pi_secret_1"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "sk-test")
	secret, err := client.CreateIntent(context.Background(), 450, "USD", "bk-1")
	require.NoError(t, err)
	assert.Equal(t, "pi_secret_1", secret)
}

func TestCreateIntent_validatesBeforeNetwork(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "sk-test")

	_, err := client.CreateIntent(context.Background(), 0, "USD", "bk-1")
	var apiErr *apierror.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, apierror.KindValidation, apiErr.Kind)

	_, err = client.CreateIntent(context.Background(), 100, "USD", "")
	assert.Error(t, err)
	assert.False(t, called)
}

func TestCreateIntent_serverError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "sk-test")
	_, err := client.CreateIntent(context.Background(), 100, "USD", "bk-1")
	var apiErr *apierror.Error
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.Retryable())
}
