package alerts

import (
	"net/http"
	"testing"

	"github.com/okwaro/safaribook/internal/apierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishAndDismiss(t *testing.T) {
	center := NewCenter()
	id := center.Publish(apierror.FromResponse(http.StatusInternalServerError, nil))
	require.Len(t, center.Visible(), 1)
	assert.True(t, center.Visible()[0].CanRetry)

	center.Dismiss(id)
	assert.Empty(t, center.Visible())
}

func TestDismissalNotRememberedAcrossInstances(t *testing.T) {
	center := NewCenter()
	first := center.Publish(apierror.FromResponse(http.StatusBadGateway, nil))
	center.Dismiss(first)
	require.Empty(t, center.Visible())

	// The same failure surfacing again is a new instance and shows up.
	center.Publish(apierror.FromResponse(http.StatusBadGateway, nil))
	assert.Len(t, center.Visible(), 1)
}

func TestAuthenticationAlertOffersSignIn(t *testing.T) {
	center := NewCenter()
	center.Publish(apierror.FromResponse(http.StatusUnauthorized, nil))
	visible := center.Visible()
	require.Len(t, visible, 1)
	assert.True(t, visible[0].NeedsSignIn)
	assert.False(t, visible[0].CanRetry)
}

func TestDismissUnknownID(t *testing.T) {
	center := NewCenter()
	center.Publish(apierror.FromTransport(assert.AnError))
	center.Dismiss("missing")
	assert.Len(t, center.Visible(), 1)
}
