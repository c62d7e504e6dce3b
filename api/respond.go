package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/okwaro/safaribook/internal/alerts"
	"github.com/okwaro/safaribook/internal/apierror"
)

// respondTrackError surfaces a background tracking failure. Consumer
// cancellation is normal teardown, not an error.
func respondTrackError(center *alerts.Center, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	var apiErr *apierror.Error
	if !errors.As(err, &apiErr) {
		apiErr = &apierror.Error{Kind: apierror.KindServer, Message: err.Error()}
	}
	center.Publish(apiErr)
}

// respondError maps a normalized error to an HTTP response and surfaces
// it in the alert center when one is wired.
func respondError(c *gin.Context, center *alerts.Center, err error) {
	var apiErr *apierror.Error
	if !errors.As(err, &apiErr) {
		apiErr = &apierror.Error{Kind: apierror.KindServer, Message: err.Error()}
	}
	if center != nil {
		center.Publish(apiErr)
	}

	status := apiErr.Status
	if status == 0 {
		switch apiErr.Kind {
		case apierror.KindValidation:
			status = http.StatusBadRequest
		case apierror.KindAuthentication:
			status = http.StatusUnauthorized
		case apierror.KindAuthorization:
			status = http.StatusForbidden
		case apierror.KindNetwork:
			status = http.StatusBadGateway
		case apierror.KindServer:
			status = http.StatusBadGateway
		default:
			status = http.StatusBadRequest
		}
	}

	c.JSON(status, gin.H{
		"error":         apiErr.Message,
		"kind":          apiErr.Kind,
		"fields":        apiErr.Fields,
		"retryable":     apiErr.Retryable(),
		"needs_sign_in": apiErr.NeedsSignIn(),
	})
}
