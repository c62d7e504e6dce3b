package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/okwaro/safaribook/internal/alerts"
	"github.com/okwaro/safaribook/internal/domain"
)

// ReviewSubmitter is the slice of the review client this handler uses.
type ReviewSubmitter interface {
	Submit(ctx context.Context, r domain.Review) error
}

type ReviewHandler struct {
	reviews ReviewSubmitter
	alerts  *alerts.Center
}

func NewReviewHandler(reviews ReviewSubmitter, center *alerts.Center) *ReviewHandler {
	return &ReviewHandler{reviews: reviews, alerts: center}
}

func (h *ReviewHandler) Register(router *gin.RouterGroup) {
	router.POST("/", h.create)
}

func (h *ReviewHandler) create(c *gin.Context) {
	var review domain.Review
	if err := c.ShouldBindJSON(&review); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.reviews.Submit(c.Request.Context(), review); err != nil {
		respondError(c, h.alerts, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"submitted": true})
}
