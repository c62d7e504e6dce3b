package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/okwaro/safaribook/internal/alerts"
	"github.com/okwaro/safaribook/internal/domain"
	"github.com/okwaro/safaribook/internal/draft"
	"github.com/okwaro/safaribook/internal/identity"
	"github.com/okwaro/safaribook/internal/service/booking"
)

// PaymentIntents is the slice of the payment client this handler uses.
type PaymentIntents interface {
	CreateIntent(ctx context.Context, amount float64, currency, bookingID string) (string, error)
}

type BookingHandler struct {
	flow      booking.FlowUseCase
	payments  PaymentIntents
	sessions  *identity.Store
	alerts    *alerts.Center
	trackTTL  time.Duration

	mu       sync.Mutex
	trackers map[string]context.CancelFunc
}

func NewBookingHandler(flow booking.FlowUseCase, payments PaymentIntents, sessions *identity.Store, center *alerts.Center, trackTTL time.Duration) *BookingHandler {
	return &BookingHandler{
		flow:     flow,
		payments: payments,
		sessions: sessions,
		alerts:   center,
		trackTTL: trackTTL,
		trackers: map[string]context.CancelFunc{},
	}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("/", h.create)
	router.GET("/", h.list)
	router.GET("/:id", h.get)
	router.GET("/:id/status", h.status)
	router.POST("/:id/track", h.startTracking)
	router.DELETE("/:id/track", h.stopTracking)
	router.PATCH("/:id/cancel", h.cancel)
}

type createBookingRequest struct {
	ResourceID   string                  `json:"resource_id"`
	ResourceType string                  `json:"resource_type"`
	Contact      domain.Contact          `json:"contact"`
	Stay         domain.StayInterval     `json:"stay"`
	Group        domain.GroupComposition `json:"group"`
	Pickup       domain.PickupLocation   `json:"pickup"`
	LocationID   string                  `json:"location_id"`
	Amount       float64                 `json:"amount"`
	Currency     string                  `json:"currency"`
}

type createBookingResponse struct {
	ID            string  `json:"id"`
	ClientSecret  string  `json:"client_secret,omitempty"`
	PaymentAmount float64 `json:"payment_amount"`
	Currency      string  `json:"currency"`
	Timezone      string  `json:"timezone"`
}

func (h *BookingHandler) create(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	in := draft.Input{
		SessionID:    h.sessions.Identity(),
		ResourceID:   req.ResourceID,
		ResourceType: req.ResourceType,
		Contact:      req.Contact,
		Stay:         req.Stay,
		Group:        req.Group,
		Pickup:       req.Pickup,
		LocationID:   req.LocationID,
		Amount:       req.Amount,
		Currency:     req.Currency,
	}
	if session := h.sessions.Current(); session != nil {
		in.UserID = session.UserID
	}

	assembled, err := draft.Assemble(in)
	if err != nil {
		// Local validation failures are resolved in place and never
		// reach the network layer.
		respondError(c, nil, err)
		return
	}

	id, err := h.flow.Submit(c.Request.Context(), assembled)
	if err != nil {
		respondError(c, h.alerts, err)
		return
	}

	resp := createBookingResponse{
		ID:            id,
		PaymentAmount: assembled.PaymentAmount,
		Currency:      assembled.Currency,
		Timezone:      assembled.Schedule.Timezone,
	}
	if h.payments != nil {
		secret, err := h.payments.CreateIntent(c.Request.Context(), assembled.PaymentAmount, assembled.Currency, id)
		if err != nil {
			respondError(c, h.alerts, err)
			return
		}
		resp.ClientSecret = secret
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *BookingHandler) get(c *gin.Context) {
	b, err := h.flow.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.alerts, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *BookingHandler) status(c *gin.Context) {
	b, err := h.flow.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.alerts, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": b.Status, "terminal": b.Status.Terminal()})
}

func (h *BookingHandler) list(c *gin.Context) {
	userID := c.Query("userId")
	if userID == "" {
		userID = h.sessions.Identity()
	}
	bookings, err := h.flow.List(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.alerts, err)
		return
	}
	c.JSON(http.StatusOK, bookings)
}

// startTracking begins status polling for a booking. It is invoked
// explicitly after the payment step, never on page load.
func (h *BookingHandler) startTracking(c *gin.Context) {
	id := c.Param("id")

	h.mu.Lock()
	if _, active := h.trackers[id]; active {
		h.mu.Unlock()
		c.JSON(http.StatusConflict, gin.H{"error": "already tracking"})
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), h.trackTTL)
	h.trackers[id] = cancel
	h.mu.Unlock()

	go func() {
		defer func() {
			cancel()
			h.mu.Lock()
			delete(h.trackers, id)
			h.mu.Unlock()
		}()
		if _, err := h.flow.Track(ctx, id); err != nil && h.alerts != nil {
			respondTrackError(h.alerts, err)
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{"tracking": id})
}

// stopTracking is the teardown path: the consumer went away, so the
// poller must not keep acting on its behalf.
func (h *BookingHandler) stopTracking(c *gin.Context) {
	id := c.Param("id")

	h.mu.Lock()
	cancel, active := h.trackers[id]
	delete(h.trackers, id)
	h.mu.Unlock()

	if active {
		cancel()
	}
	c.JSON(http.StatusOK, gin.H{"tracking": false})
}

type cancelBookingRequest struct {
	Reason string `json:"reason"`
}

func (h *BookingHandler) cancel(c *gin.Context) {
	var req cancelBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.flow.Cancel(c.Request.Context(), c.Param("id"), req.Reason); err != nil {
		respondError(c, h.alerts, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": domain.BookingStatusCancelled})
}
