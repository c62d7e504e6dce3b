package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/okwaro/safaribook/internal/alerts"
	"github.com/okwaro/safaribook/internal/domain"
	"github.com/okwaro/safaribook/internal/service/guides"
)

type GuideHandler struct {
	service guides.GuideUseCase
	alerts  *alerts.Center
}

func NewGuideHandler(service guides.GuideUseCase, center *alerts.Center) *GuideHandler {
	return &GuideHandler{service: service, alerts: center}
}

func (h *GuideHandler) Register(router *gin.RouterGroup) {
	router.GET("/", h.list)
	router.GET("/:id", h.get)
	router.POST("/:id/quote", h.quote)
}

func (h *GuideHandler) list(c *gin.Context) {
	all, err := h.service.List(c.Request.Context())
	if err != nil {
		respondError(c, h.alerts, err)
		return
	}
	c.JSON(http.StatusOK, all)
}

func (h *GuideHandler) get(c *gin.Context) {
	g, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.alerts, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

type quoteRequest struct {
	Stay  domain.StayInterval     `json:"stay"`
	Group domain.GroupComposition `json:"group"`
}

func (h *GuideHandler) quote(c *gin.Context) {
	var req quoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	q, err := h.service.Quote(c.Request.Context(), c.Param("id"), req.Stay, req.Group)
	if err != nil {
		respondError(c, h.alerts, err)
		return
	}
	c.JSON(http.StatusOK, q)
}
