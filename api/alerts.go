package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/okwaro/safaribook/internal/alerts"
)

type AlertHandler struct {
	center *alerts.Center
}

func NewAlertHandler(center *alerts.Center) *AlertHandler {
	return &AlertHandler{center: center}
}

func (h *AlertHandler) Register(router *gin.RouterGroup) {
	router.GET("/", h.visible)
	router.DELETE("/:id", h.dismiss)
}

func (h *AlertHandler) visible(c *gin.Context) {
	visible := h.center.Visible()
	if visible == nil {
		visible = []alerts.Alert{}
	}
	c.JSON(http.StatusOK, visible)
}

// dismiss hides one alert instance. The underlying condition is not
// cleared; a new identical failure surfaces again.
func (h *AlertHandler) dismiss(c *gin.Context) {
	h.center.Dismiss(c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"dismissed": true})
}
