package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/okwaro/safaribook/internal/alerts"
	"github.com/okwaro/safaribook/internal/domain"
	"github.com/okwaro/safaribook/internal/identity"
)

// Messenger is the slice of the chat client this handler uses.
type Messenger interface {
	Send(ctx context.Context, bookingID, senderID, body string) (*domain.Message, error)
	List(ctx context.Context, bookingID string) ([]domain.Message, error)
	Subscribe(ctx context.Context, bookingID string) (<-chan domain.Message, error)
}

type ChatHandler struct {
	chat     Messenger
	sessions *identity.Store
	alerts   *alerts.Center
	upgrader websocket.Upgrader
}

func NewChatHandler(chat Messenger, sessions *identity.Store, center *alerts.Center) *ChatHandler {
	return &ChatHandler{
		chat:     chat,
		sessions: sessions,
		alerts:   center,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

func (h *ChatHandler) Register(router *gin.RouterGroup) {
	router.GET("/:bookingId/messages", h.list)
	router.POST("/:bookingId/messages", h.send)
	router.GET("/:bookingId/stream", h.stream)
}

func (h *ChatHandler) list(c *gin.Context) {
	messages, err := h.chat.List(c.Request.Context(), c.Param("bookingId"))
	if err != nil {
		respondError(c, h.alerts, err)
		return
	}
	c.JSON(http.StatusOK, messages)
}

type sendMessageRequest struct {
	Body string `json:"body"`
}

func (h *ChatHandler) send(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := h.chat.Send(c.Request.Context(), c.Param("bookingId"), h.sessions.Identity(), req.Body)
	if err != nil {
		respondError(c, h.alerts, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// stream bridges the upstream subscription to the caller over a
// websocket. The upstream subscription dies with the client
// connection, so no message is ever delivered to a gone listener.
func (h *ChatHandler) stream(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	messages, err := h.chat.Subscribe(ctx, c.Param("bookingId"))
	if err != nil {
		_ = conn.WriteJSON(gin.H{"error": err.Error()})
		return
	}

	// Reads only detect disconnect; the client sends nothing.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for msg := range messages {
		if err := conn.WriteJSON(msg); err != nil {
			return
		}
	}
}
