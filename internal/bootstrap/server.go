package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/okwaro/safaribook/api"
	"github.com/okwaro/safaribook/config"
	"github.com/okwaro/safaribook/internal/alerts"
	"github.com/okwaro/safaribook/internal/identity"
	"github.com/okwaro/safaribook/internal/service/booking"
	"github.com/okwaro/safaribook/internal/service/guides"
)

// Deps carries everything the HTTP surface needs.
type Deps struct {
	Flow     booking.FlowUseCase
	Guides   guides.GuideUseCase
	Payments api.PaymentIntents
	Reviews  api.ReviewSubmitter
	Chat     api.Messenger
	Sessions *identity.Store
	Provider *identity.Provider
	Alerts   *alerts.Center
}

// Run starts the HTTP server and blocks until ctx is canceled or the
// server fails.
func Run(ctx context.Context, cfg *config.Config, deps Deps) error {
	srv := &http.Server{
		Addr:    cfg.HTTP.Address,
		Handler: newRouter(cfg, deps),
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}

func newRouter(cfg *config.Config, deps Deps) *gin.Engine {
	router := gin.Default()

	corsCfg := cors.DefaultConfig()
	if len(cfg.HTTP.AllowedOrigins) > 0 {
		corsCfg.AllowOrigins = cfg.HTTP.AllowedOrigins
	} else {
		corsCfg.AllowAllOrigins = true
	}
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization")
	corsCfg.AllowMethods = []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsCfg))

	if deps.Provider != nil && deps.Sessions != nil {
		router.Use(api.AuthMiddleware(deps.Provider, deps.Sessions))
	}

	trackTTL := time.Duration(cfg.Booking.PollTimeoutSeconds) * time.Second

	bookingHandler := api.NewBookingHandler(deps.Flow, deps.Payments, deps.Sessions, deps.Alerts, trackTTL)
	bookingHandler.Register(router.Group("/bookings"))

	guideHandler := api.NewGuideHandler(deps.Guides, deps.Alerts)
	guideHandler.Register(router.Group("/guides"))

	if deps.Reviews != nil {
		reviewHandler := api.NewReviewHandler(deps.Reviews, deps.Alerts)
		reviewHandler.Register(router.Group("/reviews"))
	}
	if deps.Chat != nil {
		chatHandler := api.NewChatHandler(deps.Chat, deps.Sessions, deps.Alerts)
		chatHandler.Register(router.Group("/chat"))
	}

	alertHandler := api.NewAlertHandler(deps.Alerts)
	alertHandler.Register(router.Group("/alerts"))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return router
}
