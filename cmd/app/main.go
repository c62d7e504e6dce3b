package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okwaro/safaribook/config"
	"github.com/okwaro/safaribook/internal/alerts"
	"github.com/okwaro/safaribook/internal/backend"
	"github.com/okwaro/safaribook/internal/bootstrap"
	"github.com/okwaro/safaribook/internal/cache"
	"github.com/okwaro/safaribook/internal/chat"
	"github.com/okwaro/safaribook/internal/identity"
	"github.com/okwaro/safaribook/internal/kafka"
	"github.com/okwaro/safaribook/internal/payments"
	"github.com/okwaro/safaribook/internal/reviews"
	"github.com/okwaro/safaribook/internal/service/booking"
	"github.com/okwaro/safaribook/internal/service/guides"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sessions := identity.NewStore()
	provider := identity.NewProvider(cfg.Identity.URL, cfg.Identity.APIKey, sessions)

	redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Booking.GuidesCacheTTL)*time.Second)
	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()

	backendClient := backend.NewClient(cfg.Backend.BaseURL, sessions)
	paymentClient := payments.NewClient(cfg.Payments.BaseURL, cfg.Payments.SecretKey)
	reviewClient := reviews.NewClient(cfg.Backend.BaseURL, sessions)
	chatClient := chat.NewClient(cfg.Chat.HTTPEndpoint, cfg.Chat.RealtimeEndpoint, sessions)

	guideService := guides.NewGuideService(backendClient, redisCache)
	flowService := booking.NewFlowService(
		backendClient,
		redisCache,
		producer,
		sessions,
		booking.WithBookingTopic(cfg.Kafka.BookingTopic),
		booking.WithPollInterval(time.Duration(cfg.Booking.PollIntervalSeconds)*time.Second),
		booking.WithPollTimeout(time.Duration(cfg.Booking.PollTimeoutSeconds)*time.Second),
		booking.WithSubmitLockTTL(time.Duration(cfg.Booking.SubmitLockSeconds)*time.Second),
	)

	deps := bootstrap.Deps{
		Flow:     flowService,
		Guides:   guideService,
		Payments: paymentClient,
		Reviews:  reviewClient,
		Chat:     chatClient,
		Sessions: sessions,
		Provider: provider,
		Alerts:   alerts.NewCenter(),
	}

	if err := bootstrap.Run(ctx, cfg, deps); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
