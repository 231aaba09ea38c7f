package main // Entry point package

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/casecraft/internal/auth"
	"github.com/iliyamo/casecraft/internal/config"
	"github.com/iliyamo/casecraft/internal/database"
	"github.com/iliyamo/casecraft/internal/handler"
	"github.com/iliyamo/casecraft/internal/payment"
	"github.com/iliyamo/casecraft/internal/queue"
	"github.com/iliyamo/casecraft/internal/repository"
	"github.com/iliyamo/casecraft/internal/router"
	queue_publisher "github.com/iliyamo/casecraft/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()
	rlCfg := config.LoadRateLimitConfig()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Nil client disables rate limiting; auth correctness never depends on Redis.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; rate limiting disabled")
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewRefreshTokenRepo(db)
	orders := repository.NewOrderRepo(db)
	cases := repository.NewPhoneCaseRepo(db)

	sessions := auth.NewService(cfg.AccessTokenKey, cfg.RefreshTokenKey,
		cfg.AccessTTLMin, cfg.RefreshTTLDays, users, tokens)

	provider := payment.NewClient(cfg.PaymentSecretKey, cfg.PaymentAPIURL, cfg.ProviderTimeout)
	processor := payment.NewProcessor(orders,
		func(ctx context.Context, ev queue.OrderPaidEvent) error {
			return queue_publisher.PublishOrderPaid(ctx, ev)
		})

	// Background consumer feeding logs/fulfillment.log from order.paid.
	go func() {
		if err := queue.StartFulfillmentConsumer(); err != nil {
			log.Printf("fulfillment consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	router.Register(e, cfg, rlCfg, rdb,
		handler.NewAuthHandler(cfg, users, sessions),
		handler.NewUserHandler(users),
		handler.NewOrderHandler(orders),
		handler.NewCheckoutHandler(cfg, orders, cases, provider),
		handler.NewWebhookHandler(cfg.WebhookSecret, processor))

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
