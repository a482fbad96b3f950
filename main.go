package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"coursehaven/config"
	"coursehaven/database"
	"coursehaven/internal/api/courses"
	"coursehaven/internal/api/payments"
	routes "coursehaven/internal/app/http"
	"coursehaven/internal/domain/billing"
	"coursehaven/internal/infra/events"
	"coursehaven/internal/infra/gateway"
	infraredis "coursehaven/internal/infra/redis"
	"coursehaven/internal/observability/metrics"
	"coursehaven/internal/repository"
	"coursehaven/internal/service"
	"coursehaven/internal/worker"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// gin.SetMode(gin.ReleaseMode) uncomment only in production
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	config.LoadEnv()
	database.InitDB()
	metrics.Register()

	store := repository.NewStore(database.DB)

	var gw billing.Gateway
	if config.PAYMENT_GATEWAY == "stripe" && config.STRIPE_SECRET_KEY != "" {
		gw = gateway.NewStripe(config.STRIPE_SECRET_KEY)
		log.Info().Msg("using stripe payment gateway")
	} else {
		gw = gateway.NewSynthetic()
		log.Info().Msg("using synthetic payment gateway")
	}

	var publisher events.Publisher = events.NoopPublisher{}
	if config.AMQP_URL != "" {
		amqpPub, err := events.Dial(config.AMQP_URL)
		if err != nil {
			log.Error().Err(err).Msg("rabbitmq unreachable, purchase events disabled")
		} else {
			defer amqpPub.Close()
			publisher = amqpPub
		}
	}

	courses.UseCache(courses.NewCache(infraredis.NewClient(config.REDIS_ADDR)))

	purchaseSvc := service.NewPurchaseService(store, gw, publisher)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go worker.NewReconciler(store, time.Minute, 5*time.Minute).Start(ctx)

	r := gin.Default()

	// ✅ CORS before registering routes
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{config.CORS_ORIGIN},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.RegisterRoutes(r, payments.NewHandler(purchaseSvc))

	if err := r.Run(":" + config.PORT); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}
