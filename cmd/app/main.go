package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/wichananm65/prasad-ordering/internal/apiclient"
	"github.com/wichananm65/prasad-ordering/internal/cart"
	"github.com/wichananm65/prasad-ordering/internal/catalog"
	"github.com/wichananm65/prasad-ordering/internal/config"
	"github.com/wichananm65/prasad-ordering/internal/interface/httpx"
	"github.com/wichananm65/prasad-ordering/internal/kvstore"
	"github.com/wichananm65/prasad-ordering/internal/logging"
	"github.com/wichananm65/prasad-ordering/internal/order"
	"github.com/wichananm65/prasad-ordering/internal/receipt"
	"github.com/wichananm65/prasad-ordering/internal/serving"
	"github.com/wichananm65/prasad-ordering/internal/session"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := kvstore.Open(ctx, cfg.KVBackend, cfg.DatabaseURL, cfg.RedisURL)
	if err != nil {
		logger.Fatal("open key-value store", zap.String("backend", cfg.KVBackend), zap.Error(err))
	}
	defer closeStore()

	sess := session.New(store, logger.Named("session"))
	client := apiclient.New(apiclient.Config{BaseURL: cfg.APIBaseURL, Timeout: cfg.APITimeout}, sess, logger.Named("api"))

	catalogService := catalog.NewService(client, logger.Named("catalog"))
	cartService := cart.NewService(cart.NewStore(), client, sess, logger.Named("cart"))
	servingState := serving.NewState(store, logger.Named("serving"))
	receiptService := receipt.NewService(client, sess, logger.Named("receipt"))
	flow := order.NewFlow(client, catalogService, sess, cartService, servingState, order.Options{
		Pricing:        order.Pricing{TaxPercent: cfg.TaxPercent, DeliveryFee: cfg.DeliveryFee},
		PickupLeadDays: cfg.PickupLeadDays,
		Logger:         logger.Named("flow"),
	})

	// a stored session picks up where the last process left off
	if err := flow.Resume(ctx); err != nil {
		logger.Warn("resume flow", zap.Error(err))
	}

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	setupCORS(app)
	app.Use(httpx.RequestLogger(logger.Named("http")))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "state": flow.State()})
	})

	order.NewHandler(flow, client).RegisterRoutes(app)
	catalog.NewHandler(catalogService, sess, cartService.Store(), servingState).RegisterRoutes(app)
	cart.NewHandler(cartService, catalogService).WithGate(flow).RegisterRoutes(app)
	serving.NewHandler(servingState, catalogService).WithGate(flow).RegisterRoutes(app)
	receipt.NewHandler(receiptService).RegisterRoutes(app)

	go func() {
		<-ctx.Done()
		if err := app.Shutdown(); err != nil {
			logger.Warn("shutdown", zap.Error(err))
		}
	}()

	logger.Info("starting app", zap.String("addr", cfg.Addr), zap.String("api", cfg.APIBaseURL))
	if err := app.Listen(cfg.Addr); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func setupCORS(app *fiber.App) {
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))
}
