package main

import (
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/wichananm65/prasad-ordering/internal/config"
	"github.com/wichananm65/prasad-ordering/internal/interface/httpx"
	"github.com/wichananm65/prasad-ordering/internal/logging"
	"github.com/wichananm65/prasad-ordering/internal/mockapi"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	seed := mockapi.DefaultSeed()
	if path := os.Getenv("PRASAD_MOCKAPI_SEED"); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			logger.Fatal("read seed", zap.String("path", path), zap.Error(err))
		}
		if seed, err = mockapi.ParseSeed(b); err != nil {
			logger.Fatal("parse seed", zap.String("path", path), zap.Error(err))
		}
	}

	srv, err := mockapi.New(mockapi.Options{
		JWTSecret:   cfg.JWTSecret,
		Seed:        seed,
		Pricing:     mockapi.Pricing{TaxPercent: cfg.TaxPercent, DeliveryFee: cfg.DeliveryFee},
		AllowFaults: os.Getenv("PRASAD_MOCKAPI_ALLOW_FAULTS") == "1",
		Logger:      logger.Named("mockapi"),
		Middleware:  []fiber.Handler{cors.New(), httpx.RequestLogger(logger.Named("http"))},
	})
	if err != nil {
		logger.Fatal("build mock api", zap.Error(err))
	}

	app := srv.App()

	logger.Info("starting mock api", zap.String("addr", cfg.MockAPIAddr), zap.String("base", mockapi.BasePath))
	if err := app.Listen(cfg.MockAPIAddr); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
