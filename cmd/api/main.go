package main

import (
	"context"
	"encoding/base64"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"erp-backend/internal/cache"
	"erp-backend/internal/config"
	"erp-backend/internal/handler"
	"erp-backend/internal/i18n"
	"erp-backend/internal/mediator"
	"erp-backend/internal/metrics"
	"erp-backend/internal/middleware"
	"erp-backend/internal/model"
	"erp-backend/internal/service"
	"erp-backend/internal/web"
	"erp-backend/internal/ws"
	"erp-backend/pkg/database"
	"erp-backend/pkg/jwt"
	"erp-backend/pkg/logger"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/encryptcookie"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

func main() {
	// 1. Load Env
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}
	cfg := config.Load()

	if err := logger.Init(cfg.LogLevel, cfg.Environment, "erp-api"); err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()
	lg := logger.L()

	// 2. Setup Database
	gormLevel := gormlogger.Warn
	if !cfg.IsProduction() {
		gormLevel = gormlogger.Info
	}
	db, err := database.ConnectDB(cfg.DSN(), gormLevel)
	if err != nil {
		lg.Fatal("database unavailable", zap.Error(err))
	}
	if err := db.AutoMigrate(model.AllModels()...); err != nil {
		lg.Fatal("auto migrate failed", zap.Error(err))
	}

	// 3. Live events, metrics, cache
	hub := ws.NewHub()
	go hub.Run()

	m := metrics.New("erp")

	var dashCache cache.DashboardCache = cache.NoopDashboardCache{}
	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedisDashboardCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := redisCache.Ping(ctx); err != nil {
			lg.Warn("redis unavailable, dashboard cache disabled", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		} else {
			dashCache = redisCache
			defer redisCache.Close()
		}
		cancel()
	}

	// 4. Dependency Injection (Wiring Layers)
	deps := service.NewDeps(db, hub, m, dashCache, cfg.DashboardCacheTTL)
	if err := deps.Bootstrap(context.Background(), cfg.AdminEmail, cfg.AdminPassword); err != nil {
		lg.Fatal("seed failed", zap.Error(err))
	}

	tokens := jwt.NewManager(cfg.JWTSecret, time.Duration(cfg.JWTTTLHours)*time.Hour)
	bus := mediator.New()
	if err := service.Register(bus, deps, tokens); err != nil {
		lg.Fatal("register handlers", zap.Error(err))
	}

	tr, err := i18n.New(cfg.DefaultLocale)
	if err != nil {
		lg.Fatal("load translations", zap.Error(err))
	}
	store := session.New(session.Config{
		Expiration:     24 * time.Hour,
		KeyLookup:      "cookie:session_id",
		CookieHTTPOnly: true,
		CookieSecure:   cfg.IsProduction(),
		CookieSameSite: "Lax",
	})

	// 5. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ErrorHandler: handler.ErrorHandler(tr),
		Views:        web.Engine(tr),
		BodyLimit:    16 * 1024 * 1024,
	})

	app.Use(recover.New(recover.Config{EnableStackTrace: !cfg.IsProduction()}))
	app.Use(middleware.Metrics(m))
	app.Use(middleware.RequestLogger())
	app.Use(cors.New(cors.Config{AllowOrigins: cfg.AllowedOrigins}))
	if cfg.SessionSecret != "" {
		if key, err := base64.StdEncoding.DecodeString(cfg.SessionSecret); err != nil || !validKeyLen(len(key)) {
			lg.Fatal("SESSION_SECRET must be a base64 AES key of 16, 24 or 32 bytes")
		}
		app.Use(encryptcookie.New(encryptcookie.Config{Key: cfg.SessionSecret}))
	}
	app.Use(middleware.Locale(tr, store, tokens))

	// 6. Routes
	app.Get("/health", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"status": "ok"}) })
	app.Get("/metrics", adaptor.HTTPHandler(m.Handler()))

	auth := middleware.RequireAuth(tokens, deps.Users)
	handler.NewAPI(bus, tr, store, cfg.CompanySIREN).Routes(app, auth)

	// WebSocket Route
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		hub.Register <- c
		defer func() { hub.Unregister <- c }()

		for {
			// Keep alive loop
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	}))

	web.New(bus, tr, store).Routes(app)

	// 7. Graceful Shutdown
	go func() {
		lg.Info("listening", zap.String("addr", cfg.Address()), zap.String("environment", cfg.Environment))
		if err := app.Listen(cfg.Address()); err != nil && !strings.Contains(err.Error(), "closed") {
			lg.Fatal("listen failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	lg.Info("shutting down server")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		lg.Error("server forced to shutdown", zap.Error(err))
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	lg.Info("server exited")
}

func validKeyLen(n int) bool {
	return n == 16 || n == 24 || n == 32
}
