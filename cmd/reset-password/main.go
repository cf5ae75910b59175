// Command reset-password sets a user's password directly in the database and
// invalidates the user's open sessions.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"erp-backend/internal/config"
	"erp-backend/internal/service"
	"erp-backend/internal/ws"
	"erp-backend/pkg/database"
	"erp-backend/pkg/logger"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, relying on system env")
	}
	cfg := config.Load()

	email := flag.String("email", cfg.AdminEmail, "account to reset")
	password := flag.String("password", cfg.AdminPassword, "new password (min 6 characters)")
	flag.Parse()

	if err := logger.Init(cfg.LogLevel, cfg.Environment, "erp-reset-password"); err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()
	lg := logger.L()

	db, err := database.ConnectDB(cfg.DSN(), gormlogger.Silent)
	if err != nil {
		lg.Fatal("database unavailable", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	deps := service.NewDeps(db, ws.Discard{}, nil, nil, 0)
	_, err = service.ResetPasswordHandler{Deps: deps}.Handle(ctx, service.ResetPassword{Email: *email, NewPassword: *password})
	if err != nil {
		lg.Fatal("password reset failed", zap.String("email", *email), zap.Error(err))
	}
	lg.Info("password reset, existing sessions revoked", zap.String("email", *email))
}
