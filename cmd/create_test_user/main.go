package main

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"todo_webapp/internal/config"
	"todo_webapp/internal/db"
	"todo_webapp/internal/domain"
	"todo_webapp/internal/logger"
	"todo_webapp/internal/repository"
	"todo_webapp/internal/service"
)

// create_test_user signs up (or signs in) a user and prints a session token
// for use with curl or ws_smoke.
func main() {
	email := flag.String("email", "tester@example.com", "user email")
	password := flag.String("password", "tester123", "user password")
	flag.Parse()

	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogJSON)
	if !cfg.Validation.Valid {
		logger.Fatal("configuration invalid", "problem", cfg.Validation.ErrorMessage())
	}

	pool := db.MustConnect(cfg.DatabaseURL)
	defer pool.Close()
	ctx := context.Background()

	identity := service.NewIdentityService(
		repository.NewUserRepository(pool),
		repository.NewResetTokenRepository(pool),
		service.NewTokenIssuer(cfg.JWTSecret, cfg.SessionTTL),
		nil,
		nil,
		nil,
		cfg.AppBaseURL,
	)

	sess, err := identity.SignUp(ctx, *email, *password)
	if errors.Is(err, domain.ErrEmailTaken) {
		logger.Info("user already exists, signing in", "email", *email)
		sess, err = identity.SignIn(ctx, *email, *password)
	}
	if err != nil {
		logger.Fatal("could not get a session", "error", err)
	}

	logger.Info("session issued", "user_id", sess.UserID, "valid_until", sess.ValidUntil)
	fmt.Println(sess.Token)
}
