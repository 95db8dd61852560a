// Command seed recreates the test account used for manual API checks:
// testuser / Test123 / +1234567890. An existing testuser is removed first.
//
// With -populate it also generates sample data for search demos:
//
//	seed -populate -users 100 -contacts 500 -spam 200
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/duynhne/callerid-service/config"
	database "github.com/duynhne/callerid-service/internal/core"
	"github.com/duynhne/callerid-service/internal/core/domain"
	logicv1 "github.com/duynhne/callerid-service/internal/logic/v1"
	"github.com/duynhne/callerid-service/middleware"
)

const (
	seedUsername = "testuser"
	seedPassword = "Test123"
	seedPhone    = "+1234567890"
	seedName     = "Test User"
)

func main() {
	var (
		doPopulate bool
		opts       populateOptions
	)
	flag.BoolVar(&doPopulate, "populate", false, "also generate sample users, contacts and spam reports")
	flag.IntVar(&opts.Users, "users", 100, "sample users to create")
	flag.IntVar(&opts.Contacts, "contacts", 500, "sample contacts to create")
	flag.IntVar(&opts.Spam, "spam", 200, "sample spam reports to create")
	flag.Uint64Var(&opts.Seed, "seed", 0, "random seed for sample data (0 picks one)")
	flag.Parse()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		panic("Configuration validation failed: " + err.Error())
	}

	logger, err := middleware.NewLogger(cfg.Logging)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer logger.Sync()

	timeout := time.Minute
	if doPopulate {
		timeout = 15 * time.Minute
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if !doPopulate {
		opts = populateOptions{}
	}
	if err := run(ctx, cfg, opts, logger); err != nil {
		logger.Error("Seeding failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, opts populateOptions, logger *zap.Logger) error {
	store, err := database.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	tokens := middleware.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL)
	auth := logicv1.NewAuthService(store.Accounts, tokens)

	if err := auth.ResetAccount(ctx, seedUsername); err != nil {
		return err
	}
	account, err := auth.Register(ctx, domain.RegisterRequest{
		Username:    seedUsername,
		Password:    seedPassword,
		PhoneNumber: seedPhone,
		Name:        seedName,
	})
	if err != nil {
		return err
	}

	logger.Info("Test account created",
		zap.String("username", account.Username),
		zap.String("phone_number", seedPhone),
		zap.String("store", store.Backend()),
	)

	if opts.Users <= 0 {
		return nil
	}
	stats, err := populate(ctx, store, auth, opts, logger)
	if err != nil {
		return err
	}
	logger.Info("Sample data created",
		zap.Int("users", stats.Users),
		zap.Int("contacts", stats.Contacts),
		zap.Int("spam_reports", stats.Reports),
		zap.Int("skipped", stats.Skipped),
	)
	return nil
}
