package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/brianvoe/gofakeit/v7"
	"go.uber.org/zap"

	database "github.com/duynhne/callerid-service/internal/core"
	"github.com/duynhne/callerid-service/internal/core/domain"
	logicv1 "github.com/duynhne/callerid-service/internal/logic/v1"
)

const samplePassword = "testpass123"

type populateOptions struct {
	Users    int
	Contacts int
	Spam     int
	Seed     uint64
}

type populateStats struct {
	Users    int
	Contacts int
	Reports  int
	Skipped  int
}

// populate fills the store with fake accounts, contacts and spam reports.
// Contacts reuse a shared pool of numbers half of the time so the same number
// shows up under several names, and reports target both contact and profile
// numbers. Rows rejected as duplicates are skipped and counted.
func populate(ctx context.Context, store *database.Store, auth *logicv1.AuthService, opts populateOptions, logger *zap.Logger) (populateStats, error) {
	var stats populateStats
	faker := gofakeit.New(opts.Seed)
	contacts := logicv1.NewContactService(store.Contacts, store.Reports)
	spam := logicv1.NewSpamService(store.Reports, nil, logger)

	accountIDs := make([]int64, 0, opts.Users)
	var numbers []string
	for i := 0; i < opts.Users; i++ {
		var email *string
		if faker.Number(1, 10) > 3 {
			e := faker.Email()
			email = &e
		}
		phone := fakePhone(faker)
		account, err := auth.Register(ctx, domain.RegisterRequest{
			Username:    fmt.Sprintf("%s%d", faker.Username(), i),
			Password:    samplePassword,
			PhoneNumber: phone,
			Name:        faker.Name(),
			Email:       email,
		})
		if err != nil {
			if skippable(err) {
				stats.Skipped++
				continue
			}
			return stats, fmt.Errorf("create user: %w", err)
		}
		accountIDs = append(accountIDs, account.ID)
		numbers = append(numbers, phone)
		stats.Users++
	}
	if len(accountIDs) == 0 {
		return stats, nil
	}

	shared := make([]string, max(opts.Contacts/2, 1))
	for i := range shared {
		shared[i] = fakePhone(faker)
	}
	seen := make(map[string]bool)
	for i := 0; i < opts.Contacts; i++ {
		owner := accountIDs[faker.Number(0, len(accountIDs)-1)]
		phone := fakePhone(faker)
		if faker.Bool() {
			phone = shared[faker.Number(0, len(shared)-1)]
		}
		name := faker.Name()
		if _, err := contacts.Create(ctx, owner, domain.ContactInput{Name: &name, PhoneNumber: &phone}); err != nil {
			if skippable(err) {
				stats.Skipped++
				continue
			}
			return stats, fmt.Errorf("create contact: %w", err)
		}
		if !seen[phone] {
			seen[phone] = true
			numbers = append(numbers, phone)
		}
		stats.Contacts++
	}

	for i := 0; i < opts.Spam; i++ {
		reporter := accountIDs[faker.Number(0, len(accountIDs)-1)]
		phone := numbers[faker.Number(0, len(numbers)-1)]
		if _, err := spam.Report(ctx, reporter, phone); err != nil {
			if skippable(err) {
				stats.Skipped++
				continue
			}
			return stats, fmt.Errorf("create spam report: %w", err)
		}
		stats.Reports++
	}

	return stats, nil
}

// fakePhone returns an Indian-format mobile number, +91 and ten digits
func fakePhone(faker *gofakeit.Faker) string {
	return "+91" + faker.Numerify("##########")
}

func skippable(err error) bool {
	return errors.Is(err, domain.ErrConflict) || errors.Is(err, domain.ErrValidation)
}
