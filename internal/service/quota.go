package service

import (
	"context"
	"time"

	"fintrack/internal/model"
	"fintrack/internal/repository"
)

// Actor is the authenticated caller of a service operation.
type Actor struct {
	UserID string
	Admin  bool
}

// freeTierQuota resolves the creation limits that apply to a user. Paid
// subscribers are unlimited, so they get 0.
type freeTierQuota struct {
	subs     SubscriptionService
	settings repository.SettingsRepository
}

func (q freeTierQuota) limit(ctx context.Context, userID string, pick func(*model.SystemSettings) int) (int, error) {
	paid, err := q.subs.IsPaid(ctx, userID)
	if err != nil {
		return 0, err
	}
	if paid {
		return 0, nil
	}
	settings, err := q.settings.GetSettings(ctx)
	if err != nil {
		return 0, err
	}
	return pick(settings), nil
}

// monthWindow returns the UTC calendar month containing t as [start, end).
func monthWindow(t time.Time) (time.Time, time.Time) {
	t = t.UTC()
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}
