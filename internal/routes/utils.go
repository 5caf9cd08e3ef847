package routes

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	reportHandlers "github.com/evn/absen_backend/internal/handlers/reports"
)

func EnsureUploadDirs(root string) error {
	dirs := []string{
		filepath.Join(root, "photos"),
		filepath.Join(root, "photos", "errors"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}

// DailyReportLoop pushes the previous day's report to the spreadsheet once
// per calendar day. It returns when ctx is done.
func DailyReportLoop(ctx context.Context, service reportHandlers.ReportService, publisher reportHandlers.Publisher, logger zerolog.Logger, every time.Duration) {
	logger = logger.With().Str("job", "daily_report").Logger()
	logger.Info().Msg("daily report job started")

	var lastPublished string
	tick := func(now time.Time) {
		yesterday := now.In(service.Location()).AddDate(0, 0, -1)
		day := yesterday.Format("2006-01-02")
		if day == lastPublished {
			return
		}
		rows, err := reportHandlers.PublishDay(ctx, service, publisher, yesterday)
		if err != nil {
			logger.Error().Err(err).Str("date", day).Msg("daily report push failed")
			return
		}
		lastPublished = day
		logger.Info().Str("date", day).Int("rows", rows).Msg("daily report pushed")
	}

	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			tick(now)
		}
	}
}
