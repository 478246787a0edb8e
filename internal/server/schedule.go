package server

import (
	"context"
	"fmt"
	"partsfinder-backend/internal/components/chrono"
	"time"
)

const (
	report_schedule_run = "schedule.run"

	scheduledRunTimeout = 2 * time.Minute
)

// ScheduleConfig runs the same searches periodically so that stored listings stay
// fresh for the grading agent.
type ScheduleConfig struct {
	// Spec is a standard 5 field cron expression, empty disables scheduling.
	Spec    string   `json:"spec"`
	Queries []string `json:"queries"`
	UserID  string   `json:"user_id"`
}

// RunScheduled searches every configured query once, failures are reported and
// do not stop the remaining queries.
func (s Server) RunScheduled(ctx context.Context, config ScheduleConfig) {
	for _, query := range config.Queries {
		res, err := s.Search(ctx, query, config.UserID)
		if err != nil {
			s.tel.ReportBroken(report_schedule_run, err, query)
			continue
		}
		s.tel.ReportDebug("scheduled search", query, len(res.Results))
	}
}

// Schedule registers the scheduled searches with cron.
func (s Server) Schedule(cron chrono.CronAPI, config ScheduleConfig) error {
	if config.Spec == "" || len(config.Queries) == 0 {
		return nil
	}
	err := cron.Cron(config.Spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), scheduledRunTimeout)
		defer cancel()
		s.RunScheduled(ctx, config)
	})
	if err != nil {
		return fmt.Errorf("schedule '%s': %w", config.Spec, err)
	}
	return nil
}
