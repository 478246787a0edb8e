package chrono

import (
	"context"
	"fmt"
	"partsfinder-backend/internal/components/telemetry"
	"time"

	"github.com/robfig/cron/v3"
)

// CronAPI runs callbacks on a schedule.
//
// note: fault injection point
type CronAPI interface {
	Cron(spec string, callback func()) error
}

// ValidateSpec checks a standard 5 field cron expression without scheduling anything.
func ValidateSpec(spec string) error {
	_, err := cron.ParseStandard(spec)
	if err != nil {
		return fmt.Errorf("invalid cron spec '%s': %w", spec, err)
	}
	return nil
}

// RobfigCron schedules in UTC with robfig/cron. A run that is still going when its
// next tick comes is skipped rather than overlapped.
type RobfigCron struct {
	cron *cron.Cron
}

// NewRobfigCron starts the scheduler, it stops once ctx is done.
func NewRobfigCron(ctx context.Context, tel telemetry.API) RobfigCron {
	logger := cronLogger{tel: telemetry.NewScopedAPI("cron", tel)}
	scheduler := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithLogger(logger),
		cron.WithChain(
			cron.Recover(logger),
			cron.SkipIfStillRunning(logger),
		),
	)
	scheduler.Start()

	go func() {
		<-ctx.Done()
		<-scheduler.Stop().Done()
	}()

	return RobfigCron{cron: scheduler}
}

func (c RobfigCron) Cron(spec string, callback func()) error {
	_, err := c.cron.AddFunc(spec, callback)
	return err
}

// cronLogger adapts telemetry.API to cron.Logger.
type cronLogger struct {
	tel telemetry.API
}

func pairs(keysAndValues []any) []any {
	out := make([]any, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		out = append(out, fmt.Sprintf("%v=%v", keysAndValues[i], keysAndValues[i+1]))
	}
	return out
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.tel.ReportDebug(msg, pairs(keysAndValues)...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	params := append([]any{err, msg}, pairs(keysAndValues)...)
	l.tel.ReportBroken("job", params...)
}
