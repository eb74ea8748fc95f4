// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package schedule runs a job on a standard five-field cron schedule.
package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Job is one scheduled run. A returned error is logged; the schedule keeps going.
type Job func(ctx context.Context) error

// Validate parses spec as a standard cron expression (or a descriptor such
// as "@daily" or "@every 6h").
func Validate(spec string) error {
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return nil
}

// Next returns the first activation of spec after t.
func Next(spec string, t time.Time) (time.Time, error) {
	s, err := cron.ParseStandard(spec)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return s.Next(t), nil
}

// Run invokes job on spec until ctx is cancelled. A run still in progress
// when the next activation fires causes that activation to be skipped. Run
// waits for an in-flight job before returning.
func Run(ctx context.Context, spec string, job Job, logger zerolog.Logger) error {
	if err := Validate(spec); err != nil {
		return err
	}

	cl := cronLogger{logger}
	c := cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)

	_, err := c.AddFunc(spec, func() {
		began := time.Now()
		logger.Info().Msg("scheduled run started")
		if err := job(ctx); err != nil {
			logger.Error().Err(err).Dur("elapsed", time.Since(began)).Msg("scheduled run failed")
			return
		}
		logger.Info().Dur("elapsed", time.Since(began)).Msg("scheduled run finished")
	})
	if err != nil {
		return fmt.Errorf("adding scheduled job: %w", err)
	}

	c.Start()
	if entries := c.Entries(); len(entries) > 0 {
		logger.Info().Str("schedule", spec).Time("next", entries[0].Next).Msg("scheduler started")
	}

	<-ctx.Done()
	<-c.Stop().Done()
	logger.Info().Msg("scheduler stopped")
	return nil
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
