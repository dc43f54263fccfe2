package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/yigit/mentorlink/internal/pkg/logger"
	"github.com/yigit/mentorlink/internal/runner"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	r, err := runner.NewRunner(ctx)
	if err != nil {
		// Error details are logged within the bootstrap functions
		logger.Error().Err(err).Msg("Failed to initialize history seeder")
		return 1
	}
	defer r.Close()

	summary, err := r.Run(ctx, os.Stdout)
	if err != nil {
		logger.Error().Err(err).Msg("History seeding aborted")
		return 1
	}

	if n := summary.FailedSubjects(); n > 0 {
		logger.Warn().Int("failedSubjects", n).Msg("History seeding finished with rolled back subjects")
	} else {
		logger.Info().Msg("History seeding finished successfully")
	}
	return 0
}
