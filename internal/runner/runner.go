package runner

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	appRepos "github.com/yigit/mentorlink/internal/app/repositories"
	"github.com/yigit/mentorlink/internal/bootstrap"
	"github.com/yigit/mentorlink/internal/config"
	"github.com/yigit/mentorlink/internal/db"
	"github.com/yigit/mentorlink/internal/seed"
)

// Runner holds the state of one seeding run
type Runner struct {
	config *config.Config
	db     *db.PostgresDB
	repos  *appRepos.Repositories
	logger zerolog.Logger
	seed   uint64
}

// NewRunner loads the configuration, connects to the database and applies migrations.
// Errors returned here are fatal.
func NewRunner(ctx context.Context) (*Runner, error) {
	cfg, lgr, err := bootstrap.LoadConfigAndSetupLogger()
	if err != nil {
		return nil, fmt.Errorf("failed to load config or setup logger: %w", err)
	}

	database, err := bootstrap.SetupDatabase(ctx, cfg, lgr)
	if err != nil {
		return nil, fmt.Errorf("failed to setup database: %w", err)
	}

	return &Runner{
		config: cfg,
		db:     database,
		repos:  appRepos.NewRepositories(database.Pool),
		logger: lgr,
		seed:   bootstrap.ResolveSeed(cfg, time.Now),
	}, nil
}

// Run seeds demo students when needed, synthesizes history and writes the summary to out.
// Per-subject failures are part of the summary and do not make Run fail.
func (r *Runner) Run(ctx context.Context, out io.Writer) (*seed.Summary, error) {
	if _, err := bootstrap.SeedDemoStudents(ctx, r.db, r.repos, r.config, r.seed, r.logger); err != nil {
		return nil, err
	}

	job := bootstrap.BuildJob(r.config, r.repos, r.seed, r.logger)
	summary, err := job.Run(ctx)
	if err != nil {
		return summary, err
	}

	if err := summary.Write(out); err != nil {
		return summary, fmt.Errorf("write summary: %w", err)
	}
	return summary, nil
}

// Close releases the database pool
func (r *Runner) Close() {
	r.logger.Info().Msg("Closing database connection")
	r.db.Close()
}
