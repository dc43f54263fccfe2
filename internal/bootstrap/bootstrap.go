package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	appMigrations "github.com/yigit/mentorlink/internal/app/migrations"
	appRepos "github.com/yigit/mentorlink/internal/app/repositories"
	"github.com/yigit/mentorlink/internal/config"
	"github.com/yigit/mentorlink/internal/db"
	"github.com/yigit/mentorlink/internal/pkg/apperrors"
	"github.com/yigit/mentorlink/internal/pkg/logger"
	"github.com/yigit/mentorlink/internal/seed"
	"github.com/yigit/mentorlink/internal/synth"
)

// demoSeedSalt separates the demo student stream from the synthesis stream of the same seed
const demoSeedSalt = 0x5eed

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	configPath := config.Path()
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Str("path", configPath).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	lgr := logger.Configure(logger.FromSettings(cfg.Logging.Level, cfg.Logging.Format))
	lgr.Info().Str("logLevel", cfg.Logging.Level).Str("logFormat", cfg.Logging.Format).Str("config", configPath).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase establishes the database connection and runs migrations.
// Every error it returns is fatal for the run.
func SetupDatabase(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (*db.PostgresDB, error) {
	lgr.Info().Str("host", cfg.Database.Host).Str("db", cfg.Database.DBName).Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(ctx, cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, apperrors.NewCustomError(apperrors.ErrStorageUnavailable, fmt.Sprintf("storage unavailable: %v", err)).
			WithCode("STORAGE_UNAVAILABLE").
			WithDetails(map[string]interface{}{"host": cfg.Database.Host, "db": cfg.Database.DBName})
	}
	lgr.Info().Msg("Database connection successfully established.")

	lgr.Info().Str("dir", cfg.Migrations.Dir).Msg("Running database migrations...")
	migrator := appMigrations.NewMigrator(database.Pool, lgr)
	if _, err := migrator.MigrateFromDirectory(ctx, cfg.Migrations.Dir); err != nil {
		database.Close()
		lgr.Error().Err(err).Msg("Database migration error")
		return nil, fmt.Errorf("database migrations failed: %w", err)
	}

	return database, nil
}

// ResolveSeed returns the configured synthesis seed, or a clock-derived one when it is 0
func ResolveSeed(cfg *config.Config, now func() time.Time) uint64 {
	if cfg.Synthesis.Seed != 0 {
		return cfg.Synthesis.Seed
	}
	return uint64(now().UnixNano())
}

// SeedDemoStudents creates cfg.Seed.DemoStudents demo students in one transaction
// when the students table is empty
func SeedDemoStudents(ctx context.Context, database *db.PostgresDB, repos *appRepos.Repositories, cfg *config.Config, seedValue uint64, lgr zerolog.Logger) (int, error) {
	if cfg.Seed.DemoStudents == 0 {
		return 0, nil
	}

	students := seed.DemoStudents(synth.NewRandom(seedValue^demoSeedSalt), cfg.Seed.DemoStudents)
	var inserted int
	err := database.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		var err error
		inserted, err = seed.CreateDemoStudents(ctx, repos.StudentRepository.WithTx(tx), students, lgr)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("seed demo students: %w", err)
	}
	return inserted, nil
}

// SynthesisOptions maps the synthesis config section onto synthesizer options
func SynthesisOptions(cfg *config.Config, seedValue uint64, lgr zerolog.Logger) synth.Options {
	s := cfg.Synthesis
	return synth.Options{
		Random:   synth.NewRandom(seedValue),
		Seasonal: synth.SeasonalTable(s.Seasonal),
		Weights: synth.TrendWeights{
			Improving: s.TrendWeights.Improving,
			Stable:    s.TrendWeights.Stable,
			Declining: s.TrendWeights.Declining,
		},
		GPANudge:  s.GPANudge,
		TxTimeout: s.TxTimeoutDuration(),
		Logger:    lgr,
	}
}

// BuildJob wires the repositories and the synthesizer into a seed job
func BuildJob(cfg *config.Config, repos *appRepos.Repositories, seedValue uint64, lgr zerolog.Logger) *seed.Job {
	store := seed.NewHistoryStore(repos.HistoryRepository)
	return &seed.Job{
		Subjects:         repos.StudentRepository,
		Checker:          repos.ReportRepository,
		Synthesizer:      synth.NewSynthesizer(store, SynthesisOptions(cfg, seedValue, lgr)),
		GPAPeriods:       cfg.Synthesis.GPAPeriods,
		AttendanceMonths: cfg.Synthesis.AttendanceMonths,
		Seed:             seedValue,
		Logger:           lgr,
	}
}
