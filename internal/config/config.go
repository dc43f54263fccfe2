package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/yigit/mentorlink/internal/pkg/helpers"
	"github.com/yigit/mentorlink/internal/pkg/validation"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file location used when MENTORLINK_CONFIG is not set
const DefaultPath = "configs/config.yaml"

// Config structure represents the seeder configuration
type Config struct {
	Database struct {
		Driver          string `yaml:"driver" env:"DB_DRIVER" validate:"required,eq=postgres"`
		Host            string `yaml:"host" env:"DB_HOST" validate:"required"`
		Port            string `yaml:"port" env:"DB_PORT" validate:"required,numeric"`
		User            string `yaml:"user" env:"DB_USER" validate:"required"`
		Password        string `yaml:"password" env:"DB_PASSWORD"`
		DBName          string `yaml:"dbname" env:"DB_NAME" validate:"required"`
		SSLMode         string `yaml:"sslmode" env:"DB_SSLMODE" validate:"omitempty,oneof=disable allow prefer require verify-ca verify-full"`
		MaxIdleConns    int    `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS" validate:"gte=0"`
		MaxOpenConns    int    `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS" validate:"gte=1"`
		ConnMaxLifetime string `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME" validate:"required"`
	} `yaml:"database"`

	Logging struct {
		Level  string `yaml:"level" env:"LOG_LEVEL" validate:"omitempty,oneof=debug info warn error fatal"`
		Format string `yaml:"format" env:"LOG_FORMAT" validate:"omitempty,oneof=json text"`
	} `yaml:"logging"`

	Migrations struct {
		Dir string `yaml:"dir" env:"MIGRATIONS_DIR" validate:"required"`
	} `yaml:"migrations"`

	Seed struct {
		// DemoStudents is the number of demo students created when the students table is empty
		DemoStudents int `yaml:"demo_students" env:"SEED_DEMO_STUDENTS" validate:"gte=0"`
	} `yaml:"seed"`

	Synthesis Synthesis `yaml:"synthesis"`
}

// Synthesis holds the parameters of the history generators
type Synthesis struct {
	// Seed for the random source, 0 means seed from the clock
	Seed             uint64             `yaml:"seed" env:"SYNTH_SEED"`
	GPAPeriods       []string           `yaml:"gpa_periods" env:"SYNTH_GPA_PERIODS" validate:"required,min=1,unique,dive,required,period_label"`
	AttendanceMonths []string           `yaml:"attendance_months" env:"SYNTH_ATTENDANCE_MONTHS" validate:"required,min=1,unique,dive,required,period_label"`
	TrendWeights     TrendWeights       `yaml:"trend_weights"`
	Seasonal         map[string]float64 `yaml:"seasonal_multipliers" validate:"dive,keys,required,endkeys,gt=0,lte=1.5"`
	GPANudge         float64            `yaml:"gpa_nudge" env:"SYNTH_GPA_NUDGE" validate:"gte=0,lte=10"`
	TxTimeout        string             `yaml:"tx_timeout" env:"SYNTH_TX_TIMEOUT" validate:"required"`
}

// TrendWeights is the categorical distribution used to assign trend classes
type TrendWeights struct {
	Improving float64 `yaml:"improving" env:"SYNTH_WEIGHT_IMPROVING" validate:"gte=0,lte=1"`
	Stable    float64 `yaml:"stable" env:"SYNTH_WEIGHT_STABLE" validate:"gte=0,lte=1"`
	Declining float64 `yaml:"declining" env:"SYNTH_WEIGHT_DECLINING" validate:"gte=0,lte=1"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := validation.RegisterRules(v); err != nil {
		panic(err)
	}
	return v
}

// LoadConfig loads configuration from a file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}
	setDefaults(config)

	// A missing file is fine, defaults and env still apply
	if _, err := os.Stat(configPath); err == nil {
		file, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(file, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}

	if err := loadFromEnv(config); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setDefaults sets default values for the configuration
func setDefaults(config *Config) {
	config.Database.Driver = "postgres"
	config.Database.Host = "localhost"
	config.Database.Port = "5432"
	config.Database.User = "postgres"
	config.Database.Password = "postgres"
	config.Database.DBName = "mentorlink"
	config.Database.SSLMode = "disable"
	config.Database.MaxIdleConns = 1
	config.Database.MaxOpenConns = 4
	config.Database.ConnMaxLifetime = "1h"

	config.Logging.Level = "info"
	config.Logging.Format = "text"

	config.Migrations.Dir = "migrations"

	config.Synthesis.GPAPeriods = []string{
		"Fall 2022", "Spring 2023", "Fall 2023", "Spring 2024", "Fall 2024", "Spring 2025",
	}
	config.Synthesis.AttendanceMonths = []string{
		"2025-01", "2025-02", "2025-03", "2025-04", "2025-05", "2025-06",
	}
	config.Synthesis.TrendWeights = TrendWeights{Improving: 0.60, Stable: 0.25, Declining: 0.15}
	config.Synthesis.Seasonal = map[string]float64{}
	config.Synthesis.TxTimeout = "30s"
}

// loadFromEnv overrides configuration with environment variables
func loadFromEnv(config *Config) error {
	return processStructFields(config)
}

// validateConfig ensures that the configuration is valid
func validateConfig(config *Config) error {
	if err := validate.Struct(config); err != nil {
		return err
	}

	if _, err := time.ParseDuration(config.Database.ConnMaxLifetime); err != nil {
		return fmt.Errorf("invalid connection max lifetime format: %w", err)
	}
	if _, err := time.ParseDuration(config.Synthesis.TxTimeout); err != nil {
		return fmt.Errorf("invalid transaction timeout format: %w", err)
	}

	w := config.Synthesis.TrendWeights
	if sum := w.Improving + w.Stable + w.Declining; math.Abs(sum-1) > 1e-9 {
		return fmt.Errorf("trend weights must sum to 1, got %.4f", sum)
	}

	return nil
}

// TxTimeoutDuration returns the per-subject transaction timeout
func (s Synthesis) TxTimeoutDuration() time.Duration {
	return helpers.ParseDuration(s.TxTimeout, 30*time.Second)
}

// GetPostgresConnectionString returns postgres connection string
func (c *Config) GetPostgresConnectionString() string {
	sslMode := c.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
		sslMode,
	)
}

// Path returns the config file path, honoring MENTORLINK_CONFIG
func Path() string {
	return GetEnv("MENTORLINK_CONFIG", DefaultPath)
}

// GetEnv gets an environment variable or returns a default value
func GetEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
