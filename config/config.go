// Package config loads application settings from a .env file and environment variables.
// Environment variables always take precedence over .env file values.
package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	// PostgreSQL – either set DatabaseURL directly, or the individual fields.
	DatabaseURL string
	DBUser      string
	DBPass      string
	DBHost      string
	DBPort      string
	DBName      string
	DBSSLMode   string

	// JWT signing secret (required in production).
	JWTSecret string
	// AdminUsers may mint password hashes through the API.
	AdminUsers []string

	// Server
	Debug      bool
	Port       string
	TLSDomains []string

	// Prometheus namespace for exported metrics.
	MetricsNamespace string

	// MySQL – legacy profile store, used only by cmd/migrate.
	MySQLDSN string

	Sim Sim
}

// Sim holds simulation defaults. Durations are configured in milliseconds.
type Sim struct {
	// Workers bounds how many races of a batch run at once.
	Workers int
	// GridGap is the start-time penalty per grid slot.
	GridGap time.Duration
	// MinObservations is the sample count below which a fitted profile is
	// not trusted.
	MinObservations int
	// MaxLaps and MaxEntrants bound a single race request.
	MaxLaps     int
	MaxEntrants int

	DefaultLapTime      time.Duration
	DefaultLapStdDev    time.Duration
	DefaultPitStop      time.Duration
	DefaultOvertakeProb float64
}

// Load reads configuration from a .env file (if present) and then from
// environment variables. Environment variables always win.
func Load() *Config {
	v := newViper()

	// Defaults
	v.SetDefault("DB_USER", "f1sim")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_NAME", "f1sim")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("PORT", ":9000")
	v.SetDefault("TLS_DOMAINS", "")
	v.SetDefault("DEBUG", false)
	v.SetDefault("METRICS_NAMESPACE", "f1sim")
	v.SetDefault("ADMIN_USERS", "admin")

	cfg := &Config{
		DatabaseURL:      v.GetString("DATABASE_URL"),
		DBUser:           v.GetString("DB_USER"),
		DBPass:           v.GetString("DB_PASS"),
		DBHost:           v.GetString("DB_HOST"),
		DBPort:           v.GetString("DB_PORT"),
		DBName:           v.GetString("DB_NAME"),
		DBSSLMode:        v.GetString("DB_SSLMODE"),
		JWTSecret:        v.GetString("JWT_SECRET"),
		AdminUsers:       splitTrimmed(v.GetString("ADMIN_USERS")),
		Debug:            v.GetBool("DEBUG"),
		Port:             v.GetString("PORT"),
		TLSDomains:       splitTrimmed(v.GetString("TLS_DOMAINS")),
		MetricsNamespace: v.GetString("METRICS_NAMESPACE"),
		MySQLDSN:         v.GetString("MYSQL_DSN"),
		Sim:              loadSim(v),
	}

	if err := cfg.validate(); err != nil {
		log.Fatal(err)
	}
	return cfg
}

// LoadSim reads only the simulation settings. It needs no database or JWT settings.
func LoadSim() Sim {
	sim := loadSim(newViper())
	if err := sim.validate(); err != nil {
		log.Fatal(err)
	}
	return sim
}

func loadSim(v *viper.Viper) Sim {
	v.SetDefault("SIM_WORKERS", 4)
	v.SetDefault("SIM_GRID_GAP_MS", 20)
	v.SetDefault("SIM_MIN_OBSERVATIONS", 10)
	v.SetDefault("SIM_DEFAULT_LAP_MS", 90_000)
	v.SetDefault("SIM_DEFAULT_LAP_STD_MS", 0)
	v.SetDefault("SIM_DEFAULT_PIT_MS", 22_000)
	v.SetDefault("SIM_DEFAULT_OVERTAKE_PROB", 0.5)
	v.SetDefault("SIM_MAX_LAPS", 200)
	v.SetDefault("SIM_MAX_ENTRANTS", 40)

	return Sim{
		Workers:             v.GetInt("SIM_WORKERS"),
		GridGap:             millis(v.GetInt64("SIM_GRID_GAP_MS")),
		MinObservations:     v.GetInt("SIM_MIN_OBSERVATIONS"),
		MaxLaps:             v.GetInt("SIM_MAX_LAPS"),
		MaxEntrants:         v.GetInt("SIM_MAX_ENTRANTS"),
		DefaultLapTime:      millis(v.GetInt64("SIM_DEFAULT_LAP_MS")),
		DefaultLapStdDev:    millis(v.GetInt64("SIM_DEFAULT_LAP_STD_MS")),
		DefaultPitStop:      millis(v.GetInt64("SIM_DEFAULT_PIT_MS")),
		DefaultOvertakeProb: v.GetFloat64("SIM_DEFAULT_OVERTAKE_PROB"),
	}
}

// PostgresDSN returns the full PostgreSQL connection string.
// DATABASE_URL takes precedence over individual fields.
func (c *Config) PostgresDSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser,
		c.DBPass,
		c.DBHost,
		c.DBPort,
		c.DBName,
		c.DBSSLMode,
	)
}

// JWTKey returns the JWT signing key as a byte slice.
func (c *Config) JWTKey() []byte {
	return []byte(c.JWTSecret)
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" && c.DBPass == "" {
		return fmt.Errorf("config: DATABASE_URL or DB_PASS must be set")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("config: JWT_SECRET must be set")
	}
	return c.Sim.validate()
}

func (s Sim) validate() error {
	switch {
	case s.Workers < 1:
		return fmt.Errorf("config: SIM_WORKERS must be at least 1, got %d", s.Workers)
	case s.MaxLaps < 1 || s.MaxEntrants < 1:
		return fmt.Errorf("config: SIM_MAX_LAPS and SIM_MAX_ENTRANTS must be at least 1")
	case s.GridGap < 0:
		return fmt.Errorf("config: SIM_GRID_GAP_MS must not be negative")
	case s.DefaultLapTime <= 0:
		return fmt.Errorf("config: SIM_DEFAULT_LAP_MS must be positive")
	case s.DefaultLapStdDev < 0 || s.DefaultPitStop < 0:
		return fmt.Errorf("config: SIM_DEFAULT_LAP_STD_MS and SIM_DEFAULT_PIT_MS must not be negative")
	case s.DefaultOvertakeProb < 0 || s.DefaultOvertakeProb > 1:
		return fmt.Errorf("config: SIM_DEFAULT_OVERTAKE_PROB must be within [0, 1]")
	}
	return nil
}

func newViper() *viper.Viper {
	// Silently load .env – OK if the file doesn't exist (production uses real env vars).
	if err := godotenv.Load(); err != nil {
		log.Println("config: no .env file found, using environment variables only")
	}

	v := viper.New()
	v.AutomaticEnv()
	return v
}

func millis(ms int64) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

func splitTrimmed(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
