package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"payfamily/internal/utils/logger"
)

const (
	envPath = ".env"

	EnvLocal = logger.EnvLocal
	EnvDev   = logger.EnvDev
	EnvProd  = logger.EnvProd

	defaultRunAddress = ":8080"
	defaultSessionTTL = 24 * time.Hour
)

type Config struct {
	Env     string
	DB      db
	Server  server
	Session session
}

type db struct {
	DatabaseURI string `env:"DATABASE_URI"`
	// Migrations overrides the embedded migrations with a directory on disk.
	Migrations string `env:"MIGRATIONS_PATH"`
}

type server struct {
	RunAddress      string        `env:"RUN_ADDRESS"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT"`
}

type session struct {
	TTL           time.Duration `env:"SESSION_TTL"`
	SweepInterval time.Duration `env:"SESSION_SWEEP_INTERVAL"`
}

// MustLoad reads the server configuration from the environment and an
// optional .env file in the working directory.
func MustLoad() *Config {
	cfg, err := Load(envPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	return cfg
}

func Load(path string) (*Config, error) {
	if err := godotenv.Load(path); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("app_env", EnvProd)
	v.SetDefault("run_address", defaultRunAddress)
	v.SetDefault("shutdown_timeout", 10*time.Second)
	v.SetDefault("session_ttl", defaultSessionTTL)
	v.SetDefault("session_sweep_interval", time.Hour)

	cfg := &Config{
		Env: v.GetString("app_env"),
		DB: db{
			DatabaseURI: v.GetString("database_uri"),
			Migrations:  v.GetString("migrations_path"),
		},
		Server: server{
			RunAddress:      v.GetString("run_address"),
			ShutdownTimeout: v.GetDuration("shutdown_timeout"),
		},
		Session: session{
			TTL:           v.GetDuration("session_ttl"),
			SweepInterval: v.GetDuration("session_sweep_interval"),
		},
	}

	if cfg.DB.DatabaseURI == "" {
		return nil, fmt.Errorf("DATABASE_URI is required")
	}
	if cfg.Session.TTL <= 0 {
		return nil, fmt.Errorf("SESSION_TTL must be positive, got %s", cfg.Session.TTL)
	}
	if cfg.Session.SweepInterval <= 0 {
		cfg.Session.SweepInterval = time.Hour
	}

	return cfg, nil
}
