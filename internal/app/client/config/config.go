package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"payfamily/internal/app/client/crypto"
	"payfamily/internal/utils/logger"
)

const (
	defaultEnv        = logger.EnvProd
	defaultConfigDir  = ".payfamily"
	defaultDataFile   = "payfamily.db"
	defaultKeyFile    = "master.key"
	defaultProfile    = "profile.json"
	defaultAccessKey  = "access.key"
	defaultIterations = crypto.DefaultIterations

	KDFPBKDF2 = "pbkdf2"
	KDFArgon2 = "argon2id"

	BackendNone   = "none"
	BackendServer = "server"
	BackendS3     = "s3"
)

type Config struct {
	Env           string
	ConfigDir     string
	DataPath      string
	KeyFilePath   string
	ProfilePath   string
	AccessKeyPath string
	KDF           KDF
	Gemini        Gemini
	Backup        Backup
}

type KDF struct {
	Algorithm  string
	Iterations int
}

type Gemini struct {
	APIKey  string
	Model   string
	BaseURL string
}

type Backup struct {
	Backend       string
	ServerAddress string
	S3            S3
}

type S3 struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	KeyPrefix       string
	UseSSL          bool
	Region          string
}

// MustLoad reads the client configuration and creates the config
// directory. Any error is fatal.
func MustLoad() *Config {
	cfg, err := Load(".env")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	return cfg
}

func Load(envPath string) (*Config, error) {
	if _, err := os.Stat(envPath); err == nil {
		if err := godotenv.Load(envPath); err != nil {
			return nil, fmt.Errorf("load %s: %w", envPath, err)
		}
	}

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("APP_ENV", defaultEnv)
	v.SetDefault("KDF_ALGORITHM", KDFPBKDF2)
	v.SetDefault("KDF_ITERATIONS", defaultIterations)
	v.SetDefault("BACKUP_BACKEND", BackendNone)
	v.SetDefault("S3_BUCKET", "payfamily")
	v.SetDefault("S3_USE_SSL", true)

	configDir := v.GetString("CONFIG_DIR")
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		configDir = filepath.Join(home, defaultConfigDir)
	}
	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return nil, fmt.Errorf("create config dir: %w", err)
	}

	inDir := func(key, file string) string {
		if p := v.GetString(key); p != "" {
			return p
		}
		return filepath.Join(configDir, file)
	}

	cfg := &Config{
		Env:           v.GetString("APP_ENV"),
		ConfigDir:     configDir,
		DataPath:      inDir("DATA_PATH", defaultDataFile),
		KeyFilePath:   inDir("KEY_FILE_PATH", defaultKeyFile),
		ProfilePath:   inDir("PROFILE_PATH", defaultProfile),
		AccessKeyPath: inDir("ACCESS_KEY_PATH", defaultAccessKey),
		KDF: KDF{
			Algorithm:  strings.ToLower(v.GetString("KDF_ALGORITHM")),
			Iterations: v.GetInt("KDF_ITERATIONS"),
		},
		Gemini: Gemini{
			APIKey:  v.GetString("GEMINI_API_KEY"),
			Model:   v.GetString("GEMINI_MODEL"),
			BaseURL: v.GetString("GEMINI_BASE_URL"),
		},
		Backup: Backup{
			Backend:       strings.ToLower(v.GetString("BACKUP_BACKEND")),
			ServerAddress: v.GetString("BACKUP_SERVER_ADDRESS"),
			S3: S3{
				Endpoint:        v.GetString("S3_ENDPOINT"),
				AccessKeyID:     v.GetString("S3_ACCESS_KEY_ID"),
				SecretAccessKey: v.GetString("S3_SECRET_ACCESS_KEY"),
				Bucket:          v.GetString("S3_BUCKET"),
				KeyPrefix:       v.GetString("S3_KEY_PREFIX"),
				UseSSL:          v.GetBool("S3_USE_SSL"),
				Region:          v.GetString("S3_REGION"),
			},
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.KDF.Iterations < crypto.DefaultIterations || c.KDF.Iterations > crypto.MaxIterations {
		return fmt.Errorf("KDF_ITERATIONS must be between %d and %d, got %d",
			crypto.DefaultIterations, crypto.MaxIterations, c.KDF.Iterations)
	}

	switch c.KDF.Algorithm {
	case KDFPBKDF2, KDFArgon2:
	default:
		return fmt.Errorf("unknown KDF_ALGORITHM %q, want pbkdf2 or argon2id", c.KDF.Algorithm)
	}

	switch c.Backup.Backend {
	case BackendNone:
	case BackendServer:
		if c.Backup.ServerAddress == "" {
			return fmt.Errorf("BACKUP_SERVER_ADDRESS is required for the server backend")
		}
	case BackendS3:
		if c.Backup.S3.Endpoint == "" {
			return fmt.Errorf("S3_ENDPOINT is required for the s3 backend")
		}
	default:
		return fmt.Errorf("unknown BACKUP_BACKEND %q, want none, server or s3", c.Backup.Backend)
	}
	return nil
}

func (c *Config) IsProd() bool {
	return c.Env == logger.EnvProd
}

func (c *Config) IsLocal() bool {
	return c.Env == logger.EnvLocal
}
