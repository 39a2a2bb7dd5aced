package config

import (
	"flag"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

type Config struct {
	// Server-side settings
	DatabaseDSN      string `env:"DATABASE_URI"`
	AuthSecret       string `env:"AUTH_SECRET"`
	ClientSecretHash string `env:"CLIENT_SECRET_HASH"` // bcrypt-хэш секрета клиента

	// Shared settings
	BaseURL     string `env:"BASE_URL"`
	EnableHTTPS bool   `env:"ENABLE_HTTPS"`
	ClientID    string `env:"CLIENT_ID"`

	// Client-side settings
	ServerURL        string `env:"-"`
	ClientDBPath     string `env:"CLIENT_DB_PATH"`
	LegacyStorageDir string `env:"LEGACY_STORAGE_DIR"`
	TokenFile        string `env:"TOKEN_FILE"`
	ClientSecret     string `env:"CLIENT_SECRET"`
	LogFormat        string `env:"LOG_FORMAT"`
	DedupPolicy      string `env:"DEDUP_POLICY"`
	MemoryFallback   bool   `env:"MEMORY_FALLBACK"`

	SyncTimeout         time.Duration `env:"SYNC_TIMEOUT" envDefault:"10s"`
	SyncInterval        time.Duration `env:"SYNC_INTERVAL" envDefault:"5m"` // 0 — без периодической синхронизации
	CacheSweepInterval  time.Duration `env:"CACHE_SWEEP_INTERVAL" envDefault:"5m"`
	MigrationDelay      time.Duration `env:"MIGRATION_DELAY" envDefault:"1s"`
	OnlineCheckInterval time.Duration `env:"ONLINE_CHECK_INTERVAL" envDefault:"3s"`
	SyncWorkers         int           `env:"SYNC_WORKERS" envDefault:"2"`
	SyncQueueSize       int           `env:"SYNC_QUEUE_SIZE" envDefault:"64"`
	SyncMaxAttempts     int           `env:"SYNC_MAX_ATTEMPTS" envDefault:"3"`
}

var hostPortRe = regexp.MustCompile(`^[A-Za-z0-9\.\-]+:\d{1,5}$`)

// NewConfig читает .env, окружение и флаги командной строки процесса.
func NewConfig() *Config {
	cfg, err := Parse(flag.CommandLine, os.Args[1:])
	if err != nil {
		// flag.CommandLine уже напечатал ошибку
		os.Exit(2)
	}
	return cfg
}

// Parse — то же, что NewConfig, но с явным FlagSet и аргументами (для тестов).
// Флаги перекрывают переменные окружения.
func Parse(fs *flag.FlagSet, args []string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	// Server flags
	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "строка подключения к БД")
	fs.StringVar(&cfg.AuthSecret, "auth-secret", cfg.AuthSecret, "секрет для подписи JWT")
	fs.StringVar(&cfg.ClientSecretHash, "client-secret-hash", cfg.ClientSecretHash, "bcrypt hash of the client secret")
	// Shared flags
	fs.StringVar(&cfg.BaseURL, "base-url", cfg.BaseURL, "address of the card gateway (host:port)")
	fs.BoolVar(&cfg.EnableHTTPS, "https", cfg.EnableHTTPS, "enable HTTPS (client: prefer https scheme for BaseURL)")
	fs.StringVar(&cfg.ClientID, "client-id", cfg.ClientID, "client id for the gateway token endpoint")
	// Client flags
	fs.StringVar(&cfg.ClientDBPath, "client-db", cfg.ClientDBPath, "path to client SQLite DB")
	fs.StringVar(&cfg.LegacyStorageDir, "legacy-dir", cfg.LegacyStorageDir, "directory with the legacy key/value dump")
	fs.StringVar(&cfg.TokenFile, "token-file", cfg.TokenFile, "path to auth token file (client)")
	fs.StringVar(&cfg.DedupPolicy, "dedup-policy", cfg.DedupPolicy, "legacy card dedup policy: keep_first | keep_last")
	fs.BoolVar(&cfg.MemoryFallback, "memory-fallback", cfg.MemoryFallback, "use an in-memory store if the DB cannot be opened")
	fs.DurationVar(&cfg.SyncTimeout, "sync-timeout", cfg.SyncTimeout, "timeout of one remote sync call")
	fs.DurationVar(&cfg.SyncInterval, "sync-interval", cfg.SyncInterval, "periodic sync interval, 0 disables")
	fs.DurationVar(&cfg.CacheSweepInterval, "cache-sweep", cfg.CacheSweepInterval, "expired cache sweep interval")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// Defaults
	if cfg.AuthSecret == "" {
		cfg.AuthSecret = "dev-secret-key"
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "cardkeeper"
	}
	// BaseURL: только "address:port" (без схемы и пути), иначе значение по умолчанию.
	if !hostPortRe.MatchString(cfg.BaseURL) {
		cfg.BaseURL = "localhost:8081"
	}
	if cfg.EnableHTTPS {
		cfg.ServerURL = "https://" + cfg.BaseURL
	} else {
		cfg.ServerURL = "http://" + cfg.BaseURL
	}
	if cfg.DedupPolicy == "" {
		cfg.DedupPolicy = "keep_last"
	}

	// Fill client defaults if empty
	base := appDir()
	if cfg.ClientDBPath == "" {
		cfg.ClientDBPath = filepath.Join(base, "client.sqlite")
	}
	if cfg.LegacyStorageDir == "" {
		cfg.LegacyStorageDir = filepath.Join(base, "legacy")
	}
	if cfg.TokenFile == "" {
		cfg.TokenFile = filepath.Join(base, "auth_token")
	}
	return cfg, nil
}

func appDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		home, _ := os.UserHomeDir()
		dir = home
	}
	return filepath.Join(dir, "CardKeeper")
}
