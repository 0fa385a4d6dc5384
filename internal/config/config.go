package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	CatalogSource         string
	CatalogWatch          bool
	CatalogWatchDebounce  time.Duration
	CatalogFetchTimeoutMs int
	CatalogFetchRPS       int
	CatalogFetchToken     string

	S3Region    string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string

	CacheTTL           time.Duration
	CacheSweepInterval time.Duration

	DefaultOriginCountry string
	DefaultDeclaredValue float64
	RulesPath            string

	HTTPAddr           string
	HTTPRateLimitRPS   float64
	HTTPRateLimitBurst int
	AdminToken         string

	AdvisorBaseURL   string
	AdvisorAPIKey    string
	AdvisorModel     string
	AdvisorTimeoutMs int
	AdvisorRPS       float64

	LogLevel        string
	LogFormat       string
	REPLHistoryFile string

	DBPath     string
	RawMailDir string
	OutputDir  string

	GmailClientID     string
	GmailClientSecret string
	GmailRedirectURI  string
	GmailRefreshToken string

	IMAPHost     string
	IMAPPort     int
	IMAPSecure   bool
	IMAPUser     string
	IMAPPassword string
	IMAPMarkSeen bool

	MailListenerProvider     string
	MailListenerLabel        string
	MailListenerIntervalSec  int
	MailListenerFetchMax     int
	MailListenerProcessBatch int
	MailListenerAutoExport   bool
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	home, _ := os.UserHomeDir()

	cfg := Config{
		CatalogSource:         getEnv("CATALOG_SOURCE", filepath.Join(cwd, "data", "tnved_database.json")),
		CatalogWatch:          getEnvBool("CATALOG_WATCH", false),
		CatalogWatchDebounce:  getEnvDuration("CATALOG_WATCH_DEBOUNCE", 500*time.Millisecond),
		CatalogFetchTimeoutMs: getEnvInt("CATALOG_FETCH_TIMEOUT_MS", 30000),
		CatalogFetchRPS:       getEnvInt("CATALOG_FETCH_RPS", 5),
		CatalogFetchToken:     getEnv("CATALOG_FETCH_TOKEN", ""),

		S3Region:    getEnv("S3_REGION", "us-east-1"),
		S3Endpoint:  getEnv("S3_ENDPOINT", ""),
		S3AccessKey: getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey: getEnv("S3_SECRET_KEY", ""),

		CacheTTL:           time.Duration(getEnvInt("CACHE_TTL_MIN", 60)) * time.Minute,
		CacheSweepInterval: time.Duration(getEnvInt("CACHE_SWEEP_SEC", 300)) * time.Second,

		DefaultOriginCountry: strings.ToUpper(getEnv("DEFAULT_ORIGIN_COUNTRY", "CN")),
		DefaultDeclaredValue: getEnvFloat("DEFAULT_DECLARED_VALUE", 10000),
		RulesPath:            getEnv("RULES_PATH", ""),

		HTTPAddr:           getEnv("HTTP_ADDR", ":8080"),
		HTTPRateLimitRPS:   getEnvFloat("HTTP_RATE_LIMIT_RPS", 10),
		HTTPRateLimitBurst: getEnvInt("HTTP_RATE_LIMIT_BURST", 20),
		AdminToken:         getEnv("ADMIN_TOKEN", ""),

		AdvisorBaseURL:   getEnv("ADVISOR_BASE_URL", ""),
		AdvisorAPIKey:    getEnv("ADVISOR_API_KEY", ""),
		AdvisorModel:     getEnv("ADVISOR_MODEL", "GigaChat"),
		AdvisorTimeoutMs: getEnvInt("ADVISOR_TIMEOUT_MS", 20000),
		AdvisorRPS:       getEnvFloat("ADVISOR_RPS", 1),

		LogLevel:        getEnv("LOG_LEVEL", "INFO"),
		LogFormat:       getEnv("LOG_FORMAT", "text"),
		REPLHistoryFile: getEnv("REPL_HISTORY_FILE", filepath.Join(home, ".vedexpert_history")),

		DBPath:     getEnv("DB_PATH", filepath.Join(cwd, "data", "app.db")),
		RawMailDir: getEnv("MAIL_RAW_DIR", filepath.Join(cwd, "data", "raw")),
		OutputDir:  getEnv("OUTPUT_DIR", filepath.Join(cwd, "out")),

		GmailClientID:     getEnv("GMAIL_CLIENT_ID", ""),
		GmailClientSecret: getEnv("GMAIL_CLIENT_SECRET", ""),
		GmailRedirectURI:  getEnv("GMAIL_REDIRECT_URI", "https://developers.google.com/oauthplayground"),
		GmailRefreshToken: getEnv("GMAIL_REFRESH_TOKEN", ""),

		IMAPHost:     getEnv("IMAP_HOST", ""),
		IMAPPort:     getEnvInt("IMAP_PORT", 993),
		IMAPSecure:   getEnvBool("IMAP_SECURE", true),
		IMAPUser:     getEnv("IMAP_USER", ""),
		IMAPPassword: getEnv("IMAP_PASSWORD", ""),
		IMAPMarkSeen: getEnvBool("IMAP_MARK_SEEN", false),

		MailListenerProvider:     getEnv("MAIL_LISTENER_PROVIDER", "imap"),
		MailListenerLabel:        getEnv("MAIL_LISTENER_LABEL", "INBOX"),
		MailListenerIntervalSec:  getEnvInt("MAIL_LISTENER_INTERVAL_SEC", 30),
		MailListenerFetchMax:     getEnvInt("MAIL_LISTENER_FETCH_MAX", 20),
		MailListenerProcessBatch: getEnvInt("MAIL_LISTENER_PROCESS_BATCH", 20),
		MailListenerAutoExport:   getEnvBool("MAIL_LISTENER_AUTO_EXPORT", true),
	}

	if strings.TrimSpace(cfg.DefaultOriginCountry) == "" {
		cfg.DefaultOriginCountry = "CN"
	}
	if cfg.CacheTTL <= 0 {
		return Config{}, fmt.Errorf("CACHE_TTL_MIN must be positive")
	}

	return cfg, nil
}

func (c Config) Require(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("missing required env var: %s", name)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(key, "")))
	if value == "" {
		return fallback
	}
	if value == "1" || value == "true" || value == "yes" || value == "on" {
		return true
	}
	if value == "0" || value == "false" || value == "no" || value == "off" {
		return false
	}
	return fallback
}
