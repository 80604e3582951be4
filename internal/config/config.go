package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Shopify admin API
	ShopDomain    string
	AdminToken    string
	APIVersion    string
	WebhookSecret string
	FlowSecret    string
	AdminSecret   string

	// Shipping profiles
	ProfileRebajasID   string
	ProfileGeneralID   string
	ExcludeHandle      string
	ExplicitDissociate bool

	// Wapping CRM
	WappingSecret  string
	WappingMaxSkew time.Duration

	// Salesmanago
	SalesmanagoClientID    string
	SalesmanagoAPIKey      string
	SalesmanagoAPISecret   string
	SalesmanagoOwner       string
	SalesmanagoUpsertURL   string
	SalesmanagoListByIDURL string
	SalesmanagoRuleID      string
	SalesmanagoAllowedIPs  []string

	// Zendesk
	ZendeskSubdomain string
	ZendeskEmail     string
	ZendeskToken     string

	// Database
	DatabaseURL string

	// Kafka
	KafkaBrokers string
	ReportTopic  string

	// Reports
	ReportInterval     time.Duration
	ReportPollInterval time.Duration
	ReportMaxWait      time.Duration
	ReportRecipients   []string
	ReportTimezone     string

	// SMTP
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	// API Configuration
	APIPort        string
	APIHost        string
	HTTPTimeout    time.Duration
	AllowedOrigins []string

	// Environment
	Env      string
	LogLevel string
}

func Load() (*Config, error) {
	// Load .env file
	godotenv.Load()

	return &Config{
		ShopDomain:    firstEnv("", "SHIP_SHOP_DOMAIN", "SHOP_DOMAIN"),
		AdminToken:    firstEnv("", "SHIP_ADMIN_TOKEN", "SHOPIFY_API_TOKEN", "ADMIN_TOKEN"),
		APIVersion:    firstEnv("2025-01", "SHIP_API_VERSION", "API_VERSION"),
		WebhookSecret: getEnv("SHOPIFY_WEBHOOK_SECRET", ""),
		FlowSecret:    firstEnv("", "SHIP_FLOW_SECRET", "FLOW_WEBHOOK_SECRET"),
		AdminSecret:   getEnv("SHIP_ADMIN_SECRET", ""),

		ProfileRebajasID:   firstEnv("", "SHIP_PROFILE_REBAJAS_ID", "REBAJAS_PROFILE_ID"),
		ProfileGeneralID:   firstEnv("", "SHIP_PROFILE_GENERAL_ID", "GENERAL_PROFILE_ID"),
		ExcludeHandle:      strings.ToLower(getEnv("EXCLUDE_HANDLE_SUBSTRING", "second-life")),
		ExplicitDissociate: getEnvAsBool("SHIP_EXPLICIT_DISSOCIATE", false),

		WappingSecret:  getEnv("WAPPING_WEBHOOK_SECRET", ""),
		WappingMaxSkew: time.Duration(getEnvAsInt("WAPPING_MAX_SKEW_SECONDS", 300)) * time.Second,

		SalesmanagoClientID:    getEnv("SMANAGO_CLIENT_ID", ""),
		SalesmanagoAPIKey:      getEnv("SMANAGO_API_KEY", ""),
		SalesmanagoAPISecret:   getEnv("SMANAGO_API_SECRET", ""),
		SalesmanagoOwner:       getEnv("SMANAGO_OWNER_EMAIL", ""),
		SalesmanagoUpsertURL:   getEnv("SMANAGO_API_URL", "https://app3.salesmanago.pl/api/contact/upsert"),
		SalesmanagoListByIDURL: getEnv("SMANAGO_LISTBYID_URL", "https://app3.salesmanago.pl/api/contact/listById"),
		SalesmanagoRuleID:      getEnv("SMANAGO_RULE_ID", "ff9f1f0d-ffb7-4a00-9d84-999d2657f303"),
		SalesmanagoAllowedIPs:  getEnvAsList("SMANAGO_ALLOWED_IPS", []string{"89.25.223.94", "89.25.223.95"}),

		ZendeskSubdomain: getEnv("ZENDESK_SUBDOMAIN", ""),
		ZendeskEmail:     getEnv("ZENDESK_EMAIL", ""),
		ZendeskToken:     getEnv("ZENDESK_API_TOKEN", ""),

		DatabaseURL: getEnv("DATABASE_URL", "sqlite://shipsync.db"),

		KafkaBrokers: getEnv("KAFKA_BROKERS", "localhost:9092"),
		ReportTopic:  getEnv("REPORT_TOPIC", "report-requests"),

		ReportInterval:     getEnvAsDuration("REPORT_INTERVAL", 24*time.Hour),
		ReportPollInterval: getEnvAsDuration("REPORT_POLL_INTERVAL", 10*time.Second),
		ReportMaxWait:      getEnvAsDuration("REPORT_MAX_WAIT", 30*time.Minute),
		ReportRecipients:   getEnvAsList("REPORT_RECIPIENTS", nil),
		ReportTimezone:     getEnv("REPORT_TIMEZONE", "Europe/Madrid"),

		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnvAsInt("SMTP_PORT", 587),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:     getEnv("SMTP_FROM", ""),

		APIPort:        firstEnv("3001", "API_PORT", "PORT"),
		APIHost:        getEnv("API_HOST", "0.0.0.0"),
		HTTPTimeout:    time.Duration(getEnvAsInt("HTTP_TIMEOUT_SECONDS", 30)) * time.Second,
		AllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),

		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}, nil
}

// Validate reports the settings every entrypoint needs to talk to the shop.
func (c *Config) Validate() error {
	var missing []string
	if c.ShopDomain == "" {
		missing = append(missing, "SHIP_SHOP_DOMAIN")
	}
	if c.AdminToken == "" {
		missing = append(missing, "SHIP_ADMIN_TOKEN")
	}
	if len(missing) > 0 {
		return errors.New("missing required env: " + strings.Join(missing, ", "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// firstEnv returns the first non-empty value among keys.
func firstEnv(defaultValue string, keys ...string) string {
	for _, key := range keys {
		if value := os.Getenv(key); value != "" {
			return value
		}
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
