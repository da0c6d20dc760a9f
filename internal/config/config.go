package config

import (
	"os"
	"strconv"
	"strings"
)

// Config holds runtime configuration loaded from environment variables.
type Config struct {
	DatabaseURL        string
	JWTSecret          string
	JWTIssuer          string
	AccessTTLSeconds   int64
	CorsOrigins        []string
	AdminCodes         []string
	AllowedEmailDomain string
	HoursRequirement   float64
	SeedPassword       string
	OAuth              OAuthConfig
	LogDir             string
	LogRetentionDays   int
	Port               string
}

// OAuthConfig configures the federated identity provider.
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Tenant       string
}

// Enabled reports whether enough settings are present to use federated login.
func (o OAuthConfig) Enabled() bool {
	return o.ClientID != "" && o.RedirectURI != ""
}

func Load() Config {
	return Config{
		DatabaseURL:        envOr("DATABASE_URL", "sqlite://data/extension.db"),
		JWTSecret:          mustEnv("JWT_SECRET"),
		JWTIssuer:          envOr("JWT_ISSUER", "servicehours"),
		AccessTTLSeconds:   int64(envOrInt("ACCESS_TTL_SECONDS", 28800)),
		CorsOrigins:        parseCSV(envOr("CORS_ORIGINS", "")),
		AdminCodes:         parseCSV(envOr("ADMIN_CODES", "25837")),
		AllowedEmailDomain: envOr("ALLOWED_EMAIL_DOMAIN", "@uvg.edu.gt"),
		HoursRequirement:   envOrFloat("HOURS_REQUIREMENT", 5),
		SeedPassword:       envOr("SEED_PASSWORD", "1234"),
		OAuth: OAuthConfig{
			ClientID:     envOr("OAUTH_CLIENT_ID", ""),
			ClientSecret: envOr("OAUTH_CLIENT_SECRET", ""),
			RedirectURI:  envOr("OAUTH_REDIRECT_URI", ""),
			Tenant:       envOr("OAUTH_TENANT", "common"),
		},
		LogDir:           envOr("LOG_DIR", "data/logs"),
		LogRetentionDays: clamp(envOrInt("LOG_RETENTION_DAYS", 7), 1, 30),
		Port:             envOr("PORT", "8080"),
	}
}

func mustEnv(key string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		panic("missing env var: " + key)
	}
	return value
}

func envOr(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrFloat(key string, fallback float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil || parsed < 0 {
		return fallback
	}
	return parsed
}

func clamp(value, lo, hi int) int {
	if value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}

func parseCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		value := strings.TrimSpace(part)
		if value != "" {
			items = append(items, value)
		}
	}
	return items
}
