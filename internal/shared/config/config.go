package config

import (
	"log"
	"os"
	"strings"
	"time"
)

// Config holds application configuration.
type Config struct {
	Port                 string
	CORSAllowOrigin      []string
	DatabaseURL          string
	Env                  string
	LogLevel             string
	VisibilityStore      string
	SQLitePath           string
	PageConfigPath       string
	WatchPageConfig      bool
	PageConfigDebounce   time.Duration
	ThemeName            string
	ThemeVersion         string
	ThemeDescription     string
	ThemeSlug            string
	TemplateDirectoryURL string
	ComponentProbe       string
	ActiveComponents     []string
	ProbeTimeout         time.Duration
	RequireCapability    bool
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	dbURL := os.Getenv("DATABASE_URL")
	storeType := normalizeStoreType(getEnv("VISIBILITY_STORE", ""), dbURL)

	if env == "production" && storeType == "memory" {
		log.Printf("VISIBILITY_STORE=memory loses dismissals on restart; set DATABASE_URL or SQLITE_PATH in production")
	}

	return Config{
		Port:                 getEnv("PORT", "8080"),
		CORSAllowOrigin:      splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),
		DatabaseURL:          dbURL,
		Env:                  env,
		LogLevel:             strings.ToLower(getEnv("LOG_LEVEL", "info")),
		VisibilityStore:      storeType,
		SQLitePath:           getEnv("SQLITE_PATH", "./data/aboutpage.db"),
		PageConfigPath:       getEnv("PAGE_CONFIG_PATH", ""),
		WatchPageConfig:      getBool("WATCH_PAGE_CONFIG", false),
		PageConfigDebounce:   getDuration("PAGE_CONFIG_DEBOUNCE", 500*time.Millisecond),
		ThemeName:            getEnv("THEME_NAME", ""),
		ThemeVersion:         getEnv("THEME_VERSION", ""),
		ThemeDescription:     getEnv("THEME_DESCRIPTION", ""),
		ThemeSlug:            getEnv("THEME_SLUG", ""),
		TemplateDirectoryURL: getEnv("TEMPLATE_DIRECTORY_URL", ""),
		ComponentProbe:       normalizeProbeType(getEnv("COMPONENT_PROBE", "static")),
		ActiveComponents:     splitAndTrim(getEnv("ACTIVE_COMPONENTS", "")),
		ProbeTimeout:         getDuration("PROBE_TIMEOUT", 0),
		RequireCapability:    getBool("REQUIRE_CAPABILITY", env == "production"),
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("config: %s invalid duration %q: %v", key, raw, err)
		return def
	}
	return val
}

func getBool(key string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return def
	}
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "development", "dev":
		return "dev"
	default:
		return "dev"
	}
}

// normalizeStoreType picks postgres when a database URL is present and no
// explicit store was requested.
func normalizeStoreType(raw, dbURL string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "postgres", "pg":
		return "postgres"
	case "sqlite":
		return "sqlite"
	case "memory":
		return "memory"
	}
	if strings.TrimSpace(dbURL) != "" {
		return "postgres"
	}
	return "memory"
}

func normalizeProbeType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "postgres", "pg":
		return "postgres"
	default:
		return "static"
	}
}
