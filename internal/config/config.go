package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr string

	// DB
	Env    string // "dev" | "prod"
	DBPath string // e.g. "./data/visitors.db"

	// How long an approved visit stays valid after the decision.
	ValidityHours int

	// Dev-only unit directory seed, "101=917781943246,102=9198..."
	SeedUnits map[string]string

	// Pending correlation retention; 0 = keep until answered.
	CorrelationRetentionHours int
	PruneIntervalHours        int // how often the pruner runs (default 6)

	// Bridge endpoints.  Empty send URL leaves that bridge inbound-only
	// (outbound falls back to the log).
	WABridgeSendURL   string
	WABridgeToken     string
	TextBridgeSendURL string
	TextBridgeToken   string
}

// Load reads an optional .env file, then the environment.
func Load() Config {
	_ = godotenv.Load()
	return FromEnv()
}

func FromEnv() Config {
	addr := getenvDefault("VISITOR_HTTP_ADDR", ":8080")

	env := strings.ToLower(getenvDefault("VISITOR_ENV", "dev"))
	if env != "dev" && env != "prod" {
		// fail-soft: treat unknown as dev
		env = "dev"
	}

	dbPath := getenvDefault("VISITOR_DB_PATH", "./data/visitors.db")

	return Config{
		HTTPAddr: addr,
		Env:      env,
		DBPath:   dbPath,

		ValidityHours: getenvInt("VISITOR_VALIDITY_HOURS", 6),
		SeedUnits:     parseUnitMap(os.Getenv("VISITOR_SEED_UNITS")),

		CorrelationRetentionHours: getenvInt("VISITOR_CORRELATION_RETENTION_HOURS", 0),
		PruneIntervalHours:        getenvInt("VISITOR_PRUNE_INTERVAL_HOURS", 6),

		WABridgeSendURL:   strings.TrimSpace(os.Getenv("VISITOR_WABRIDGE_SEND_URL")),
		WABridgeToken:     strings.TrimSpace(os.Getenv("VISITOR_WABRIDGE_TOKEN")),
		TextBridgeSendURL: strings.TrimSpace(os.Getenv("VISITOR_TEXTBRIDGE_SEND_URL")),
		TextBridgeToken:   strings.TrimSpace(os.Getenv("VISITOR_TEXTBRIDGE_TOKEN")),
	}
}

func getenvDefault(key, def string) string {
	v := os.Getenv(key)
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func getenvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}

// parseUnitMap parses "unit=phone" pairs from a comma-separated list.
func parseUnitMap(v string) map[string]string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}

	out := make(map[string]string)
	for _, part := range strings.Split(v, ",") {
		unit, phone, ok := strings.Cut(strings.TrimSpace(part), "=")
		unit = strings.TrimSpace(unit)
		phone = strings.TrimSpace(phone)
		if ok && unit != "" && phone != "" {
			out[unit] = phone
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
