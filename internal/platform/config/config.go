package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName  string
	HTTPPort     string
	PostgresDSN  string
	KafkaBrokers []string

	Currency        string
	MinimumPayout   int64
	ReportOutputDir string

	EnableDeliveryConsumer bool
	EnablePayoutScheduler  bool
}

func Load() (Config, error) {
	// Local development convenience; a missing .env is not an error.
	_ = godotenv.Load()

	service := os.Getenv("SERVICE_NAME")
	if service == "" {
		service = "fleetpay"
	}

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
	}

	var brokers []string
	for _, value := range strings.Split(os.Getenv("KAFKA_BROKERS"), ",") {
		value = strings.TrimSpace(value)
		if value != "" {
			brokers = append(brokers, value)
		}
	}
	if len(brokers) == 0 {
		brokers = []string{"localhost:9092"}
	}

	currency := os.Getenv("PAYOUT_CURRENCY")
	if currency == "" {
		currency = "EUR"
	}

	reportDir := os.Getenv("REPORT_OUTPUT_DIR")
	if reportDir == "" {
		reportDir = "reports"
	}

	return Config{
		ServiceName:  service,
		HTTPPort:     port,
		PostgresDSN:  os.Getenv("POSTGRES_DSN"),
		KafkaBrokers: brokers,

		Currency:        currency,
		MinimumPayout:   envInt64("MINIMUM_PAYOUT_MINOR_UNITS", 10000),
		ReportOutputDir: reportDir,

		EnableDeliveryConsumer: envBool("ENABLE_DELIVERY_CONSUMER", true),
		EnablePayoutScheduler:  envBool("ENABLE_PAYOUT_SCHEDULER", true),
	}, nil
}

func envBool(name string, fallback bool) bool {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return fallback
	}
}

func envInt64(name string, fallback int64) int64 {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fallback
	}
	return value
}
