package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Pattern: DISTILLER_[SECTION]_[KEY] (e.g., DISTILLER_DISTILL_MIN_VISIBILITY).
func ApplyEnvOverrides(cfg *Config) {
	// Distill
	setEnvString(&cfg.Distill.MinVisibility, "DISTILLER_DISTILL_MIN_VISIBILITY")
	setEnvString(&cfg.Distill.DetailLevel, "DISTILLER_DISTILL_DETAIL_LEVEL")
	setEnvString(&cfg.Distill.WildcardStrategy, "DISTILLER_DISTILL_WILDCARD_STRATEGY")
	setEnvBoolPtr(&cfg.Distill.IncludeImports, "DISTILLER_DISTILL_INCLUDE_IMPORTS")
	setEnvString(&cfg.Distill.CatalogFile, "DISTILLER_DISTILL_CATALOG_FILE")

	// Batch
	setEnvInt(&cfg.Batch.Workers, "DISTILLER_BATCH_WORKERS")

	// Watch
	setEnvDuration(&cfg.Watch.Debounce, "DISTILLER_WATCH_DEBOUNCE")
	setEnvFloat64(&cfg.Watch.MaxRate, "DISTILLER_WATCH_MAX_RATE")

	// Observability
	setEnvString(&cfg.Observability.MetricsAddress, "DISTILLER_OBSERVABILITY_METRICS_ADDRESS")
	setEnvString(&cfg.Observability.TracingEndpoint, "DISTILLER_OBSERVABILITY_TRACING_ENDPOINT")
	setEnvBool(&cfg.Observability.Insecure, "DISTILLER_OBSERVABILITY_INSECURE")
	setEnvString(&cfg.Observability.ServiceName, "DISTILLER_OBSERVABILITY_SERVICE_NAME")

	// Output
	setEnvString(&cfg.Output.Path, "DISTILLER_OUTPUT_PATH")
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		*target = val
	}
}

func setEnvInt(target *int, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = i
		}
	}
}

func setEnvBool(target *bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(strings.ToLower(val))
		if err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = b
		}
	}
}

func setEnvBoolPtr(target **bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(strings.ToLower(val))
		if err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = &b
		}
	}
}

func setEnvFloat64(target *float64, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = f
		}
	}
}

func setEnvDuration(target *time.Duration, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = d
		}
	}
}
