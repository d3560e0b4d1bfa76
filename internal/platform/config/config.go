package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName string
	HTTPPort    string
	PostgresDSN string

	MinRefundApproves        int
	MinRefundDisapproves     int
	MinMembershipApproves    int
	MinMembershipDisapproves int

	MaxTransactionAmount       int64
	MaxParallelDebtors         int
	MaxSimultaneousConsumption int

	CallbackBatchSize      int
	CallbackFlushInterval  time.Duration
	CallbackMaxAttempts    int
	CallbackRetryBackoff   time.Duration
	CallbackBufferCapacity int

	ReconcileInterval time.Duration
}

func Load() (Config, error) {
	service := os.Getenv("SERVICE_NAME")
	if service == "" {
		service = "tally"
	}

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
	}

	return Config{
		ServiceName: service,
		HTTPPort:    port,
		PostgresDSN: os.Getenv("POSTGRES_DSN"),

		MinRefundApproves:        envInt("MIN_REFUND_APPROVES", 2),
		MinRefundDisapproves:     envInt("MIN_REFUND_DISAPPROVES", 2),
		MinMembershipApproves:    envInt("MIN_MEMBERSHIP_APPROVES", 2),
		MinMembershipDisapproves: envInt("MIN_MEMBERSHIP_DISAPPROVES", 2),

		MaxTransactionAmount:       int64(envInt("MAX_TRANSACTION_AMOUNT", 10000)),
		MaxParallelDebtors:         envInt("MAX_PARALLEL_DEBTORS", 10),
		MaxSimultaneousConsumption: envInt("MAX_SIMULTANEOUS_CONSUMPTION", 10),

		CallbackBatchSize:      envInt("CALLBACK_BATCH_SIZE", 16),
		CallbackFlushInterval:  envMillis("CALLBACK_FLUSH_INTERVAL_MS", 500*time.Millisecond),
		CallbackMaxAttempts:    envInt("CALLBACK_MAX_ATTEMPTS", 3),
		CallbackRetryBackoff:   envMillis("CALLBACK_RETRY_BACKOFF_MS", 250*time.Millisecond),
		CallbackBufferCapacity: envInt("CALLBACK_BUFFER_CAPACITY", 1024),

		ReconcileInterval: envMillis("RECONCILE_INTERVAL_MS", 60_000*time.Millisecond),
	}, nil
}

func envInt(name string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func envMillis(name string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return time.Duration(value) * time.Millisecond
}
