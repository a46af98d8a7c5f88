package config

import (
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	strutil "contactmanager/pkg/platform/strings"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	ShutdownTimeout time.Duration
	SeedDemo        bool
	Log             Log
	Audit           Audit
}

// Log selects the slog handler.
type Log struct {
	Level  string
	Format string
}

// Audit configures the contact lifecycle audit pipeline. Kafka streaming is
// enabled only when Brokers is non-empty.
type Audit struct {
	Buffer int
	// Retain caps the events kept in memory; the oldest are evicted first.
	Retain     int
	Brokers    []string
	Topic      string
	Partitions int32
	Replicas   int16
	// Timeout bounds each produce and the startup topic check.
	Timeout time.Duration
	// Replay fills the in-memory audit log from the Kafka topic instead of
	// from the publisher, so history survives restarts.
	Replay bool
}

// ReplayEnabled reports whether the memory log is rebuilt from Kafka.
func (a Audit) ReplayEnabled() bool {
	return a.Replay && a.KafkaEnabled()
}

// KafkaEnabled reports whether audit events are streamed to Kafka.
func (a Audit) KafkaEnabled() bool {
	return len(a.Brokers) > 0
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	return Server{
		Addr:            envString("CONTACTS_ADDR", ":8080"),
		ShutdownTimeout: envDuration("CONTACTS_SHUTDOWN_TIMEOUT", 10*time.Second),
		SeedDemo:        os.Getenv("CONTACTS_SEED_DEMO") == "true",
		Log: Log{
			Level:  envString("LOG_LEVEL", "info"),
			Format: envString("LOG_FORMAT", "json"),
		},
		Audit: Audit{
			Buffer:     envInt("CONTACTS_AUDIT_BUFFER", 256),
			Retain:     envInt("CONTACTS_AUDIT_RETAIN", 10000),
			Brokers:    envList("CONTACTS_KAFKA_BROKERS"),
			Topic:      envString("CONTACTS_KAFKA_TOPIC", "contacts.audit"),
			Partitions: int32(envIntMax("CONTACTS_KAFKA_PARTITIONS", 1, math.MaxInt32)),
			Replicas:   int16(envIntMax("CONTACTS_KAFKA_REPLICAS", 1, math.MaxInt16)),
			Timeout:    envDuration("CONTACTS_KAFKA_TIMEOUT", 10*time.Second),
			Replay:     os.Getenv("CONTACTS_AUDIT_REPLAY") == "true",
		},
	}
}

func envString(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

// envIntMax falls back when the value would not fit a narrower integer type.
func envIntMax(key string, fallback, limit int) int {
	v := envInt(key, fallback)
	if v > limit {
		return fallback
	}
	return v
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(strings.TrimSpace(os.Getenv(key)))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

// envList splits a comma separated value, dropping blanks and repeats.
func envList(key string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	out := strutil.DedupeAndTrim(strings.Split(raw, ","))
	if len(out) == 0 {
		return nil
	}
	return out
}
