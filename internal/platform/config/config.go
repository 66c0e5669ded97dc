package config

import (
	"os"
	"strings"
)

// Server captures the audit daemon's configuration.
type Server struct {
	Addr         string
	DatabaseDSN  string
	RedisAddr    string
	RedisStream  string
	KafkaBrokers []string
	KafkaTopic   string
}

// FromEnv builds a Server config from environment variables so main stays
// lean. Sinks whose settings are empty are simply not wired.
func FromEnv() Server {
	addr := os.Getenv("AUDITTRAIL_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	var brokers []string
	if raw := os.Getenv("AUDITTRAIL_KAFKA_BROKERS"); raw != "" {
		for _, b := range strings.Split(raw, ",") {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
	}

	return Server{
		Addr:         addr,
		DatabaseDSN:  os.Getenv("AUDITTRAIL_DB_DSN"),
		RedisAddr:    os.Getenv("AUDITTRAIL_REDIS_ADDR"),
		RedisStream:  os.Getenv("AUDITTRAIL_REDIS_STREAM"),
		KafkaBrokers: brokers,
		KafkaTopic:   os.Getenv("AUDITTRAIL_KAFKA_TOPIC"),
	}
}
