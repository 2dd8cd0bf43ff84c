package config

import (
	"os"
	"strings"

	pstrings "attestry/pkg/platform/strings"
)

// Server captures process-level configuration for the registry.
type Server struct {
	Addr            string
	JWTSigningKey   string
	JWTIssuer       string
	JWTAudience     string
	AdminTokenHash  string // bcrypt hash of the admin API token
	RedisURL        string // optional; enables the shared role store
	PostgresDSN     string // optional; enables the audit outbox store
	KafkaBrokers    []string
	KafkaTopic      string
	WelcomeCert     bool     // mint a welcome certificate on earner registration
	WelcomeHash     string   // metadata pointer stamped on welcome certificates
	BootstrapAdmins []string // identities granted Admin at startup
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("ATTESTRY_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Development default; override in production.
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	topic := os.Getenv("KAFKA_AUDIT_TOPIC")
	if topic == "" {
		topic = "attestry.audit.events"
	}

	return Server{
		Addr:            addr,
		JWTSigningKey:   jwtSigningKey,
		JWTIssuer:       envOr("JWT_ISSUER", "attestry"),
		JWTAudience:     envOr("JWT_AUDIENCE", "attestry-api"),
		AdminTokenHash:  os.Getenv("ADMIN_TOKEN_HASH"),
		RedisURL:        os.Getenv("REDIS_URL"),
		PostgresDSN:     os.Getenv("POSTGRES_DSN"),
		KafkaBrokers:    splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:      topic,
		WelcomeCert:     os.Getenv("EARNER_WELCOME_CERT") == "true",
		WelcomeHash:     envOr("EARNER_WELCOME_CERT_HASH", "welcome-certificate-v1"),
		BootstrapAdmins: splitList(os.Getenv("ATTESTRY_ADMIN_IDS")),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	return pstrings.DedupeAndTrim(strings.Split(v, ","))
}
