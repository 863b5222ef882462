// Package config builds runtime configuration from environment variables so
// main stays lean.
package config

import (
	"os"
	"time"
)

// Server captures the full server configuration.
type Server struct {
	Addr          string
	JWTSigningKey string

	// DatabaseURL selects the Postgres registry. Empty runs everything on
	// the in-memory stores (single-host mode).
	DatabaseURL string

	// CatalogPath optionally overrides the built-in category catalog.
	CatalogPath string

	// CertificatesDir is where rendered certificates and reports land.
	CertificatesDir string

	// EvidenceDir is the photo evidence tree scanned by the evidence index.
	// Empty disables evidence references on artifacts.
	EvidenceDir string

	Redis RedisConfig
}

// RedisConfig captures connection settings for the identifier sequence
// counters. An empty URL keeps counters local to the process.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	addr := os.Getenv("ASSET_LEDGER_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Development fallback; production deployments must override.
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	certDir := os.Getenv("CERTIFICATES_DIR")
	if certDir == "" {
		certDir = "certificates"
	}

	return Server{
		Addr:            addr,
		JWTSigningKey:   jwtSigningKey,
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		CatalogPath:     os.Getenv("CATALOG_PATH"),
		CertificatesDir: certDir,
		EvidenceDir:     os.Getenv("EVIDENCE_DIR"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
	}
}
