package config

import (
	"os"
	"time"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr          string
	Environment   string
	AdminToken    string
	JWTSigningKey string
	CredentialTTL time.Duration

	// Groth16 key material. Empty paths mean an ephemeral in-process setup,
	// which is fine for development but regenerates keys on every start.
	ProvingKeyPath   string
	VerifyingKeyPath string

	EnableCORS  bool
	CorsOrigins []string
}

// DefaultCredentialTTL bounds credential lifetime when the issuer does not set one.
var DefaultCredentialTTL = 365 * 24 * time.Hour

// Development fallbacks used when the corresponding env vars are unset.
// The readiness probe refuses them outside the development environment.
const (
	DevJWTSigningKey = "dev-secret-key-change-in-production"
	DevAdminToken    = "dev-admin-token"
)

// UsingDevSecrets reports whether either credential guarding the API is
// still a development fallback.
func (s Server) UsingDevSecrets() bool {
	return s.JWTSigningKey == DevJWTSigningKey || s.AdminToken == DevAdminToken
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("ZKKYC_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	credentialTTL := DefaultCredentialTTL
	if raw := os.Getenv("ZKKYC_CREDENTIAL_TTL"); raw != "" {
		if duration, err := time.ParseDuration(raw); err == nil {
			credentialTTL = duration
		}
	}

	jwtSigningKey := os.Getenv("ZKKYC_JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		jwtSigningKey = DevJWTSigningKey
	}

	adminToken := os.Getenv("ZKKYC_ADMIN_TOKEN")
	if adminToken == "" {
		adminToken = DevAdminToken
	}

	environment := os.Getenv("ZKKYC_ENV")
	if environment == "" {
		environment = "development"
	}

	return Server{
		Addr:             addr,
		Environment:      environment,
		AdminToken:       adminToken,
		JWTSigningKey:    jwtSigningKey,
		CredentialTTL:    credentialTTL,
		ProvingKeyPath:   os.Getenv("ZKKYC_PROVING_KEY"),
		VerifyingKeyPath: os.Getenv("ZKKYC_VERIFYING_KEY"),
		EnableCORS:       os.Getenv("ZKKYC_ENABLE_CORS") == "true",
		CorsOrigins:      []string{"*"},
	}
}
