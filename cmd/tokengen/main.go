// Package main provides a CLI tool for generating test principal tokens for
// the zkkyc API. These tokens use the dev signing key and will NOT work
// against a production deployment.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"zkkyc/internal/platform/token"

	"github.com/google/uuid"
)

const (
	// Dev signing key - matches config.go when ZKKYC_JWT_SIGNING_KEY is not set
	devSigningKey = "dev-secret-key-change-in-production"

	// Default admin token for local/dev environments
	devAdminToken = "dev-admin-token"

	defaultTokenTTL = 24 * time.Hour
)

type tokenOutput struct {
	Token     string            `json:"token"`
	Type      string            `json:"type"`
	ExpiresIn string            `json:"expires_in,omitempty"`
	Principal string            `json:"principal,omitempty"`
	Role      string            `json:"role,omitempty"`
	Usage     map[string]string `json:"usage"`
}

func main() {
	issuerCmd := flag.NewFlagSet("issuer", flag.ExitOnError)
	verifierCmd := flag.NewFlagSet("verifier", flag.ExitOnError)
	adminCmd := flag.NewFlagSet("admin", flag.ExitOnError)

	issuerID := issuerCmd.String("id", "", "Issuer principal ID. Generated if empty.")
	issuerKey := issuerCmd.String("key", devSigningKey, "JWT signing key")
	issuerTTL := issuerCmd.Duration("ttl", defaultTokenTTL, "Token time-to-live")
	issuerJSON := issuerCmd.Bool("json", false, "Output as JSON")

	verifierID := verifierCmd.String("id", "", "Verifier principal ID. Generated if empty.")
	verifierKey := verifierCmd.String("key", devSigningKey, "JWT signing key")
	verifierTTL := verifierCmd.Duration("ttl", defaultTokenTTL, "Token time-to-live")
	verifierJSON := verifierCmd.Bool("json", false, "Output as JSON")

	adminJSON := adminCmd.Bool("json", false, "Output as JSON")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "issuer":
		issuerCmd.Parse(os.Args[2:])
		generatePrincipalToken(*issuerID, token.RoleIssuer, *issuerKey, *issuerTTL, *issuerJSON)
	case "verifier":
		verifierCmd.Parse(os.Args[2:])
		generatePrincipalToken(*verifierID, token.RoleVerifier, *verifierKey, *verifierTTL, *verifierJSON)
	case "admin":
		adminCmd.Parse(os.Args[2:])
		printAdminToken(*adminJSON)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown subcommand: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func generatePrincipalToken(principalID string, role token.Role, signingKey string, ttl time.Duration, asJSON bool) {
	if principalID == "" {
		principalID = string(role) + "-" + uuid.NewString()[:8]
	}

	svc := token.NewService(signingKey, ttl)
	signed, err := svc.Generate(principalID, role, time.Now())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating token: %v\n", err)
		os.Exit(1)
	}

	out := tokenOutput{
		Token:     signed,
		Type:      "Bearer",
		ExpiresIn: ttl.String(),
		Principal: principalID,
		Role:      string(role),
		Usage: map[string]string{
			"header": "Authorization: Bearer " + signed,
		},
	}
	printOutput(out, asJSON)
}

func printAdminToken(asJSON bool) {
	out := tokenOutput{
		Token: devAdminToken,
		Type:  "Admin",
		Usage: map[string]string{
			"header": "X-Admin-Token: " + devAdminToken,
			"note":   "Matches config.go default when ZKKYC_ADMIN_TOKEN is not set",
		},
	}
	printOutput(out, asJSON)
}

func printOutput(out tokenOutput, asJSON bool) {
	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.Encode(out)
		return
	}

	fmt.Println(out.Token)
	fmt.Println()
	for _, v := range out.Usage {
		fmt.Println("  " + v)
	}
}

func printUsage() {
	fmt.Println(`tokengen - generate dev tokens for the zkkyc API

Usage:
  tokengen issuer   [-id ID] [-key KEY] [-ttl TTL] [-json]
  tokengen verifier [-id ID] [-key KEY] [-ttl TTL] [-json]
  tokengen admin    [-json]

Subcommands:
  issuer     Mint a bearer token with the issuer role
  verifier   Mint a bearer token with the verifier role
  admin      Print the dev admin token for X-Admin-Token

Examples:
  tokengen issuer -id issuer-gov-de
  tokengen verifier -ttl 1h -json`)
}
