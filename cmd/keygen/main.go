// Package main provides the keygen CLI for producing the Groth16 key pair
// used by the KYC circuit. The server and every external verifier must use
// keys from the same setup run.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"zkkyc/internal/zk/gnark"
)

type keygenConfig struct {
	outputDir string
	force     bool
}

func newKeygenCmd() *cobra.Command {
	cfg := &keygenConfig{}

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Compile the KYC circuit and generate Groth16 keys",
		Long: `Compile the KYC eligibility circuit, run the Groth16 trusted setup,
and write the proving and verifying keys to disk. Point the server at the
output with ZKKYC_PROVING_KEY and ZKKYC_VERIFYING_KEY.

The setup is unceremonied: suitable for development and testing, not for a
production deployment where toxic waste handling matters.`,
		Example: `  # Generate keys into ./keys
  keygen -o ./keys`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeygen(cfg)
		},
	}

	cmd.Flags().StringVarP(&cfg.outputDir, "output", "o", "./keys", "Output directory for the key pair")
	cmd.Flags().BoolVarP(&cfg.force, "force", "f", false, "Overwrite existing key files")

	return cmd
}

func runKeygen(cfg *keygenConfig) error {
	if err := os.MkdirAll(cfg.outputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	pkPath := filepath.Join(cfg.outputDir, "kyc.pk")
	vkPath := filepath.Join(cfg.outputDir, "kyc.vk")

	if !cfg.force {
		for _, path := range []string{pkPath, vkPath} {
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
		}
	}

	fmt.Println("Compiling circuit and running Groth16 setup (this can take a minute)...")
	start := time.Now()
	if err := gnark.GenerateKeys(pkPath, vkPath); err != nil {
		return err
	}

	fmt.Printf("Done in %s\n", time.Since(start).Round(time.Millisecond))
	fmt.Printf("  proving key:   %s\n", pkPath)
	fmt.Printf("  verifying key: %s\n", vkPath)
	fmt.Println("\nExport before starting the server:")
	fmt.Printf("  export ZKKYC_PROVING_KEY=%s\n", pkPath)
	fmt.Printf("  export ZKKYC_VERIFYING_KEY=%s\n", vkPath)
	return nil
}

func main() {
	if err := newKeygenCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
