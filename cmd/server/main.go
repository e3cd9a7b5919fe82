package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"zkkyc/internal/audit"
	credentialhandler "zkkyc/internal/credential/handler"
	credentialmetrics "zkkyc/internal/credential/metrics"
	credentialservice "zkkyc/internal/credential/service"
	credentialstore "zkkyc/internal/credential/store"
	issuerhandler "zkkyc/internal/issuer/handler"
	issuerservice "zkkyc/internal/issuer/service"
	issuerstore "zkkyc/internal/issuer/store"
	"zkkyc/internal/nullifier"
	"zkkyc/internal/platform/config"
	"zkkyc/internal/platform/health"
	"zkkyc/internal/platform/logger"
	"zkkyc/internal/platform/token"
	proofhandler "zkkyc/internal/proof/handler"
	proofmetrics "zkkyc/internal/proof/metrics"
	proofservice "zkkyc/internal/proof/service"
	"zkkyc/internal/proof/wallet"
	"zkkyc/internal/revocation"
	httptransport "zkkyc/internal/transport/http"
	verificationhandler "zkkyc/internal/verification/handler"
	verificationmetrics "zkkyc/internal/verification/metrics"
	verificationservice "zkkyc/internal/verification/service"
	"zkkyc/internal/zk/gnark"
	"zkkyc/pkg/platform/tracer"
)

// main wires dependencies and keeps the server lifecycle small. Business
// logic lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.Environment)

	log.Info("initializing zkkyc",
		"addr", cfg.Addr,
		"environment", cfg.Environment,
	)

	var proverOpts []gnark.Option
	if cfg.ProvingKeyPath != "" && cfg.VerifyingKeyPath != "" {
		proverOpts = append(proverOpts, gnark.WithKeyFiles(cfg.ProvingKeyPath, cfg.VerifyingKeyPath))
	} else {
		log.Warn("no key files configured, running ephemeral groth16 setup")
	}
	prover, err := gnark.New(proverOpts...)
	if err != nil {
		log.Error("failed to initialize prover", "error", err)
		os.Exit(1)
	}

	auditStore := audit.NewInMemoryStore()
	auditor := audit.NewPublisher(auditStore,
		audit.WithAsyncBuffer(1024),
		audit.WithPublisherLogger(log),
	)
	defer auditor.Close()

	trc := tracer.NewOTel()

	credMetrics := credentialmetrics.New()
	verifMetrics := verificationmetrics.New()

	issuers := issuerservice.NewService(issuerstore.New(), auditor, log)
	registry := revocation.NewInMemoryRegistry()
	credentials := credentialservice.NewService(
		credentialstore.New(), issuers, registry, auditor, log,
		credentialservice.WithMetrics(credMetrics),
		credentialservice.WithCredentialTTL(cfg.CredentialTTL),
	)
	proofs := proofservice.NewService(
		credentials, wallet.NewInMemoryStore(), prover, auditor, log,
		proofservice.WithMetrics(proofmetrics.New()),
		proofservice.WithTracer(trc),
	)
	ledger := nullifier.NewInMemoryLedger()
	verification := verificationservice.NewService(
		credentials, ledger, prover, auditor, log,
		verificationservice.WithMetrics(verifMetrics),
		verificationservice.WithTracer(trc),
	)

	tokens := token.NewService(cfg.JWTSigningKey, 24*time.Hour)
	healthHandler := health.New(cfg.Environment)
	healthHandler.RegisterCheck("proving-keys", func() error {
		// Ephemeral setup keys never leave the process, so external
		// verifiers cannot validate proofs outside development.
		if cfg.Environment != "development" && (cfg.ProvingKeyPath == "" || cfg.VerifyingKeyPath == "") {
			return errors.New("groth16 key files not configured")
		}
		return nil
	})
	healthHandler.RegisterCheck("secrets", func() error {
		if cfg.Environment != "development" && cfg.UsingDevSecrets() {
			return errors.New("development signing key or admin token in use")
		}
		return nil
	})

	router := httptransport.NewRouter(cfg, tokens, httptransport.Handlers{
		Issuers:      issuerhandler.New(issuers, log),
		Credentials:  credentialhandler.New(credentials, proofs, log, credMetrics),
		Proofs:       proofhandler.New(proofs, log),
		Verification: verificationhandler.New(verification, log),
		Health:       healthHandler,
	}, log)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Info("starting http server", "addr", cfg.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server gracefully")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
