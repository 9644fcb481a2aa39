package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/bulatminnakhmetov/svidanka-media/internal/devstub"
)

// stubConfig holds the environment driven configuration for the stub backend.
type stubConfig struct {
	Port        int    `env:"STUB_PORT" envDefault:"8080"`
	ExternalURL string `env:"STUB_EXTERNAL_URL"`
	JWTSecret   string `env:"STUB_JWT_SECRET"`

	// "local" keeps objects in memory; "minio" issues real presigned URLs
	StorageBackend string `env:"STUB_STORAGE_BACKEND" envDefault:"local"`

	MinioEndpoint  string `env:"STUB_MINIO_ENDPOINT" envDefault:"localhost:9000"`
	MinioAccessKey string `env:"STUB_MINIO_ACCESS_KEY" envDefault:"minioadmin"`
	MinioSecretKey string `env:"STUB_MINIO_SECRET_KEY" envDefault:"minioadmin"`
	MinioBucket    string `env:"STUB_MINIO_BUCKET" envDefault:"svidanka-media"`
	MinioUseSSL    bool   `env:"STUB_MINIO_USE_SSL" envDefault:"false"`

	DoubleEncode bool `env:"STUB_DOUBLE_ENCODE" envDefault:"true"`
}

func main() {
	_ = godotenv.Load()

	cfg := &stubConfig{}
	if err := env.Parse(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	var storage devstub.StorageProvider
	switch cfg.StorageBackend {
	case "minio":
		minioStorage, err := devstub.NewMinioStorage(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
		if err != nil {
			log.Fatal().Err(err).Msg("could not create minio storage")
		}
		storage = minioStorage
	case "local":
		storage = devstub.NewLocalStorage()
	default:
		log.Fatal().Str("backend", cfg.StorageBackend).Msg("unknown storage backend")
	}

	opts := []devstub.Option{devstub.WithDoubleEncodedResponses(cfg.DoubleEncode)}
	if cfg.JWTSecret != "" {
		opts = append(opts, devstub.WithJWTSecret([]byte(cfg.JWTSecret)))
	}

	stub := devstub.NewServer(storage, log, opts...)

	externalURL := cfg.ExternalURL
	if externalURL == "" {
		externalURL = fmt.Sprintf("http://localhost:%d", cfg.Port)
	}
	stub.SetExternalURL(externalURL)

	if err := stub.EnsureStorage(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("could not prepare storage")
	}

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: stub.Router(),
	}

	go func() {
		log.Info().Int("port", cfg.Port).Str("storage", cfg.StorageBackend).Msg("stub backend starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("could not listen")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
}
