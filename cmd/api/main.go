package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"video-failures-go/internal/config"
	"video-failures-go/internal/extract"
	"video-failures-go/internal/logger"
	"video-failures-go/internal/media"
	"video-failures-go/internal/pipeline"
	"video-failures-go/internal/server"
	"video-failures-go/internal/transcribe"
)

func main() {
	_ = godotenv.Load() // loads .env

	log := logger.New()
	log.WithField("service", "video-failures-go").Info("starting service")

	cfg := config.FromEnv()
	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}

	extractor := media.NewExtractor(cfg.FFmpegPath, cfg.FFprobePath)
	if err := extractor.CheckTools(context.Background()); err != nil {
		// Keep serving; /analyze will fail per-request with a clear error.
		log.WithError(err).Error("ffmpeg is NOT available, audio extraction will fail")
	} else {
		log.Info("ffmpeg is available")
	}

	var configErr error
	var pl *pipeline.Pipeline

	transcriber, err := transcribe.NewFromConfig(cfg)
	if err != nil {
		configErr = err
	}
	backend, err := extract.NewBackendFromConfig(cfg)
	if err != nil && configErr == nil {
		configErr = err
	}
	if configErr != nil {
		log.WithError(configErr).Warn("provider not configured, /analyze will answer 501")
	} else {
		pl = &pipeline.Pipeline{
			Media:              extractor,
			Transcriber:        transcriber,
			Engine:             extract.NewEngine(backend, log.WithField("component", "extract")),
			MaxDurationSeconds: cfg.MaxDurationSeconds,
			Concurrency:        cfg.ExtractConcurrency,
			Log:                log.WithField("component", "pipeline"),
		}
	}

	srv := &server.Server{
		Runner:         pl,
		ConfigErr:      configErr,
		MaxUploadBytes: cfg.MaxUploadBytes,
		Log:            log,
	}

	addr := fmt.Sprintf(":%s", cfg.Port)
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      srv.Mux(),
		ReadTimeout:  5 * time.Minute,
		WriteTimeout: 15 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}
	log.WithField("addr", addr).Info("listening")
	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.WithError(err).Fatal("server terminated")
	}
}
