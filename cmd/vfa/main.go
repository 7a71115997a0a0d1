package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"video-failures-go/internal/config"
	"video-failures-go/internal/extract"
	"video-failures-go/internal/logger"
	"video-failures-go/internal/media"
	"video-failures-go/internal/pipeline"
	"video-failures-go/internal/report"
	"video-failures-go/internal/transcribe"
	"video-failures-go/internal/types"
)

func main() {
	_ = godotenv.Load() // best-effort: load .env if present

	root := &cobra.Command{
		Use:          "vfa",
		Short:        "Analyze narrated screen recordings for failure events",
		SilenceUsage: true,
	}

	analyze := &cobra.Command{
		Use:   "analyze <video>",
		Short: "Run the analysis pipeline on a local video file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			xlsxPath, _ := cmd.Flags().GetString("xlsx")
			return runAnalyze(args[0], xlsxPath)
		},
	}
	analyze.Flags().String("xlsx", "", "Also write an xlsx triage report to this path")
	root.AddCommand(analyze)

	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)
	root.SilenceErrors = true

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runAnalyze(input, xlsxPath string) error {
	cfg := config.FromEnv()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	absIn, err := filepath.Abs(input)
	if err != nil {
		return err
	}
	if err := media.CheckExtension(absIn); err != nil {
		return err
	}

	transcriber, err := transcribe.NewFromConfig(cfg)
	if err != nil {
		return err
	}
	backend, err := extract.NewBackendFromConfig(cfg)
	if err != nil {
		return err
	}

	log := logger.New()
	pl := &pipeline.Pipeline{
		Media:              media.NewExtractor(cfg.FFmpegPath, cfg.FFprobePath),
		Transcriber:        transcriber,
		Engine:             extract.NewEngine(backend, log.WithField("component", "extract")),
		MaxDurationSeconds: cfg.MaxDurationSeconds,
		Concurrency:        cfg.ExtractConcurrency,
		Log:                log.WithField("component", "pipeline"),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	failures, err := pl.Run(ctx, absIn)
	if err != nil {
		return err
	}
	if failures == nil {
		failures = []types.FailureEvent{}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(types.AnalyzeResponse{Failures: failures}); err != nil {
		return err
	}

	if xlsxPath != "" {
		if err := report.WriteXLSX(xlsxPath, failures); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "report written: %s\n", xlsxPath)
	}
	return nil
}
