/*
Copyright 2026 The Star Chameleon Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package main runs the Star Chameleon benchmark: every model writes
// stories, continues the others' stories and judges which continuation is
// genuine.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"cloud.google.com/go/compute/metadata"
	"github.com/chainguard-dev/clog"
	_ "github.com/chainguard-dev/clog/gcp/init"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"

	"github.com/zswitten/starchameleon/agents/backend"
	"github.com/zswitten/starchameleon/agents/backend/claudebackend"
	"github.com/zswitten/starchameleon/agents/backend/fakebackend"
	"github.com/zswitten/starchameleon/agents/backend/googlebackend"
	"github.com/zswitten/starchameleon/agents/backend/openaibackend"
	"github.com/zswitten/starchameleon/chameleon"
	"github.com/zswitten/starchameleon/chameleon/persist"
	"github.com/zswitten/starchameleon/chameleon/report"
	"github.com/zswitten/starchameleon/chameleon/stagemetrics"
)

type config struct {
	Experiment    string  `env:"STAR_CHAMELEON_EXPERIMENT"`
	Output        string  `env:"STAR_CHAMELEON_OUTPUT,default=star_chameleon_results.json"`
	Concurrency   int     `env:"STAR_CHAMELEON_CONCURRENCY,default=8"`
	Seed          *uint64 `env:"STAR_CHAMELEON_SEED,noinit"`
	NumPrompts    int     `env:"STAR_CHAMELEON_NUM_PROMPTS"`
	ProgressEvery int     `env:"STAR_CHAMELEON_PROGRESS_EVERY"`
	// RequestsPerMinute paces each provider; 0 disables pacing.
	RequestsPerMinute int    `env:"STAR_CHAMELEON_REQUESTS_PER_MINUTE"`
	MetricsTextfile   string `env:"STAR_CHAMELEON_METRICS_TEXTFILE"`
	SchemaPath        string `env:"STAR_CHAMELEON_SCHEMA_PATH"`

	AnthropicAPIKey string `env:"ANTHROPIC_API_KEY"`
	OpenAIAPIKey    string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL   string `env:"OPENAI_BASE_URL"`
	GeminiAPIKey    string `env:"GEMINI_API_KEY"`

	// UseVertex routes Claude and Gemini through Vertex AI.
	UseVertex bool   `env:"STAR_CHAMELEON_USE_VERTEX"`
	ProjectID string `env:"GOOGLE_CLOUD_PROJECT"`
	Region    string `env:"GOOGLE_CLOUD_REGION,default=us-east5"`

	S3 persist.S3Config
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log := clog.FromContext(ctx)

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		clog.FatalContextf(ctx, "failed to load .env: %v", err)
	}

	var cfg config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		clog.FatalContextf(ctx, "failed to process config: %v", err)
	}

	if cfg.SchemaPath != "" {
		if err := writeSchema(cfg.SchemaPath); err != nil {
			clog.FatalContextf(ctx, "failed to write schema: %v", err)
		}
		log.With("path", cfg.SchemaPath).Info("Wrote result schema")
	}

	exp, err := loadExperiment(cfg.Experiment)
	if err != nil {
		clog.FatalContextf(ctx, "%v", err)
	}

	router, err := newRouter(ctx, &cfg)
	if err != nil {
		clog.FatalContextf(ctx, "failed to create backends: %v", err)
	}
	for _, m := range exp.Models {
		if _, err := router.Resolve(m); err != nil {
			clog.FatalContextf(ctx, "model %s: %v", m, err)
		}
	}

	// Resolve the sink before spending tokens.
	sink, err := persist.OpenSink(ctx, cfg.Output, cfg.S3)
	if err != nil {
		clog.FatalContextf(ctx, "failed to open output: %v", err)
	}

	runID := uuid.NewString()
	ctx = clog.WithLogger(ctx, log.With("run_id", runID))
	log = clog.FromContext(ctx)

	runCfg := chameleon.Config{
		Models:        exp.Models,
		Prompts:       exp.Prompts,
		NumPrompts:    cfg.NumPrompts,
		Concurrency:   cfg.Concurrency,
		Params:        *exp.Params,
		Seed:          cfg.Seed,
		ProgressEvery: cfg.ProgressEvery,
	}
	runner, err := chameleon.NewRunner(router, runCfg,
		chameleon.WithObserver(stagemetrics.NewObserver(runID)))
	if err != nil {
		clog.FatalContextf(ctx, "invalid experiment: %v", err)
	}

	log.With("models", len(exp.Models)).
		With("concurrency", cfg.Concurrency).
		With("output", sink.URL()).
		Info("Starting Star Chameleon")

	res, runErr := runner.Run(ctx)
	if res != nil {
		// A cancelled run still saves what it finished.
		rec := persist.FromResult(persist.Metadata{RunID: runID, Params: runCfg.Params, Seed: cfg.Seed}, res)
		if err := persist.Save(context.WithoutCancel(ctx), sink, rec); err != nil {
			log.Errorf("failed to save results: %v", err)
		}
		fmt.Print(report.Markdown(res))
	}

	if cfg.MetricsTextfile != "" {
		if err := stagemetrics.WriteTextfile(cfg.MetricsTextfile); err != nil {
			log.Errorf("failed to write metrics: %v", err)
		}
	}

	if runErr != nil {
		clog.FatalContextf(ctx, "run failed: %v", runErr)
	}
}

// newRouter registers a backend for every provider whose credentials are
// configured. The fake provider is always available.
func newRouter(ctx context.Context, cfg *config) (*backend.Router, error) {
	r := backend.NewRouter()
	register := func(p backend.Provider, b backend.Interface) {
		if cfg.RequestsPerMinute > 0 {
			b = backend.WithRateLimit(b, cfg.RequestsPerMinute)
		}
		r.Register(p, b)
		clog.FromContext(ctx).With("provider", p).Info("Registered backend")
	}
	register(backend.ProviderFake, fakebackend.New())

	if cfg.UseVertex && cfg.ProjectID == "" {
		projectID, err := metadata.ProjectIDWithContext(ctx)
		if err != nil {
			return nil, fmt.Errorf("detecting project ID: %w", err)
		}
		cfg.ProjectID = projectID
		clog.FromContext(ctx).With("project_id", projectID).Info("Detected Google Cloud project")
	}

	switch {
	case cfg.UseVertex:
		b, err := claudebackend.NewVertex(ctx, cfg.ProjectID, cfg.Region)
		if err != nil {
			return nil, err
		}
		register(backend.ProviderAnthropic, b)
	case cfg.AnthropicAPIKey != "":
		b, err := claudebackend.NewWithAPIKey(cfg.AnthropicAPIKey)
		if err != nil {
			return nil, err
		}
		register(backend.ProviderAnthropic, b)
	}

	switch {
	case cfg.UseVertex:
		b, err := googlebackend.NewVertex(ctx, cfg.ProjectID, cfg.Region)
		if err != nil {
			return nil, err
		}
		register(backend.ProviderGoogle, b)
	case cfg.GeminiAPIKey != "":
		b, err := googlebackend.NewWithAPIKey(ctx, cfg.GeminiAPIKey)
		if err != nil {
			return nil, err
		}
		register(backend.ProviderGoogle, b)
	}

	if cfg.OpenAIAPIKey != "" {
		b, err := openaibackend.NewWithAPIKey(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL)
		if err != nil {
			return nil, err
		}
		register(backend.ProviderOpenAI, b)
	}
	return r, nil
}

func writeSchema(path string) error {
	b, err := json.MarshalIndent(persist.Schema(), "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(b, '\n'), 0o644)
}
