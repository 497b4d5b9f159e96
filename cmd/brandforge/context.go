package main

import (
	"fmt"
	"strings"
	"sync"

	"brandforge/internal/analysis"
	"brandforge/internal/export"
	"brandforge/internal/history"
	"brandforge/internal/infra"
	"brandforge/internal/pipeline"
	"brandforge/internal/providers/fal"
	"brandforge/internal/providers/image"
	"brandforge/internal/providers/openai"
	"brandforge/internal/providers/video"
	"brandforge/internal/storage"
)

// commandContext lazily loads configuration and builds the application graph
// once, shared across subcommands.
type commandContext struct {
	configFlag *string

	once   sync.Once
	app    *app
	appErr error
}

// app is the wired application: providers, pipeline, stores.
type app struct {
	cfg      *infra.Config
	logger   infra.Logger
	store    *storage.FileStore
	history  *history.Store
	state    *pipeline.Store
	orch     *pipeline.Orchestrator
	analyzer *analysis.Analyzer
	exporter *export.Exporter
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureApp() (*app, error) {
	c.once.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, err := infra.LoadConfig(path)
		if err != nil {
			c.appErr = err
			return
		}
		c.app, c.appErr = buildApp(cfg)
	})
	return c.app, c.appErr
}

func buildApp(cfg *infra.Config) (*app, error) {
	logger := infra.NewLogger(cfg.AppEnv)

	store, err := storage.NewFileStore(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	historyStore, err := history.Open(cfg.DataDir)
	if err != nil {
		return nil, err
	}

	openaiClient, err := openai.NewClient(openai.Options{
		APIKey:            cfg.OpenAIAPIKey,
		BaseURL:           cfg.OpenAIBaseURL,
		TextModel:         cfg.OpenAITextModel,
		ImageModel:        cfg.OpenAIImageModel,
		VideoModel:        cfg.OpenAIVideoModel,
		RequestsPerMinute: cfg.RequestsPerMinute,
		Logger:            &logger,
	})
	if err != nil {
		return nil, fmt.Errorf("configure openai client: %w", err)
	}

	imagePrimary := image.NewOpenAIGenerator(openaiClient, nil)
	videoPrimary := video.NewOpenAIGenerator(openaiClient, nil)

	var imageSecondary image.Generator
	var videoSecondary video.Generator
	if cfg.HasSecondaryCredential() {
		falClient, err := fal.NewClient(fal.Options{
			APIKey:  cfg.FalAPIKey,
			BaseURL: cfg.FalBaseURL,
			Logger:  &logger,
		})
		if err != nil {
			return nil, fmt.Errorf("configure fal client: %w", err)
		}
		imageSecondary = image.NewFalGenerator(falClient, nil)
		videoSecondary = video.NewFalGenerator(falClient, nil)
	}

	analyzer := analysis.NewAnalyzer(analysis.Options{
		Client: openaiClient,
		Logger: &logger,
		Locale: cfg.Locale,
	})

	state := pipeline.NewStore()
	orch := pipeline.NewOrchestrator(pipeline.OrchestratorOptions{
		Analyzer:             analyzer,
		Images:               image.NewFallbackGenerator(imagePrimary, imageSecondary, &logger),
		Videos:               video.NewFallbackGenerator(videoPrimary, videoSecondary, &logger),
		Store:                store,
		State:                state,
		Logger:               &logger,
		HasPrimaryCredential: cfg.HasPrimaryCredential(),
	})

	return &app{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		history:  historyStore,
		state:    state,
		orch:     orch,
		analyzer: analyzer,
		exporter: export.New(nil),
	}, nil
}

func (a *app) Close() {
	if a == nil {
		return
	}
	if a.history != nil {
		_ = a.history.Close()
	}
}
