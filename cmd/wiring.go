package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/spf13/viper"
	"github.com/spigell/cold-mailer/internal/ai"
	"github.com/spigell/cold-mailer/internal/ai/gemini"
	"github.com/spigell/cold-mailer/internal/ai/groq"
	"github.com/spigell/cold-mailer/internal/config"
	"github.com/spigell/cold-mailer/internal/fetch"
	"github.com/spigell/cold-mailer/internal/logger"
	"github.com/spigell/cold-mailer/internal/outreach"
	"github.com/spigell/cold-mailer/internal/pipeline"
	"github.com/spigell/cold-mailer/internal/portfolio"
	"github.com/spigell/cold-mailer/internal/secrets"
	"github.com/spigell/cold-mailer/internal/vectorstore"
	"go.uber.org/zap"
)

func newLogger() *zap.Logger {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	return logger
}

func loadConfig(logger *zap.Logger) (*config.Config, error) {
	cfg, err := getConfig()
	if err != nil {
		return nil, err
	}

	// the api key is excluded from json output
	pretty, _ := json.MarshalIndent(cfg, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	return cfg, nil
}

func newGenerator(ctx context.Context, cfg *config.Config, log *zap.Logger) (ai.Generator, error) {
	apiKey, err := cfg.ResolveAPIKey()
	if err != nil {
		return nil, err
	}

	var generator ai.Generator
	switch cfg.LLM.Provider {
	case ai.ProviderGemini:
		generator, err = gemini.NewGenerator(ctx, apiKey, cfg.LLM.Model)
	default:
		generator, err = groq.New(apiKey, cfg.LLM.Model, cfg.LLM.BaseURL, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("creating %s client: %w", cfg.LLM.Provider, err)
	}

	logger.WithCommonFields(log, cfg.LLM.Provider, generator.Model()).Info("language model ready")

	return generator, nil
}

// newEmbedder returns the embedder for the portfolio index. The Gemini
// embedder reuses the generator when Gemini is also the chat provider.
func newEmbedder(ctx context.Context, cfg *config.Config, generator ai.Generator) (vectorstore.Embedder, error) {
	if cfg.Portfolio.Embedder != config.EmbedderGemini {
		return vectorstore.NewHashEmbedder(0), nil
	}

	if g, ok := generator.(*gemini.Generator); ok {
		return g.Embedder(cfg.Portfolio.EmbeddingModel), nil
	}

	src := secrets.Source{Name: "gemini api key", Env: "GEMINI_API_KEY", KeyringAccount: cfg.LLM.KeyringAccount}
	if cfg.LLM.Provider == ai.ProviderGemini {
		src.Value, src.File = cfg.LLM.APIKey, cfg.LLM.APIKeyFile
	}

	apiKey, err := secrets.Load(src)
	if err != nil {
		return nil, &config.ConfigurationError{Key: "portfolio.embedder", Err: fmt.Errorf("%w (the gemini embedder needs GEMINI_API_KEY)", err)}
	}

	g, err := gemini.NewGenerator(ctx, apiKey, "")
	if err != nil {
		return nil, err
	}

	return g.Embedder(cfg.Portfolio.EmbeddingModel), nil
}

func openPortfolio(ctx context.Context, cfg *config.Config, embedder vectorstore.Embedder, log *zap.Logger) (*portfolio.Store, *vectorstore.Collection, error) {
	collection, err := vectorstore.Open(ctx, vectorstore.Options{
		Dir:        cfg.Portfolio.Dir,
		Collection: cfg.Portfolio.Collection,
		Embedder:   embedder,
		Logger:     log,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("opening portfolio index: %w", err)
	}

	return portfolio.New(collection, portfolio.Seed(), log), collection, nil
}

func newApp(cfg *config.Config, generator ai.Generator, store *portfolio.Store, log *zap.Logger) (*pipeline.App, error) {
	fetchOpts := fetch.DefaultOptions()
	fetchOpts.Timeout = cfg.Timeouts.Fetch
	fetchOpts.BrowserTimeout = cfg.Timeouts.Browser
	fetchOpts.Browser = cfg.Fetch.Browser
	if cfg.Fetch.UserAgent != "" {
		fetchOpts.UserAgent = cfg.Fetch.UserAgent
	}

	llmLog := logger.WithCommonFields(log, cfg.LLM.Provider, generator.Model())

	persona := outreach.Persona{
		Name:    cfg.Persona.Name,
		Title:   cfg.Persona.Title,
		Email:   cfg.Persona.Email,
		Company: cfg.Persona.Company,
		Pitch:   cfg.Persona.Pitch,
	}

	return pipeline.New(pipeline.Deps{
		Fetcher:            fetch.New(fetchOpts, log),
		Portfolio:          store,
		Extractor:          outreach.NewExtractor(generator, llmLog, cfg.LLM.MaxLogLength),
		Writer:             outreach.NewWriter(generator, persona, llmLog, cfg.LLM.MaxLogLength),
		Logger:             log,
		LLMTimeout:         cfg.Timeouts.LLM,
		IsolateJobFailures: cfg.Pipeline.IsolateJobFailures,
	})
}
