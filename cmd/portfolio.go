package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spigell/cold-mailer/internal/ai"
	"github.com/spigell/cold-mailer/internal/config"
	"github.com/spigell/cold-mailer/internal/portfolio"
	"go.uber.org/zap"
)

var portfolioCmd = &cobra.Command{
	Use:   "portfolio",
	Short: "Inspect the portfolio index",
}

var portfolioLoadCmd = &cobra.Command{
	Use:   "load",
	Short: "Index the portfolio catalogue if the index is empty",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		return withPortfolio(func(ctx context.Context, p *portfolioSession) error {
			added, err := p.store.EnsureLoaded(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("indexed %d documents (%d entries in catalogue)\n", added, len(p.store.Entries()))
			return nil
		})
	},
}

var portfolioMatchCmd = &cobra.Command{
	Use:   "match SKILL [SKILL...]",
	Short: "Show the portfolio links that would be cited for the given skills",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		return withPortfolio(func(ctx context.Context, p *portfolioSession) error {
			if _, err := p.store.EnsureLoaded(ctx); err != nil {
				return err
			}

			links := p.store.Match(ctx, splitSkills(args))
			if len(links) == 0 {
				fmt.Println("no matching portfolio entries")
				return nil
			}
			for _, link := range links {
				fmt.Println(link)
			}
			return nil
		})
	},
}

func init() {
	portfolioCmd.AddCommand(portfolioLoadCmd, portfolioMatchCmd)
	rootCmd.AddCommand(portfolioCmd)
}

type portfolioSession struct {
	store *portfolio.Store
}

func withPortfolio(fn func(ctx context.Context, p *portfolioSession) error) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger := newLogger()
	defer logger.Sync()

	cfg, err := loadConfig(logger)
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	// Only the gemini embedder needs a model client; it brings its own.
	var generator ai.Generator
	if cfg.Portfolio.Embedder == config.EmbedderGemini && cfg.LLM.Provider == ai.ProviderGemini {
		if generator, err = newGenerator(ctx, cfg, logger); err != nil {
			logger.Fatal("creating a language model client", zap.Error(err))
		}
	}

	embedder, err := newEmbedder(ctx, cfg, generator)
	if err != nil {
		logger.Fatal("creating an embedder", zap.Error(err))
	}

	store, collection, err := openPortfolio(ctx, cfg, embedder, logger)
	if err != nil {
		return err
	}
	defer collection.Close()

	return fn(ctx, &portfolioSession{store: store})
}

// splitSkills accepts both "Go Python" and "Go, Python" style arguments.
func splitSkills(args []string) []string {
	var skills []string
	for _, arg := range args {
		for _, s := range strings.Split(arg, ",") {
			if s = strings.TrimSpace(s); s != "" {
				skills = append(skills, s)
			}
		}
	}
	return skills
}
