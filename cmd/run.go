package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/spigell/cold-mailer/internal/fetch"
	"github.com/spigell/cold-mailer/internal/outreach"
	"github.com/spigell/cold-mailer/internal/pipeline"
	"github.com/spigell/cold-mailer/internal/render"
	"go.uber.org/zap"
)

const (
	PromptAnother = "Process another page"
	PromptExit    = "Exit"
)

var errExit = errors.New("exit requested")

var nextPrompt = promptui.Select{
	Label: "What next?",
	Items: []string{PromptAnother, PromptExit},
}

var urlPrompt = promptui.Prompt{
	Label: "Careers page URL",
	Validate: func(input string) error {
		if err := fetch.ValidateURL(strings.TrimSpace(input)); err != nil {
			return errors.New("enter an absolute http(s) URL")
		}
		return nil
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Draft cold emails for the jobs on a careers page",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return run(cmd)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("url", "u", "", "process this careers page once and exit instead of prompting")
	runCmd.Flags().Bool("plain", false, "print drafts without colors and borders")

	viper.BindPFlag("output.plain", runCmd.Flags().Lookup("plain"))
}

// pageRunner is the part of pipeline.App the prompt loop needs.
type pageRunner interface {
	Run(ctx context.Context, url string) (*pipeline.Result, error)
}

// run is the main command for the cli.
func run(cmd *cobra.Command) error {
	ctx := context.Background()

	logger := newLogger()
	defer logger.Sync()

	config, err := loadConfig(logger)
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the cold-mailer", zap.String("version", version))

	generator, err := newGenerator(ctx, config, logger)
	if err != nil {
		logger.Fatal("creating a language model client", zap.Error(err))
	}

	embedder, err := newEmbedder(ctx, config, generator)
	if err != nil {
		logger.Fatal("creating an embedder", zap.Error(err))
	}

	store, collection, err := openPortfolio(ctx, config, embedder, logger)
	if err != nil {
		logger.Fatal("opening the portfolio", zap.Error(err))
	}
	defer collection.Close()

	app, err := newApp(config, generator, store, logger)
	if err != nil {
		logger.Fatal("building the pipeline", zap.Error(err))
	}

	plain := config.Output.Plain

	if url := strings.TrimSpace(cmd.Flag("url").Value.String()); url != "" {
		return process(ctx, app, url, plain, logger)
	}

	for {
		url, err := urlPrompt.Run()
		if err != nil {
			if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
				return nil
			}
			return err
		}

		// A failed page is reported and the operator can try another one.
		_ = process(ctx, app, strings.TrimSpace(url), plain, logger)

		_, action, err := nextPrompt.Run()
		if err != nil {
			return nil
		}

		if err := handleAction(action, logger); err != nil {
			if errors.Is(err, errExit) {
				return nil
			}
			return err
		}
	}
}

func handleAction(action string, logger *zap.Logger) error {
	switch action {
	case PromptAnother:
		return nil
	case PromptExit:
		logger.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

// process runs one submission. Ctrl-C cancels only this submission; the
// interrupt handler is released when it returns so the prompt gets Ctrl-C
// back.
func process(parent context.Context, app pageRunner, url string, plain bool, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt)
	defer stop()

	res, err := app.Run(ctx, url)
	if err != nil {
		logger.Error("processing the page", append([]zap.Field{zap.String("url", url), zap.Error(err)}, hintFor(err)...)...)
		fmt.Fprintf(os.Stderr, "An error occurred: %v\n", err)
		return err
	}

	return render.Drafts(os.Stdout, res, plain)
}

func hintFor(err error) []zap.Field {
	var (
		fetchErr *fetch.Error
		parseErr *outreach.ExtractionParseError
		genErr   *outreach.GenerationError
	)

	switch {
	case errors.As(err, &fetchErr):
		return []zap.Field{zap.String("hint", "check that the page is reachable; enable fetch.browser for script-rendered pages")}
	case errors.As(err, &parseErr):
		return []zap.Field{zap.String("hint", "the page is probably too large or not a careers page")}
	case errors.As(err, &genErr):
		return []zap.Field{zap.String("hint", "set pipeline.isolate-job-failures to keep drafts of the other jobs")}
	default:
		return nil
	}
}
