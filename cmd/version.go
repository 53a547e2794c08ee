package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spigell/cold-mailer/internal/ai"
	"github.com/spigell/cold-mailer/internal/ai/gemini"
	"github.com/spigell/cold-mailer/internal/ai/groq"
)

// version is stamped at build time:
//
//	go build -ldflags "-X github.com/spigell/cold-mailer/cmd.version=v0.1.0"
var version = "unknown"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version and the default model of each provider",
	Run: func(cmd *cobra.Command, _ []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s version: %s\n", app, version)
		fmt.Fprintf(out, "default models: %s=%s %s=%s embedding=%s\n",
			ai.ProviderGroq, groq.DefaultModel,
			ai.ProviderGemini, gemini.DefaultModel,
			gemini.DefaultEmbeddingModel,
		)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
