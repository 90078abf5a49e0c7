// Package main is the entry point for the lacuna CLI, the batch
// front-end of the resolution and analysis core.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/lacuna-ai/lacuna/internal/util"
	"github.com/lacuna-ai/lacuna/pkg/logger"
	"github.com/lacuna-ai/lacuna/pkg/logger/console"
)

var rootCmd = &cobra.Command{
	Use:   "lacuna",
	Short: "Entity resolution and graph analysis for extracted concept graphs",
	Long: `lacuna turns batches of LLM-extracted raw entities into a canonical
concept graph: it disambiguates homonyms, merges duplicate mentions,
detects communities, and flags structural gaps between them.

Extraction itself happens upstream; lacuna consumes its JSON output.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		util.LoadEnv()
		logger.Init(console.NewConsoleLogger(console.ConsoleLoggerParams{
			Debug: util.GetEnvBool("DEBUG", false),
		}))
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
