// Command ragd is the CLI boundary around the core RAG engine: one-shot
// indexing, ad-hoc queries and symbol lookups, the background sync daemon,
// and the global repository registry.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/llmc/ragcore/internal/logging"
)

var repoRoot string

var rootCmd = &cobra.Command{
	Use:           "ragd",
	Short:         "Local-first code intelligence RAG engine",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&repoRoot, "repo", ".", "repository root")

	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(whereUsedCmd)
	rootCmd.AddCommand(lineageCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(daemonCmd)
	rootCmd.AddCommand(repoCmd)
	rootCmd.AddCommand(statusCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		logging.For(logging.CategoryConfig).Errorw("command failed", "err", err)
		os.Exit(exitCode(err))
	}
}
