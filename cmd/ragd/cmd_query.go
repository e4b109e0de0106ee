package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/llmc/ragcore/internal/boundary"
	"github.com/llmc/ragcore/internal/retrieval"
)

var (
	queryPath  string
	queryLang  string
	queryKind  string
	queryLimit int
)

var queryCmd = &cobra.Command{
	Use:   "query [text]",
	Short: "Run a hybrid lexical+vector+graph query",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		comps, err := buildComponents(repoRoot)
		if err != nil {
			return err
		}
		defer comps.Close()

		adapter := boundary.NewQueryAdapter(comps.Pipeline)
		env, err := adapter.Query(cmd.Context(), retrieval.Query{
			Text:  args[0],
			Path:  queryPath,
			Lang:  queryLang,
			Kind:  queryKind,
			Limit: queryLimit,
		})
		if err != nil {
			return err
		}

		fmt.Printf("source: %s, freshness: %s\n", env.Source, env.FreshnessState)
		for _, item := range env.Items {
			fmt.Printf("%-6.2f %s:%d-%d %s\n", item.ScoreNormalized, item.Path, item.StartLine, item.EndLine, item.Symbol)
		}
		return nil
	},
}

func init() {
	queryCmd.Flags().StringVar(&queryPath, "path", "", "restrict to a path glob")
	queryCmd.Flags().StringVar(&queryLang, "lang", "", "restrict to a language")
	queryCmd.Flags().StringVar(&queryKind, "kind", "", "restrict to a span kind")
	queryCmd.Flags().IntVar(&queryLimit, "limit", 10, "max results")
}
