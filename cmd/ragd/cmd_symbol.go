package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/llmc/ragcore/internal/boundary"
	"github.com/llmc/ragcore/internal/retrieval"
)

var whereUsedCmd = &cobra.Command{
	Use:   "where-used [symbol]",
	Short: "List inbound call/reference sites for a symbol",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		comps, err := buildComponents(repoRoot)
		if err != nil {
			return err
		}
		defer comps.Close()

		adapter := boundary.NewQueryAdapter(comps.Pipeline)
		rels, err := adapter.WhereUsed(args[0])
		if err != nil {
			return err
		}
		for _, rel := range rels {
			fmt.Printf("%s:%d %s -> %s\n", rel.File, rel.Line, rel.From.QualifiedName, rel.To.QualifiedName)
		}
		return nil
	},
}

var (
	lineageDirection string
	lineageMaxDepth  int
)

var lineageCmd = &cobra.Command{
	Use:   "lineage [symbol]",
	Short: "Walk the call graph from a symbol",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		comps, err := buildComponents(repoRoot)
		if err != nil {
			return err
		}
		defer comps.Close()

		dir := retrieval.LineageCallees
		if lineageDirection == "callers" {
			dir = retrieval.LineageCallers
		}

		adapter := boundary.NewQueryAdapter(comps.Pipeline)
		rels, err := adapter.Lineage(args[0], dir, lineageMaxDepth)
		if err != nil {
			return err
		}
		for _, rel := range rels {
			fmt.Printf("%s:%d %s -> %s\n", rel.File, rel.Line, rel.From.QualifiedName, rel.To.QualifiedName)
		}
		return nil
	},
}

func init() {
	lineageCmd.Flags().StringVar(&lineageDirection, "direction", "callees", "callers or callees")
	lineageCmd.Flags().IntVar(&lineageMaxDepth, "depth", 3, "max BFS hops")
}

var inspectSource bool

var inspectCmd = &cobra.Command{
	Use:   "inspect [symbol]",
	Short: "Show a symbol's span, enrichment, and neighbors",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		comps, err := buildComponents(repoRoot)
		if err != nil {
			return err
		}
		defer comps.Close()

		adapter := boundary.NewQueryAdapter(comps.Pipeline)
		result, err := adapter.Inspect(args[0], inspectSource)
		if err != nil {
			return err
		}

		fmt.Printf("%s:%d-%d %s\n", result.Span.File, result.Span.StartLine, result.Span.EndLine, result.Span.Symbol)
		if result.Enrichment != nil {
			fmt.Printf("summary: %s\n", result.Enrichment.Summary)
		}
		fmt.Printf("callers: %d, callees: %d\n", len(result.Callers), len(result.Callees))
		if inspectSource {
			fmt.Println(result.Span.Content)
		}
		return nil
	},
}

func init() {
	inspectCmd.Flags().BoolVar(&inspectSource, "source", false, "include the span's source text")
}
