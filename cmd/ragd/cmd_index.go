package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/llmc/ragcore/internal/boundary"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Run one indexing cycle against the repository",
	RunE: func(cmd *cobra.Command, args []string) error {
		comps, err := buildComponents(repoRoot)
		if err != nil {
			return err
		}
		defer comps.Close()

		adapter := boundary.NewIndexAdapter(comps.Controller, statusPath(comps.Pipeline.RepoRoot))
		stats, err := adapter.UpsertFile(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Printf("files changed: %d, deleted: %d\n", stats.FilesChanged, stats.FilesDeleted)
		fmt.Printf("spans added: %d, deleted: %d\n", stats.SpansAdded, stats.SpansDeleted)
		fmt.Printf("embeds: %d, enriches: %d\n", stats.EmbedsDone, stats.EnrichesDone)
		fmt.Printf("graph: %d entities, %d relations\n", stats.GraphEntities, stats.GraphRelations)
		return nil
	},
}
