package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/llmc/ragcore/internal/config"
	"github.com/llmc/ragcore/internal/indexstatus"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show this repository's freshness record and managed-repo state",
	RunE: func(cmd *cobra.Command, args []string) error {
		absRoot, err := resolveRepoRoot()
		if err != nil {
			return err
		}

		status, err := indexstatus.Load(statusPath(absRoot))
		if err != nil {
			return err
		}
		fmt.Printf("repo: %s\n", absRoot)
		fmt.Printf("index state: %s\n", status.IndexState)
		fmt.Printf("last indexed commit: %s\n", status.LastIndexedCommit)
		fmt.Printf("last indexed at: %s\n", status.LastIndexedAt)

		svcPath, err := serviceStatePath()
		if err != nil {
			return nil
		}
		state, err := config.LoadServiceState(svcPath)
		if err != nil {
			return nil
		}
		for _, r := range state.ManagedRepos {
			fmt.Printf("daemon running: pid=%d mode=%s\n", r.PID, r.Mode)
		}
		return nil
	},
}
