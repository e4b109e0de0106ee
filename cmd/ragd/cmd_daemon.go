package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/llmc/ragcore/internal/boundary"
	"github.com/llmc/ragcore/internal/config"
	"github.com/llmc/ragcore/internal/logging"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Manage the background sync daemon",
}

var daemonStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the sync daemon in the foreground",
	RunE: func(cmd *cobra.Command, args []string) error {
		comps, err := buildComponents(repoRoot)
		if err != nil {
			return err
		}
		defer comps.Close()

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		go func() {
			<-sigCh
			logging.For(logging.CategorySync).Infow("received shutdown signal")
			cancel()
		}()

		adapter := boundary.NewSyncAdapter(comps.Controller)
		if err := adapter.Start(ctx); err != nil {
			return err
		}

		if err := registerManagedRepo(comps.Pipeline.RepoName, comps.Config.Daemon.Mode); err != nil {
			logging.For(logging.CategorySync).Warnw("failed to register managed repo", "err", err)
		}
		defer unregisterManagedRepo(comps.Pipeline.RepoName)

		<-ctx.Done()
		adapter.Stop()
		return nil
	},
}

var daemonStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the repository's freshness record",
	RunE: func(cmd *cobra.Command, args []string) error {
		comps, err := buildComponents(repoRoot)
		if err != nil {
			return err
		}
		defer comps.Close()

		adapter := boundary.NewIndexAdapter(comps.Controller, statusPath(comps.Pipeline.RepoRoot))
		status, err := adapter.Status()
		if err != nil {
			return err
		}
		fmt.Printf("state: %s, commit: %s, last indexed: %s\n", status.IndexState, status.LastIndexedCommit, status.LastIndexedAt)
		if status.LastError != "" {
			fmt.Printf("last error: %s\n", status.LastError)
		}
		return nil
	},
}

func init() {
	daemonCmd.AddCommand(daemonStartCmd, daemonStatusCmd)
}

func registerManagedRepo(name string, mode config.DaemonMode) error {
	path, err := serviceStatePath()
	if err != nil {
		return err
	}
	state, err := config.LoadServiceState(path)
	if err != nil {
		return err
	}
	filtered := state.ManagedRepos[:0]
	for _, r := range state.ManagedRepos {
		if r.Name != name {
			filtered = append(filtered, r)
		}
	}
	state.ManagedRepos = append(filtered, config.ManagedRepo{Name: name, PID: os.Getpid(), Mode: mode})
	return state.Save(path)
}

func unregisterManagedRepo(name string) {
	path, err := serviceStatePath()
	if err != nil {
		return
	}
	state, err := config.LoadServiceState(path)
	if err != nil {
		return
	}
	filtered := state.ManagedRepos[:0]
	for _, r := range state.ManagedRepos {
		if r.Name != name {
			filtered = append(filtered, r)
		}
	}
	state.ManagedRepos = filtered
	_ = state.Save(path)
}
