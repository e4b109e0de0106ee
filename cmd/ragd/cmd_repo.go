package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/llmc/ragcore/internal/config"
)

var repoCmd = &cobra.Command{
	Use:   "repo",
	Short: "Manage the global repository registry",
}

var repoAddCmd = &cobra.Command{
	Use:   "add [name] [root]",
	Short: "Register a repository",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, root := args[0], args[1]
		absRoot, err := filepath.Abs(root)
		if err != nil {
			return err
		}

		path, err := repoRegistryPath()
		if err != nil {
			return err
		}
		reg, err := config.LoadRepoRegistry(path)
		if err != nil {
			return err
		}
		for i, e := range reg.Repositories {
			if e.Name == name {
				reg.Repositories[i].Root = absRoot
				reg.Repositories[i].ConfigPath = configPath(absRoot)
				return reg.Save(path)
			}
		}
		reg.Repositories = append(reg.Repositories, config.RepoRegistryEntry{
			Name:       name,
			Root:       absRoot,
			ConfigPath: configPath(absRoot),
		})
		return reg.Save(path)
	},
}

var repoListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered repositories",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := repoRegistryPath()
		if err != nil {
			return err
		}
		reg, err := config.LoadRepoRegistry(path)
		if err != nil {
			return err
		}
		for _, e := range reg.Repositories {
			fmt.Printf("%s\t%s\n", e.Name, e.Root)
		}
		return nil
	},
}

func init() {
	repoCmd.AddCommand(repoAddCmd, repoListCmd)
}
