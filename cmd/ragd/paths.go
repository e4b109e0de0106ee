package main

import (
	"os"
	"path/filepath"
)

// Per-repository workspace layout, relative to the repository root.
const (
	storeRelPath  = ".rag/index.db"
	statusRelPath = ".llmc/rag_index_status.json"
	graphRelPath  = ".llmc/rag_graph.json"
	configRelPath = ".llmc/config.toml"
)

func storePath(repoRoot string) string  { return filepath.Join(repoRoot, storeRelPath) }
func statusPath(repoRoot string) string { return filepath.Join(repoRoot, statusRelPath) }
func graphPath(repoRoot string) string  { return filepath.Join(repoRoot, graphRelPath) }
func configPath(repoRoot string) string { return filepath.Join(repoRoot, configRelPath) }

// globalDir returns ~/.llmc, creating it if absent.
func globalDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(home, ".llmc")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

func repoRegistryPath() (string, error) {
	dir, err := globalDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "repos.yml"), nil
}

func serviceStatePath() (string, error) {
	dir, err := globalDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "service.json"), nil
}

// resolveRepoRoot resolves the --repo flag to an absolute path without
// opening the store or loading config, for read-only status commands.
func resolveRepoRoot() (string, error) {
	return filepath.Abs(repoRoot)
}
