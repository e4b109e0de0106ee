package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestBuildComponents_DefaultsOnEmptyRepo(t *testing.T) {
	root := t.TempDir()

	comps, err := buildComponents(root)
	if err != nil {
		t.Fatalf("buildComponents: %v", err)
	}
	defer comps.Close()

	if comps.Store == nil {
		t.Fatal("expected a non-nil store")
	}
	if comps.Pipeline == nil || comps.Pipeline.Embedder == nil {
		t.Fatal("expected a wired pipeline with an embedder")
	}
	if comps.Pipeline.Embedder.Name() == "" {
		t.Fatal("expected a named embedding engine")
	}
	if comps.Controller == nil {
		t.Fatal("expected a non-nil sync controller")
	}
	if comps.Controller.EnrichEngine != nil {
		t.Fatal("expected no enrichment engine when no chain is configured")
	}
}

func TestBuildComponents_BadRepoConfigFails(t *testing.T) {
	root := t.TempDir()
	llmcDir := filepath.Join(root, ".llmc")
	if err := os.MkdirAll(llmcDir, 0o755); err != nil {
		t.Fatalf("setup: %v", err)
	}
	if err := os.WriteFile(filepath.Join(llmcDir, "config.toml"), []byte("not valid toml [[["), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}

	if _, err := buildComponents(root); err == nil {
		t.Fatal("expected an error for malformed config")
	}
}
