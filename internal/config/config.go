// Package config loads per-repository TOML configuration and the
// global registries under ~/.llmc (repos.yml as YAML, service.json as
// JSON). Configuration is re-read at the top
// of every sync cycle rather than cached process-wide, so operator edits to
// enrichment chains, routing weights, or path weights take effect without a
// restart.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/llmc/ragcore/internal/logging"
	"github.com/llmc/ragcore/internal/ragerr"
)

// Domain selects the extractor profile and default retrieval weights.
type Domain string

const (
	DomainCode     Domain = "code"
	DomainTechDocs Domain = "tech_docs"
	DomainLegal    Domain = "legal"
	DomainMedical  Domain = "medical"
	DomainMixed    Domain = "mixed"
)

// RepositoryConfig is the [repository] section.
type RepositoryConfig struct {
	Domain Domain `toml:"domain"`
}

// EnrichmentConfig is the [enrichment] section, minus the chain array which
// is carried separately as ChainEntry (TOML array-of-tables).
type EnrichmentConfig struct {
	DefaultChain            string  `toml:"default_chain"`
	BatchSize                int     `toml:"batch_size"`
	MaxFailuresPerSpan       int     `toml:"max_failures_per_span"`
	EnforceLatin1Enrichment bool    `toml:"enforce_latin1_enrichment"`
	VacuumIntervalHours      int     `toml:"vacuum_interval_hours"`
	FuzzyReuseEnabled        bool    `toml:"fuzzy_reuse_enabled"`
	DailyCostCapUSD          float64 `toml:"daily_cost_cap_usd"`
	PathWeights              map[string]int `toml:"path_weights"`
}

// ChainEntry is one [[enrichment.chain]] table; cascade order is definition order.
type ChainEntry struct {
	Name           string `toml:"name"`
	Chain          string `toml:"chain"`
	Provider       string `toml:"provider"`
	Model          string `toml:"model"`
	URL            string `toml:"url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	Enabled        bool   `toml:"enabled"`
}

// EmbeddingsConfig is the [embeddings] section.
type EmbeddingsConfig struct {
	Provider string                      `toml:"provider"`
	Model    string                      `toml:"model"`
	Dim      int                         `toml:"dim"`
	Profiles map[string]EmbeddingProfile `toml:"profiles"`
}

// EmbeddingProfile overrides model/dim for a named profile.
type EmbeddingProfile struct {
	Model string `toml:"model"`
	Dim   int    `toml:"dim"`
}

// RoutingMode selects how an enrichment span's starting tier is chosen.
type RoutingMode string

const (
	RoutingHeuristic RoutingMode = "heuristic"
	RoutingOverride  RoutingMode = "override"
)

// RoutingConfig is the [routing] section.
type RoutingConfig struct {
	Mode             RoutingMode        `toml:"mode"`
	OperatorOverride string             `toml:"operator_override"`
	Weights          map[string]float64 `toml:"weights"`
}

// DaemonMode selects event-driven vs. polling sync.
type DaemonMode string

const (
	DaemonEvent DaemonMode = "event"
	DaemonPoll  DaemonMode = "poll"
)

// DaemonConfig is the [daemon] section.
type DaemonConfig struct {
	Mode             DaemonMode `toml:"mode"`
	TickIntervalSec   int        `toml:"tick_interval"`
	DebounceSeconds   int        `toml:"debounce_seconds"`
	Concurrency       int        `toml:"concurrency"`
	IdleBackoffBase   float64    `toml:"idle_backoff_base"`
	IdleBackoffMaxSec int        `toml:"idle_backoff_max"`
}

// Config is one repository's full TOML configuration.
type Config struct {
	Repository RepositoryConfig `toml:"repository"`
	Enrichment EnrichmentConfig `toml:"enrichment"`
	Chain      []ChainEntry     `toml:"-"` // populated from enrichment.chain after decode
	Embeddings EmbeddingsConfig `toml:"embeddings"`
	Routing    RoutingConfig    `toml:"routing"`
	Daemon     DaemonConfig     `toml:"daemon"`
}

// rawConfig mirrors Config but with Chain in its TOML-native position nested
// under enrichment, since go-toml requires [[enrichment.chain]] to decode
// into a field on EnrichmentConfig itself.
type rawConfig struct {
	Repository RepositoryConfig `toml:"repository"`
	Enrichment struct {
		EnrichmentConfig
		Chain []ChainEntry `toml:"chain"`
	} `toml:"enrichment"`
	Embeddings EmbeddingsConfig `toml:"embeddings"`
	Routing    RoutingConfig    `toml:"routing"`
	Daemon     DaemonConfig     `toml:"daemon"`
}

// Default returns the default configuration, applied before parsing a file
// so missing sections fall back sanely.
func Default() *Config {
	return &Config{
		Repository: RepositoryConfig{Domain: DomainCode},
		Enrichment: EnrichmentConfig{
			DefaultChain:       "default",
			BatchSize:          16,
			MaxFailuresPerSpan: 3,
			VacuumIntervalHours: 24,
			DailyCostCapUSD:    5.0,
			PathWeights:        map[string]int{},
		},
		Embeddings: EmbeddingsConfig{
			Provider: "ollama",
			Model:    "nomic-embed-text",
			Dim:      768,
		},
		Routing: RoutingConfig{
			Mode:    RoutingHeuristic,
			Weights: map[string]float64{"lexical": 0.6, "dense": 0.4},
		},
		Daemon: DaemonConfig{
			Mode:              DaemonEvent,
			TickIntervalSec:   30,
			DebounceSeconds:   2,
			Concurrency:       4,
			IdleBackoffBase:   2.0,
			IdleBackoffMaxSec: 300,
		},
	}
}

// Load reads and parses a repository's TOML config file. A missing file is
// not an error: defaults are returned so a repository can be registered
// before it has been hand-configured.
func Load(path string) (*Config, error) {
	log := logging.For(logging.CategoryConfig)
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Infow("config file not found, using defaults", "path", path)
			return cfg, nil
		}
		return nil, ragerr.Config("failed to read config file", err)
	}

	var raw rawConfig
	raw.Repository = cfg.Repository
	raw.Enrichment.EnrichmentConfig = cfg.Enrichment
	raw.Embeddings = cfg.Embeddings
	raw.Routing = cfg.Routing
	raw.Daemon = cfg.Daemon

	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, ragerr.Config("failed to parse config file", err)
	}

	cfg.Repository = raw.Repository
	cfg.Enrichment = raw.Enrichment.EnrichmentConfig
	cfg.Chain = raw.Enrichment.Chain
	cfg.Embeddings = raw.Embeddings
	cfg.Routing = raw.Routing
	cfg.Daemon = raw.Daemon

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log.Infow("config loaded", "path", path, "domain", cfg.Repository.Domain, "chain_len", len(cfg.Chain))
	return cfg, nil
}

// Validate rejects configurations that would leave the engine with no way
// to make progress.
func (c *Config) Validate() error {
	switch c.Repository.Domain {
	case DomainCode, DomainTechDocs, DomainLegal, DomainMedical, DomainMixed:
	default:
		return ragerr.Config(fmt.Sprintf("invalid repository domain: %q", c.Repository.Domain), nil)
	}
	switch c.Routing.Mode {
	case RoutingHeuristic, RoutingOverride:
	default:
		return ragerr.Config(fmt.Sprintf("invalid routing mode: %q", c.Routing.Mode), nil)
	}
	if c.Routing.Mode == RoutingOverride && c.Routing.OperatorOverride == "" {
		return ragerr.Config("routing.mode=override requires routing.operator_override", nil)
	}
	switch c.Daemon.Mode {
	case DaemonEvent, DaemonPoll:
	default:
		return ragerr.Config(fmt.Sprintf("invalid daemon mode: %q", c.Daemon.Mode), nil)
	}
	if c.Enrichment.MaxFailuresPerSpan <= 0 {
		return ragerr.Config("enrichment.max_failures_per_span must be positive", nil)
	}
	return nil
}

// DebounceDuration returns the daemon's debounce window as a time.Duration.
func (c *Config) DebounceDuration() time.Duration {
	return time.Duration(c.Daemon.DebounceSeconds) * time.Second
}

// TickInterval returns the daemon's poll-mode base tick as a time.Duration.
func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.Daemon.TickIntervalSec) * time.Second
}

// IdleBackoffMax returns the poll-mode backoff ceiling as a time.Duration.
func (c *Config) IdleBackoffMax() time.Duration {
	return time.Duration(c.Daemon.IdleBackoffMaxSec) * time.Second
}

// PathWeight returns the matching path weight for rel, or 0 if no pattern
// in [enrichment.path_weights] matches. Patterns are shell-style globs in
// which "*" also matches "/". When several patterns match, the highest
// weight (the lowest priority) wins.
func (c *Config) PathWeight(rel string) int {
	best := 0
	for pattern, weight := range c.Enrichment.PathWeights {
		expr := regexp.QuoteMeta(pattern)
		expr = strings.ReplaceAll(expr, `\*`, ".*")
		expr = strings.ReplaceAll(expr, `\?`, ".")
		ok, err := regexp.MatchString("^"+expr+"$", rel)
		if err != nil || !ok {
			continue
		}
		if weight > best {
			best = weight
		}
	}
	return best
}

// RepoRegistryEntry is one repository entry in ~/.llmc/repos.yml.
type RepoRegistryEntry struct {
	Name       string `yaml:"name"`
	Root       string `yaml:"root"`
	ConfigPath string `yaml:"config_path"`
}

// RepoRegistry is the parsed ~/.llmc/repos.yml.
type RepoRegistry struct {
	Repositories []RepoRegistryEntry `yaml:"repositories"`
}

// LoadRepoRegistry reads the global repository registry.
func LoadRepoRegistry(path string) (*RepoRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &RepoRegistry{}, nil
		}
		return nil, ragerr.Config("failed to read repository registry", err)
	}
	var reg RepoRegistry
	if err := yaml.Unmarshal(data, &reg); err != nil {
		return nil, ragerr.Config("failed to parse repository registry", err)
	}
	return &reg, nil
}

// Save writes the registry back, e.g. after `ragd repo add`.
func (r *RepoRegistry) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return ragerr.Config("failed to create registry directory", err)
	}
	data, err := yaml.Marshal(r)
	if err != nil {
		return ragerr.Config("failed to marshal repository registry", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ManagedRepo is one entry in ~/.llmc/service.json's managed-repos list.
type ManagedRepo struct {
	Name string     `json:"name"`
	PID  int        `json:"pid"`
	Mode DaemonMode `json:"mode"`
}

// ServiceState is the parsed ~/.llmc/service.json.
type ServiceState struct {
	ManagedRepos []ManagedRepo `json:"managed_repos"`
}

// LoadServiceState reads the global service state file.
func LoadServiceState(path string) (*ServiceState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &ServiceState{}, nil
		}
		return nil, ragerr.Config("failed to read service state", err)
	}
	var st ServiceState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, ragerr.Config("failed to parse service state", err)
	}
	return &st, nil
}

// Save writes the service state back.
func (s *ServiceState) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return ragerr.Config("failed to create service state directory", err)
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return ragerr.Config("failed to marshal service state", err)
	}
	return os.WriteFile(path, data, 0o644)
}
