// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the single typed configuration of a run. It is loaded from a
// JSON or YAML file, merged with Defaults and validated once at startup.
type Config struct {
	Workers      int      `json:"workers,omitempty" yaml:"workers,omitempty" validate:"gte=1,lte=8"`
	MaxCompanies int      `json:"max_companies,omitempty" yaml:"max_companies,omitempty" validate:"gte=0"`
	RunDeadline  Duration `json:"run_deadline,omitempty" yaml:"run_deadline,omitempty" validate:"gte=0"`
	LogLevel     string   `json:"log_level,omitempty" yaml:"log_level,omitempty" validate:"omitempty,oneof=debug info warn warning error"`
	DatabaseURL  string   `json:"database_url,omitempty" yaml:"database_url,omitempty"`

	Robots     RobotsConfig     `json:"robots" yaml:"robots"`
	Fetch      FetchConfig      `json:"fetch" yaml:"fetch"`
	Crawl      CrawlConfig      `json:"crawl" yaml:"crawl"`
	Budgets    BudgetConfig     `json:"budgets" yaml:"budgets"`
	Classifier ClassifierConfig `json:"classifier" yaml:"classifier"`
	Inference  InferenceConfig  `json:"inference" yaml:"inference"`
	Resolver   ResolverConfig   `json:"resolver" yaml:"resolver"`
	Snapshots  SnapshotConfig   `json:"snapshots" yaml:"snapshots"`
	Output     OutputConfig     `json:"output" yaml:"output"`
}

// RobotsConfig controls robots directive handling.
type RobotsConfig struct {
	Mode      string   `json:"mode,omitempty" yaml:"mode,omitempty" validate:"omitempty,oneof=strict allowlist"`
	Allowlist []string `json:"allowlist,omitempty" yaml:"allowlist,omitempty"`
	Timeout   Duration `json:"timeout,omitempty" yaml:"timeout,omitempty" validate:"gte=0"`
}

// FetchConfig controls HTTP requests.
type FetchConfig struct {
	Timeout      Duration `json:"timeout,omitempty" yaml:"timeout,omitempty" validate:"gte=0"`
	UserAgent    string   `json:"user_agent,omitempty" yaml:"user_agent,omitempty"`
	MaxBytes     int64    `json:"max_bytes,omitempty" yaml:"max_bytes,omitempty" validate:"gte=0"`
	MaxTextChars int      `json:"max_text_chars,omitempty" yaml:"max_text_chars,omitempty" validate:"gte=0"`
	MinDelay     Duration `json:"min_delay,omitempty" yaml:"min_delay,omitempty" validate:"gte=0"`
}

// CrawlConfig controls page selection.
type CrawlConfig struct {
	MaxPagesPerCompany int      `json:"max_pages_per_company,omitempty" yaml:"max_pages_per_company,omitempty" validate:"gte=0,lte=2"`
	CareersHints       []string `json:"careers_hints,omitempty" yaml:"careers_hints,omitempty"`
	UseBrowser         bool     `json:"use_browser,omitempty" yaml:"use_browser,omitempty"`
	BrowserTimeout     Duration `json:"browser_timeout,omitempty" yaml:"browser_timeout,omitempty" validate:"gte=0"`
}

// BudgetConfig caps the run's footprint. Zero disables a cap.
type BudgetConfig struct {
	MaxDomains        int `json:"max_domains,omitempty" yaml:"max_domains,omitempty" validate:"gte=0"`
	MaxPagesPerDomain int `json:"max_pages_per_domain,omitempty" yaml:"max_pages_per_domain,omitempty" validate:"gte=0"`
}

// ScoringConfig parameterizes confidence.
type ScoringConfig struct {
	Base              float64            `json:"base,omitempty" yaml:"base,omitempty" validate:"gte=0,lte=1"`
	PerCitation       float64            `json:"per_citation,omitempty" yaml:"per_citation,omitempty" validate:"gte=0,lte=1"`
	AgreementBonus    float64            `json:"agreement_bonus,omitempty" yaml:"agreement_bonus,omitempty" validate:"gte=0,lte=1"`
	Max               float64            `json:"max,omitempty" yaml:"max,omitempty" validate:"gte=0,lte=1"`
	SourceMultipliers map[string]float64 `json:"source_multipliers,omitempty" yaml:"source_multipliers,omitempty" validate:"dive,keys,oneof=user places inferred_search unknown,endkeys,gte=0,lte=1"`
}

// ClassifierConfig holds the vocabulary and scoring of the classifier.
type ClassifierConfig struct {
	PositivePhrases    []string      `json:"positive_phrases,omitempty" yaml:"positive_phrases,omitempty"`
	NegativePhrases    []string      `json:"negative_phrases,omitempty" yaml:"negative_phrases,omitempty"`
	Scoring            ScoringConfig `json:"scoring" yaml:"scoring"`
	SnippetWindow      int           `json:"snippet_window,omitempty" yaml:"snippet_window,omitempty" validate:"gte=0"`
	MaxSnippetsPerPage int           `json:"max_snippets_per_page,omitempty" yaml:"max_snippets_per_page,omitempty" validate:"gte=0"`
	MaxExcerptChars    int           `json:"max_excerpt_chars,omitempty" yaml:"max_excerpt_chars,omitempty" validate:"gte=0"`
}

// InferenceConfig configures the fallback model.
type InferenceConfig struct {
	Enabled       bool     `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	Required      bool     `json:"required,omitempty" yaml:"required,omitempty"`
	Provider      string   `json:"provider,omitempty" yaml:"provider,omitempty" validate:"omitempty,oneof=ollama gemini"`
	Host          string   `json:"host,omitempty" yaml:"host,omitempty" validate:"omitempty,url"`
	Model         string   `json:"model,omitempty" yaml:"model,omitempty"`
	Temperature   float64  `json:"temperature,omitempty" yaml:"temperature,omitempty" validate:"gte=0,lte=2"`
	NumPredict    int      `json:"num_predict,omitempty" yaml:"num_predict,omitempty" validate:"gte=0"`
	Timeout       Duration `json:"timeout,omitempty" yaml:"timeout,omitempty" validate:"gte=0"`
	Deterministic bool     `json:"deterministic,omitempty" yaml:"deterministic,omitempty"`
	APIKey        string   `json:"-" yaml:"-"`
}

// ResolverConfig configures the website resolver ladder.
type ResolverConfig struct {
	AllowInferred bool   `json:"allow_inferred,omitempty" yaml:"allow_inferred,omitempty"`
	DomainMap     string `json:"domain_map,omitempty" yaml:"domain_map,omitempty"`
	UseDatabase   bool   `json:"use_database,omitempty" yaml:"use_database,omitempty"`
}

// SnapshotConfig selects where job snapshots are kept between runs.
type SnapshotConfig struct {
	Backend    string `json:"backend,omitempty" yaml:"backend,omitempty" validate:"omitempty,oneof=none file postgres mongo"`
	Dir        string `json:"dir,omitempty" yaml:"dir,omitempty"`
	MongoURI   string `json:"mongo_uri,omitempty" yaml:"mongo_uri,omitempty"`
	Database   string `json:"database,omitempty" yaml:"database,omitempty"`
	Collection string `json:"collection,omitempty" yaml:"collection,omitempty"`
}

// OutputConfig controls what the run writes.
type OutputConfig struct {
	Format     string `json:"format,omitempty" yaml:"format,omitempty" validate:"omitempty,oneof=jsonl csv"`
	Path       string `json:"path,omitempty" yaml:"path,omitempty"`
	DossierDir string `json:"dossier_dir,omitempty" yaml:"dossier_dir,omitempty"`
	Verbose    bool   `json:"verbose,omitempty" yaml:"verbose,omitempty"`
}

// LoadConfig loads configuration from a JSON or YAML file, chosen by extension.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	}

	return &cfg, nil
}

// Defaults returns the configuration used when neither the file nor flags
// set a value.
func Defaults() Config {
	return Config{
		Workers:  2,
		LogLevel: "info",
		Robots: RobotsConfig{
			Mode:    "strict",
			Timeout: Duration(10 * time.Second),
		},
		Fetch: FetchConfig{
			Timeout:      Duration(20 * time.Second),
			UserAgent:    "hiring-signal/0.1 (+polite; robots-aware)",
			MaxBytes:     2_000_000,
			MaxTextChars: 6000,
			MinDelay:     Duration(time.Second),
		},
		Crawl: CrawlConfig{
			MaxPagesPerCompany: 2,
			BrowserTimeout:     Duration(30 * time.Second),
		},
		Budgets: BudgetConfig{
			MaxPagesPerDomain: 20,
		},
		Classifier: ClassifierConfig{
			Scoring: ScoringConfig{
				Base:           0.6,
				PerCitation:    0.05,
				AgreementBonus: 0.15,
				Max:            0.95,
				SourceMultipliers: map[string]float64{
					"user":            1.0,
					"places":          0.95,
					"inferred_search": 0.75,
				},
			},
			SnippetWindow:      80,
			MaxSnippetsPerPage: 3,
			MaxExcerptChars:    2000,
		},
		Inference: InferenceConfig{
			Provider:    "ollama",
			Temperature: 0.1,
			NumPredict:  512,
			Timeout:     Duration(90 * time.Second),
		},
		Snapshots: SnapshotConfig{
			Backend:    "none",
			Database:   "hiring_signal",
			Collection: "job_snapshots",
		},
		Output: OutputConfig{
			Format: "jsonl",
		},
	}
}

// MergeWithDefaults returns a new Config with zero fields filled from defaults.
// Bool fields cannot distinguish unset from false and are left as they are.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.Workers == 0 {
		result.Workers = defaults.Workers
	}
	if result.MaxCompanies == 0 {
		result.MaxCompanies = defaults.MaxCompanies
	}
	if result.RunDeadline == 0 {
		result.RunDeadline = defaults.RunDeadline
	}
	result.LogLevel = orString(result.LogLevel, defaults.LogLevel)
	result.DatabaseURL = orString(result.DatabaseURL, defaults.DatabaseURL)

	r, d := &result.Robots, defaults.Robots
	r.Mode = orString(r.Mode, d.Mode)
	if len(r.Allowlist) == 0 {
		r.Allowlist = d.Allowlist
	}
	r.Timeout = orDuration(r.Timeout, d.Timeout)

	f, fd := &result.Fetch, defaults.Fetch
	f.Timeout = orDuration(f.Timeout, fd.Timeout)
	f.UserAgent = orString(f.UserAgent, fd.UserAgent)
	if f.MaxBytes == 0 {
		f.MaxBytes = fd.MaxBytes
	}
	f.MaxTextChars = orInt(f.MaxTextChars, fd.MaxTextChars)
	f.MinDelay = orDuration(f.MinDelay, fd.MinDelay)

	cr, cd := &result.Crawl, defaults.Crawl
	cr.MaxPagesPerCompany = orInt(cr.MaxPagesPerCompany, cd.MaxPagesPerCompany)
	if len(cr.CareersHints) == 0 {
		cr.CareersHints = cd.CareersHints
	}
	cr.BrowserTimeout = orDuration(cr.BrowserTimeout, cd.BrowserTimeout)

	result.Budgets.MaxDomains = orInt(result.Budgets.MaxDomains, defaults.Budgets.MaxDomains)
	result.Budgets.MaxPagesPerDomain = orInt(result.Budgets.MaxPagesPerDomain, defaults.Budgets.MaxPagesPerDomain)

	cl, cld := &result.Classifier, defaults.Classifier
	if len(cl.PositivePhrases) == 0 {
		cl.PositivePhrases = cld.PositivePhrases
	}
	if len(cl.NegativePhrases) == 0 {
		cl.NegativePhrases = cld.NegativePhrases
	}
	if cl.Scoring.Max == 0 {
		cl.Scoring = cld.Scoring
	} else if len(cl.Scoring.SourceMultipliers) == 0 {
		cl.Scoring.SourceMultipliers = cld.Scoring.SourceMultipliers
	}
	cl.SnippetWindow = orInt(cl.SnippetWindow, cld.SnippetWindow)
	cl.MaxSnippetsPerPage = orInt(cl.MaxSnippetsPerPage, cld.MaxSnippetsPerPage)
	cl.MaxExcerptChars = orInt(cl.MaxExcerptChars, cld.MaxExcerptChars)

	in, ind := &result.Inference, defaults.Inference
	in.Provider = orString(in.Provider, ind.Provider)
	in.Host = orString(in.Host, ind.Host)
	in.Model = orString(in.Model, ind.Model)
	if in.Temperature == 0 {
		in.Temperature = ind.Temperature
	}
	in.NumPredict = orInt(in.NumPredict, ind.NumPredict)
	in.Timeout = orDuration(in.Timeout, ind.Timeout)
	in.APIKey = orString(in.APIKey, ind.APIKey)

	result.Resolver.DomainMap = orString(result.Resolver.DomainMap, defaults.Resolver.DomainMap)

	s, sd := &result.Snapshots, defaults.Snapshots
	s.Backend = orString(s.Backend, sd.Backend)
	s.Dir = orString(s.Dir, sd.Dir)
	s.MongoURI = orString(s.MongoURI, sd.MongoURI)
	s.Database = orString(s.Database, sd.Database)
	s.Collection = orString(s.Collection, sd.Collection)

	o, od := &result.Output, defaults.Output
	o.Format = orString(o.Format, od.Format)
	o.Path = orString(o.Path, od.Path)
	o.DossierDir = orString(o.DossierDir, od.DossierDir)

	return result
}

// ApplyEnv fills connection settings and secrets from the environment.
// Values already set in the file take precedence, except secrets which are
// never read from files.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("OLLAMA_HOST"); v != "" && c.Inference.Host == "" {
		if !strings.Contains(v, "://") {
			v = "http://" + v
		}
		c.Inference.Host = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.Inference.APIKey = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" && c.DatabaseURL == "" {
		c.DatabaseURL = v
	}
	if v := os.Getenv("MONGO_URI"); v != "" && c.Snapshots.MongoURI == "" {
		c.Snapshots.MongoURI = v
	}
	if v := os.Getenv("HIRING_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
}

func orString(v, d string) string {
	if v == "" {
		return d
	}
	return v
}

func orInt(v, d int) int {
	if v == 0 {
		return d
	}
	return v
}

func orDuration(v, d Duration) Duration {
	if v == 0 {
		return d
	}
	return v
}
