// Package config loads the pipeline settings: a base YAML document, an
// optional environment overlay deep-merged over it, defaults for optional
// keys and validation of required ones.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/scigo-housing/pkg/errors"
	"github.com/YuminosukeSato/scigo-housing/pkg/log"
)

// Config is the typed view of the merged settings tree.
type Config struct {
	Base          Base          `yaml:"base"`
	Data          Data          `yaml:"data"`
	Features      Features      `yaml:"features"`
	Model         Model         `yaml:"model"`
	Visualization Visualization `yaml:"visualization"`
	Output        Output        `yaml:"output"`
	Logging       Logging       `yaml:"logging"`

	// Path は読み込んだベース設定ファイル
	Path string `yaml:"-"`
	// Env は適用したオーバーレイ名（適用しなかった場合は空）
	Env string `yaml:"-"`

	tree map[string]any
}

// Base holds process-wide parameters.
type Base struct {
	Params BaseParams `yaml:"params"`
}

// BaseParams holds the random seed shared by the splitter and the trainer.
type BaseParams struct {
	RandomSeed uint64 `yaml:"random_seed"`
}

// Data locates the raw and processed tables.
type Data struct {
	RawData       string   `yaml:"raw_data"`
	ProcessedData string   `yaml:"processed_data"`
	HeaderLines   int      `yaml:"header_lines"`
	Columns       []string `yaml:"columns"`
	Target        string   `yaml:"target"`
	TestSize      float64  `yaml:"test_size"`
}

// Features selects the feature transforms fitted on the training rows.
type Features struct {
	Impute bool `yaml:"impute"`
	Scale  bool `yaml:"scale"`
}

// Model configures the forest and optional cross-validation.
type Model struct {
	Type       string          `yaml:"type"`
	Parameters ModelParameters `yaml:"parameters"`
	CVFolds    int             `yaml:"cv_folds"`
	Scoring    string          `yaml:"scoring"`
}

// ModelParameters are the forest hyperparameters. MaxDepth nil or <= 0
// means unlimited depth.
type ModelParameters struct {
	NEstimators     int  `yaml:"n_estimators"`
	MaxDepth        *int `yaml:"max_depth"`
	MinSamplesSplit int  `yaml:"min_samples_split"`
	MinSamplesLeaf  int  `yaml:"min_samples_leaf"`
	MaxFeatures     int  `yaml:"max_features"`
	Bootstrap       bool `yaml:"bootstrap"`
}

// Depth returns the configured depth limit, 0 for unlimited.
func (p ModelParameters) Depth() int {
	if p.MaxDepth == nil || *p.MaxDepth <= 0 {
		return 0
	}
	return *p.MaxDepth
}

// Visualization configures the importance chart. FigureSize is
// [width, height] in inches and FontSize is in points.
type Visualization struct {
	FigureSize []float64 `yaml:"figure_size"`
	FontSize   float64   `yaml:"font_size"`
	DPI        float64   `yaml:"dpi"`
	Title      string    `yaml:"title"`
}

// Output is where results, the model and the chart are written.
type Output struct {
	Dir string `yaml:"dir"`
}

// Logging configures the process logger. Debug forces the debug level.
type Logging struct {
	Level string `yaml:"level"`
	Debug bool   `yaml:"debug"`
}

// Scoring names accepted by model.scoring.
const (
	ScoringR2  = "r2"
	ScoringMSE = "neg_mean_squared_error"
)

// requiredKeys must be present in the merged document; a key whose value
// is null still counts as present.
var requiredKeys = []string{
	"base.params.random_seed",
	"data.processed_data",
	"model.parameters",
	"model.parameters.n_estimators",
	"model.parameters.max_depth",
	"visualization.figure_size",
	"visualization.font_size",
}

func defaults() map[string]any {
	return map[string]any{
		"data": map[string]any{
			"raw_data":     "raw_data/boston.txt",
			"header_lines": 22,
			"target":       "MEDV",
			"test_size":    0.2,
		},
		"features": map[string]any{
			"impute": true,
			"scale":  false,
		},
		"model": map[string]any{
			"type":     "random_forest",
			"cv_folds": 0,
			"scoring":  ScoringR2,
			"parameters": map[string]any{
				"min_samples_split": 2,
				"min_samples_leaf":  1,
				"max_features":      0,
				"bootstrap":         true,
			},
		},
		"visualization": map[string]any{
			"dpi":   300,
			"title": "Feature Importance in Random Forest Model",
		},
		"output": map[string]any{
			"dir": "output",
		},
		"logging": map[string]any{
			"level": "info",
			"debug": false,
		},
	}
}

// OverlayPath returns the environment overlay file that accompanies the
// base document at path: <dir(path)>/<env>.yaml.
func OverlayPath(path, env string) string {
	return filepath.Join(filepath.Dir(path), env+".yaml")
}

// Load reads the base document at path and, when env is not empty, deep
// merges <dir(path)>/<env>.yaml over it. A missing overlay is ignored; a
// missing or malformed base document, a malformed overlay, a missing
// required key or an invalid value is a ConfigError.
func Load(path, env string) (*Config, error) {
	logger := log.GetLoggerWithName("config")

	tree, err := readDocument(path, true)
	if err != nil {
		return nil, err
	}

	applied := ""
	if env != "" {
		if strings.ContainsAny(env, `/\`) || env == "." || env == ".." {
			return nil, errors.NewConfigError(path, "env", "invalid environment name "+env, nil)
		}
		overlayPath := OverlayPath(path, env)
		overlay, err := readDocument(overlayPath, false)
		if err != nil {
			return nil, err
		}
		if overlay != nil {
			tree = Merge(tree, overlay)
			applied = env
			logger.Debug("Environment overlay applied", log.EnvKey, env, log.PathKey, overlayPath)
		} else {
			logger.Debug("Environment overlay not found, using base configuration",
				log.EnvKey, env, log.PathKey, overlayPath)
		}
	}

	cfg, err := FromTree(tree, path)
	if err != nil {
		return nil, err
	}
	cfg.Env = applied

	logger.Info("Configuration loaded",
		log.ConfigPathKey, path,
		log.EnvKey, applied,
		log.RandomSeedKey, cfg.Base.Params.RandomSeed,
	)
	return cfg, nil
}

// FromTree validates an already merged settings tree, fills in defaults and
// decodes it. path is only used in error messages.
func FromTree(tree map[string]any, path string) (*Config, error) {
	for _, key := range requiredKeys {
		if _, ok := lookup(tree, key); !ok {
			return nil, errors.NewConfigError(path, key, "required key is missing", nil)
		}
	}

	merged := Merge(defaults(), tree)

	var node yaml.Node
	if err := node.Encode(merged); err != nil {
		return nil, errors.NewConfigError(path, "", "cannot re-encode settings", err)
	}
	cfg := &Config{}
	if err := node.Decode(cfg); err != nil {
		return nil, errors.NewConfigError(path, "", "settings do not match the expected types", err)
	}
	cfg.Path = path
	cfg.tree = merged

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Lookup returns the value at a dotted path of the merged tree, defaults
// included.
func (c *Config) Lookup(path string) (any, bool) {
	return lookup(c.tree, path)
}

// LogLevel returns the effective log level name.
func (c *Config) LogLevel() string {
	if c.Logging.Debug {
		return "debug"
	}
	return c.Logging.Level
}

// Validate checks value ranges after defaults have been applied.
func (c *Config) Validate() error {
	fail := func(key, reason string) error {
		return errors.NewConfigError(c.Path, key, reason, nil)
	}

	p := c.Model.Parameters
	switch {
	case c.Data.ProcessedData == "":
		return fail("data.processed_data", "must not be empty")
	case c.Data.Target == "":
		return fail("data.target", "must not be empty")
	case c.Data.HeaderLines < 1:
		return fail("data.header_lines", "must be at least 1")
	case !(c.Data.TestSize > 0 && c.Data.TestSize < 1):
		return fail("data.test_size", "must be in (0, 1)")
	case p.NEstimators < 1:
		return fail("model.parameters.n_estimators", "must be at least 1")
	case p.MinSamplesSplit < 2:
		return fail("model.parameters.min_samples_split", "must be at least 2")
	case p.MinSamplesLeaf < 1:
		return fail("model.parameters.min_samples_leaf", "must be at least 1")
	case p.MaxFeatures < 0:
		return fail("model.parameters.max_features", "must not be negative")
	case c.Model.CVFolds != 0 && c.Model.CVFolds < 2:
		return fail("model.cv_folds", "must be 0 (disabled) or at least 2")
	case c.Model.Scoring != ScoringR2 && c.Model.Scoring != ScoringMSE:
		return fail("model.scoring", "must be "+ScoringR2+" or "+ScoringMSE)
	case len(c.Visualization.FigureSize) != 2 ||
		c.Visualization.FigureSize[0] <= 0 || c.Visualization.FigureSize[1] <= 0:
		return fail("visualization.figure_size", "must be two positive numbers [width, height]")
	case c.Visualization.FontSize <= 2:
		return fail("visualization.font_size", "must be greater than 2")
	case c.Visualization.DPI <= 0:
		return fail("visualization.dpi", "must be positive")
	case c.Output.Dir == "":
		return fail("output.dir", "must not be empty")
	}

	if c.Data.Columns != nil {
		idx := -1
		for i, name := range c.Data.Columns {
			if name == c.Data.Target {
				idx = i
			}
		}
		if idx < 0 {
			return fail("data.columns", "must contain the target column "+c.Data.Target)
		}
	}
	if _, err := log.ToLogLevel(c.Logging.Level); err != nil {
		return errors.NewConfigError(c.Path, "logging.level", "unknown level", err)
	}
	return nil
}

// readDocument parses one YAML document into a tree. When required is
// false a missing file yields (nil, nil).
func readDocument(path string, required bool) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !required && os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.NewConfigError(path, "", "cannot read settings document", err)
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.NewConfigError(path, "", "malformed YAML", err)
	}
	if doc == nil {
		if required {
			return nil, errors.NewConfigError(path, "", "settings document is empty", nil)
		}
		return map[string]any{}, nil
	}
	tree, ok := normalize(doc).(map[string]any)
	if !ok {
		return nil, errors.NewConfigError(path, "", "top level must be a mapping", nil)
	}
	return tree, nil
}
