package bench

import (
	"strings"

	"github.com/samber/lo"
	"go.uber.org/multierr"

	"github.com/benz9527/treebench/lib/infra"
	"github.com/benz9527/treebench/lib/tree"
	"github.com/benz9527/treebench/observability"
	"github.com/benz9527/treebench/xlog"
)

// DatasetFile is one file name shared by the three phase directories.
type DatasetFile struct {
	Name string `json:"name" yaml:"name" mapstructure:"name"`
	Desc string `json:"desc" yaml:"desc" mapstructure:"desc"`
}

type StoreConfig struct {
	// DSN of the sqlite result store, empty disables it.
	DSN string `json:"dsn" yaml:"dsn" mapstructure:"dsn"`
}

type LogConfig struct {
	Level   string               `json:"level" yaml:"level" mapstructure:"level"`
	Encoder string               `json:"encoder" yaml:"encoder" mapstructure:"encoder"`
	File    *xlog.FileCoreConfig `json:"file,omitempty" yaml:"file,omitempty" mapstructure:"file"`
}

type Config struct {
	DataRoot    string        `json:"dataRoot" yaml:"dataRoot" mapstructure:"dataRoot"`
	Sets        []string      `json:"sets" yaml:"sets" mapstructure:"sets"`
	Files       []DatasetFile `json:"files" yaml:"files" mapstructure:"files"`
	Trees       []string      `json:"trees" yaml:"trees" mapstructure:"trees"`
	Verify      bool          `json:"verify" yaml:"verify" mapstructure:"verify"`
	LoadWorkers int           `json:"loadWorkers" yaml:"loadWorkers" mapstructure:"loadWorkers"`
	Metrics     string        `json:"metrics" yaml:"metrics" mapstructure:"metrics"`
	Store       StoreConfig   `json:"store" yaml:"store" mapstructure:"store"`
	Log         LogConfig     `json:"log" yaml:"log" mapstructure:"log"`
}

func DefaultDatasetFiles() []DatasetFile {
	return []DatasetFile{
		{Name: "data_1.txt", Desc: "50K items"},
		{Name: "data_2.txt", Desc: "100K items"},
		{Name: "data_3.txt", Desc: "200K items"},
	}
}

func DefaultConfig() *Config {
	return &Config{
		DataRoot:    "code/data",
		Sets:        []string{"set1", "set2"},
		Files:       DefaultDatasetFiles(),
		Trees:       []string{"bst", "splay", "rbtree"},
		LoadWorkers: 3,
		Metrics:     string(observability.NoneExporter),
		Log: LogConfig{
			Level:   xlog.LogLevelInfo.String(),
			Encoder: "plaintext",
		},
	}
}

// Validate reports every invalid field at once.
func (cfg *Config) Validate() error {
	if cfg == nil {
		return infra.NewErrorStack("[bench] nil config")
	}
	var err error
	if len(strings.TrimSpace(cfg.DataRoot)) == 0 {
		err = multierr.Append(err, infra.NewErrorStack("[bench] empty data root"))
	}
	if len(cfg.Sets) == 0 {
		err = multierr.Append(err, infra.NewErrorStack("[bench] empty dataset sets"))
	}
	for i, set := range cfg.Sets {
		if len(strings.TrimSpace(set)) == 0 {
			err = multierr.Append(err, infra.NewErrorStackf("[bench] dataset set #%d without name", i))
		}
	}
	if len(cfg.Files) == 0 {
		err = multierr.Append(err, infra.NewErrorStack("[bench] empty dataset files"))
	}
	for i, f := range cfg.Files {
		if len(strings.TrimSpace(f.Name)) == 0 {
			err = multierr.Append(err, infra.NewErrorStackf("[bench] dataset file #%d without name", i))
		}
	}
	if len(cfg.Trees) == 0 {
		err = multierr.Append(err, infra.NewErrorStack("[bench] empty tree list"))
	}
	for _, name := range cfg.Trees {
		if _, perr := tree.ParseKind(name); perr != nil {
			err = multierr.Append(err, perr)
		}
	}
	if cfg.LoadWorkers <= 0 {
		err = multierr.Append(err, infra.NewErrorStackf("[bench] non-positive load workers %d", cfg.LoadWorkers))
	}
	if _, perr := observability.ParseMetricsExporterKind(cfg.Metrics); perr != nil {
		err = multierr.Append(err, perr)
	}
	if len(cfg.Log.Encoder) > 0 {
		if _, ok := xlog.ParseLogEncoder(cfg.Log.Encoder); !ok {
			err = multierr.Append(err, infra.NewErrorStackf("[bench] unknown log encoder %q", cfg.Log.Encoder))
		}
	}
	return err
}

// setNames drops the blank set names, a blank name would read the phase
// directories themselves.
func (cfg *Config) setNames() []string {
	return lo.FilterMap(cfg.Sets, func(set string, _ int) (string, bool) {
		set = strings.TrimSpace(set)
		return set, len(set) > 0
	})
}

// Kinds keeps the configured order and drops the repeated names.
// Validate first, unknown names are skipped here.
func (cfg *Config) Kinds() []tree.Kind {
	kinds := make([]tree.Kind, 0, len(cfg.Trees))
	for _, name := range cfg.Trees {
		if k, err := tree.ParseKind(name); err == nil {
			kinds = append(kinds, k)
		}
	}
	return lo.Uniq(kinds)
}
