package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/spf13/viper"

	"github.com/phonlab/tgpipe/textgrid"
)

type Pipeline struct {
	Name      string `mapstructure:"name" yaml:"name"`
	Version   string `mapstructure:"version" yaml:"version"`
	LogLvl    string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`
}
type Extract struct {
	Tier               string   `mapstructure:"tier" yaml:"tier"`
	Mode               string   `mapstructure:"mode" yaml:"mode"`
	ValueField         string   `mapstructure:"value_field" yaml:"value_field"`
	BareSymbolMaxRunes int      `mapstructure:"bare_symbol_max_runes" yaml:"bare_symbol_max_runes"`
	Encodings          []string `mapstructure:"encodings" yaml:"encodings"`
}
type Batch struct {
	Pattern    string `mapstructure:"pattern" yaml:"pattern"`
	Workers    int    `mapstructure:"workers" yaml:"workers"`
	DropAbsent bool   `mapstructure:"drop_absent" yaml:"drop_absent"`
}
type Classify struct {
	StripFirstFallback bool                         `mapstructure:"strip_first_fallback" yaml:"strip_first_fallback"`
	Tables             map[string]map[string]string `mapstructure:"tables" yaml:"tables"`
	TablesFile         string                       `mapstructure:"tables_file" yaml:"tables_file"`
}
type Stats struct {
	GroupBy   []string `mapstructure:"group_by" yaml:"group_by"`
	Precision int      `mapstructure:"precision" yaml:"precision"`
}
type Root struct {
	Pipeline Pipeline `mapstructure:"pipeline" yaml:"pipeline"`
	Extract  Extract  `mapstructure:"extract" yaml:"extract"`
	Batch    Batch    `mapstructure:"batch" yaml:"batch"`
	Classify Classify `mapstructure:"classify" yaml:"classify"`
	Stats    Stats    `mapstructure:"stats" yaml:"stats"`
	Paths    struct {
		Data    string `mapstructure:"data" yaml:"data"`
		Outputs string `mapstructure:"outputs" yaml:"outputs"`
	} `mapstructure:"paths" yaml:"paths"`
}

const EnvPrefix = "TGPIPE"

func SetDefaults(v *viper.Viper) {
	v.SetDefault("pipeline.name", "tgpipe")
	v.SetDefault("pipeline.version", "0.1.0")
	v.SetDefault("pipeline.log_level", "info")
	v.SetDefault("pipeline.log_format", "text")
	v.SetDefault("extract.tier", "VOT")
	v.SetDefault("extract.mode", "single")
	v.SetDefault("extract.value_field", textgrid.DefaultValueField)
	v.SetDefault("extract.bare_symbol_max_runes", 5)
	v.SetDefault("extract.encodings", []string{"utf-8", "utf-16"})
	v.SetDefault("batch.pattern", `(?i)^\d+_[a-zA-Z_]+\.TextGrid$`)
	v.SetDefault("batch.workers", 4)
	v.SetDefault("batch.drop_absent", true)
	v.SetDefault("classify.strip_first_fallback", false)
	v.SetDefault("stats.group_by", []string{"symbol"})
	v.SetDefault("stats.precision", 2)
	v.SetDefault("paths.data", "data")
	v.SetDefault("paths.outputs", "outputs")
}

// New returns a viper instance with defaults and TGPIPE_ environment
// overrides registered. Flags may be bound to it before Load.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the configuration. An explicit file must exist; otherwise the
// CONFIG_ENV guesses are tried and defaults are used when none is present.
func Load(v *viper.Viper, file string) (*Root, error) {
	if v == nil {
		v = New()
	}
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	} else {
		env := os.Getenv("CONFIG_ENV")
		if env == "" {
			env = "dev"
		}
		var guess []string = []string{
			filepath.Join("config", env, "config.yaml"),
			filepath.Join("src", "shared", "config.yaml"),
		}
		for _, p := range guess {
			if _, err := os.Stat(p); err != nil {
				continue
			}
			v.SetConfigFile(p)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config %s: %w", p, err)
			}
			break
		}
	}

	var cfg Root
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Classify.TablesFile != "" {
		tables, err := LoadTables(cfg.Classify.TablesFile)
		if err != nil {
			return nil, err
		}
		cfg.Classify.Tables = mergeTables(cfg.Classify.Tables, tables)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Root) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Extract.Tier) == "" {
		errs = append(errs, errors.New("extract.tier is empty"))
	}
	if _, err := textgrid.ParseMode(c.Extract.Mode); err != nil {
		errs = append(errs, fmt.Errorf("extract.mode: %w", err))
	}
	if c.Extract.BareSymbolMaxRunes < 0 {
		errs = append(errs, errors.New("extract.bare_symbol_max_runes must not be negative"))
	}
	if _, err := textgrid.NewDecoder(c.Extract.Encodings...); err != nil {
		errs = append(errs, fmt.Errorf("extract.encodings: %w", err))
	}
	if c.Batch.Workers <= 0 {
		errs = append(errs, fmt.Errorf("batch.workers must be positive, got %d", c.Batch.Workers))
	}
	if _, err := regexp.Compile(c.Batch.Pattern); err != nil {
		errs = append(errs, fmt.Errorf("batch.pattern: %w", err))
	}
	if c.Stats.Precision < 0 {
		errs = append(errs, errors.New("stats.precision must not be negative"))
	}
	for name := range c.Classify.Tables {
		if name == "" || strings.ContainsAny(name, `:\/?*[]`) || utf8.RuneCountInString(name) > 31 {
			errs = append(errs, fmt.Errorf("classify.tables: %q is not a usable worksheet name", name))
		}
	}
	for _, g := range c.Stats.GroupBy {
		if g == "symbol" {
			continue
		}
		if _, ok := c.Classify.Tables[g]; !ok {
			errs = append(errs, fmt.Errorf("stats.group_by: no classification table %q", g))
		}
	}
	return errors.Join(errs...)
}

// Options converts the extract section into extractor options.
func (c *Root) Options() textgrid.Options {
	mode, _ := textgrid.ParseMode(c.Extract.Mode)
	return textgrid.Options{
		Mode:               mode,
		ValueField:         c.Extract.ValueField,
		BareSymbolMaxRunes: c.Extract.BareSymbolMaxRunes,
	}
}
