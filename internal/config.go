package internal

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/tuannm99/novalogic/internal/logictest"
)

const (
	RunnerBuiltin   = "builtin"
	RunnerLogicTest = "logictest"
)

type LogicTestConfig struct {
	Engine         string `mapstructure:"engine"`
	Classifier     string `mapstructure:"classifier"`
	TypeResolution string `mapstructure:"type_resolution"`
	Runner         string `mapstructure:"runner"`

	FailFast    bool `mapstructure:"fail_fast"`
	Verbose     bool `mapstructure:"verbose"`
	StrictTypes bool `mapstructure:"strict_types"`
	Parallel    int  `mapstructure:"parallel"`

	Shell struct {
		HistoryFile string `mapstructure:"history_file"`
		HistoryMax  int    `mapstructure:"history_max"`
	} `mapstructure:"shell"`
}

var defaults = map[string]any{
	"engine":             logictest.EngineNovaSQL,
	"classifier":         string(logictest.ClassifyAuto),
	"type_resolution":    string(logictest.ResolveValues),
	"runner":             RunnerBuiltin,
	"fail_fast":          false,
	"verbose":            false,
	"strict_types":       false,
	"parallel":           1,
	"shell.history_file": "",
	"shell.history_max":  2000,
}

// LoadConfig layers defaults, the optional YAML file at path, NOVALOGIC_*
// environment variables and the flags that were set, in increasing
// priority. Flag names use dashes where keys use underscores.
func LoadConfig(path string, flags *pflag.FlagSet) (*LogicTestConfig, error) {
	v := viper.New()
	for k, d := range defaults {
		v.SetDefault(k, d)
	}

	v.SetEnvPrefix("NOVALOGIC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if flags != nil {
		for k := range defaults {
			f := flags.Lookup(strings.ReplaceAll(strings.TrimPrefix(k, "shell."), "_", "-"))
			if f == nil {
				continue
			}
			if err := v.BindPFlag(k, f); err != nil {
				return nil, fmt.Errorf("bind flag %s: %w", f.Name, err)
			}
		}
	}

	var cfg LogicTestConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *LogicTestConfig) Validate() error {
	switch strings.ToLower(c.Engine) {
	case logictest.EngineNovaSQL, logictest.EngineSQLite:
	default:
		return fmt.Errorf("config: unknown engine %q", c.Engine)
	}
	cl, err := logictest.ParseClassifierMode(c.Classifier)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	res, err := logictest.ParseTypeResolution(c.TypeResolution)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if cl == logictest.ClassifyLexical && res == logictest.ResolveSchema {
		return fmt.Errorf("config: schema type resolution needs the syntactic classifier, not lexical")
	}
	switch c.Runner {
	case RunnerBuiltin, RunnerLogicTest:
	default:
		return fmt.Errorf("config: unknown runner %q (want builtin or logictest)", c.Runner)
	}
	if c.Parallel < 1 {
		return fmt.Errorf("config: parallel must be at least 1, got %d", c.Parallel)
	}
	return nil
}

// AdapterOptions converts a validated config for logictest.Open.
func (c *LogicTestConfig) AdapterOptions(log *logrus.Logger) logictest.Options {
	cl, _ := logictest.ParseClassifierMode(c.Classifier)
	res, _ := logictest.ParseTypeResolution(c.TypeResolution)
	return logictest.Options{Resolution: res, Classifier: cl, Logger: log}
}
