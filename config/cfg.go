package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v3"

	"github.com/rupor-github/gencfg"
)

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

type (
	Px2RemConfig struct {
		RootValue  float64 `yaml:"root_value" validate:"gt=0"`
		Precision  int     `yaml:"precision" validate:"gte=0"`
		MediaQuery bool    `yaml:"media_query"`
	}

	EngineConfig struct {
		HashPriority   string            `yaml:"hash_priority" validate:"oneof=low high"`
		AutoClear      bool              `yaml:"auto_clear"`
		Layer          bool              `yaml:"layer"`
		Dev            bool              `yaml:"dev"`
		TokenThreshold int               `yaml:"token_threshold" validate:"gte=0"`
		SSRInline      bool              `yaml:"ssr_inline"`
		Container      string            `yaml:"container"`
		Transformers   []TransformerName `yaml:"transformers" validate:"dive,oneof=logical px2rem"`
		Linters        []string          `yaml:"linters" validate:"dive,oneof=content-quotes hashed-animation legacy-not-selector logical-properties nan parent-selector"`
		Px2Rem         Px2RemConfig      `yaml:"px2rem"`
	}

	ExtractConfig struct {
		Plain bool     `yaml:"plain"`
		Types []string `yaml:"types" validate:"dive,oneof=style token cssVar"`
		Once  bool     `yaml:"once"`
	}

	Config struct {
		Version   int            `yaml:"version" validate:"eq=1"`
		Engine    EngineConfig   `yaml:"engine"`
		Extract   ExtractConfig  `yaml:"extract"`
		Logging   LoggingConfig  `yaml:"logging"`
		Reporting ReporterConfig `yaml:"reporting"`
	}
)

func unmarshalConfig(data []byte, cfg *Config, process bool) (*Config, error) {
	// We want to use only fields we defined so we cannot use yaml.Unmarshal
	// directly here
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if process {
		if err := gencfg.Sanitize(cfg); err != nil {
			return nil, err
		}
		if err := gencfg.Validate(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// LoadConfiguration reads the configuration from the file at the given path,
// superimposes its values on top of expanded configuration template to
// provide sane defaults and performs validation.
func LoadConfiguration(path string, options ...func(*gencfg.ProcessingOptions)) (*Config, error) {
	haveFile := len(path) > 0

	data, err := gencfg.Process(ConfigTmpl, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	cfg, err := unmarshalConfig(data, &Config{}, !haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	if !haveFile {
		return cfg, nil
	}

	// overwrite cfg values with values from the file
	data, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err = unmarshalConfig(data, cfg, haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration file: %w", err)
	}
	return cfg, nil
}

// Prepare generates configuration file from template and returns it as a byte
// slice.
func Prepare() ([]byte, error) {
	return gencfg.Process(ConfigTmpl)
}

func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %v", err)
	}
	return data, nil
}
