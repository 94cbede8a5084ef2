package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"time"

	yaml "gopkg.in/yaml.v3"

	"github.com/rupor-github/gencfg"
)

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

type (
	TemplateFieldName string

	ButtonConfig struct {
		Action string `yaml:"action" validate:"required"`
		Tag    string `yaml:"tag" validate:"required"`
		Label  string `yaml:"label"`
	}

	ToolbarConfig struct {
		ExcludedActions        []string       `yaml:"excluded_actions" validate:"dive,required"`
		AnchorInputPlaceholder string         `yaml:"anchor_input_placeholder"`
		DiffLeft               int            `yaml:"diff_left"`
		DiffTop                int            `yaml:"diff_top"`
		DismissDelay           time.Duration  `yaml:"dismiss_delay" validate:"gte=0"`
		Buttons                []ButtonConfig `yaml:"buttons" validate:"min=1,dive"`
	}

	DocumentConfig struct {
		EditableSelector      string `yaml:"editable_selector" validate:"required"`
		StylesheetPath        string `yaml:"stylesheet_path" sanitize:"assure_file_access"`
		OutputNameTemplate    string `yaml:"output_name_template"`
		FileNameTransliterate bool   `yaml:"file_name_transliterate"`
		EmbedToolbar          bool   `yaml:"embed_toolbar"`
	}

	LayoutConfig struct {
		CharWidth      int  `yaml:"char_width" validate:"min=1"`
		LineHeight     int  `yaml:"line_height" validate:"min=1"`
		ViewportWidth  int  `yaml:"viewport_width" validate:"min=1"`
		OriginX        int  `yaml:"origin_x" validate:"gte=0"`
		OriginY        int  `yaml:"origin_y" validate:"gte=0"`
		EastAsianWidth bool `yaml:"east_asian_width"`
	}

	Config struct {
		Version   int            `yaml:"version" validate:"eq=1"`
		Toolbar   ToolbarConfig  `yaml:"toolbar"`
		Document  DocumentConfig `yaml:"document"`
		Layout    LayoutConfig   `yaml:"layout"`
		Logging   LoggingConfig  `yaml:"logging"`
		Reporting ReporterConfig `yaml:"reporting"`
	}
)

const (
	// NOTE: must match yaml field name above, alternative is to use struct
	// field name and reflection which I want to avoid for now
	OutputNameTemplateFieldName TemplateFieldName = "output_name_template"
)

var requiredOptions = append([]func(*gencfg.ProcessingOptions){},
	gencfg.WithDoNotExpandField(string(OutputNameTemplateFieldName)),
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
		// sanitize and validate what has been loaded
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
// superimposes its values on top of expanded configuration tamplate to provide
// sane defaults and performs validation.
func LoadConfiguration(path string, options ...func(*gencfg.ProcessingOptions)) (*Config, error) {
	haveFile := len(path) > 0

	data, err := gencfg.Process(ConfigTmpl, append(requiredOptions, options...)...)
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
	return gencfg.Process(ConfigTmpl, requiredOptions...)
}

func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %v", err)
	}
	return data, nil
}
