package editor

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/shodgson/proseeditor/history"
	"github.com/shodgson/proseeditor/internal/yamlutil"
	"github.com/shodgson/proseeditor/registry"
)

// ErrInvalidConfig is returned for configurations that fail validation or
// name descriptors the kit doesn't have.
var ErrInvalidConfig = errors.New("invalid editor config")

// Config configures a Kit and the editors it creates.
type Config struct {
	// Mac selects the shortcuts of macOS.
	Mac bool `yaml:"mac"`
	// TightLists writes lists without blank lines between items, unless a
	// list says otherwise.
	TightLists bool `yaml:"tightLists"`
	// History configures the default history.
	History HistoryConfig `yaml:"history"`
	// Plugins holds the plugin options of descriptors, by descriptor name.
	Plugins map[string]registry.PluginOptions `yaml:"plugins" validate:"dive,keys,required,endkeys"`
}

// HistoryConfig configures undo and redo.
type HistoryConfig struct {
	// Depth is the number of undoable events. Zero means the default.
	Depth int `yaml:"depth" validate:"gte=0,lte=10000"`
	// NewGroupDelay is the delay, in milliseconds, after which a change
	// starts a new event. Zero means the default.
	NewGroupDelay int `yaml:"newGroupDelay" validate:"gte=0"`
}

func (c HistoryConfig) config() history.Config {
	return history.Config{
		Depth:         c.Depth,
		NewGroupDelay: time.Duration(c.NewGroupDelay) * time.Millisecond,
	}
}

var validate = validator.New()

// Validate checks the field constraints of the configuration.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// ParseConfig decodes a YAML configuration. Unknown fields are rejected.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := yamlutil.UnmarshalStrict(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadConfig reads and decodes a YAML configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return ParseConfig(data)
}
