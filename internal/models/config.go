package models

import "time"

// Config represents the main configuration
type Config struct {
	HTTP      HTTPConfig      `mapstructure:"http"`
	Output    OutputConfig    `mapstructure:"output"`
	Allowlist AllowlistConfig `mapstructure:"allowlist"`
	Log       LogConfig       `mapstructure:"log"`
	Lists     []FilterList    `mapstructure:"lists"`
}

// HTTPConfig contains HTTP client settings
type HTTPConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
	Retries int           `mapstructure:"retries"`
}

// OutputConfig contains output settings
type OutputConfig struct {
	MaxRulesPerFile  int  `mapstructure:"max_rules_per_file"`
	Limit            int  `mapstructure:"limit"`    // content blocker rule budget, 0 = unbounded
	Optimize         bool `mapstructure:"optimize"` // drop wide CSS rules
	GenerateCombined bool `mapstructure:"generate_combined"`
	GenerateManifest bool `mapstructure:"generate_manifest"`
}

// AllowlistConfig points at a file with one allowlisted domain per line
type AllowlistConfig struct {
	File string `mapstructure:"file"`
}

// LogConfig contains logger settings
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// FilterList represents a single filter list configuration.
// Either URL or Path must be set.
type FilterList struct {
	Name    string `mapstructure:"name"`
	URL     string `mapstructure:"url"`
	Path    string `mapstructure:"path"`
	Enabled bool   `mapstructure:"enabled"`
}

// Source returns the URL or local path of the list
func (l FilterList) Source() string {
	if l.URL != "" {
		return l.URL
	}
	return l.Path
}

// EnabledLists returns only enabled filter lists
func (c *Config) EnabledLists() []FilterList {
	var enabled []FilterList
	for _, l := range c.Lists {
		if l.Enabled {
			enabled = append(enabled, l)
		}
	}
	return enabled
}
