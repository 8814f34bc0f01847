package config

import (
	"fmt"
	"time"

	"github.com/jsphweid/chordpad/constants"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
	Storage  StorageConfig  `mapstructure:"storage" yaml:"storage"`
	Cache    CacheConfig    `mapstructure:"cache" yaml:"cache"`
	Autosave AutosaveConfig `mapstructure:"autosave" yaml:"autosave"`
	Grid     GridConfig     `mapstructure:"grid" yaml:"grid"`
	Midi     MidiConfig     `mapstructure:"midi" yaml:"midi"`
	Limits   LimitsConfig   `mapstructure:"limits" yaml:"limits"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
}

type ServerConfig struct {
	Addr           string   `mapstructure:"addr" yaml:"addr"`
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
	// requests per second across all clients, 0 disables limiting
	RateLimit float64 `mapstructure:"rate_limit" yaml:"rate_limit"`
	RateBurst int     `mapstructure:"rate_burst" yaml:"rate_burst"`
}

type StorageConfig struct {
	// "disk" or "dynamodb"
	Backend        string `mapstructure:"backend" yaml:"backend"`
	Dir            string `mapstructure:"dir" yaml:"dir"`
	DynamoEndpoint string `mapstructure:"dynamo_endpoint" yaml:"dynamo_endpoint"`
	DynamoRegion   string `mapstructure:"dynamo_region" yaml:"dynamo_region"`
	DynamoTable    string `mapstructure:"dynamo_table" yaml:"dynamo_table"`
}

type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl" yaml:"ttl"`
}

type AutosaveConfig struct {
	Delay time.Duration `mapstructure:"delay" yaml:"delay"`
}

type GridConfig struct {
	CharWidth  float64 `mapstructure:"char_width" yaml:"char_width"`
	LineHeight float64 `mapstructure:"line_height" yaml:"line_height"`
}

type MidiConfig struct {
	TicksPerChar uint32 `mapstructure:"ticks_per_char" yaml:"ticks_per_char"`
}

type LimitsConfig struct {
	MaxLines     int `mapstructure:"max_lines" yaml:"max_lines"`
	MaxCharIndex int `mapstructure:"max_char_index" yaml:"max_char_index"`
}

type LogConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Development bool   `mapstructure:"development" yaml:"development"`
}

func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:           ":8080",
			AllowedOrigins: []string{"*"},
			RateLimit:      50,
			RateBurst:      100,
		},
		Storage: StorageConfig{
			Backend:        "disk",
			Dir:            constants.GetDraftDir(),
			DynamoEndpoint: "http://localhost:8000",
			DynamoRegion:   "localhost",
			DynamoTable:    constants.DynamoTable,
		},
		Cache:    CacheConfig{TTL: constants.CacheTTL},
		Autosave: AutosaveConfig{Delay: constants.AutosaveDelay},
		Grid: GridConfig{
			CharWidth:  constants.CharWidth,
			LineHeight: constants.LineHeight,
		},
		Midi: MidiConfig{TicksPerChar: constants.TicksPerChar},
		Limits: LimitsConfig{
			MaxLines:     constants.MaxLines,
			MaxCharIndex: constants.MaxCharIndex,
		},
		Log: LogConfig{Level: "info"},
	}
}

// SetDefaults registers every default with v so env vars can override keys
// that never appear in a config file.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.allowed_origins", d.Server.AllowedOrigins)
	v.SetDefault("server.rate_limit", d.Server.RateLimit)
	v.SetDefault("server.rate_burst", d.Server.RateBurst)
	v.SetDefault("storage.backend", d.Storage.Backend)
	v.SetDefault("storage.dir", d.Storage.Dir)
	v.SetDefault("storage.dynamo_endpoint", d.Storage.DynamoEndpoint)
	v.SetDefault("storage.dynamo_region", d.Storage.DynamoRegion)
	v.SetDefault("storage.dynamo_table", d.Storage.DynamoTable)
	v.SetDefault("cache.ttl", d.Cache.TTL)
	v.SetDefault("autosave.delay", d.Autosave.Delay)
	v.SetDefault("grid.char_width", d.Grid.CharWidth)
	v.SetDefault("grid.line_height", d.Grid.LineHeight)
	v.SetDefault("midi.ticks_per_char", d.Midi.TicksPerChar)
	v.SetDefault("limits.max_lines", d.Limits.MaxLines)
	v.SetDefault("limits.max_char_index", d.Limits.MaxCharIndex)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.development", d.Log.Development)
}

func Load(v *viper.Viper) (Config, error) {
	SetDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Storage.Backend {
	case "disk", "dynamodb":
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if c.Grid.CharWidth <= 0 || c.Grid.LineHeight <= 0 {
		return fmt.Errorf("grid cell must be positive, got %vx%v", c.Grid.CharWidth, c.Grid.LineHeight)
	}
	if c.Limits.MaxLines <= 0 || c.Limits.MaxCharIndex < 0 {
		return fmt.Errorf("limits must be positive, got %v lines and char index %v", c.Limits.MaxLines, c.Limits.MaxCharIndex)
	}
	if c.Autosave.Delay < 0 {
		return fmt.Errorf("autosave delay must not be negative")
	}
	return nil
}
