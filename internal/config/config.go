package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Paths    PathsConfig    `mapstructure:"paths"`
	Tokenize TokenizeConfig `mapstructure:"tokenize"`
	Server   ServerConfig   `mapstructure:"server"`
	LogLevel string         `mapstructure:"log_level"`
}

type PathsConfig struct {
	// InventoryPath selects an inventory asset; empty uses the embedded data.
	InventoryPath string `mapstructure:"inventory_path"`
}

type TokenizeConfig struct {
	Language   string   `mapstructure:"language"`
	Separator  string   `mapstructure:"separator"`
	Format     string   `mapstructure:"format"`
	Strict     bool     `mapstructure:"strict"`
	Boundaries []string `mapstructure:"boundaries"`
}

type ServerConfig struct {
	ListenAddr      string `mapstructure:"listen_addr"`
	MaxTextBytes    int    `mapstructure:"max_text_bytes"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"`
}

type LoadOptions struct {
	Cmd        flagBinder
	ConfigFile string
	Defaults   Config
}

type flagBinder interface {
	Flags() *pflag.FlagSet
}

// binding ties a config key to the flag that overrides it.
type binding struct {
	key  string
	flag string
}

var bindings = []binding{
	{"paths.inventory_path", "paths-inventory-path"},
	{"paths.inventory_path", "inventory-path"},
	{"tokenize.language", "tokenize-language"},
	{"tokenize.separator", "tokenize-separator"},
	{"tokenize.format", "tokenize-format"},
	{"tokenize.strict", "tokenize-strict"},
	{"tokenize.boundaries", "tokenize-boundaries"},
	{"server.listen_addr", "server-listen-addr"},
	{"server.max_text_bytes", "server-max-text-bytes"},
	{"server.shutdown_timeout", "server-shutdown-timeout"},
	{"log_level", "log-level"},
}

func DefaultConfig() Config {
	return Config{
		Paths: PathsConfig{
			InventoryPath: "",
		},
		Tokenize: TokenizeConfig{
			Language:   "",
			Separator:  " ",
			Format:     FormatText,
			Strict:     false,
			Boundaries: []string{"ˈ", "ˌ", "."},
		},
		Server: ServerConfig{
			ListenAddr:      ":8080",
			MaxTextBytes:    4096,
			ShutdownTimeout: 30,
		},
		LogLevel: "info",
	}
}

func RegisterFlags(fs *pflag.FlagSet, defaults Config) {
	fs.String("paths-inventory-path", defaults.Paths.InventoryPath, "Inventory asset (.yaml|.json|.csv|.tsv, optionally .xz); empty uses embedded data")
	fs.String("inventory-path", defaults.Paths.InventoryPath, "Inventory asset (alias for --paths-inventory-path)")
	fs.String("tokenize-language", defaults.Tokenize.Language, "Default language id for tokenization")
	fs.String("tokenize-separator", defaults.Tokenize.Separator, "Separator between printed tokens")
	fs.String("tokenize-format", defaults.Tokenize.Format, "Output format: text|json")
	fs.Bool("tokenize-strict", defaults.Tokenize.Strict, "Fail on symbols no inventory covers")
	fs.StringSlice("tokenize-boundaries", defaults.Tokenize.Boundaries, "Boundary markers applied to CSV/TSV inventories")
	fs.String("server-listen-addr", defaults.Server.ListenAddr, "HTTP listen address")
	fs.Int("server-max-text-bytes", defaults.Server.MaxTextBytes, "Maximum transcription size accepted by POST /tokenize")
	fs.Int("server-shutdown-timeout", defaults.Server.ShutdownTimeout, "Graceful shutdown timeout in seconds")
	fs.String("log-level", defaults.LogLevel, "Log level: debug|info|warn|error")
}

func Load(opts LoadOptions) (Config, error) {
	v := viper.New()

	setDefaults(v, opts.Defaults)
	if opts.Cmd != nil {
		if err := bindFlags(v, opts.Cmd.Flags()); err != nil {
			return Config{}, err
		}
	}

	v.SetEnvPrefix("IPATOK")
	replacer := strings.NewReplacer("-", "_", ".", "_", "__", "_")
	v.SetEnvKeyReplacer(replacer)
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("ipatok")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, c Config) {
	v.SetDefault("paths.inventory_path", c.Paths.InventoryPath)
	v.SetDefault("tokenize.language", c.Tokenize.Language)
	v.SetDefault("tokenize.separator", c.Tokenize.Separator)
	v.SetDefault("tokenize.format", c.Tokenize.Format)
	v.SetDefault("tokenize.strict", c.Tokenize.Strict)
	v.SetDefault("tokenize.boundaries", c.Tokenize.Boundaries)
	v.SetDefault("server.listen_addr", c.Server.ListenAddr)
	v.SetDefault("server.max_text_bytes", c.Server.MaxTextBytes)
	v.SetDefault("server.shutdown_timeout", c.Server.ShutdownTimeout)
	v.SetDefault("log_level", c.LogLevel)
}

// bindFlags binds every known flag present in fs to its config key. When a
// key has several flags, the one the user actually set wins.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	bound := make(map[string]bool)
	for _, b := range bindings {
		f := fs.Lookup(b.flag)
		if f == nil {
			continue
		}
		if bound[b.key] && !f.Changed {
			continue
		}
		if err := v.BindPFlag(b.key, f); err != nil {
			return fmt.Errorf("bind flag %q: %w", b.flag, err)
		}
		bound[b.key] = true
	}
	return nil
}
