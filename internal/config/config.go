package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Host      string `json:"host"`
	Port      int    `json:"port"`
	DataDir   string `json:"data_dir"`
	ImportDir string `json:"import_dir,omitempty"`
	DBPath    string `json:"-"`

	WriteTimeout time.Duration `json:"-"`
}

// Default returns a Config with default values.
func Default() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, fmt.Errorf(
			"determining home directory: %w", err,
		)
	}
	dataDir := filepath.Join(home, ".teampulse")
	return Config{
		Host:         "127.0.0.1",
		Port:         8080,
		DataDir:      dataDir,
		DBPath:       filepath.Join(dataDir, "teampulse.db"),
		WriteTimeout: 30 * time.Second,
	}, nil
}

// Load builds a Config by layering: defaults < config file < env < flags.
// The provided FlagSet must already be parsed by the caller.
// Only flags that were explicitly set override the lower layers.
func Load(fs *flag.FlagSet) (Config, error) {
	cfg, err := LoadMinimal()
	if err != nil {
		return cfg, err
	}
	applyFlags(&cfg, fs)
	cfg.DBPath = filepath.Join(cfg.DataDir, "teampulse.db")
	return cfg, nil
}

// LoadMinimal builds a Config from defaults, config file, and env,
// without parsing CLI flags. Use this for subcommands that manage
// their own flag sets.
func LoadMinimal() (Config, error) {
	cfg, err := Default()
	if err != nil {
		return cfg, err
	}
	if v := os.Getenv("TEAMPULSE_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}

	if err := cfg.loadFile(); err != nil {
		return cfg, fmt.Errorf("loading config file: %w", err)
	}
	cfg.loadEnv()
	cfg.DBPath = filepath.Join(cfg.DataDir, "teampulse.db")
	return cfg, nil
}

func (c *Config) configPath() string {
	return filepath.Join(c.DataDir, "config.json")
}

func (c *Config) loadFile() error {
	data, err := os.ReadFile(c.configPath())
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	var file struct {
		Host      string `json:"host"`
		Port      int    `json:"port"`
		ImportDir string `json:"import_dir"`
	}
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parsing config: %w", err)
	}
	if file.Host != "" {
		c.Host = file.Host
	}
	if file.Port != 0 {
		c.Port = file.Port
	}
	if file.ImportDir != "" {
		c.ImportDir = file.ImportDir
	}
	return nil
}

func (c *Config) loadEnv() {
	if v := os.Getenv("TEAMPULSE_HOST"); v != "" {
		c.Host = v
	}
	if v := os.Getenv("TEAMPULSE_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Port = port
		}
	}
	if v := os.Getenv("TEAMPULSE_IMPORT_DIR"); v != "" {
		c.ImportDir = v
	}
}

// RegisterServeFlags registers serve-command flags on fs.
// The caller must call fs.Parse before passing fs to Load.
func RegisterServeFlags(fs *flag.FlagSet) {
	fs.String("host", "127.0.0.1", "Host to bind to")
	fs.Int("port", 8080, "Port to listen on")
	fs.String(
		"import-dir", "",
		"Directory to watch for JSONL activity exports",
	)
}

// applyFlags copies explicitly-set flags from fs into cfg.
func applyFlags(cfg *Config, fs *flag.FlagSet) {
	if fs == nil {
		return
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "host":
			cfg.Host = f.Value.String()
		case "port":
			// flag already validated the int; ignore parse error
			cfg.Port, _ = strconv.Atoi(f.Value.String())
		case "import-dir":
			cfg.ImportDir = f.Value.String()
		}
	})
}
