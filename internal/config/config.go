package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Policy is the resolved memboost configuration. It is immutable for the
// lifetime of one invocation: resolve once, pass by value.
//
// Precedence: command-line flags > MEMBOOST_* environment variables >
// config file > defaults. Flag binding happens in the cli package; this
// package owns defaults, file, and environment.
type Policy struct {
	RSSThresholdMB      uint64        `mapstructure:"rss_threshold_mb" yaml:"rss_threshold_mb"`
	EnableTermination   bool          `mapstructure:"enable_termination" yaml:"enable_termination"`
	RequireConfirmation bool          `mapstructure:"require_confirmation" yaml:"require_confirmation"`
	ThrottleInterval    time.Duration `mapstructure:"throttle_interval" yaml:"throttle_interval"`
	AllowList           []string      `mapstructure:"allow_list" yaml:"allow_list"`
	DenyList            []string      `mapstructure:"deny_list" yaml:"deny_list"`
	LogRetentionDays    int           `mapstructure:"log_retention_days" yaml:"log_retention_days"`

	// RecentCPUWindow is how much accumulated CPU time marks a process
	// as recently active for safety-tier classification.
	RecentCPUWindow time.Duration `mapstructure:"recent_cpu_window" yaml:"recent_cpu_window"`

	SampleInterval time.Duration `mapstructure:"sample_interval" yaml:"sample_interval"`

	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`
}

type ServerConfig struct {
	Bind string `mapstructure:"bind" yaml:"bind"`
	Port int    `mapstructure:"port" yaml:"port"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// Default returns a Policy with sensible defaults. Termination is off
// until explicitly enabled; the allow-list protects the processes that
// must survive any reclaim.
func Default() Policy {
	return Policy{
		RSSThresholdMB:      50,
		EnableTermination:   false,
		RequireConfirmation: true,
		ThrottleInterval:    5 * time.Minute,
		AllowList: []string{
			"kernel_task",
			"launchd",
			"WindowServer",
			"systemd",
			"init",
		},
		DenyList:         nil,
		LogRetentionDays: 30,
		RecentCPUWindow:  30 * time.Second,
		SampleInterval:   30 * time.Second,
		Server: ServerConfig{
			Bind: "127.0.0.1",
			Port: 37878,
		},
		Database: DatabaseConfig{
			Path: "", // resolved at runtime via store.DefaultDBPath()
		},
	}
}

// ListenAddr returns the bind:port address string.
func (p *Policy) ListenAddr() string {
	return fmt.Sprintf("%s:%d", p.Server.Bind, p.Server.Port)
}

// Allowed reports whether a process name is on the allow-list.
func (p *Policy) Allowed(name string) bool {
	for _, n := range p.AllowList {
		if n == name {
			return true
		}
	}
	return false
}

// Denied reports whether a process name is on the deny-list.
func (p *Policy) Denied(name string) bool {
	for _, n := range p.DenyList {
		if n == name {
			return true
		}
	}
	return false
}

// DefaultConfigPath returns ~/.memboost/config.yaml.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".memboost", "config.yaml"), nil
}

// Init seeds viper with defaults, the config file location, and the
// MEMBOOST_* environment. Called from cobra's OnInitialize, before any
// command runs.
func Init(v *viper.Viper, cfgFile string) error {
	def := Default()
	v.SetDefault("rss_threshold_mb", def.RSSThresholdMB)
	v.SetDefault("enable_termination", def.EnableTermination)
	v.SetDefault("require_confirmation", def.RequireConfirmation)
	v.SetDefault("throttle_interval", def.ThrottleInterval)
	v.SetDefault("allow_list", def.AllowList)
	v.SetDefault("deny_list", def.DenyList)
	v.SetDefault("log_retention_days", def.LogRetentionDays)
	v.SetDefault("recent_cpu_window", def.RecentCPUWindow)
	v.SetDefault("sample_interval", def.SampleInterval)
	v.SetDefault("server.bind", def.Server.Bind)
	v.SetDefault("server.port", def.Server.Port)
	v.SetDefault("database.path", def.Database.Path)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		path, err := DefaultConfigPath()
		if err != nil {
			return err
		}
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix("MEMBOOST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; a broken one is not.
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound && !os.IsNotExist(err) {
			return fmt.Errorf("read config %s: %w", v.ConfigFileUsed(), err)
		}
	}
	return nil
}

// Resolve unmarshals the fully-merged viper state into a Policy.
func Resolve(v *viper.Viper) (Policy, error) {
	var p Policy
	if err := v.Unmarshal(&p); err != nil {
		return Policy{}, fmt.Errorf("resolve policy: %w", err)
	}
	return p, nil
}

// MarshalYAML renders a Policy as YAML, for `config show` and `config init`.
func MarshalYAML(p Policy) ([]byte, error) {
	out, err := yaml.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return out, nil
}

// WriteDefault writes the default config to path, creating parent
// directories. Refuses to overwrite an existing file.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	out, err := MarshalYAML(Default())
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, out, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
