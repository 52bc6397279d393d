package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Supported storage backends
const (
	BackendLocal = "local"
	BackendS3    = "s3"
)

// Config represents the complete idcvault configuration
type Config struct {
	AWS     AWSConfig     `mapstructure:"aws" yaml:"aws"`
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`
	Diff    DiffConfig    `mapstructure:"diff" yaml:"diff"`
	Output  OutputConfig  `mapstructure:"output" yaml:"output"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// AWSConfig selects the account and Identity Center instance to back up
type AWSConfig struct {
	Profile         string `mapstructure:"profile" yaml:"profile"`
	Region          string `mapstructure:"region" yaml:"region"`
	InstanceARN     string `mapstructure:"instance_arn" yaml:"instance_arn"`
	IdentityStoreID string `mapstructure:"identity_store_id" yaml:"identity_store_id"`
	MaxConcurrency  int    `mapstructure:"max_concurrency" yaml:"max_concurrency"`
}

// StorageConfig contains storage configuration
type StorageConfig struct {
	Backend  string `mapstructure:"backend" yaml:"backend"`
	BaseDir  string `mapstructure:"base_dir" yaml:"base_dir"`
	S3Bucket string `mapstructure:"s3_bucket" yaml:"s3_bucket"`
	S3Prefix string `mapstructure:"s3_prefix" yaml:"s3_prefix"`
}

// DiffConfig tunes change detection
type DiffConfig struct {
	MembershipFields []string `mapstructure:"membership_fields" yaml:"membership_fields"`
}

// OutputConfig contains output formatting configuration
type OutputConfig struct {
	Format  string `mapstructure:"format" yaml:"format"`
	NoColor bool   `mapstructure:"no_color" yaml:"no_color"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		AWS: AWSConfig{
			MaxConcurrency: 8,
		},
		Storage: StorageConfig{
			Backend:  BackendLocal,
			BaseDir:  DefaultBaseDir(),
			S3Prefix: "idcvault/",
		},
		Diff: DiffConfig{
			MembershipFields: []string{"members", "managed_policies"},
		},
		Output: OutputConfig{
			Format: "console",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// SetDefaults registers DefaultConfig values on v so env and flags can override them
func SetDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("aws.profile", d.AWS.Profile)
	v.SetDefault("aws.region", d.AWS.Region)
	v.SetDefault("aws.instance_arn", d.AWS.InstanceARN)
	v.SetDefault("aws.identity_store_id", d.AWS.IdentityStoreID)
	v.SetDefault("aws.max_concurrency", d.AWS.MaxConcurrency)
	v.SetDefault("storage.backend", d.Storage.Backend)
	v.SetDefault("storage.base_dir", d.Storage.BaseDir)
	v.SetDefault("storage.s3_bucket", d.Storage.S3Bucket)
	v.SetDefault("storage.s3_prefix", d.Storage.S3Prefix)
	v.SetDefault("diff.membership_fields", d.Diff.MembershipFields)
	v.SetDefault("output.format", d.Output.Format)
	v.SetDefault("output.no_color", d.Output.NoColor)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
}

// Load loads configuration from the global viper instance
func Load(configFile string) (*Config, error) {
	return LoadFrom(viper.GetViper(), configFile)
}

// LoadFrom loads configuration from defaults, config file, and environment into v
func LoadFrom(v *viper.Viper, configFile string) (*Config, error) {
	SetDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".idcvault"))
		}
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("IDCVAULT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Standard AWS variables fill in when nothing more specific is set
	_ = v.BindEnv("aws.profile", "IDCVAULT_AWS_PROFILE", "AWS_PROFILE")
	_ = v.BindEnv("aws.region", "IDCVAULT_AWS_REGION", "AWS_REGION", "AWS_DEFAULT_REGION")
	_ = v.BindEnv("logging.level", "IDCVAULT_LOGGING_LEVEL", "LOG_LEVEL")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || configFile != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is not an error - we'll use defaults
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.ExpandPaths(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendLocal:
		if c.Storage.BaseDir == "" {
			return fmt.Errorf("storage.base_dir is required for the local backend")
		}
	case BackendS3:
		if c.Storage.S3Bucket == "" {
			return fmt.Errorf("storage.s3_bucket is required for the s3 backend")
		}
	default:
		return fmt.Errorf("unknown storage backend %q (expected %s or %s)", c.Storage.Backend, BackendLocal, BackendS3)
	}

	if c.AWS.MaxConcurrency < 1 {
		return fmt.Errorf("aws.max_concurrency must be at least 1")
	}

	if c.AWS.InstanceARN != "" && c.AWS.IdentityStoreID == "" {
		return fmt.Errorf("aws.identity_store_id is required when aws.instance_arn is set")
	}

	for _, field := range c.Diff.MembershipFields {
		if strings.TrimSpace(field) == "" {
			return fmt.Errorf("diff.membership_fields must not contain empty names")
		}
	}

	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("unknown logging format %q", c.Logging.Format)
	}

	return nil
}

// ExpandPaths expands home directory paths
func (c *Config) ExpandPaths() error {
	var err error
	c.Storage.BaseDir, err = expandPath(c.Storage.BaseDir)
	if err != nil {
		return fmt.Errorf("failed to expand storage base dir: %w", err)
	}
	return nil
}

// expandPath expands ~ to home directory
func expandPath(path string) (string, error) {
	if path == "" || path[0] != '~' {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path, err
	}

	if len(path) == 1 {
		return home, nil
	}

	return filepath.Join(home, path[1:]), nil
}
