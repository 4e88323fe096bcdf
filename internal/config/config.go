package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const EnvPrefix = "OPENCLAW"

// Config is the agent configuration, read from config.yaml, OPENCLAW_* env
// vars and the legacy variable names listed in bindLegacyEnv.
type Config struct {
	Logger     LoggerConfig     `mapstructure:"logger" yaml:"logger"`
	Agent      AgentConfig      `mapstructure:"agent" yaml:"agent"`
	Storage    StorageConfig    `mapstructure:"storage" yaml:"storage"`
	Dedup      DedupConfig      `mapstructure:"dedup" yaml:"dedup"`
	Farcaster  FarcasterConfig  `mapstructure:"farcaster" yaml:"farcaster"`
	Chain      ChainConfig      `mapstructure:"chain" yaml:"chain"`
	Image      ImageConfig      `mapstructure:"image" yaml:"image"`
	Reputation ReputationConfig `mapstructure:"reputation" yaml:"reputation"`
	Server     ServerConfig     `mapstructure:"server" yaml:"server"`
}

type LoggerConfig struct {
	Level      string `mapstructure:"level" yaml:"level"`
	Format     string `mapstructure:"format" yaml:"format"`
	LogFile    string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize    int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge     int    `mapstructure:"max_age" yaml:"max_age"`
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
}

type AgentConfig struct {
	DeployInterval     time.Duration `mapstructure:"deploy_interval" yaml:"deploy_interval"`
	IdleSleep          time.Duration `mapstructure:"idle_sleep" yaml:"idle_sleep"`
	PollInterval       time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
	EngagementInterval time.Duration `mapstructure:"engagement_interval" yaml:"engagement_interval"`
	BatchDelay         time.Duration `mapstructure:"batch_delay" yaml:"batch_delay"`
	WatchCommands      bool          `mapstructure:"watch_commands" yaml:"watch_commands"`
}

type StorageConfig struct {
	CommandsPath    string `mapstructure:"commands_path" yaml:"commands_path"`
	DeploymentsPath string `mapstructure:"deployments_path" yaml:"deployments_path"`
}

// DedupConfig selects the seen-cast backend: memory, duckdb or redis.
type DedupConfig struct {
	Backend        string        `mapstructure:"backend" yaml:"backend"`
	Retention      time.Duration `mapstructure:"retention" yaml:"retention"`
	PruneInterval  time.Duration `mapstructure:"prune_interval" yaml:"prune_interval"`
	DuckDBPath     string        `mapstructure:"duckdb_path" yaml:"duckdb_path"`
	RedisAddr      string        `mapstructure:"redis_addr" yaml:"redis_addr"`
	RedisPassword  string        `mapstructure:"redis_password" yaml:"redis_password"`
	RedisDB        int           `mapstructure:"redis_db" yaml:"redis_db"`
	RedisKeyPrefix string        `mapstructure:"redis_key_prefix" yaml:"redis_key_prefix"`
}

type FarcasterConfig struct {
	BaseURL           string  `mapstructure:"base_url" yaml:"base_url"`
	APIKey            string  `mapstructure:"api_key" yaml:"api_key"`
	SignerUUID        string  `mapstructure:"signer_uuid" yaml:"signer_uuid"`
	FID               string  `mapstructure:"fid" yaml:"fid"`
	PostLimit         int     `mapstructure:"post_limit" yaml:"post_limit"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second" yaml:"requests_per_second"`
}

// ChainConfig selects the deployer: "relay" calls a signing service over HTTP,
// "simulated" fabricates deterministic results.
type ChainConfig struct {
	Mode     string        `mapstructure:"mode" yaml:"mode"`
	RelayURL string        `mapstructure:"relay_url" yaml:"relay_url"`
	APIKey   string        `mapstructure:"api_key" yaml:"api_key"`
	ChainID  int64         `mapstructure:"chain_id" yaml:"chain_id"`
	Timeout  time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// ImageConfig selects the image generator: pollinations, openai or none.
type ImageConfig struct {
	Mode    string `mapstructure:"mode" yaml:"mode"`
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
	APIKey  string `mapstructure:"api_key" yaml:"api_key"`
	Model   string `mapstructure:"model" yaml:"model"`
}

type ReputationConfig struct {
	Enabled      bool   `mapstructure:"enabled" yaml:"enabled"`
	URL          string `mapstructure:"url" yaml:"url"`
	APIKey       string `mapstructure:"api_key" yaml:"api_key"`
	AgentID      string `mapstructure:"agent_id" yaml:"agent_id"`
	MetadataPath string `mapstructure:"metadata_path" yaml:"metadata_path"`
	ProofDir     string `mapstructure:"proof_dir" yaml:"proof_dir"`
}

type ServerConfig struct {
	Enabled         bool          `mapstructure:"enabled" yaml:"enabled"`
	Addr            string        `mapstructure:"addr" yaml:"addr"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins" yaml:"allowed_origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// SetDefaults initializes default values for every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
	v.SetDefault("logger.log_file", "openclaw_agent.log")
	v.SetDefault("logger.max_size", 50)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 28)
	v.SetDefault("logger.compress", true)

	v.SetDefault("agent.deploy_interval", "20m")
	v.SetDefault("agent.idle_sleep", "5s")
	v.SetDefault("agent.poll_interval", "60s")
	v.SetDefault("agent.engagement_interval", "45m")
	v.SetDefault("agent.batch_delay", "10s")
	v.SetDefault("agent.watch_commands", true)

	v.SetDefault("storage.commands_path", "commands.json")
	v.SetDefault("storage.deployments_path", "deployments.json")

	v.SetDefault("dedup.backend", "memory")
	v.SetDefault("dedup.retention", "168h")
	v.SetDefault("dedup.prune_interval", "1h")
	v.SetDefault("dedup.duckdb_path", "openclaw.duckdb")
	v.SetDefault("dedup.redis_addr", "localhost:6379")
	v.SetDefault("dedup.redis_password", "")
	v.SetDefault("dedup.redis_db", 0)
	v.SetDefault("dedup.redis_key_prefix", "openclaw:seen_cast:")

	v.SetDefault("farcaster.base_url", "https://api.neynar.com")
	v.SetDefault("farcaster.post_limit", 10)
	v.SetDefault("farcaster.requests_per_second", 2.0)

	v.SetDefault("chain.mode", "simulated")
	v.SetDefault("chain.relay_url", "")
	v.SetDefault("chain.api_key", "")
	v.SetDefault("chain.chain_id", 84532)
	v.SetDefault("chain.timeout", "3m")

	v.SetDefault("image.mode", "pollinations")
	v.SetDefault("image.base_url", "https://pollinations.ai")
	v.SetDefault("image.api_key", "")
	v.SetDefault("image.model", "gpt-image-1")

	v.SetDefault("reputation.enabled", false)
	v.SetDefault("reputation.url", "")
	v.SetDefault("reputation.api_key", "")
	v.SetDefault("reputation.agent_id", "")
	v.SetDefault("reputation.metadata_path", "agent0_metadata.json")
	v.SetDefault("reputation.proof_dir", "proofs")

	v.SetDefault("server.enabled", true)
	v.SetDefault("server.addr", ":8000")
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.shutdown_timeout", "5s")
}

// bindLegacyEnv maps the variable names earlier deployments used.
func bindLegacyEnv(v *viper.Viper) {
	_ = v.BindEnv("farcaster.api_key", EnvPrefix+"_FARCASTER_API_KEY", "FARCASTER_API_KEY")
	_ = v.BindEnv("farcaster.signer_uuid", EnvPrefix+"_FARCASTER_SIGNER_UUID", "FARCASTER_SIGNER_UUID")
	_ = v.BindEnv("farcaster.fid", EnvPrefix+"_FARCASTER_FID", "FARCASTER_FID")
}

// NewViper returns a viper instance with defaults, env binding and, when
// cfgFile is empty, ./config.yaml as an optional config file.
func NewViper(cfgFile string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindLegacyEnv(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return v, nil
}

// NewConfigFromViper unmarshals and validates v.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Load reads the configuration and decrypts any enc: secrets with key. A nil
// key leaves secrets as they are.
func Load(cfgFile string, key *SecretKey) (*Config, error) {
	v, err := NewViper(cfgFile)
	if err != nil {
		return nil, err
	}
	cfg, err := NewConfigFromViper(v)
	if err != nil {
		return nil, err
	}
	if key != nil {
		if err := key.Reveal(cfg.secrets()...); err != nil {
			return nil, fmt.Errorf("failed to decrypt secrets: %w", err)
		}
	}
	return cfg, nil
}

func (c *Config) secrets() []*string {
	return []*string{
		&c.Farcaster.APIKey,
		&c.Farcaster.SignerUUID,
		&c.Chain.APIKey,
		&c.Image.APIKey,
		&c.Reputation.APIKey,
		&c.Dedup.RedisPassword,
	}
}

// Validate checks for sane values.
func (c *Config) Validate() error {
	var errs []error

	if c.Agent.DeployInterval <= 0 {
		errs = append(errs, errors.New("agent.deploy_interval must be positive"))
	}
	if c.Agent.IdleSleep <= 0 {
		errs = append(errs, errors.New("agent.idle_sleep must be positive"))
	}
	if c.Agent.PollInterval <= 0 {
		errs = append(errs, errors.New("agent.poll_interval must be positive"))
	}
	if c.Agent.BatchDelay < 0 {
		errs = append(errs, errors.New("agent.batch_delay must not be negative"))
	}
	if c.Storage.CommandsPath == "" || c.Storage.DeploymentsPath == "" {
		errs = append(errs, errors.New("storage paths must be set"))
	}

	switch strings.ToLower(c.Dedup.Backend) {
	case "memory", "":
	case "duckdb":
		if c.Dedup.DuckDBPath == "" {
			errs = append(errs, errors.New("dedup.duckdb_path is required when dedup.backend=duckdb"))
		}
	case "redis":
		if c.Dedup.RedisAddr == "" {
			errs = append(errs, errors.New("dedup.redis_addr is required when dedup.backend=redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported dedup.backend: %s", c.Dedup.Backend))
	}

	switch strings.ToLower(c.Chain.Mode) {
	case "simulated", "":
	case "relay":
		if c.Chain.RelayURL == "" {
			errs = append(errs, errors.New("chain.relay_url is required when chain.mode=relay"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported chain.mode: %s", c.Chain.Mode))
	}

	switch strings.ToLower(c.Image.Mode) {
	case "pollinations", "openai", "none", "":
	default:
		errs = append(errs, fmt.Errorf("unsupported image.mode: %s", c.Image.Mode))
	}

	if c.Reputation.Enabled && c.Reputation.URL == "" {
		errs = append(errs, errors.New("reputation.url is required when reputation.enabled"))
	}
	if c.Server.Enabled && c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required when server.enabled"))
	}

	return errors.Join(errs...)
}
