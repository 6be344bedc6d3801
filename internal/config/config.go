package config

import (
	"time"

	"github.com/spf13/viper"

	"deploy-keeper/internal/models"
)

/**
 * Server configuration parameters
 * @property {string} address - Server listening address (e.g. ":8999")
 * @property {string} mode - Gin mode (debug/release/test)
 */
type ServerConfig struct {
	Address string `mapstructure:"address"`
	Mode    string `mapstructure:"mode"`
}

/**
 * Logging configuration
 * @property {string} level - Log level (debug/info/warn/error)
 * @property {string} path - Log file path, "console" for stdout
 */
type LogConfig struct {
	Level string `mapstructure:"level"`
	Path  string `mapstructure:"path"`
}

/**
 * Health check configuration
 * @property {string} path - HTTP route exposed by the managed service
 * @property {int} max_attempts - Polling attempt budget
 * @property {duration} interval - Fixed sleep between attempts
 * @property {duration} request_timeout - Per-request deadline
 * @property {int} port - Health port, only needed for container bindings
 */
type HealthConfig struct {
	Path           string        `mapstructure:"path"`
	Port           int           `mapstructure:"port"`
	MaxAttempts    int           `mapstructure:"max_attempts"`
	Interval       time.Duration `mapstructure:"interval"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// EscalationStep 终止升级阶梯的一级：发送信号后等待wait再复查
type EscalationStep struct {
	Signal string        `mapstructure:"signal"`
	Wait   time.Duration `mapstructure:"wait"`
}

/**
 * Managed service configuration
 * @property {string} name - Service name
 * @property {string} command - Launch command, supports template variables
 * @property {[]string} args - Launch arguments
 * @property {string} work_dir - Working directory for the launched process
 * @property {Binding} binding - Port or container name the instance occupies
 * @property {string} host - Host used to build the health URL
 */
type ServiceConfig struct {
	Name       string           `mapstructure:"name"`
	Command    string           `mapstructure:"command"`
	Args       []string         `mapstructure:"args"`
	WorkDir    string           `mapstructure:"work_dir"`
	Binding    models.Binding   `mapstructure:"binding"`
	Host       string           `mapstructure:"host"`
	Health     HealthConfig     `mapstructure:"health"`
	Escalation []EscalationStep `mapstructure:"escalation"`
}

// TargetConfig 部署目标：local直接本机执行，ssh通过scp+远程命令
type TargetConfig struct {
	Type    string `mapstructure:"type"`
	Host    string `mapstructure:"host"`
	User    string `mapstructure:"user"`
	Path    string `mapstructure:"path"`
	Command string `mapstructure:"command"`
}

// NotifyConfig 流水线结果通知
type NotifyConfig struct {
	WebhookURL string `mapstructure:"webhook_url"`
}

/**
 * Deploy pipeline configuration
 * @property {string} branch - Only pushes to this branch trigger a run
 * @property {string} pipeline_file - Path to pipeline.yaml stage definitions
 * @property {string} artifact - Build artifact path produced by the build stage
 */
type DeployConfig struct {
	Branch       string       `mapstructure:"branch"`
	PipelineFile string       `mapstructure:"pipeline_file"`
	Artifact     string       `mapstructure:"artifact"`
	Target       TargetConfig `mapstructure:"target"`
	Notify       NotifyConfig `mapstructure:"notify"`
}

type AppConfig struct {
	Server  ServerConfig  `mapstructure:"server"`
	Log     LogConfig     `mapstructure:"log"`
	Service ServiceConfig `mapstructure:"service"`
	Deploy  DeployConfig  `mapstructure:"deploy"`
}

/**
 * Load application configuration from YAML file
 */
func LoadConfig() (*AppConfig, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg AppConfig
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

var Config AppConfig

// collectConfig 填充缺省值，保证各组件拿到的配置总是可用的
func collectConfig(cfg *AppConfig) *AppConfig {
	if cfg.Server.Address == "" {
		cfg.Server.Address = "127.0.0.1:8999"
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = "release"
	}
	if cfg.Service.Name == "" {
		cfg.Service.Name = "predict-backend"
	}
	if cfg.Service.Host == "" {
		cfg.Service.Host = "localhost"
	}
	if cfg.Service.Health.Path == "" {
		cfg.Service.Health.Path = "/health"
	}
	if cfg.Service.Health.MaxAttempts <= 0 {
		cfg.Service.Health.MaxAttempts = 5
	}
	if cfg.Service.Health.Interval <= 0 {
		cfg.Service.Health.Interval = 2 * time.Second
	}
	if cfg.Service.Health.RequestTimeout <= 0 {
		cfg.Service.Health.RequestTimeout = 3 * time.Second
	}
	if len(cfg.Service.Escalation) == 0 {
		cfg.Service.Escalation = []EscalationStep{
			{Signal: "SIGTERM", Wait: 5 * time.Second},
			{Signal: "SIGKILL", Wait: 2 * time.Second},
		}
	}
	if cfg.Deploy.Branch == "" {
		cfg.Deploy.Branch = "master"
	}
	if cfg.Deploy.PipelineFile == "" {
		cfg.Deploy.PipelineFile = "pipeline.yaml"
	}
	if cfg.Deploy.Target.Type == "" {
		cfg.Deploy.Target.Type = "local"
	}
	return cfg
}

func init() {
	cfg, err := LoadConfig()
	if err == nil {
		Config = *cfg
	}
	collectConfig(&Config)
}
