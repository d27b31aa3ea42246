// internal/config/config.go
package config

import (
	"time"

	"github.com/spf13/viper"
)

// ScheduleConfig declares one recurring agent execution.
type ScheduleConfig struct {
	Name      string         `mapstructure:"name"`
	CronExpr  string         `mapstructure:"cron_expr"`
	AgentType string         `mapstructure:"agent_type"`
	Inputs    map[string]any `mapstructure:"inputs"`
}

// Config holds all configuration for the service.
// The mapstructure tags are used by Viper to unmarshal the data.
type Config struct {
	HttpListenAddr      string           `mapstructure:"http_listen_addr"`
	ResultsDir          string           `mapstructure:"results_dir"`
	EvidenceDir         string           `mapstructure:"evidence_dir"`
	MaxConcurrentAgents int              `mapstructure:"max_concurrent_agents"`
	ExecutionTimeout    time.Duration    `mapstructure:"execution_timeout"`
	Schedules           []ScheduleConfig `mapstructure:"schedules"`
}

// Load loads configuration from file and environment variables.
func Load() (*Config, error) {
	// Set default values
	viper.SetDefault("http_listen_addr", ":8080")
	viper.SetDefault("results_dir", "test_results")
	viper.SetDefault("evidence_dir", "test_evidences")
	viper.SetDefault("max_concurrent_agents", 10)
	viper.SetDefault("execution_timeout", "1h")

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")

	viper.SetEnvPrefix("qf")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// No config file; rely on defaults and env vars.
		} else {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
