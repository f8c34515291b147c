package config

import (
	"fmt"
	"io/ioutil"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// BootstrapConfig holds the initial configuration loaded from navigator_config.yaml
type BootstrapConfig struct {
	Logging    LoggingConfig         `yaml:"logging"`
	Server     BootstrapServerConfig `yaml:"server"`
	ZeroMQ     ZeroMQBootstrap       `yaml:"zeromq"`
	Data       DataConfig            `yaml:"data"`
	Processing ProcessingConfig      `yaml:"processing"`
}

// LoggingConfig holds logging settings from bootstrap
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogPath string `yaml:"log_path,omitempty"`
}

// BootstrapServerConfig holds bootstrap HTTP server settings
type BootstrapServerConfig struct {
	HTTPPort int `yaml:"http_port"`
}

// ZeroMQBootstrap holds ZeroMQ settings from bootstrap
type ZeroMQBootstrap struct {
	RequestBindAddress  string `yaml:"request_bind_address"`
	PublishBindAddress  string `yaml:"publish_bind_address"`
	FeedBindAddress     string `yaml:"feed_bind_address"`
	MessageBufferSize   int    `yaml:"message_buffer_size"`
	ReconnectIntervalMs int    `yaml:"reconnect_interval_ms"`
}

// ProcessingConfig holds feed queue sizing from bootstrap
type ProcessingConfig struct {
	FeedQueueSize int `yaml:"feed_queue_size"`
}

// DataConfig holds data directory settings from bootstrap
type DataConfig struct {
	Directory             string `yaml:"directory"`
	MissionConfigFilename string `yaml:"mission_config_file"`
}

// LoadBootstrapConfig loads the bootstrap configuration from navigator_config.yaml
func LoadBootstrapConfig(configDir string) (*BootstrapConfig, error) {
	bootstrapConfigPath := filepath.Join(configDir, "navigator_config.yaml")

	data, err := ioutil.ReadFile(bootstrapConfigPath)
	if err != nil {
		return nil, fmt.Errorf("error reading bootstrap config file '%s': %w", bootstrapConfigPath, err)
	}

	var bootstrapCfg BootstrapConfig
	if err := yaml.Unmarshal(data, &bootstrapCfg); err != nil {
		return nil, fmt.Errorf("error parsing bootstrap config file '%s': %w", bootstrapConfigPath, err)
	}

	if bootstrapCfg.ZeroMQ.RequestBindAddress == "" {
		return nil, fmt.Errorf("missing required field in bootstrap config: zeromq.request_bind_address")
	}
	if bootstrapCfg.ZeroMQ.PublishBindAddress == "" {
		return nil, fmt.Errorf("missing required field in bootstrap config: zeromq.publish_bind_address")
	}
	if bootstrapCfg.ZeroMQ.FeedBindAddress == "" {
		return nil, fmt.Errorf("missing required field in bootstrap config: zeromq.feed_bind_address")
	}
	if bootstrapCfg.Data.Directory == "" {
		return nil, fmt.Errorf("missing required field in bootstrap config: data.directory")
	}
	if bootstrapCfg.Data.MissionConfigFilename == "" {
		return nil, fmt.Errorf("missing required field in bootstrap config: data.mission_config_file")
	}

	return &bootstrapCfg, nil
}
