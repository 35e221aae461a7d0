// Package config loads harness settings from an optional harness.yaml file
// and HARNESS_-prefixed environment variables, with environment taking
// precedence over the file and the file over built-in defaults.
package config

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/runtime-copilot/cluster-harness/pkg/ui/notify"
)

// EnvPrefix is the prefix for environment variable overrides, e.g.
// HARNESS_CLUSTER_NAME.
const EnvPrefix = "HARNESS"

const configName = "harness"

// ErrClusterNameEmpty indicates the configuration resolved to an empty
// cluster name, which every operation needs.
var ErrClusterNameEmpty = errors.New("cluster name must not be empty")

// ClusterConfig selects the kind cluster the harness manages.
type ClusterConfig struct {
	Name           string `mapstructure:"name"`
	KubeconfigPath string `mapstructure:"kubeconfig"`
	NodeImage      string `mapstructure:"node-image"`
	ConfigPath     string `mapstructure:"config-path"`
	ContextAlias   string `mapstructure:"context-alias"`
	NetworkName    string `mapstructure:"network"`
	APIPort        int    `mapstructure:"api-port"`
}

// RegistryConfig selects the local registry used by the offline workflow.
type RegistryConfig struct {
	Name string `mapstructure:"name"`
	Port int    `mapstructure:"port"`
}

// ChartConfig selects the chart bundle the offline workflow syncs.
type ChartConfig struct {
	RepoURL      string `mapstructure:"repo-url"`
	RepoPassword string `mapstructure:"repo-password"`
	Name         string `mapstructure:"name"`
	Version      string `mapstructure:"version"`
	BundleDir    string `mapstructure:"bundle-dir"`
	WorkDir      string `mapstructure:"work-dir"`
}

// TimeoutConfig bounds the readiness and resource polling stages.
type TimeoutConfig struct {
	Stage time.Duration `mapstructure:"stage"`
	Poll  time.Duration `mapstructure:"poll"`
}

// Config is the root harness configuration.
type Config struct {
	Cluster  ClusterConfig  `mapstructure:"cluster"`
	Registry RegistryConfig `mapstructure:"registry"`
	Chart    ChartConfig    `mapstructure:"chart"`
	Timeouts TimeoutConfig  `mapstructure:"timeouts"`
}

// Manager reads harness configuration through a dedicated Viper instance.
type Manager struct {
	Viper  *viper.Viper
	writer io.Writer
}

// NewManager creates a configuration manager that looks for harness.yaml in
// the working directory and honors HARNESS_ environment overrides.
func NewManager(writer io.Writer) *Manager {
	if writer == nil {
		writer = io.Discard
	}

	viperInstance := viper.New()
	viperInstance.SetConfigName(configName)
	viperInstance.SetConfigType("yaml")
	viperInstance.AddConfigPath(".")
	viperInstance.SetEnvPrefix(EnvPrefix)
	viperInstance.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viperInstance.AutomaticEnv()

	setDefaults(viperInstance)

	return &Manager{Viper: viperInstance, writer: writer}
}

// SetConfigFile pins the manager to an explicit config file path instead of
// searching the working directory.
func (m *Manager) SetConfigFile(path string) {
	m.Viper.SetConfigFile(path)
}

// setDefaults registers every key. Keys without a meaningful default get a
// zero value so environment-only overrides still surface in Unmarshal.
func setDefaults(viperInstance *viper.Viper) {
	viperInstance.SetDefault("cluster.name", "host")
	viperInstance.SetDefault("cluster.kubeconfig", "")
	viperInstance.SetDefault("cluster.node-image", "")
	viperInstance.SetDefault("cluster.config-path", "")
	viperInstance.SetDefault("cluster.context-alias", "")
	viperInstance.SetDefault("chart.repo-url", "")
	viperInstance.SetDefault("chart.repo-password", "")
	viperInstance.SetDefault("chart.version", "")
	viperInstance.SetDefault("chart.work-dir", "")
	viperInstance.SetDefault("cluster.network", "kind")
	viperInstance.SetDefault("cluster.api-port", 6443)
	viperInstance.SetDefault("registry.name", "harness-registry")
	viperInstance.SetDefault("registry.port", 5000)
	viperInstance.SetDefault("chart.name", "runtime-copilot")
	viperInstance.SetDefault("chart.bundle-dir", "/tmp/bundle")
	viperInstance.SetDefault("timeouts.stage", 300*time.Second)
	viperInstance.SetDefault("timeouts.poll", 5*time.Second)
}

// Load reads the configuration. A missing config file is not an error; the
// defaults and environment overrides still apply.
func (m *Manager) Load() (*Config, error) {
	err := m.readConfig()
	if err != nil {
		return nil, err
	}

	var config Config

	err = m.Viper.Unmarshal(&config)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if config.Cluster.Name == "" {
		return nil, ErrClusterNameEmpty
	}

	return &config, nil
}

func (m *Manager) readConfig() error {
	err := m.Viper.ReadInConfig()
	if err == nil {
		notify.Infof(m.writer, "using config file %s", m.Viper.ConfigFileUsed())

		return nil
	}

	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		return nil
	}

	return fmt.Errorf("failed to read config file: %w", err)
}
