package offline_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/runtime-copilot/cluster-harness/pkg/offline"
)

func testInputs() offline.Inputs {
	return offline.Inputs{
		ChartRepoURL:      "https://charts.corp.example",
		ChartRepoPassword: "s3cret",
		ChartName:         "runtime-copilot",
		ChartVersion:      "0.0.5",
		BundleDir:         "/tmp/bundle",
		ClusterName:       "host",
	}
}

type downloadConfig struct {
	Source struct {
		Repo struct {
			URL  string `yaml:"url"`
			Auth struct {
				Password string `yaml:"password"`
			} `yaml:"auth"`
		} `yaml:"repo"`
	} `yaml:"source"`
	Target struct {
		IntermediateBundlesPath string `yaml:"intermediateBundlesPath"`
	} `yaml:"target"`
	Charts []struct {
		Name     string   `yaml:"name"`
		Versions []string `yaml:"versions"`
	} `yaml:"charts"`
}

func TestRenderDownloadConfig(t *testing.T) {
	t.Parallel()

	out, err := offline.RenderDownloadConfig(testInputs())
	require.NoError(t, err)

	var config downloadConfig

	require.NoError(t, yaml.Unmarshal(out, &config))
	assert.Equal(t, "https://charts.corp.example", config.Source.Repo.URL)
	assert.Equal(t, "s3cret", config.Source.Repo.Auth.Password)
	assert.Equal(t, "/tmp/bundle", config.Target.IntermediateBundlesPath)
	require.Len(t, config.Charts, 1)
	assert.Equal(t, "runtime-copilot", config.Charts[0].Name)
	assert.Equal(t, []string{"0.0.5"}, config.Charts[0].Versions)
}

type loadConfig struct {
	Source struct {
		IntermediateBundlesPath string `yaml:"intermediateBundlesPath"`
	} `yaml:"source"`
	Target struct {
		ContainerRegistry string `yaml:"containerRegistry"`
	} `yaml:"target"`
}

func TestRenderLoadConfig(t *testing.T) {
	t.Parallel()

	out, err := offline.RenderLoadConfig(testInputs(), "127.0.0.1:5011")
	require.NoError(t, err)

	var config loadConfig

	require.NoError(t, yaml.Unmarshal(out, &config))
	assert.Equal(t, "/tmp/bundle", config.Source.IntermediateBundlesPath)
	assert.Equal(t, "127.0.0.1:5011", config.Target.ContainerRegistry)
}

func TestSetDocumentFieldsRejectsUnknownPath(t *testing.T) {
	t.Parallel()

	_, err := offline.SetDocumentFields([]byte("a:\n  b: 1\n"), map[string]string{"a.c": "x"})
	require.ErrorIs(t, err, offline.ErrConfigFieldNotFound)
}

func TestRenderHostsConfigSubstitutesEndpoint(t *testing.T) {
	t.Parallel()

	out := offline.RenderHostsConfig("harness-registry:5000")
	assert.Contains(t, out, `server = "http://harness-registry:5000"`)
	assert.Contains(t, out, `[host."http://harness-registry:5000"]`)
	assert.NotContains(t, out, "REGISTRY_ENDPOINT")
}
