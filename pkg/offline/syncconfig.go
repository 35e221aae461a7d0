package offline

import (
	_ "embed"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed templates/sync-download.yaml
var downloadConfigTemplate []byte

//go:embed templates/sync-load.yaml
var loadConfigTemplate []byte

//go:embed templates/hosts.toml
var hostsTemplate string

// ErrConfigFieldNotFound indicates a charts-syncer config path could not be
// resolved in the template document.
var ErrConfigFieldNotFound = errors.New("config field not found")

// setDocumentFields parses a YAML document, replaces the scalar at each
// dot-separated path (numeric segments index into sequences), and re-encodes
// it. Paths that do not resolve fail rather than silently leaving template
// defaults in place.
func setDocumentFields(doc []byte, fields map[string]string) ([]byte, error) {
	var root yaml.Node

	err := yaml.Unmarshal(doc, &root)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config template: %w", err)
	}

	for path, value := range fields {
		node, err := resolvePath(&root, path)
		if err != nil {
			return nil, err
		}

		node.SetString(value)
	}

	out, err := yaml.Marshal(&root)
	if err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}

	return out, nil
}

func resolvePath(root *yaml.Node, path string) (*yaml.Node, error) {
	node := root
	if node.Kind == yaml.DocumentNode && len(node.Content) > 0 {
		node = node.Content[0]
	}

	for _, segment := range strings.Split(path, ".") {
		next, err := childNode(node, segment)
		if err != nil {
			return nil, fmt.Errorf("%w: %q (at %q)", ErrConfigFieldNotFound, path, segment)
		}

		node = next
	}

	return node, nil
}

func childNode(node *yaml.Node, segment string) (*yaml.Node, error) {
	switch node.Kind {
	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			if node.Content[i].Value == segment {
				return node.Content[i+1], nil
			}
		}
	case yaml.SequenceNode:
		index, err := strconv.Atoi(segment)
		if err == nil && index >= 0 && index < len(node.Content) {
			return node.Content[index], nil
		}
	}

	return nil, ErrConfigFieldNotFound
}

// renderDownloadConfig produces the charts-syncer config for pulling the
// chart bundle from the upstream repository into the bundle directory.
func renderDownloadConfig(inputs Inputs) ([]byte, error) {
	return setDocumentFields(downloadConfigTemplate, map[string]string{
		"source.repo.url":                inputs.ChartRepoURL,
		"source.repo.auth.password":      inputs.ChartRepoPassword,
		"target.intermediateBundlesPath": inputs.BundleDir,
		"charts.0.name":                  inputs.ChartName,
		"charts.0.versions.0":            inputs.ChartVersion,
	})
}

// renderLoadConfig produces the charts-syncer config for pushing the bundled
// chart and images into the local registry.
func renderLoadConfig(inputs Inputs, registryEndpoint string) ([]byte, error) {
	return setDocumentFields(loadConfigTemplate, map[string]string{
		"source.intermediateBundlesPath": inputs.BundleDir,
		"target.containerRegistry":       registryEndpoint,
		"charts.0.name":                  inputs.ChartName,
		"charts.0.versions.0":            inputs.ChartVersion,
	})
}

// renderHostsConfig produces the containerd hosts.toml pointing the runtime
// at the local registry endpoint.
func renderHostsConfig(registryEndpoint string) string {
	return strings.ReplaceAll(hostsTemplate, "REGISTRY_ENDPOINT", registryEndpoint)
}
