package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LoadConfig merges <configDir>/base.yaml with <configDir>/<env>.yaml when
// the latter exists. Secrets are not read here: the Override*FromEnv
// helpers apply them after decoding.
func LoadConfig(env string, configDir string) (map[string]interface{}, error) {
	if configDir == "" {
		configDir = "config"
	}

	merged, err := loadYAMLFile(filepath.Join(configDir, "base.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to load base.yaml: %w", err)
	}
	if env == "" || env == "base" {
		return merged, nil
	}

	envFile := filepath.Join(configDir, env+".yaml")
	if _, err := os.Stat(envFile); err != nil {
		return merged, nil
	}
	overlay, err := loadYAMLFile(envFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s.yaml: %w", env, err)
	}
	return mergeMaps(merged, overlay), nil
}

// Decode loads the merged configuration and decodes it into out.
func Decode(env, configDir string, out interface{}) error {
	merged, err := LoadConfig(env, configDir)
	if err != nil {
		return err
	}
	raw, err := yaml.Marshal(merged)
	if err != nil {
		return fmt.Errorf("failed to re-encode config: %w", err)
	}
	if err := yaml.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode config: %w", err)
	}
	return nil
}

func loadYAMLFile(path string) (map[string]interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var m map[string]interface{}
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	if m == nil {
		m = make(map[string]interface{})
	}
	return m, nil
}

// mergeMaps overlays src on dst, section by section.
func mergeMaps(dst, src map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(dst))
	for k, v := range dst {
		out[k] = v
	}
	for k, v := range src {
		base, baseIsMap := out[k].(map[string]interface{})
		over, overIsMap := v.(map[string]interface{})
		if baseIsMap && overIsMap {
			out[k] = mergeMaps(base, over)
			continue
		}
		out[k] = v
	}
	return out
}

// GetEnv returns the environment variable or defaultValue when unset
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetConfigEnv returns CONFIG_ENV, "local" by default
func GetConfigEnv() string {
	return GetEnv("CONFIG_ENV", "local")
}
