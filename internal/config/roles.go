package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadRoleOverrides reads a YAML file mapping role names to persona/toolset/model
// overrides. The set of valid role names is enforced by the agent roster, not here.
func LoadRoleOverrides(path string) (map[string]RoleConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read roles file: %w", err)
	}

	var overrides map[string]RoleConfig
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("parse roles file %s: %w", path, err)
	}
	return overrides, nil
}
