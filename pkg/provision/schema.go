// Package provision declares the custom-field schema of a Sellsy account as
// a YAML file and applies it: property definitions first, then the groups
// arranging them.
package provision

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/lutece-labs/sellsy-bridge/pkg/sellsy"
)

// PropertySpec declares one custom property.
type PropertySpec struct {
	Code        string         `yaml:"code"`
	Label       string         `yaml:"label"`
	Type        string         `yaml:"type"`
	UseOn       []string       `yaml:"use_on"`
	Choices     []string       `yaml:"choices,omitempty"`
	Preferences map[string]any `yaml:"preferences,omitempty"`
}

// GroupSpec declares one property group and its ordered members.
type GroupSpec struct {
	Code       string   `yaml:"code"`
	Label      string   `yaml:"label"`
	Properties []string `yaml:"properties"`
}

// Schema is the full declared shape of an account's custom fields.
type Schema struct {
	Properties []PropertySpec `yaml:"properties"`
	Groups     []GroupSpec    `yaml:"groups"`
}

// Load reads and validates a schema file.
func Load(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}

	var schema Schema
	if err := yaml.Unmarshal(data, &schema); err != nil {
		return nil, fmt.Errorf("failed to parse schema file: %w", err)
	}

	if err := schema.validate(); err != nil {
		return nil, err
	}
	return &schema, nil
}

func (s *Schema) validate() error {
	valid := make(map[string]bool, len(sellsy.PropertyDataTypes))
	for _, t := range sellsy.PropertyDataTypes {
		valid[t] = true
	}

	seen := make(map[string]bool)
	for _, prop := range s.Properties {
		if prop.Code == "" {
			return fmt.Errorf("property %q has no code", prop.Label)
		}
		if strings.Contains(prop.Code, "_") {
			return fmt.Errorf("property code %q contains an underscore, use dashes instead", prop.Code)
		}
		if !valid[prop.Type] {
			return fmt.Errorf("property %q has unknown type %q", prop.Code, prop.Type)
		}
		if seen[prop.Code] {
			return fmt.Errorf("property code %q declared twice", prop.Code)
		}
		seen[prop.Code] = true
	}

	for _, group := range s.Groups {
		if group.Code == "" {
			return fmt.Errorf("group %q has no code", group.Label)
		}
		if strings.Contains(group.Code, "_") {
			return fmt.Errorf("group code %q contains an underscore, use dashes instead", group.Code)
		}
		for _, member := range group.Properties {
			if !seen[member] {
				return fmt.Errorf("group %q references undeclared property %q", group.Code, member)
			}
		}
	}
	return nil
}

// Apply provisions the schema against the account. With replace set,
// existing property and group definitions are wiped first.
func Apply(c *sellsy.Client, schema *Schema, replace bool) error {
	if replace {
		slog.Info("removing existing property groups")
		if err := c.DeleteAllPropertyGroups(); err != nil {
			return fmt.Errorf("failed to remove existing groups: %w", err)
		}
		slog.Info("removing existing properties")
		if err := c.DeleteAllProperties(); err != nil {
			return fmt.Errorf("failed to remove existing properties: %w", err)
		}
	}

	for _, prop := range schema.Properties {
		slog.Info("creating property", "code", prop.Code, "type", prop.Type)
		id, err := c.CreateProperty(prop.Code, prop.Label, prop.UseOn, prop.Type, prop.Choices, prop.Preferences)
		if err != nil {
			return fmt.Errorf("failed to create property %q: %w", prop.Code, err)
		}
		slog.Debug("property created", "code", prop.Code, "id", id)
	}

	for _, group := range schema.Groups {
		slog.Info("creating property group", "code", group.Code, "members", len(group.Properties))
		if _, err := c.CreatePropertyGroup(group.Code, group.Label, group.Properties); err != nil {
			return fmt.Errorf("failed to create group %q: %w", group.Code, err)
		}
	}

	return nil
}
