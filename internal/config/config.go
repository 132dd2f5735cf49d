// Package config loads the rulekit command configuration: logging, the
// attribute schema and the named rules.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/ezachrisen/rulekit"
	"github.com/ezachrisen/rulekit/internal/logging"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config is the top level of the configuration file.
type Config struct {
	Log    logging.Config `yaml:"log"`
	Schema SchemaConfig   `yaml:"schema"`
	Rules  []RuleConfig   `yaml:"rules"`
}

// SchemaConfig describes the attributes rules may refer to.
type SchemaConfig struct {
	ID       string          `yaml:"id"`
	Name     string          `yaml:"name"`
	Elements []ElementConfig `yaml:"elements"`
}

// ElementConfig describes one attribute.
type ElementConfig struct {
	Name string `yaml:"name"`

	// Type is one of string, int, float (or number), bool, any.
	Type string `yaml:"type"`

	// Operators restricts the comparison operators allowed on the
	// attribute. Empty allows all.
	Operators []string `yaml:"operators"`

	Description string `yaml:"description"`
}

// RuleConfig is a named rule.
type RuleConfig struct {
	ID          string `yaml:"id"`
	Expr        string `yaml:"expr"`
	Description string `yaml:"description"`
}

// Load reads and validates the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading configuration file %q", path)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "loading configuration file %q", path)
	}
	return cfg, nil
}

// Parse decodes and validates YAML configuration.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "parsing configuration")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the schema and compiles every rule against it.
func (c *Config) Validate() error {
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return errors.Wrap(err, "log.level")
	}
	s, err := c.Schema.Build()
	if err != nil {
		return err
	}
	seen := map[string]bool{}
	for i, r := range c.Rules {
		if r.ID == "" {
			return errors.Errorf("rules[%d]: missing id", i)
		}
		if seen[r.ID] {
			return errors.Errorf("rules[%d]: duplicate id %s", i, r.ID)
		}
		seen[r.ID] = true
		if _, err := rulekit.Compile(r.Expr, rulekit.WithSchema(s)); err != nil {
			return errors.Wrapf(err, "rule %s", r.ID)
		}
	}
	return nil
}

// Build converts the configuration into a rulekit.Schema.
func (s SchemaConfig) Build() (rulekit.Schema, error) {
	out := rulekit.Schema{ID: s.ID, Name: s.Name}
	seen := map[string]bool{}
	for i, e := range s.Elements {
		if e.Name == "" {
			return rulekit.Schema{}, errors.Errorf("schema.elements[%d]: missing name", i)
		}
		if seen[e.Name] {
			return rulekit.Schema{}, errors.Errorf("schema element %s: declared twice", e.Name)
		}
		seen[e.Name] = true
		t, err := rulekit.ParseType(strings.ToLower(e.Type))
		if err != nil {
			return rulekit.Schema{}, errors.Wrapf(err, "schema element %s", e.Name)
		}
		de := rulekit.DataElement{Name: e.Name, Type: t, Description: e.Description}
		for _, o := range e.Operators {
			op, err := rulekit.ParseOp(o)
			if err != nil {
				return rulekit.Schema{}, errors.Wrapf(err, "schema element %s", e.Name)
			}
			de.Operators = append(de.Operators, op)
		}
		out.Elements = append(out.Elements, de)
	}
	return out, nil
}

// String summarizes the configuration.
func (c *Config) String() string {
	return fmt.Sprintf("schema %q with %d elements, %d rules", c.Schema.ID, len(c.Schema.Elements), len(c.Rules))
}
