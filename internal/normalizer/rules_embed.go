package normalizer

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed data/rules.yaml
var rulesYAML []byte

// RuleSpec is one rewrite rule as declared in data/rules.yaml
type RuleSpec struct {
	Name    string `yaml:"name"`
	Kind    string `yaml:"kind"`
	Pattern string `yaml:"pattern"`
	Replace string `yaml:"replace"`
	Func    string `yaml:"func"`
}

// RulesConfig holds the rule sets loaded from the embedded YAML
type RulesConfig struct {
	Simplify           []RuleSpec `yaml:"simplify"`
	Format             []RuleSpec `yaml:"format"`
	Neighborhood       []RuleSpec `yaml:"neighborhood"`
	SplitDelimiters    []string   `yaml:"split_delimiters"`
	InclusiveDelimiter string     `yaml:"inclusive_delimiter"`
}

// LoadRulesConfig decodes the embedded rule file
func LoadRulesConfig() (*RulesConfig, error) {
	return ParseRulesConfig(rulesYAML)
}

// ParseRulesConfig decodes a rule file in the data/rules.yaml format
func ParseRulesConfig(data []byte) (*RulesConfig, error) {
	config := &RulesConfig{}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("decode rules: %w", err)
	}
	if len(config.SplitDelimiters) == 0 {
		return nil, fmt.Errorf("decode rules: split_delimiters is empty")
	}
	return config, nil
}
