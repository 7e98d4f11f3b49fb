package loyalty

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/noah-isme/backend-resto/internal/common"
)

// Program is the YAML seed of a tenant's tiers and earning rules.
//
//	tenant: warung-sate
//	tiers:
//	  - {name: Bronze, min_points: 0, multiplier_bps: 10000}
//	rules:
//	  - {name: Welcome, trigger: signup, points: 50}
type Program struct {
	Tenant string      `yaml:"tenant"`
	Tiers  []TierInput `yaml:"tiers"`
	Rules  []RuleInput `yaml:"rules"`
}

// LoadProgram decodes and validates a program file.
func LoadProgram(r io.Reader) (Program, error) {
	var p Program
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		return Program{}, fmt.Errorf("decode loyalty program: %w", err)
	}
	if p.Tenant == "" {
		return Program{}, fmt.Errorf("loyalty program: tenant is required: %w", common.ErrInvalidInput)
	}
	seen := map[string]bool{}
	for i, t := range p.Tiers {
		if err := common.ValidateStruct(t); err != nil {
			return Program{}, fmt.Errorf("tier %d: %w", i, err)
		}
		if seen[t.Name] {
			return Program{}, fmt.Errorf("tier %q declared twice: %w", t.Name, common.ErrInvalidInput)
		}
		seen[t.Name] = true
		p.Tiers[i].MultiplierBps = defaultMultiplier(t.MultiplierBps)
	}
	for i, r := range p.Rules {
		if err := r.check(); err != nil {
			return Program{}, fmt.Errorf("rule %d (%s): %w", i, r.Name, err)
		}
	}
	return p, nil
}
