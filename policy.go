package sipstat

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Policy is a declarative compliance policy, typically loaded from a YAML
// file checked into a fleet or CI repository:
//
//	full_protection: true
//	flags:
//	  allow_untrusted_kexts: false
//	  allow_task_for_pid: false
//
// FullProtection requires the aggregate policy to be fully enforced. Each
// entry under flags requires the named operation to be permitted (true) or
// restricted (false).
type Policy struct {
	FullProtection bool            `yaml:"full_protection"`
	Flags          map[string]bool `yaml:"flags"`
}

// Requirements converts the policy into [Requirement] items consumable by
// [Check]. Flag entries are emitted in catalogue order so the first failure
// reported by Check is deterministic.
func (p *Policy) Requirements() ([]Requirement, error) {
	var reqs []Requirement
	if p.FullProtection {
		reqs = append(reqs, RequireFullProtection)
	}
	for _, def := range Definitions() {
		allowed, ok := p.Flags[def.Name]
		if !ok {
			continue
		}
		reqs = append(reqs, FlagRequirement{Flag: def.Flag, Allowed: allowed})
	}
	for name := range p.Flags {
		if _, err := ParseFlag(name); err != nil {
			return nil, fmt.Errorf("policy: %w", err)
		}
	}
	return reqs, nil
}

// ParsePolicy decodes a policy document. Unknown YAML fields are rejected so
// a misspelled key fails loudly instead of silently relaxing the policy.
func ParsePolicy(r io.Reader) (*Policy, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var p Policy
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("parse policy: %w", err)
	}
	return &p, nil
}

// LoadPolicy reads and decodes a policy file.
func LoadPolicy(path string) (*Policy, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open policy: %w", err)
	}
	defer f.Close()
	return ParsePolicy(f)
}
