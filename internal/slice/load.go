package slice

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load parses a Slice unit descriptor from path.
func Load(path string) (*Unit, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("slice: read %s: %w", path, err)
	}

	var u Unit
	if err := yaml.Unmarshal(raw, &u); err != nil {
		return nil, fmt.Errorf("slice: parse %s: %w", path, err)
	}

	if err := u.validate(); err != nil {
		return nil, fmt.Errorf("slice: %s: %w", path, err)
	}
	return &u, nil
}

// validate enforces the data-model invariant from spec §3 that the
// generator relies on: unique parameter names (in and out together)
// within each operation. A single base (or none) per exception needs no
// check, since Exception.Base holds at most one name.
func (u *Unit) validate() error {
	for _, iface := range u.Interfaces {
		for _, op := range iface.Operations {
			seen := make(map[string]bool, len(op.In)+len(op.Out))
			for _, p := range op.In {
				if seen[p.Name] {
					return fmt.Errorf("operation %s.%s: duplicate parameter name %q", iface.Name, op.Name, p.Name)
				}
				seen[p.Name] = true
			}
			for _, p := range op.Out {
				if seen[p.Name] {
					return fmt.Errorf("operation %s.%s: duplicate parameter name %q", iface.Name, op.Name, p.Name)
				}
				seen[p.Name] = true
			}
		}
	}
	return nil
}
