package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/comalice/fsmx"
)

// MachineConfig is a declarative registration table for one machine:
//
//	id: knight-1
//	initial: idle
//	states: [idle, take_damage, die]
//
// State names refer to keys of a fsmx.Catalog.
type MachineConfig struct {
	ID      string   `json:"id" yaml:"id"`
	Initial string   `json:"initial" yaml:"initial"`
	States  []string `json:"states" yaml:"states"`
}

// Parse decodes and validates a YAML machine table. Unknown fields are
// rejected.
func Parse(data []byte) (*MachineConfig, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var c MachineConfig
	if err := dec.Decode(&c); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrInvalidConfig)
		}
		return nil, errors.Join(ErrParsingConfig, err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// LoadFile reads and parses the machine table at path.
func LoadFile(path string) (*MachineConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load machine config: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("load machine config %s: %w", path, err)
	}
	return c, nil
}

// Validate validates the table:
// - Non-empty ID and Initial
// - At least one state, no empty or repeated names
// - Initial is listed in States
func (c *MachineConfig) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("%w: machine id is required", ErrInvalidConfig)
	}
	if c.Initial == "" {
		return fmt.Errorf("%w: initial state is required", ErrInvalidConfig)
	}
	if len(c.States) == 0 {
		return fmt.Errorf("%w: states list is required and cannot be empty", ErrInvalidConfig)
	}

	seen := make(map[string]bool, len(c.States))
	for i, s := range c.States {
		if s == "" {
			return fmt.Errorf("%w: state %d has an empty name", ErrInvalidConfig, i)
		}
		if seen[s] {
			return fmt.Errorf("%w: state %q listed twice", ErrInvalidConfig, s)
		}
		seen[s] = true
	}
	if !seen[c.Initial] {
		return fmt.Errorf("%w: initial state %q not found in states", ErrInvalidConfig, c.Initial)
	}
	return nil
}

// InitialKey returns Initial as a state key.
func (c *MachineConfig) InitialKey() fsmx.StateKey {
	return fsmx.StateKey(c.Initial)
}

// Keys returns States as state keys, in file order.
func (c *MachineConfig) Keys() []fsmx.StateKey {
	keys := make([]fsmx.StateKey, len(c.States))
	for i, s := range c.States {
		keys[i] = fsmx.StateKey(s)
	}
	return keys
}

// Marshal encodes the table as YAML.
func (c *MachineConfig) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// Discovery binds the table to catalog. Every listed state must be in the
// catalog.
func Discovery[O fsmx.Owner](c *MachineConfig, catalog *fsmx.Catalog[O]) (fsmx.Discovery[O], error) {
	keys := c.Keys()
	for _, k := range keys {
		if !catalog.Has(k) {
			return nil, fmt.Errorf("%w: machine %q: state %q not in catalog", ErrInvalidConfig, c.ID, k)
		}
	}
	return catalog.Select(keys...), nil
}

// Options returns the machine options for the table: its id and the bound
// discovery.
func Options[O fsmx.Owner](c *MachineConfig, catalog *fsmx.Catalog[O]) ([]fsmx.Option[O], error) {
	d, err := Discovery(c, catalog)
	if err != nil {
		return nil, err
	}
	return []fsmx.Option[O]{
		fsmx.WithID[O](c.ID),
		fsmx.WithDiscovery(d),
	}, nil
}
