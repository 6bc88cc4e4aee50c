// Package catalog wires address, edgestore, exprscan, descriptor,
// classregistry, and dropengine into one embeddable Catalog type, the
// way a real catalog backend would: this package owns no cascading
// policy of its own, it only constructs and configures the engine
// pieces (spec §1, "Out of scope: physical catalog storage").
//
// Configuration is environment-variable driven, following the
// teacher's pkg/config.LoadFromEnv()/Validate() shape, plus an
// optional YAML override file following apoc/config.go's
// LoadConfig(path) pattern.
package catalog

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config controls the ambient behavior of a Catalog: which backend its
// EdgeStore uses, the distributed-execution role flag that downgrades
// NOTICE to DEBUG1 (spec §6), and an AddressSet capacity value.
// AddressSetCapacity is loaded and validated but Open does not pass it
// on: every AddressSet starts at address.NewSet's fixed capacity of 32.
//
// Environment Variables:
//
//	CATALOGDEP_STORE_BACKEND        - "memory" or "badger" (default: "memory")
//	CATALOGDEP_BADGER_DIR           - BadgerDB data directory (required for badger backend)
//	CATALOGDEP_DISTRIBUTED_ROLE     - "true" to downgrade NOTICE to DEBUG1 (default: false)
//	CATALOGDEP_ADDRESS_SET_CAPACITY - sets AddressSetCapacity (default: 32); not used by Open
type Config struct {
	StoreBackend       string `yaml:"store_backend"`
	BadgerDir          string `yaml:"badger_dir"`
	DistributedRole    bool   `yaml:"distributed_role"`
	AddressSetCapacity int    `yaml:"address_set_capacity"`
}

// DefaultConfig returns the configuration an embedded, single-process
// catalog uses out of the box: an in-memory EdgeStore, no distributed
// downgrade, default AddressSet sizing.
func DefaultConfig() *Config {
	return &Config{
		StoreBackend:       "memory",
		AddressSetCapacity: 32,
	}
}

// LoadFromEnv loads Config from environment variables, falling back to
// DefaultConfig for anything unset. This is the recommended approach
// for container deployments, matching pkg/config.LoadFromEnv().
func LoadFromEnv() *Config {
	cfg := DefaultConfig()
	if v := os.Getenv("CATALOGDEP_STORE_BACKEND"); v != "" {
		cfg.StoreBackend = v
	}
	if v := os.Getenv("CATALOGDEP_BADGER_DIR"); v != "" {
		cfg.BadgerDir = v
	}
	if v := os.Getenv("CATALOGDEP_DISTRIBUTED_ROLE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.DistributedRole = b
		}
	}
	if v := os.Getenv("CATALOGDEP_ADDRESS_SET_CAPACITY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.AddressSetCapacity = n
		}
	}
	return cfg
}

// LoadConfig reads a YAML override file, merging it onto DefaultConfig
// (a field absent from the file keeps the default), following
// apoc.LoadConfig(path)'s pattern.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("catalog: parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports a misconfiguration that would otherwise surface as
// a confusing failure later (e.g. an empty BadgerDir with the badger
// backend selected).
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case "memory":
	case "badger":
		if c.BadgerDir == "" {
			return fmt.Errorf("catalog: CATALOGDEP_BADGER_DIR is required when store_backend=badger")
		}
	default:
		return fmt.Errorf("catalog: unrecognized store_backend %q (want memory or badger)", c.StoreBackend)
	}
	if c.AddressSetCapacity <= 0 {
		return fmt.Errorf("catalog: address_set_capacity must be positive, got %d", c.AddressSetCapacity)
	}
	return nil
}
