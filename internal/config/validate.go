package config

import (
	"errors"
	"fmt"
	"slices"
)

// Resolve returns a sorted list of module IDs from the configuration.
// The deterministic order ensures consistent module loading.
func Resolve(cfg *Config) []string {
	ids := make([]string, 0, len(cfg.Modules))
	for id := range cfg.Modules {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Validate checks structural constraints on the configuration.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Version != "" && cfg.Version != "1" {
		errs = append(errs, fmt.Errorf("config: unsupported version %q", cfg.Version))
	}
	if len(cfg.Modules) == 0 {
		errs = append(errs, errors.New("config: no modules configured"))
	}
	for id := range cfg.Modules {
		if id == "" {
			errs = append(errs, errors.New("config: empty module ID"))
		}
	}

	return errors.Join(errs...)
}
