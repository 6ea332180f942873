// Package core provides the module system foundation for courier.
package core

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"gopkg.in/yaml.v3"
)

// ModuleID uniquely identifies a module (e.g. "provider.whatsapp", "gateway").
type ModuleID string

// ModuleInfo describes a registered module.
type ModuleInfo struct {
	ID  ModuleID
	New func() Module
}

// Module is the minimal contract every courier module satisfies.
type Module interface {
	ModuleInfo() ModuleInfo
}

// Configurable is implemented by modules that accept YAML configuration.
// Called after instantiation and before Provision(). The node contains the
// raw YAML for this module's config section.
type Configurable interface {
	Configure(node *yaml.Node) error
}

// Provisioner is implemented by modules that need setup after instantiation.
// This is where modules apply defaults and acquire shared resources from the
// AppContext.
type Provisioner interface {
	Provision(ctx *AppContext) error
}

// Validator is implemented by modules that can verify their configuration is
// complete and correct. Called after Provision(). Validate must be read-only.
type Validator interface {
	Validate() error
}

// Starter is implemented by modules that run background work (connections,
// listeners, loops). Called after all modules are provisioned and validated.
type Starter interface {
	Start() error
}

// Stopper is implemented by modules that need to release resources.
// Called during shutdown in reverse order of Start().
type Stopper interface {
	Stop(ctx context.Context) error
}

var (
	registry   = make(map[string]ModuleInfo)
	registryMu sync.RWMutex
)

// RegisterModule registers a module by instantiating it to read its
// ModuleInfo. It panics on duplicate or invalid registrations; intended to be
// called from init() functions.
func RegisterModule(instance Module) {
	info := instance.ModuleInfo()
	if info.ID == "" {
		panic("core: module ID must not be empty")
	}
	if info.New == nil {
		panic(fmt.Sprintf("core: module %s: New must not be nil", info.ID))
	}

	registryMu.Lock()
	defer registryMu.Unlock()

	id := string(info.ID)
	if _, exists := registry[id]; exists {
		panic(fmt.Sprintf("core: module already registered: %s", id))
	}
	registry[id] = info
}

// GetModule returns the ModuleInfo for the given ID, or false if not found.
func GetModule(id string) (ModuleInfo, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	info, ok := registry[id]
	return info, ok
}

// GetModules returns all registered modules sorted by ID.
func GetModules() []ModuleInfo {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]ModuleInfo, 0, len(registry))
	for _, info := range registry {
		result = append(result, info)
	}
	slices.SortFunc(result, func(a, b ModuleInfo) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return result
}

// resetRegistry clears the registry. Only for testing.
func resetRegistry() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[string]ModuleInfo)
}
