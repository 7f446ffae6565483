// Package cmd provides common initialization functions for command-line applications.
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/dukex/dno/internal/usecases/servers"
	"github.com/dukex/dno/pkg/registry"
)

func registerUseCasePlugins(reg *registry.Registry, pluginsPath string) error {
	if pluginsPath == "" {
		return nil
	}

	if err := reg.LoadUseCasePlugins(pluginsPath); err != nil {
		return fmt.Errorf("failed to load use case plugins: %w", err)
	}

	return nil
}

func registerNativeUseCases(reg *registry.Registry) error {
	for _, factory := range servers.UseCases() {
		if err := reg.Register(factory); err != nil {
			return err
		}
	}

	return nil
}

// NewRegistry registers the built-in use cases, then the plugins found under
// pluginsPath. A plugin kind named like a built-in replaces it.
func NewRegistry(log *slog.Logger, pluginsPath string) (*registry.Registry, error) {
	reg := registry.NewRegistry(log)

	if err := registerNativeUseCases(reg); err != nil {
		return nil, err
	}

	if err := registerUseCasePlugins(reg, pluginsPath); err != nil {
		return nil, err
	}

	return reg, nil
}
