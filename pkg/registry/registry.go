// Package registry keeps the set of use-case kinds the engine can run.
package registry

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"plugin"
	"sort"
	"sync"

	"github.com/dukex/dno/pkg/models"
	"github.com/dukex/dno/pkg/protocol"
)

// PluginSymbol is the exported variable a use-case plugin must provide. It
// holds a []protocol.UseCaseFactory.
const PluginSymbol = "UseCases"

var ErrInvalidPlugin = errors.New("invalid use case plugin")

type Registry struct {
	logger    *slog.Logger
	mu        sync.RWMutex
	factories map[string]protocol.UseCaseFactory
}

func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{
		logger:    log,
		factories: make(map[string]protocol.UseCaseFactory),
	}
}

// Register validates the declaration and makes the kind available. A kind
// registered twice keeps the last factory.
func (r *Registry) Register(factory protocol.UseCaseFactory) error {
	if err := CheckDeclaration(factory); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[factory.ID()]; exists {
		r.logger.Warn("Use case kind registered twice, replacing", slog.String("kind", factory.ID()))
	}

	r.factories[factory.ID()] = factory

	r.logger.Debug("Registered use case", slog.String("kind", factory.ID()), slog.Int("actions", len(factory.Actions())))

	return nil
}

func (r *Registry) MustRegister(factories ...protocol.UseCaseFactory) {
	for _, f := range factories {
		if err := r.Register(f); err != nil {
			panic(err)
		}
	}
}

// Get returns the factory for kind, or a not-found error.
func (r *Registry) Get(kind string) (protocol.UseCaseFactory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.factories[kind]
	if !ok {
		return nil, &models.NotFoundError{Resource: "use case", ID: kind}
	}

	return factory, nil
}

// Kinds returns the registered kind names in lexical order.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]string, 0, len(r.factories))
	for kind := range r.factories {
		kinds = append(kinds, kind)
	}

	sort.Strings(kinds)

	return kinds
}

// Describe returns the public declaration of kind.
func (r *Registry) Describe(kind string) (models.UseCaseDescriptor, error) {
	factory, err := r.Get(kind)
	if err != nil {
		return models.UseCaseDescriptor{}, err
	}

	return protocol.Describe(factory), nil
}

func (r *Registry) HealthCheck() (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.factories) == 0 {
		return "no use cases registered", false
	}

	return fmt.Sprintf("%d use cases registered", len(r.factories)), true
}

// LoadUseCasePlugins opens every *.so below pluginsPath/usecases and
// registers the factories it exports.
func (r *Registry) LoadUseCasePlugins(pluginsPath string) error {
	list, err := loadPlugin[*[]protocol.UseCaseFactory](r.logger, pluginsPath, PluginSymbol)
	if err != nil {
		return err
	}

	for _, factories := range list {
		for _, factory := range *factories {
			if err := r.Register(factory); err != nil {
				return err
			}
		}
	}

	return nil
}

func loadPlugin[T any](logger *slog.Logger, pluginsPath string, symbolName string) ([]T, error) {
	rootPath := filepath.Join(pluginsPath, "usecases")

	if _, err := os.Stat(rootPath); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}

	pluginPathList, err := fs.Glob(os.DirFS(rootPath), "*/*.so")
	if err != nil {
		return nil, err
	}

	top, err := fs.Glob(os.DirFS(rootPath), "*.so")
	if err != nil {
		return nil, err
	}

	pluginPathList = append(top, pluginPathList...)

	l := logger.With(slog.String("path", rootPath), slog.String("symbol", symbolName))
	l.Info("Loading plugins")

	pluginList := make([]T, 0, len(pluginPathList))
	for _, p := range pluginPathList {
		plg, err := plugin.Open(filepath.Join(rootPath, p))
		if err != nil {
			return nil, fmt.Errorf("%w: open %s: %w", ErrInvalidPlugin, p, err)
		}

		v, err := plg.Lookup(symbolName)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidPlugin, p, err)
		}

		castV, ok := v.(T)
		if !ok {
			return nil, fmt.Errorf("%w: %s: symbol %s has type %T", ErrInvalidPlugin, p, symbolName, v)
		}

		pluginList = append(pluginList, castV)

		l.Info("Loaded use case plugin", slog.String("plugin", p))
	}

	return pluginList, nil
}
