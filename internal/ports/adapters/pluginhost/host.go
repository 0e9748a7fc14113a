// Package pluginhost is an in-process capability registry. Built-in providers
// are registered by name; more can be loaded from Go plugin files.
package pluginhost

import (
	"errors"
	"fmt"
	"path/filepath"
	"plugin"
	"runtime"
	"sort"
	"sync"
)

const (
	// NamespaceSymbol is the exported string variable naming a plugin's capability.
	NamespaceSymbol = "Namespace"
	// ProviderSymbol is the exported func() any building the capability's provider.
	ProviderSymbol = "NewProvider"
)

var ErrDuplicate = errors.New("pluginhost: capability already registered")

// Extension is the file extension of loadable plugins on this platform.
func Extension() string {
	if runtime.GOOS == "windows" {
		return ".dll"
	}
	return ".so"
}

// Opener loads a plugin file and returns its namespace and provider.
type Opener func(path string) (namespace string, provider any, err error)

type Host struct {
	mu     sync.RWMutex
	caps   map[string]any
	loaded map[string]string // path -> namespace
	open   Opener
}

// New returns an empty host that loads plugins with the Go plugin package.
func New() *Host {
	return NewWithOpener(OpenGoPlugin)
}

func NewWithOpener(open Opener) *Host {
	return &Host{
		caps:   make(map[string]any),
		loaded: make(map[string]string),
		open:   open,
	}
}

// Register adds a built-in capability.
func (h *Host) Register(name string, provider any) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.caps[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicate, name)
	}
	h.caps[name] = provider
	return nil
}

func (h *Host) Has(name string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.caps[name]
	return ok
}

func (h *Host) Lookup(name string) (any, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	p, ok := h.caps[name]
	return p, ok
}

// Names lists registered capabilities, sorted.
func (h *Host) Names() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]string, 0, len(h.caps))
	for name := range h.caps {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Load opens the plugin file name+Extension() in dir and registers the
// capability it exports. Loading the same file twice is a no-op.
func (h *Host) Load(dir, name string) error {
	path := filepath.Join(dir, name+Extension())
	h.mu.RLock()
	_, done := h.loaded[path]
	h.mu.RUnlock()
	if done {
		return nil
	}

	ns, provider, err := h.open(path)
	if err != nil {
		return fmt.Errorf("load plugin %s: %w", path, err)
	}
	if ns == "" {
		return fmt.Errorf("load plugin %s: empty %s", path, NamespaceSymbol)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.caps[ns]; ok {
		return fmt.Errorf("load plugin %s: %w: %s", path, ErrDuplicate, ns)
	}
	h.caps[ns] = provider
	h.loaded[path] = ns
	return nil
}

// OpenGoPlugin loads a plugin built with -buildmode=plugin.
func OpenGoPlugin(path string) (string, any, error) {
	p, err := plugin.Open(path)
	if err != nil {
		return "", nil, err
	}

	sym, err := p.Lookup(NamespaceSymbol)
	if err != nil {
		return "", nil, err
	}
	ns, ok := sym.(*string)
	if !ok {
		return "", nil, fmt.Errorf("%s has type %T, want *string", NamespaceSymbol, sym)
	}

	sym, err = p.Lookup(ProviderSymbol)
	if err != nil {
		return "", nil, err
	}
	newProvider, ok := sym.(func() any)
	if !ok {
		return "", nil, fmt.Errorf("%s has type %T, want func() any", ProviderSymbol, sym)
	}
	return *ns, newProvider(), nil
}
