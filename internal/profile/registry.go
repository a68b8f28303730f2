package profile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/pelletier/go-toml/v2"

	"tapedeck/internal/logging"
)

// ErrNotFound is returned when a profile name is unknown to the registry.
var ErrNotFound = errors.New("profile not found")

// Registry holds the loaded transcoding profiles. Lookups run against an
// immutable table that Refresh replaces atomically, so readers never observe
// a half-updated set.
type Registry struct {
	path        string
	defaultName string
	logger      *slog.Logger

	mu    sync.RWMutex
	table map[string]*Profile
	order []string
}

// NewRegistry loads profile definitions from path. A missing file is not an
// error: the registry starts with only the built-in default profile, which
// keeps Default resolvable from the first start onward.
func NewRegistry(path, defaultName string, logger *slog.Logger) (*Registry, error) {
	defaultName = strings.TrimSpace(defaultName)
	if defaultName == "" {
		return nil, errors.New("default profile name is required")
	}
	r := &Registry{
		path:        path,
		defaultName: defaultName,
		logger:      logging.WithComponent(logger, "profiles"),
	}
	if err := r.Refresh(); err != nil {
		return nil, err
	}
	return r, nil
}

// Refresh reloads the full profile set from the configured source and swaps
// it in atomically. On failure the previous set stays in place.
func (r *Registry) Refresh() error {
	table, order, err := r.loadFile()
	if err != nil {
		return err
	}

	if _, ok := table[r.defaultName]; !ok {
		r.logger.Warn("default profile missing from definitions, using built-in settings",
			logging.String(logging.FieldProfile, r.defaultName))
		table[r.defaultName] = builtinDefault(r.defaultName)
		order = append([]string{r.defaultName}, order...)
	}

	r.mu.Lock()
	r.table = table
	r.order = order
	r.mu.Unlock()

	r.logger.Info("profiles loaded", logging.Int("count", len(order)))
	return nil
}

func (r *Registry) loadFile() (map[string]*Profile, []string, error) {
	table := make(map[string]*Profile)
	var order []string

	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			r.logger.Warn("profile definitions file missing", logging.String("path", r.path))
			return table, order, nil
		}
		return nil, nil, fmt.Errorf("read profiles: %w", err)
	}

	var doc struct {
		Profiles []*Profile `toml:"profile"`
	}
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("parse profiles: %w", err)
	}

	for _, p := range doc.Profiles {
		if err := p.validate(); err != nil {
			return nil, nil, err
		}
		if _, ok := table[p.Name]; ok {
			return nil, nil, fmt.Errorf("duplicate profile %q", p.Name)
		}
		if len(order) >= MaxProfiles {
			return nil, nil, fmt.Errorf("too many profiles, limit is %d", MaxProfiles)
		}
		table[p.Name] = p
		order = append(order, p.Name)
	}
	return table, order, nil
}

// Get returns the named profile or ErrNotFound.
func (r *Registry) Get(name string) (*Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.table[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return p, nil
}

// Exists reports whether the named profile is loaded.
func (r *Registry) Exists(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.table[name]
	return ok
}

// Names returns the profile names in definition order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cp := make([]string, len(r.order))
	copy(cp, r.order)
	return cp
}

// Default returns the configured default profile. It is always resolvable.
func (r *Registry) Default() *Profile {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p, ok := r.table[r.defaultName]; ok {
		return p
	}
	return builtinDefault(r.defaultName)
}

// DefaultName returns the configured default profile name.
func (r *Registry) DefaultName() string {
	return r.defaultName
}

// Watch reloads the registry whenever the definitions file changes, until the
// context is canceled. Errors during reload keep the previous set and are
// logged.
func (r *Registry) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	// Watch the directory: editors replace the file, which would drop a
	// watch on the file itself.
	if err := watcher.Add(filepath.Dir(r.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch profiles directory: %w", err)
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Name != r.path {
					continue
				}
				if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) {
					continue
				}
				if err := r.Refresh(); err != nil {
					r.logger.Warn("profile reload failed, keeping previous set", logging.Error(err))
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				r.logger.Warn("profile watcher error", logging.Error(err))
			}
		}
	}()
	return nil
}
