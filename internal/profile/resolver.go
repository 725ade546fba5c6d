package profile

import (
	"fmt"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/seclyra/veil/internal/logger"
)

// profileFile is the on-disk shape of the profiles YAML file.
type profileFile struct {
	Version  int                `yaml:"version" mapstructure:"version"`
	Profiles map[string]Profile `yaml:"profiles" mapstructure:"profiles"`
}

// Resolver loads named profiles from a YAML file and resolves them against
// the built-in default. Load failures are never surfaced to callers; they
// degrade to the built-in default profile.
type Resolver struct {
	path   string
	logger *logger.Logger

	mu       sync.RWMutex
	loaded   bool
	profiles map[string]Profile
}

// NewResolver creates a resolver for the given profiles file. The file is
// read lazily on first Resolve.
func NewResolver(path string, log *logger.Logger) *Resolver {
	return &Resolver{
		path:   path,
		logger: log.WithComponent("profiles"),
	}
}

// Resolve returns the named profile merged over the built-in default. An
// empty or unknown name yields the default profile (merged with the file's
// "default" entry when one exists).
func (r *Resolver) Resolve(name string) Profile {
	if name == "" {
		name = DefaultName
	}

	r.ensureLoaded()

	r.mu.RLock()
	defer r.mu.RUnlock()

	override, ok := r.profiles[name]
	if !ok {
		if name != DefaultName {
			r.logger.Warn("Unknown profile, using default", zap.String("profile", name))
			override, ok = r.profiles[DefaultName]
		}
		if !ok {
			return Default()
		}
	}

	return Merge(Default(), override)
}

// Names returns the names of all profiles available from the file.
func (r *Resolver) Names() []string {
	r.ensureLoaded()

	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.profiles))
	for name := range r.profiles {
		names = append(names, name)
	}
	return names
}

// ensureLoaded performs the lazy first load.
func (r *Resolver) ensureLoaded() {
	r.mu.RLock()
	loaded := r.loaded
	r.mu.RUnlock()
	if loaded {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.loaded {
		return
	}

	profiles, err := r.loadFile()
	if err != nil {
		r.logger.Warn("Failed to load profiles, using built-in default",
			zap.String("path", r.path),
			zap.Error(err),
		)
		profiles = map[string]Profile{}
	} else {
		r.logger.Info("Profiles loaded",
			zap.String("path", r.path),
			zap.Int("count", len(profiles)),
		)
	}
	r.profiles = profiles
	r.loaded = true
}

// loadFile reads and parses the profiles YAML file.
func (r *Resolver) loadFile() (map[string]Profile, error) {
	v := viper.New()
	v.SetConfigFile(r.path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read profiles file: %w", err)
	}

	var file profileFile
	if err := v.Unmarshal(&file); err != nil {
		return nil, fmt.Errorf("failed to unmarshal profiles file: %w", err)
	}

	if len(file.Profiles) == 0 {
		return nil, fmt.Errorf("no profiles found in %s", r.path)
	}

	return file.Profiles, nil
}

// Watch reloads the profiles file whenever it changes on disk. Reload
// failures keep the previously loaded profiles.
func (r *Resolver) Watch() {
	v := viper.New()
	v.SetConfigFile(r.path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		// Nothing to watch until the file exists.
		r.logger.Debug("Profiles file not watchable", zap.Error(err))
		return
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		profiles, err := r.loadFile()
		if err != nil {
			r.logger.Warn("Profile reload failed, keeping previous profiles", zap.Error(err))
			return
		}

		r.mu.Lock()
		r.profiles = profiles
		r.loaded = true
		r.mu.Unlock()

		r.logger.Info("Profiles reloaded",
			zap.String("event", e.Name),
			zap.Int("count", len(profiles)),
		)
	})
	v.WatchConfig()
}
