package deploy

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/reviewapps-dev/san/internal/logging"
)

// Target is the part of a stage that deploy steps drive.
type Target interface {
	Name() string
	// Logger receives the lines the steps log.
	Logger() *logging.StageLogger
	// Deploy pushes revision (or the stage's tag when empty) to the platform.
	Deploy(ctx context.Context, revision string, force bool) error
	Migrate(ctx context.Context) (string, error)
	Restart(ctx context.Context) (string, error)
	WithMaintenance(ctx context.Context, fn func() error) error
}

// Strategy is the sequence of steps a deploy of one stage entails.
type Strategy interface {
	Name() string
	Execute(ctx context.Context, target Target, revision string, force bool) error
}

type Factory func() Strategy

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

const DefaultStrategy = "rails"

func init() {
	Register("base", Base)
	Register("sinatra", Sinatra)
	Register("rails", Rails)
	Register("rails-maintenance", RailsMaintenance)
}

// Register makes a strategy available to stage files under name.
func Register(name string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[normalize(name)] = f
}

// Lookup returns a fresh strategy for ref. Matching is case-insensitive and
// only the last "::" segment is considered, so "HerokuSan::Deploy::Rails"
// selects "rails".
func Lookup(ref string) (Strategy, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := registry[normalize(ref)]
	if !ok {
		return nil, fmt.Errorf("deploy: unknown strategy %q (available: %s)", ref, strings.Join(namesLocked(), ", "))
	}
	return f(), nil
}

func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return namesLocked()
}

func namesLocked() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func normalize(ref string) string {
	ref = strings.TrimSpace(ref)
	if i := strings.LastIndex(ref, "::"); i >= 0 {
		ref = ref[i+2:]
	}
	return strings.ToLower(ref)
}

// Base only pushes the code.
func Base() Strategy {
	return NewPipeline("base", &PushStep{})
}

// Sinatra apps have nothing to do beyond the push.
func Sinatra() Strategy {
	return NewPipeline("sinatra", &PushStep{})
}

// Rails pushes, then migrates, which restarts the app.
func Rails() Strategy {
	return NewPipeline("rails", &PushStep{}, &MigrateStep{})
}

// RailsMaintenance is Rails with the app in maintenance mode for the
// duration of the push and the migration.
func RailsMaintenance() Strategy {
	return NewPipeline("rails-maintenance", &MaintenanceStep{
		Steps: []Step{&PushStep{}, &MigrateStep{}},
	})
}
