// pkg/dialects/registry.go
package dialects

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/chmenegatti/rowbind/pkg/config"
	"github.com/chmenegatti/rowbind/pkg/dialects/common"
)

// ErrUnknownDialect is returned by Open for a dialect nobody registered.
var ErrUnknownDialect = errors.New("unknown dialect")

// DataSourceFactory creates a new, unconnected DataSource for one dialect.
type DataSourceFactory func() common.DataSource

var (
	driversMu sync.RWMutex
	drivers   = make(map[string]DataSourceFactory)
)

// Register makes a data source available under name. Dialect packages call
// it from init. It panics if called twice for the same name or with a nil
// factory.
func Register(name string, factory DataSourceFactory) {
	driversMu.Lock()
	defer driversMu.Unlock()
	if factory == nil {
		panic("dialects: Register factory is nil")
	}
	if _, dup := drivers[name]; dup {
		panic("dialects: Register called twice for driver " + name)
	}
	drivers[name] = factory
}

// Get returns the factory registered under name, or nil.
func Get(name string) DataSourceFactory {
	driversMu.RLock()
	defer driversMu.RUnlock()
	return drivers[name]
}

// RegisteredDrivers returns the registered dialect names, sorted.
func RegisteredDrivers() []string {
	driversMu.RLock()
	defer driversMu.RUnlock()
	list := make([]string, 0, len(drivers))
	for name := range drivers {
		list = append(list, name)
	}
	sort.Strings(list)
	return list
}

// Open creates the data source for cfg.Dialect and connects it. The
// connection attempt is bounded by cfg.ConnectTimeout when set.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (common.DataSource, error) {
	if cfg.Dialect == "" {
		return nil, fmt.Errorf("dialects: no dialect configured: %w", ErrUnknownDialect)
	}
	factory := Get(cfg.Dialect)
	if factory == nil {
		return nil, fmt.Errorf("dialects: %w %q (registered: %v)", ErrUnknownDialect, cfg.Dialect, RegisteredDrivers())
	}
	if logger == nil {
		logger = slog.Default()
	}

	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}

	ds := factory()
	if err := ds.Connect(ctx, cfg); err != nil {
		return nil, fmt.Errorf("dialects: connecting to %s: %w", cfg.Dialect, err)
	}
	logger.Debug("data source connected", "dialect", ds.Name())
	return ds, nil
}
