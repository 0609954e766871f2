package app

import (
	"notewire/internal/domain"
	"notewire/internal/relay"
	"notewire/internal/services/identity"
	syncsvc "notewire/internal/services/sync"
	"notewire/internal/store"
)

// App bundles the engine's components for a host.
type App struct {
	Identity *identity.Service
	Pool     *relay.Pool
	Sync     *syncsvc.Engine
	Notebook *store.Notebook
}

// New constructs the dependency graph from cfg and restores the persisted
// identity state.
func New(cfg Config) (*App, error) {
	cfg = cfg.withDefaults()

	notebook, err := store.OpenNotebook(cfg.Home)
	if err != nil {
		return nil, err
	}
	idStore := store.NewIdentityFileStore(cfg.Home)

	pool := relay.New(cfg.Dialer, cfg.Settings, cfg.Notifier, cfg.Logger)
	ids := identity.New(idStore, pool, cfg.Settings, cfg.Notifier, cfg.Clock, cfg.Logger)
	pool.OnActivity(ids.Touch)

	engine := syncsvc.New(ids, pool, notebook, notebook, cfg.Notifier, cfg.Logger)

	if err := ids.Restore(); err != nil {
		_ = notebook.Close()
		return nil, err
	}

	return &App{
		Identity: ids,
		Pool:     pool,
		Sync:     engine,
		Notebook: notebook,
	}, nil
}

// Close locks the identity, disconnects the pool, and releases storage.
// Key material does not outlive the process.
func (a *App) Close() error {
	a.Identity.Lock(domain.LockManual)
	return a.Notebook.Close()
}
