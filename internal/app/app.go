// Package app contains the root application model and service composition.
// The lifecycle service is constructed here, once, and handed down
// explicitly; nothing below this point holds hidden module-level state.
package app

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/opsdeck/opsdeck/internal/config"
	"github.com/opsdeck/opsdeck/internal/infrastructure/sqlite"
	"github.com/opsdeck/opsdeck/internal/insights"
	"github.com/opsdeck/opsdeck/internal/log"
	"github.com/opsdeck/opsdeck/internal/pubsub"
	"github.com/opsdeck/opsdeck/internal/store"
	"github.com/opsdeck/opsdeck/internal/ui/board"
	"github.com/opsdeck/opsdeck/internal/watcher"
	"github.com/opsdeck/opsdeck/internal/workflow"
)

// NewLifecycle builds the workflow service for the configured storage
// backend. Construction failures degrade to the fallback service: the
// application renders either way, creation just fails with a clear reason.
// The returned cleanup must be called on shutdown.
func NewLifecycle(cfg config.Config) (workflow.Lifecycle, func()) {
	noop := func() {}

	switch cfg.Storage.Backend {
	case config.BackendSQLite:
		st, err := sqlite.Open(cfg.StoreDBPath())
		if err != nil {
			return workflow.NewFallback(err), noop
		}
		return workflow.NewService(st), func() { _ = st.Close() }

	default:
		if cfg.Storage.Dir == "" && config.DefaultStoreDir() == "" {
			return workflow.NewFallback(errors.New("no home directory available for workflow store")), noop
		}
		return workflow.NewService(store.NewFileStore(cfg.StoreFilePath())), noop
	}
}

// Model is the root application state.
type Model struct {
	board  board.Model
	width  int
	height int

	watcherHandle *watcher.Watcher
	cancel        context.CancelFunc
}

// NewWithConfig creates the application model: service, broadcast broker,
// store watcher (when auto-refresh is enabled and the file backend is in
// use), insight feed, and the board over all of them.
func NewWithConfig(cfg config.Config, svc workflow.Lifecycle) Model {
	ctx, cancel := context.WithCancel(context.Background())

	broker := pubsub.NewBroker[workflow.Notification]()

	var (
		watcherHandle *watcher.Watcher
		storeBroker   *pubsub.Broker[watcher.StoreChanged]
	)
	if cfg.AutoRefresh && cfg.Storage.Backend != config.BackendSQLite {
		w, err := watcher.New(watcher.Config{
			StorePath:   cfg.StoreFilePath(),
			DebounceDur: cfg.AutoRefreshDebounce,
		})
		if err == nil {
			if err := w.Start(); err == nil {
				watcherHandle = w
				storeBroker = w.Broker()
			} else {
				_ = w.Stop()
			}
		}
		// Watcher init errors are not fatal - the board works without
		// auto-refresh, it just needs a manual 'r'.
		if watcherHandle == nil {
			log.Warn(log.CatWatcher, "Auto-refresh disabled, watcher unavailable")
		}
	}

	var feed *insights.Client
	if cfg.Insights.Endpoint != "" {
		ttl := cfg.Insights.CacheTTL
		if cfg.Insights.DisableCache {
			ttl = 0
		}
		feed = insights.NewClient(cfg.Insights.Endpoint, ttl)
	}

	b := board.New(ctx, svc, broker, storeBroker, feed, board.Options{
		ShowCounts:    cfg.UI.ShowCounts,
		ShowStatusBar: cfg.UI.ShowStatusBar,
		MarkdownStyle: cfg.UI.MarkdownStyle,
	})

	return Model{
		board:         b,
		watcherHandle: watcherHandle,
		cancel:        cancel,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return m.board.Init()
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.WindowSizeMsg); ok {
		m.width = msg.Width
		m.height = msg.Height
	}

	var cmd tea.Cmd
	m.board, cmd = m.board.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m Model) View() string {
	return m.board.View()
}

// Shutdown releases the watcher and cancels listener subscriptions.
// Called by the command layer after the program loop exits.
func (m Model) Shutdown() {
	if m.watcherHandle != nil {
		_ = m.watcherHandle.Stop()
	}
	if m.cancel != nil {
		m.cancel()
	}
}
