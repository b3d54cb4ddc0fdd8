package cmd

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"github.com/vidalevel/habits/internal/apiclient"
	"github.com/vidalevel/habits/internal/config"
	"github.com/vidalevel/habits/internal/events"
	"github.com/vidalevel/habits/internal/friends"
	"github.com/vidalevel/habits/internal/habits"
	"github.com/vidalevel/habits/internal/logger"
	"github.com/vidalevel/habits/internal/notify"
	"github.com/vidalevel/habits/internal/session"
	"github.com/vidalevel/habits/internal/stats"
	"github.com/vidalevel/habits/internal/storage"
	"github.com/vidalevel/habits/internal/storage/bolt"
	"github.com/vidalevel/habits/internal/storage/keyring"
	"github.com/vidalevel/habits/internal/tokenstore"
)

// App wires the client components for one CLI invocation.
type App struct {
	Store   storage.Store
	Tokens  *tokenstore.Store
	API     *apiclient.Client
	Bus     *events.Bus
	Notify  *cliNotifier
	Session *session.Manager
	Habits  *habits.Repository
	Stats   *stats.Aggregator
	Friends *friends.Service

	statsCancel context.CancelFunc
	statsDone   chan struct{}
}

// watchStats subscribes the stats aggregator to change events for the rest
// of the invocation and waits for its first refresh.
func (a *App) watchStats(ctx context.Context) error {
	if a.statsDone == nil {
		runCtx, cancel := context.WithCancel(ctx)
		done := make(chan struct{})
		a.statsCancel, a.statsDone = cancel, done
		go func() {
			defer close(done)
			a.Stats.Run(runCtx)
		}()
	}
	return a.Stats.WaitRefresh(ctx, 0)
}

var app *App

func openApp(cmd *cobra.Command) (*App, error) {
	if app != nil {
		return app, nil
	}
	store, err := openStorage(cfg, profile)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	tokens := tokenstore.New(store)
	api := apiclient.New(cfg.APIBaseURL, tokens)
	if cfg.StatsPath != "" {
		api.StatsPath = cfg.StatsPath
	}
	if cfg.Timeout > 0 {
		api.HTTP.Timeout = cfg.Timeout
	}

	n := &cliNotifier{Writer: notify.NewWriter(cmd.OutOrStdout(), cmd.ErrOrStderr())}
	bus := events.New()
	sess := session.New(api, tokens, bus, n)
	app = &App{
		Store:   store,
		Tokens:  tokens,
		API:     api,
		Bus:     bus,
		Notify:  n,
		Session: sess,
		Habits:  habits.New(api, sess, bus, n),
		Stats:   stats.New(api, sess, bus, n),
		Friends: friends.New(api, sess, n),
	}
	return app, nil
}

func openStorage(c *config.Config, profile string) (storage.Store, error) {
	switch c.Storage.Backend {
	case "keyring":
		return keyring.New(profile), nil
	case "memory":
		return storage.NewMemory(), nil
	default:
		s, err := bolt.Open(c.Storage.Path, profile)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

func closeApp() {
	if app == nil {
		return
	}
	if app.statsCancel != nil {
		app.statsCancel()
		<-app.statsDone
	}
	app.Habits.Close()
	app.Stats.Close()
	if err := app.Store.Close(); err != nil {
		logger.Warn("Failed to close storage", "error", err)
	}
	app = nil
}

// cliNotifier remembers the errors it printed so they are not repeated when
// the command exits.
type cliNotifier struct {
	*notify.Writer
	mu     sync.Mutex
	errors map[string]bool
}

func (n *cliNotifier) Error(msg string) {
	n.mu.Lock()
	if n.errors == nil {
		n.errors = map[string]bool{}
	}
	n.errors[msg] = true
	n.mu.Unlock()
	n.Writer.Error(msg)
}

// shown also matches a printed message that ends with msg as its cause.
func (n *cliNotifier) shown(msg string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.errors[msg] {
		return true
	}
	for printed := range n.errors {
		if strings.HasSuffix(printed, ": "+msg) {
			return true
		}
	}
	return false
}

// requireSession fails fast with the same error the components return.
func requireSession(a *App) error {
	if !a.Session.IsAuthenticated() {
		return habits.ErrAuthRequired
	}
	return nil
}
