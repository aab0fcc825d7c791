// Command authctl inspects and manages the local session kept by the offline auth manager:
// the signed-in identity, session storage mode, security status and user preferences.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/offlineauth/pkg/async"
	"github.com/dmitrymomot/offlineauth/pkg/broadcast"
	"github.com/dmitrymomot/offlineauth/pkg/config"
	"github.com/dmitrymomot/offlineauth/pkg/credstore"
	"github.com/dmitrymomot/offlineauth/pkg/logger"
	"github.com/dmitrymomot/offlineauth/pkg/records"
	"github.com/dmitrymomot/offlineauth/svc/auth"
)

var errOffline = errors.New("authctl: remote operations are not available")

type rootOptions struct {
	envFile  string
	backend  string
	dbPath   string
	redisURL string
	passcode string
	verbose  bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "authctl",
		Short:         "Inspect and manage the local auth session",
		Long:          "authctl reads the local credential store, restores the session and reports or changes its state.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", "", "Load environment variables from this file")
	cmd.PersistentFlags().StringVarP(&opts.backend, "backend", "b", "", "Credential store backend: sqlite, redis or memory (default: $CREDSTORE_BACKEND)")
	cmd.PersistentFlags().StringVarP(&opts.dbPath, "db", "d", "", "SQLite database path (default: $CREDSTORE_SQLITE_PATH)")
	cmd.PersistentFlags().StringVar(&opts.redisURL, "redis-url", "", "Redis connection URL (default: $REDIS_URL)")
	cmd.PersistentFlags().StringVarP(&opts.passcode, "passcode", "p", "", "Local passcode used to unlock encrypted items")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log debug output to stderr")

	cmd.AddCommand(
		newStatusCmd(opts),
		newSignOutCmd(opts),
		newModeCmd(opts),
		newPrefsCmd(opts),
	)
	return cmd
}

// app is one restored session.
type app struct {
	durable *credstore.Durable
	store   *credstore.Store
	bus     *broadcast.Bus
	manager *auth.Manager
	logger  *slog.Logger
}

func openApp(cmd *cobra.Command, opts *rootOptions) (*app, error) {
	ctx := cmd.Context()
	if opts.envFile != "" {
		if err := config.LoadEnv(opts.envFile); err != nil {
			return nil, err
		}
	}

	var logCfg logger.Config
	if err := config.Load(&logCfg); err != nil {
		return nil, err
	}
	logOpts := append(logger.FromConfig(logCfg),
		logger.WithOutput(cmd.ErrOrStderr()),
		logger.WithContextExtractors(auth.LogUserExtractor),
	)
	if opts.verbose {
		logOpts = append(logOpts, logger.WithLevel(slog.LevelDebug))
	} else {
		logOpts = append(logOpts, logger.WithLevel(slog.LevelWarn))
	}
	log := logger.New(logOpts...)

	var storeCfg credstore.Config
	if err := config.Load(&storeCfg); err != nil {
		return nil, err
	}
	if opts.backend != "" {
		storeCfg.Backend = opts.backend
	}
	if opts.dbPath != "" {
		storeCfg.SQLitePath = opts.dbPath
	}
	if opts.redisURL != "" {
		storeCfg.Redis.ConnectionURL = opts.redisURL
	}

	var authCfg auth.Config
	if err := config.Load(&authCfg); err != nil {
		return nil, err
	}

	durable, err := credstore.OpenDurable(ctx, storeCfg)
	if err != nil {
		return nil, err
	}
	a := &app{durable: durable, logger: log}

	a.store, err = credstore.Open(ctx, durable.Backend,
		credstore.WithPlainKeys(auth.ItemEphemeral),
		credstore.WithLogger(log),
	)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	if opts.passcode != "" {
		if err := a.store.Unlock(ctx, opts.passcode); err != nil {
			_ = a.Close()
			return nil, err
		}
	}

	var durableSet records.Set
	switch {
	case durable.DB != nil:
		if durableSet, err = records.NewSQLiteSet(ctx, durable.DB); err != nil {
			_ = a.Close()
			return nil, err
		}
	case durable.Redis != nil:
		durableSet = records.NewRedisSet(durable.Redis, storeCfg.RecordsPrefix)
	default:
		durableSet = records.NewMemorySet()
	}
	set := records.NewModalSet(a.store, records.NewMemorySet(), durableSet)

	a.bus = broadcast.NewBus(broadcast.WithBusLogger(log))
	a.manager, err = auth.New(a.store, offlineTransport{}, set,
		auth.WithNotifier(a.bus),
		auth.WithAlerter(auth.NewBusAlerter(a.bus, log)),
		auth.WithSyncer(records.NewBusSyncer(a.bus, log)),
		auth.WithConfig(authCfg),
		auth.WithLogger(log),
	)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	if err := a.manager.Restore(ctx); err != nil {
		_ = a.Close()
		if errors.Is(err, credstore.ErrLocked) {
			return nil, fmt.Errorf("%w: pass --passcode", err)
		}
		return nil, err
	}
	return a, nil
}

func (a *app) Close() error {
	if a.bus != nil {
		_ = a.bus.Close()
	}
	if a.store != nil {
		a.store.Lock()
	}
	return a.durable.Close()
}

// withApp opens the session, runs fn and closes the session.
func withApp(opts *rootOptions, fn func(ctx context.Context, cmd *cobra.Command, a *app) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		a, err := openApp(cmd, opts)
		if err != nil {
			return err
		}
		defer a.Close()
		return fn(cmd.Context(), cmd, a)
	}
}

func printJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

// offlineTransport rejects every remote exchange. authctl only manages local state.
type offlineTransport struct{}

func (offlineTransport) Login(context.Context, auth.LoginRequest) *async.Future[*auth.Response] {
	return async.Rejected[*auth.Response](errOffline)
}

func (offlineTransport) Register(context.Context, auth.RegisterRequest) *async.Future[*auth.Response] {
	return async.Rejected[*auth.Response](errOffline)
}

func (offlineTransport) ChangePassword(context.Context, auth.ChangePasswordRequest) *async.Future[*auth.Response] {
	return async.Rejected[*auth.Response](errOffline)
}

func (offlineTransport) AuthParamsForEmail(context.Context, string, string) *async.Future[auth.AuthParams] {
	return async.Rejected[auth.AuthParams](errOffline)
}
