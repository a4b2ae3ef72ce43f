package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/viper"

	"github.com/Deepanshu954/TodoFlow/internal/credential"
	"github.com/Deepanshu954/TodoFlow/internal/model"
	"github.com/Deepanshu954/TodoFlow/internal/remote"
	"github.com/Deepanshu954/TodoFlow/internal/service"
	"github.com/Deepanshu954/TodoFlow/internal/session"
	"github.com/Deepanshu954/TodoFlow/internal/store"
)

// runtime is everything a command needs to work on tasks.
type runtime struct {
	cfg      *model.AppConfig
	log      *slog.Logger
	slot     *store.SQLiteSlot
	marker   *store.GuestMarker
	sessions *session.Provider
	tasks    *service.TaskService
}

func loadConfig() (*model.AppConfig, error) {
	cfg, err := model.LoadConfig(viper.GetString("config"))
	if err != nil {
		return nil, err
	}
	if lvl := viper.GetString("log-level"); lvl != "" {
		cfg.Log.Level = lvl
	}
	return cfg, nil
}

func newLogger(cfg *model.AppConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// openRuntime wires storage, session and service, then resumes the last
// session. Outcomes of service operations go to notify.
func openRuntime(ctx context.Context, logOut io.Writer, notify service.Notifier) (*runtime, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	log := newLogger(cfg, logOut)
	slog.SetDefault(log)

	slot, err := store.NewSQLiteSlot(cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("opening local storage: %w", err)
	}

	guest := store.NewLocalStore(slot, cfg.Storage.Slot, store.WithLogger(log))
	client := remote.NewClient(cfg.Remote.BaseURL, cfg.Remote.APIKey, time.Duration(cfg.Remote.TimeoutSec)*time.Second)
	provider := session.NewProvider(remote.NewAuthClient(client), credential.NewKeyring(), session.WithLogger(log))

	if notify == nil {
		notify = service.LogNotifier{Log: log}
	}
	svc := service.New(provider, service.Backends{
		Guest: guest,
		Remote: func(id session.Identity) store.Backend {
			return remote.NewStore(client.WithToken(id.AccessToken))
		},
	}, service.WithNotifier(notify), service.WithQuery(cfg.DefaultQuery()))

	rt := &runtime{
		cfg:      cfg,
		log:      log,
		slot:     slot,
		marker:   store.NewGuestMarker(slot),
		sessions: provider,
		tasks:    svc,
	}
	rt.restore(ctx)
	return rt, nil
}

// restore resumes a stored account session, falling back to guest mode
// when that was the last choice. Load failures were already reported.
func (rt *runtime) restore(ctx context.Context) {
	st, err := rt.sessions.Restore(ctx)
	if err != nil {
		rt.log.Debug("initial load failed", "err", err)
	}
	if st.Mode != session.ModeUnset {
		return
	}

	guest, err := rt.marker.IsSet(ctx)
	if err != nil {
		rt.log.Warn("reading guest marker", "err", err)
		return
	}
	if guest {
		if _, err := rt.sessions.SkipAuth(ctx); err != nil {
			rt.log.Debug("initial load failed", "err", err)
		}
	}
}

func (rt *runtime) Close() {
	rt.tasks.Close()
	if err := rt.slot.Close(); err != nil {
		rt.log.Warn("closing local storage", "err", err)
	}
}

// withRuntime runs fn with a runtime whose notifications go to stderr.
func withRuntime(ctx context.Context, fn func(ctx context.Context, rt *runtime) error) error {
	rt, err := openRuntime(ctx, os.Stderr, cliNotifier())
	if err != nil {
		return err
	}
	defer rt.Close()
	return fn(ctx, rt)
}

// cliNotifier prints successes to stderr. Failures are returned to cobra
// as errors, so they are not printed twice.
func cliNotifier() service.Notifier {
	return service.NotifierFunc(func(msg string, err error, ok bool) {
		if ok {
			fmt.Fprintln(os.Stderr, msg)
		}
	})
}
