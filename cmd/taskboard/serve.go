package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"path/filepath"

	"github.com/labstack/echo/v4"
	"github.com/metalagman/taskboard/internal/board"
	"github.com/metalagman/taskboard/internal/config"
	"github.com/metalagman/taskboard/internal/db"
	"github.com/metalagman/taskboard/internal/task"
	"github.com/metalagman/taskboard/internal/web"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
)

func serveCmd() *cobra.Command {
	var wait bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and web view",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			dataDir := filepath.Dir(cfg.Storage.Path)
			var lock *db.Lock
			if wait {
				lock, err = db.AcquireLock(dataDir, "serve")
				if err != nil {
					return err
				}
			} else {
				var ok bool
				lock, ok, err = db.TryAcquireLock(dataDir, "serve")
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("another taskboard server is running for %s", dataDir)
				}
			}
			defer func() {
				if err := lock.Release(); err != nil {
					log.Warn().Err(err).Msg("release serve lock")
				}
			}()

			app := fx.New(serveOptions(cfg))
			return runApp(cmd.Context(), app)
		},
	}
	cmd.Flags().BoolVar(&wait, "wait", false, "wait for a running server to release the data directory")
	return cmd
}

// serveOptions assembles the server object graph.
func serveOptions(cfg config.Config) fx.Option {
	return fx.Options(
		fx.WithLogger(func() fxevent.Logger { return fxLogger{} }),
		fx.Supply(cfg),
		fx.Provide(
			provideDB,
			provideRepository,
			newFactory,
			newBoard,
			web.NewServer,
			provideEcho,
		),
		fx.Invoke(func(*echo.Echo) {}),
	)
}

func runApp(ctx context.Context, app *fx.App) error {
	if ctx == nil {
		ctx = context.Background()
	}
	startCtx, cancel := context.WithTimeout(ctx, app.StartTimeout())
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		return fmt.Errorf("start server: %w", err)
	}

	select {
	case <-app.Done():
	case <-ctx.Done():
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), app.StopTimeout())
	defer cancel()
	if err := app.Stop(stopCtx); err != nil {
		return fmt.Errorf("stop server: %w", err)
	}
	return nil
}

func provideDB(lc fx.Lifecycle, cfg config.Config) (*sql.DB, error) {
	storeDB, err := db.Open(cfg.Storage.Path)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error { return storeDB.Close() },
	})
	return storeDB, nil
}

func provideRepository(lc fx.Lifecycle, cfg config.Config, storeDB *sql.DB) (task.Repository, error) {
	repo, closeRepo, err := newRepository(cfg, storeDB)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			closeRepo()
			return nil
		},
	})
	return repo, nil
}

func provideEcho(lc fx.Lifecycle, cfg config.Config, srv *web.Server, b *board.Board) *echo.Echo {
	e := srv.Echo()
	e.Server.ReadTimeout = cfg.HTTP.ReadTimeout
	e.Server.WriteTimeout = cfg.HTTP.WriteTimeout
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			// Seed the board before accepting requests.
			if _, err := b.Load(ctx); err != nil {
				return err
			}
			ln, err := net.Listen("tcp", cfg.HTTP.Addr)
			if err != nil {
				return fmt.Errorf("listen %s: %w", cfg.HTTP.Addr, err)
			}
			e.Listener = ln
			go func() {
				if err := e.Start(""); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error().Err(err).Msg("http server stopped")
				}
			}()
			log.Info().Str("addr", ln.Addr().String()).Msg("http server listening")
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return e.Shutdown(ctx)
		},
	})
	return e
}

// fxLogger routes fx lifecycle events to zerolog.
type fxLogger struct{}

func (fxLogger) LogEvent(event fxevent.Event) {
	switch e := event.(type) {
	case *fxevent.OnStartExecuted:
		if e.Err != nil {
			log.Error().Err(e.Err).Str("callee", e.FunctionName).Msg("start hook failed")
			return
		}
		log.Debug().Str("callee", e.FunctionName).Dur("runtime", e.Runtime).Msg("start hook executed")
	case *fxevent.OnStopExecuted:
		if e.Err != nil {
			log.Error().Err(e.Err).Str("callee", e.FunctionName).Msg("stop hook failed")
			return
		}
		log.Debug().Str("callee", e.FunctionName).Dur("runtime", e.Runtime).Msg("stop hook executed")
	case *fxevent.Provided:
		if e.Err != nil {
			log.Error().Err(e.Err).Str("constructor", e.ConstructorName).Msg("provide failed")
		}
	case *fxevent.Invoked:
		if e.Err != nil {
			log.Error().Err(e.Err).Str("function", e.FunctionName).Msg("invoke failed")
		}
	case *fxevent.Started:
		if e.Err != nil {
			log.Error().Err(e.Err).Msg("start failed")
			return
		}
		log.Debug().Msg("server started")
	case *fxevent.Stopped:
		if e.Err != nil {
			log.Error().Err(e.Err).Msg("stop failed")
		}
	}
}
