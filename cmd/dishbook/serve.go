package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/foodielens/dishbook/internal/infra/providers"
	"github.com/foodielens/dishbook/internal/infra/telemetry"
	"github.com/foodielens/dishbook/internal/interface/rest"
)

func newServeCommand(rootOpts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), rootOpts)
		},
	}
}

func serve(ctx context.Context, opts *rootOptions) error {
	conf, err := opts.load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if conf.Trace.Enable {
		shutdown, err := telemetry.Setup(ctx, conf.Trace.Endpoint, conf.Trace.ServiceName)
		if err != nil {
			return err
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(ctx); err != nil {
				slog.Warn("trace shutdown failed", slog.String("error", err.Error()))
			}
		}()
	}

	app, err := providers.NewApp(ctx, conf)
	if err != nil {
		return err
	}
	defer app.Close()

	var sub rest.Subscriber
	if app.Signal != nil {
		sub = app.Signal
	}

	e := echo.New()
	e.HideBanner = true
	if conf.Trace.Enable {
		e.Use(otelecho.Middleware(conf.Trace.ServiceName))
	}
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	rest.NewHandler(app.Submissions, app.Records, app.Assets, sub, conf.Submission.MaxImageBytes).RegisterRoutes(e)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("listening", slog.String("addr", conf.Server.Addr), slog.String("module", "main"))
		errCh <- e.Start(conf.Server.Addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

