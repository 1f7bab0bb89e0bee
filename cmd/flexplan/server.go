package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"flex.onebusaway.org/internal/app"
	"flex.onebusaway.org/internal/logging"
	"flex.onebusaway.org/internal/restapi"
	"flex.onebusaway.org/internal/webui"
)

const shutdownTimeout = 10 * time.Second

// CreateServer wires the API and debug routes behind the middleware chain.
// The caller must Shutdown the returned RestAPI.
func CreateServer(application *app.Application) (*http.Server, *restapi.RestAPI) {
	api := restapi.NewRestAPI(application)

	mux := http.NewServeMux()
	api.SetRoutes(mux)
	(&webui.WebUI{Application: application}).SetWebUIRoutes(mux)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", application.Config.Server.Port),
		Handler:      api.Handler(mux),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		ErrorLog:     slog.NewLogLogger(application.Logger.Handler(), slog.LevelError),
	}
	return srv, api
}

// Run serves on listener until ctx is done, then drains in-flight requests.
func Run(ctx context.Context, srv *http.Server, listener net.Listener, logger *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server_started", slog.String("addr", listener.Addr().String()))
		errCh <- srv.Serve(listener)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	logger.Info("server_stopped")
	return nil
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "serve flex trip planning over HTTP",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "port", Usage: "listen port; overrides server.port from the config file"},
		},
		Action: func(c *cli.Context) error {
			return withApplication(c, func(application *app.Application) error {
				if c.IsSet("port") {
					application.Config.Server.Port = c.Int("port")
				}
				srv, api := CreateServer(application)
				defer api.Shutdown()

				listener, err := net.Listen("tcp", srv.Addr)
				if err != nil {
					return fmt.Errorf("failed to listen on %s: %w", srv.Addr, err)
				}

				ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
				defer stop()
				return Run(ctx, srv, listener, logging.Component(application.Logger, "http_server"))
			})
		},
	}
}
